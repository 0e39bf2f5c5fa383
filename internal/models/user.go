package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// MaxLoginAttempts is the counter value after registration and after any
	// successful login or password reset.
	MaxLoginAttempts = 4
)

type ProfileImage struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"publicId"`
}

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Fullname         string             `bson:"fullname" json:"fullname" validate:"required"`
	Username         string             `bson:"username,omitempty" json:"username,omitempty"`
	Email            string             `bson:"email" json:"email" validate:"required,email"`
	Password         string             `bson:"password" json:"-" validate:"required"`
	PhoneNumber      string             `bson:"phone_number" json:"phoneNumber" validate:"required,number"`
	Profile          *ProfileImage      `bson:"profile,omitempty" json:"profile,omitempty"`
	Role             string             `bson:"role" json:"role" validate:"oneof=user admin"`
	IsVerified       bool               `bson:"is_verified" json:"isVerified"`
	IsLoggedIn       bool               `bson:"is_logged_in" json:"isLoggedIn"`
	LoginAttempt     int                `bson:"login_attempt" json:"loginAttempt"`
	RefreshTokenHash string             `bson:"refresh_token_hash,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}

// UserPatch is a partial update. Nil fields keep their stored value.
type UserPatch struct {
	Username         *string
	PhoneNumber      *string
	Password         *string
	Profile          *ProfileImage
	IsVerified       *bool
	IsLoggedIn       *bool
	LoginAttempt     *int
	RefreshTokenHash *string
}

// UserProfile is the projection returned to clients after login and from
// user lookups.
type UserProfile struct {
	ID          string        `json:"_id"`
	Fullname    string        `json:"fullname"`
	Username    string        `json:"username,omitempty"`
	PhoneNumber string        `json:"phoneNumber"`
	Profile     *ProfileImage `json:"profile,omitempty"`
	Role        string        `json:"role"`
}

func (u *User) BeforeCreate() {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LoginAttempt = MaxLoginAttempts
	u.IsVerified = false
	u.IsLoggedIn = false
}

func (u *User) Public() UserProfile {
	return UserProfile{
		ID:          u.ID.Hex(),
		Fullname:    u.Fullname,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		Profile:     u.Profile,
		Role:        u.Role,
	}
}

func StringPtr(s string) *string { return &s }
func BoolPtr(b bool) *bool       { return &b }
func IntPtr(i int) *int          { return &i }
