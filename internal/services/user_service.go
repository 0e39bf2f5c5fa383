package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/models"
)

type ChangePasswordInput struct {
	Password        string `json:"password" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ProfileInput carries the optional fields of a profile update.
type ProfileInput struct {
	Username    *string
	PhoneNumber *string
	// ImagePath is a local file staged by the caller; the caller removes it.
	ImagePath string
}

type UserService struct {
	userRepo models.UserRepo
	images   helpers.ImageStore
	logger   *slog.Logger
}

func NewUserService(userRepo models.UserRepo, images helpers.ImageStore, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		images:   images,
		logger:   logger,
	}
}

func (us *UserService) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Public()
	return &p, nil
}

// ListUsers returns regular users other than the caller.
func (us *UserService) ListUsers(ctx context.Context, callerID string) ([]models.UserProfile, error) {
	if _, err := us.userRepo.FindByID(ctx, callerID); err != nil {
		return nil, err
	}
	users, err := us.userRepo.ListUsers(ctx, callerID, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return publicProfiles(users), nil
}

// ListAll returns every account regardless of role.
func (us *UserService) ListAll(ctx context.Context) ([]*models.User, error) {
	return us.userRepo.ListUsers(ctx, "", "")
}

func (us *UserService) SearchUsers(ctx context.Context, callerID, query string) ([]models.UserProfile, error) {
	users, err := us.userRepo.SearchUsers(ctx, query, callerID)
	if err != nil {
		return nil, err
	}
	return publicProfiles(users), nil
}

// ChangePassword requires the current password. The stored refresh token is
// kept so the caller's session survives.
func (us *UserService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := models.Validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CheckPassword(user.Password, in.Password) {
		return models.ValidationError("incorrect password")
	}
	if in.NewPassword != in.ConfirmPassword {
		return models.ValidationError("passwords do not match")
	}
	if _, err := us.userRepo.UpdateUser(ctx, userID, models.UserPatch{Password: models.StringPtr(in.NewPassword)}); err != nil {
		return err
	}
	us.logger.Info("password changed", "user_id", userID)
	return nil
}

// UpdateProfile sets the username, phone number and profile image. A new
// image replaces the old one in storage only after the user record is saved.
func (us *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.UserProfile, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch := models.UserPatch{}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := models.Validate.Var(name, "required,alphanum,min=3,max=30"); err != nil {
			return nil, models.ValidationError("username must be 3-30 letters or digits")
		}
		if kind, _ := helpers.ClassifyIdentifier(name); kind == helpers.ByPhone {
			return nil, models.ValidationError("username must contain a letter")
		}
		patch.Username = &name
	}
	if in.PhoneNumber != nil {
		phone := strings.TrimSpace(*in.PhoneNumber)
		if err := models.Validate.Var(phone, "required,number,min=7,max=15"); err != nil {
			return nil, models.ValidationError("phone number must be 7-15 digits")
		}
		patch.PhoneNumber = &phone
	}

	var uploaded *helpers.UploadedImage
	if in.ImagePath != "" {
		uploaded, err = us.images.Upload(ctx, in.ImagePath)
		if err != nil {
			return nil, err
		}
		patch.Profile = &models.ProfileImage{URL: uploaded.URL, PublicID: uploaded.PublicID}
	}

	updated, err := us.userRepo.UpdateUser(ctx, userID, patch)
	if err != nil {
		if uploaded != nil {
			us.destroyImage(ctx, userID, uploaded.PublicID)
		}
		return nil, err
	}
	if uploaded != nil && user.Profile != nil {
		us.destroyImage(ctx, userID, user.Profile.PublicID)
	}

	p := updated.Public()
	return &p, nil
}

func (us *UserService) destroyImage(ctx context.Context, userID, publicID string) {
	if err := us.images.Destroy(ctx, publicID); err != nil {
		us.logger.Warn("failed to delete profile image", "user_id", userID, "public_id", publicID, "error", err)
	}
}

func publicProfiles(users []*models.User) []models.UserProfile {
	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
