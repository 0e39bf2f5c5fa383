package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/joshua-takyi/talknet/internal/helpers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error)
	DecrementLoginAttempt(ctx context.Context, id string) (int, error)
	ListUsers(ctx context.Context, excludeID, role string) ([]*User, error)
	SearchUsers(ctx context.Context, query, excludeID string) ([]*User, error)
}

// ParseID converts a hex id, reporting malformed input as a validation error.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ValidationError("invalid id %q", id)
	}
	return oid, nil
}

// CreateUser hashes the password and inserts the user. Duplicate email,
// phone or username surfaces as ErrConflict.
func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.BeforeCreate()
	if err := Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := helpers.HashPassword(user.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user.Password = hash

	if _, err := col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("user with provided email or phone number: %w", ErrConflict)
		}
		return nil, fmt.Errorf("error inserting user: %w", err)
	}
	return user, nil
}

func (mdb *MongodbRepo) findOneUser(ctx context.Context, filter bson.M) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var user User
	if err := col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &user, nil
}

func (mdb *MongodbRepo) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return mdb.findOneUser(ctx, bson.M{"_id": oid})
}

func (mdb *MongodbRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return mdb.findOneUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindByIdentifier resolves an email, phone number or username.
func (mdb *MongodbRepo) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	kind, value := helpers.ClassifyIdentifier(identifier)
	if value == "" {
		return nil, ValidationError("identifier is required")
	}
	switch kind {
	case helpers.ByEmail:
		return mdb.findOneUser(ctx, bson.M{"email": value})
	case helpers.ByPhone:
		return mdb.findOneUser(ctx, bson.M{"phone_number": value})
	default:
		return mdb.findOneUser(ctx, bson.M{"username": value})
	}
}

func (mdb *MongodbRepo) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(strings.TrimSpace(email))},
		bson.M{"phone_number": strings.TrimSpace(phone)},
	}}
	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error counting users: %w", err)
	}
	return n > 0, nil
}

// UpdateUser merges the non-nil fields of patch into the stored user and
// returns the updated document. A new password is hashed before storage.
func (mdb *MongodbRepo) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if patch.Username != nil {
		set["username"] = strings.ToLower(strings.TrimSpace(*patch.Username))
	}
	if patch.PhoneNumber != nil {
		set["phone_number"] = strings.TrimSpace(*patch.PhoneNumber)
	}
	if patch.Password != nil {
		hash, err := helpers.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		set["password"] = hash
	}
	if patch.Profile != nil {
		set["profile"] = patch.Profile
	}
	if patch.IsVerified != nil {
		set["is_verified"] = *patch.IsVerified
	}
	if patch.IsLoggedIn != nil {
		set["is_logged_in"] = *patch.IsLoggedIn
	}
	if patch.LoginAttempt != nil {
		set["login_attempt"] = *patch.LoginAttempt
	}
	if patch.RefreshTokenHash != nil {
		if *patch.RefreshTokenHash == "" {
			unset["refresh_token_hash"] = ""
		} else {
			set["refresh_token_hash"] = *patch.RefreshTokenHash
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	if err := col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("user with provided username or phone number: %w", ErrConflict)
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return &user, nil
}

// DecrementLoginAttempt lowers the counter by one in a single atomic update
// and returns what remains. The counter never goes below zero.
func (mdb *MongodbRepo) DecrementLoginAttempt(ctx context.Context, id string) (int, error) {
	oid, err := ParseID(id)
	if err != nil {
		return 0, err
	}
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": oid, "login_attempt": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"login_attempt": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"login_attempt": 1})

	var user User
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("error decrementing login attempts: %w", err)
	}
	return user.LoginAttempt, nil
}

// ListUsers returns every user with the given role except excludeID.
func (mdb *MongodbRepo) ListUsers(ctx context.Context, excludeID, role string) ([]*User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	if excludeID != "" {
		oid, err := ParseID(excludeID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	return mdb.findUsers(ctx, filter)
}

// SearchUsers matches a username exactly or any word of the fullname,
// case-insensitively.
func (mdb *MongodbRepo) SearchUsers(ctx context.Context, query, excludeID string) ([]*User, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ValidationError("search term is required")
	}
	quoted := regexp.QuoteMeta(q)
	filter := bson.M{"$or": bson.A{
		bson.M{"username": strings.ToLower(q)},
		bson.M{"fullname": primitive.Regex{Pattern: `(^|\s)` + quoted + `(\s|$)`, Options: "i"}},
	}}
	if excludeID != "" {
		oid, err := ParseID(excludeID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	return mdb.findUsers(ctx, filter)
}

func (mdb *MongodbRepo) findUsers(ctx context.Context, filter bson.M) ([]*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "fullname", Value: 1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*User, 0)
	for cursor.Next(ctx) {
		var u User
		if err := cursor.Decode(&u); err != nil {
			return nil, fmt.Errorf("error decoding user: %w", err)
		}
		users = append(users, &u)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return users, nil
}
