package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	auth := NewAuthService(users, tokens.NewService(jwtConfig()), &fakeMailer{}, "http://api.test", discardLogger())
	svc := NewUserService(users, &fakeImageStore{}, discardLogger())
	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Old!passw0rd")
	id := alice.ID.Hex()

	err := svc.ChangePassword(ctx, id, ChangePasswordInput{Password: "wrong", NewPassword: "N3w!password", ConfirmPassword: "N3w!password"})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.ChangePassword(ctx, id, ChangePasswordInput{Password: "Old!passw0rd", NewPassword: "N3w!password", ConfirmPassword: "nope!nope1"})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, id, ChangePasswordInput{
		Password:        "Old!passw0rd",
		NewPassword:     "N3w!password",
		ConfirmPassword: "N3w!password",
	}))

	_, err = auth.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "Old!passw0rd"})
	var ipe *models.IncorrectPasswordError
	assert.ErrorAs(t, err, &ipe)

	_, err = auth.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "N3w!password"})
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	images := &fakeImageStore{}
	svc := NewUserService(users, images, discardLogger())
	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Sup3r!secret")
	bob := users.seed(t, "Bob Builder", "bob@example.com", "0244000002", "Sup3r!secret")

	p, err := svc.UpdateProfile(ctx, alice.ID.Hex(), ProfileInput{
		Username:  models.StringPtr("AliceW"),
		ImagePath: "/tmp/upload-1.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "alicew", p.Username)
	require.NotNil(t, p.Profile)
	assert.Equal(t, "talknet/avatars/1", p.Profile.PublicID)
	assert.Empty(t, images.destroyed)

	p, err = svc.UpdateProfile(ctx, alice.ID.Hex(), ProfileInput{ImagePath: "/tmp/upload-2.png"})
	require.NoError(t, err)
	assert.Equal(t, "talknet/avatars/2", p.Profile.PublicID)
	assert.Equal(t, []string{"talknet/avatars/1"}, images.destroyed, "old image is replaced")
	assert.Equal(t, "alicew", p.Username, "absent fields keep their value")

	_, err = svc.UpdateProfile(ctx, bob.ID.Hex(), ProfileInput{
		Username:  models.StringPtr("alicew"),
		ImagePath: "/tmp/upload-3.png",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, images.destroyed, "talknet/avatars/3", "upload is rolled back on conflict")

	_, err = svc.UpdateProfile(ctx, bob.ID.Hex(), ProfileInput{Username: models.StringPtr("a!")})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.UpdateProfile(ctx, bob.ID.Hex(), ProfileInput{Username: models.StringPtr("0244000002")})
	assert.ErrorIs(t, err, models.ErrValidation, "an all-digit username would be read as a phone number at login")

	for _, phone := range []string{"12ab", "+233244000001", "0244.000001"} {
		_, err = svc.UpdateProfile(ctx, bob.ID.Hex(), ProfileInput{PhoneNumber: models.StringPtr(phone)})
		assert.ErrorIs(t, err, models.ErrValidation, phone)
	}

	images.uploadErr = errors.New("cloud down")
	_, err = svc.UpdateProfile(ctx, bob.ID.Hex(), ProfileInput{ImagePath: "/tmp/upload-4.png"})
	assert.Error(t, err)
}

func TestUserQueries(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	svc := NewUserService(users, &fakeImageStore{}, discardLogger())
	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Sup3r!secret")
	users.seed(t, "Bob Builder", "bob@example.com", "0244000002", "Sup3r!secret")
	admin := users.seed(t, "Ada Admin", "ada@example.com", "0244000003", "Sup3r!secret")
	users.mu.Lock()
	users.users[admin.ID.Hex()].Role = models.RoleAdmin
	users.mu.Unlock()

	list, err := svc.ListUsers(ctx, alice.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob Builder", list[0].Fullname)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := svc.SearchUsers(ctx, alice.ID.Hex(), "builder")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob Builder", found[0].Fullname)

	got, err := svc.GetUser(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Alice Wonder", got.Fullname)

	_, err = svc.GetUser(ctx, "65f0c0ffee0000000000000a")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
