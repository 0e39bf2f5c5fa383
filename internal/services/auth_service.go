package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/mailer"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/tokens"
)

// Mailer accepts rendered emails for asynchronous delivery.
type Mailer interface {
	Enqueue(email mailer.Email) error
}

type RegisterInput struct {
	Fullname        string `json:"fullname" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,number,min=7,max=15"`
}

type ResetPasswordInput struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Session is the outcome of a successful verify, login or refresh.
type Session struct {
	Tokens *tokens.TokenPair
	User   *models.User
}

// LinkOutcome tells the caller whether a token link was consumed or a fresh
// link was mailed because the presented one had expired.
type LinkOutcome int

const (
	LinkConsumed LinkOutcome = iota
	LinkResent
)

type AuthService struct {
	users   models.UserRepo
	tokens  *tokens.Service
	mail    Mailer
	baseURL string
	logger  *slog.Logger
}

func NewAuthService(users models.UserRepo, tokenSvc *tokens.Service, mail Mailer, baseURL string, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokenSvc,
		mail:    mail,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Register creates an unverified account and queues the verification email.
func (as *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if in.Password != in.ConfirmPassword {
		return nil, models.ValidationError("passwords do not match")
	}
	fullname, err := helpers.FormatFullname(in.Fullname)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	exists, err := as.users.ExistsByEmailOrPhone(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("user with provided email or phone number: %w", models.ErrConflict)
	}

	user, err := as.users.CreateUser(ctx, &models.User{
		Fullname:    fullname,
		Email:       in.Email,
		Password:    in.Password,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	})
	if err != nil {
		return nil, err
	}

	as.sendVerification(user)
	as.logger.Info("user registered", "user_id", user.ID.Hex())
	return user, nil
}

// Verify consumes a verification link. An expired link for an unverified
// account mails a new one and returns LinkResent with a nil session.
func (as *AuthService) Verify(ctx context.Context, token string) (*Session, LinkOutcome, error) {
	v := as.tokens.Verify(token, tokens.PurposeVerify)
	switch v.Status {
	case tokens.Invalid:
		return nil, LinkConsumed, models.ErrInvalidToken
	case tokens.Expired:
		user, err := as.users.FindByID(ctx, v.Subject())
		if err != nil {
			return nil, LinkConsumed, err
		}
		if user.IsVerified {
			return nil, LinkConsumed, models.ErrAlreadyVerified
		}
		as.sendVerification(user)
		return nil, LinkResent, nil
	}

	user, err := as.users.FindByID(ctx, v.Subject())
	if err != nil {
		return nil, LinkConsumed, err
	}
	if user.IsVerified {
		return nil, LinkConsumed, models.ErrAlreadyVerified
	}

	pair, err := as.tokens.IssuePair(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, LinkConsumed, err
	}
	updated, err := as.users.UpdateUser(ctx, user.ID.Hex(), models.UserPatch{
		IsVerified:       models.BoolPtr(true),
		IsLoggedIn:       models.BoolPtr(true),
		RefreshTokenHash: models.StringPtr(tokens.HashToken(pair.RefreshToken)),
	})
	if err != nil {
		return nil, LinkConsumed, err
	}
	as.logger.Info("user verified", "user_id", updated.ID.Hex())
	return &Session{Tokens: pair, User: updated}, LinkConsumed, nil
}

// ForgetPassword mails a reset link when the account exists. Callers get the
// same result either way.
func (as *AuthService) ForgetPassword(ctx context.Context, email string) error {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return models.ValidationError("a valid email is required")
	}
	user, err := as.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			as.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	as.sendReset(user)
	return nil
}

// ResetPassword consumes a reset link. Like Verify, an expired link mails a
// fresh one. A successful reset restores login attempts and ends sessions.
func (as *AuthService) ResetPassword(ctx context.Context, token string, in ResetPasswordInput) (LinkOutcome, error) {
	v := as.tokens.Verify(token, tokens.PurposeReset)
	switch v.Status {
	case tokens.Invalid:
		return LinkConsumed, models.ErrInvalidToken
	case tokens.Expired:
		user, err := as.users.FindByID(ctx, v.Subject())
		if err != nil {
			return LinkConsumed, err
		}
		as.sendReset(user)
		return LinkResent, nil
	}

	user, err := as.users.FindByID(ctx, v.Subject())
	if err != nil {
		return LinkConsumed, err
	}
	if err := models.Validate.Struct(in); err != nil {
		return LinkConsumed, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if in.NewPassword != in.ConfirmPassword {
		return LinkConsumed, models.ValidationError("passwords do not match")
	}

	_, err = as.users.UpdateUser(ctx, user.ID.Hex(), models.UserPatch{
		Password:         models.StringPtr(in.NewPassword),
		LoginAttempt:     models.IntPtr(models.MaxLoginAttempts),
		RefreshTokenHash: models.StringPtr(""),
	})
	if err != nil {
		return LinkConsumed, err
	}
	as.logger.Info("password reset", "user_id", user.ID.Hex())
	return LinkConsumed, nil
}

// Login checks the password against the attempt budget. Every wrong password
// costs one attempt; at zero the account is locked until a reset.
func (as *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	user, err := as.users.FindByIdentifier(ctx, in.Identifier)
	if err != nil {
		return nil, err
	}
	if user.LoginAttempt <= 0 {
		return nil, models.ErrAttemptsExceeded
	}

	if !helpers.CheckPassword(user.Password, in.Password) {
		remaining, err := as.users.DecrementLoginAttempt(ctx, user.ID.Hex())
		if err != nil {
			return nil, err
		}
		as.logger.Warn("failed login", "user_id", user.ID.Hex(), "remaining", remaining)
		return nil, &models.IncorrectPasswordError{Remaining: remaining}
	}

	pair, err := as.tokens.IssuePair(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}
	updated, err := as.users.UpdateUser(ctx, user.ID.Hex(), models.UserPatch{
		IsLoggedIn:       models.BoolPtr(true),
		LoginAttempt:     models.IntPtr(models.MaxLoginAttempts),
		RefreshTokenHash: models.StringPtr(tokens.HashToken(pair.RefreshToken)),
	})
	if err != nil {
		return nil, err
	}
	return &Session{Tokens: pair, User: updated}, nil
}

// Refresh rotates the session. The presented token must match the one last
// issued to the user.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token missing: %w", models.ErrUnauthorized)
	}
	v := as.tokens.Verify(refreshToken, tokens.PurposeRefresh)
	if v.Status != tokens.Valid {
		return nil, fmt.Errorf("refresh token %s: %w", v.Status, models.ErrUnauthorized)
	}

	user, err := as.users.FindByID(ctx, v.Subject())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("refresh token subject: %w", models.ErrUnauthorized)
		}
		return nil, err
	}
	presented := tokens.HashToken(refreshToken)
	if user.RefreshTokenHash == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshTokenHash)) != 1 {
		as.logger.Warn("refresh token mismatch", "user_id", user.ID.Hex())
		return nil, fmt.Errorf("refresh token was rotated or revoked: %w", models.ErrForbidden)
	}

	pair, err := as.tokens.IssuePair(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}
	updated, err := as.users.UpdateUser(ctx, user.ID.Hex(), models.UserPatch{
		RefreshTokenHash: models.StringPtr(tokens.HashToken(pair.RefreshToken)),
	})
	if err != nil {
		return nil, err
	}
	return &Session{Tokens: pair, User: updated}, nil
}

// Logout revokes the stored refresh token.
func (as *AuthService) Logout(ctx context.Context, userID string) error {
	_, err := as.users.UpdateUser(ctx, userID, models.UserPatch{
		IsLoggedIn:       models.BoolPtr(false),
		RefreshTokenHash: models.StringPtr(""),
	})
	return err
}

// Authenticate resolves a bearer access token to the request identity.
func (as *AuthService) Authenticate(accessToken string) (*helpers.AuthUser, error) {
	v := as.tokens.Verify(accessToken, tokens.PurposeAccess)
	switch v.Status {
	case tokens.Valid:
		return &helpers.AuthUser{UserID: v.Subject(), Role: v.Claims.Role}, nil
	case tokens.Expired:
		return nil, fmt.Errorf("access token: %w", models.ErrTokenExpired)
	default:
		return nil, fmt.Errorf("access token: %w", models.ErrInvalidToken)
	}
}

func (as *AuthService) sendVerification(user *models.User) {
	token, err := as.tokens.Issue(tokens.PurposeVerify, user.ID.Hex(), "")
	if err != nil {
		as.logger.Error("failed to issue verify token", "user_id", user.ID.Hex(), "error", err)
		return
	}
	email, err := mailer.VerificationEmail(as.baseURL, user.Email, user.Fullname, token, as.tokens.TTL(tokens.PurposeVerify).String())
	if err != nil {
		as.logger.Error("failed to render verification email", "user_id", user.ID.Hex(), "error", err)
		return
	}
	as.enqueue(user, email)
}

func (as *AuthService) sendReset(user *models.User) {
	token, err := as.tokens.Issue(tokens.PurposeReset, user.ID.Hex(), "")
	if err != nil {
		as.logger.Error("failed to issue reset token", "user_id", user.ID.Hex(), "error", err)
		return
	}
	email, err := mailer.ResetEmail(as.baseURL, user.Email, user.Fullname, token, as.tokens.TTL(tokens.PurposeReset).String())
	if err != nil {
		as.logger.Error("failed to render reset email", "user_id", user.ID.Hex(), "error", err)
		return
	}
	as.enqueue(user, email)
}

func (as *AuthService) enqueue(user *models.User, email mailer.Email) {
	if err := as.mail.Enqueue(email); err != nil {
		as.logger.Error("failed to queue email",
			"user_id", user.ID.Hex(),
			"subject", email.Subject,
			"error", err,
		)
	}
}
