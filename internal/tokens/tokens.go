// Package tokens issues and checks the signed, time-limited tokens used for
// email verification, password reset and sessions.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/talknet/internal/config"
)

type Purpose string

const (
	PurposeVerify  Purpose = "verify"
	PurposeReset   Purpose = "reset"
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

type Status int

const (
	Invalid Status = iota
	Valid
	Expired
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

type Claims struct {
	jwt.RegisteredClaims
	Role    string  `json:"role,omitempty"`
	Purpose Purpose `json:"purpose"`
}

// Verification is the outcome of checking a token. Claims are set for Valid
// and Expired tokens; an expired token's signature has still been checked.
type Verification struct {
	Status Status
	Claims *Claims
}

func (v Verification) Subject() string {
	if v.Claims == nil {
		return ""
	}
	return v.Claims.Subject
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	secret []byte
	ttl    map[Purpose]time.Duration
	now    func() time.Time
}

func NewService(cfg config.JWTConfig) *Service {
	return &Service{
		secret: []byte(cfg.Secret),
		ttl: map[Purpose]time.Duration{
			PurposeVerify:  cfg.VerifyTTL,
			PurposeReset:   cfg.ResetTTL,
			PurposeAccess:  cfg.AccessTTL,
			PurposeRefresh: cfg.RefreshTTL,
		},
		now: time.Now,
	}
}

func (s *Service) TTL(p Purpose) time.Duration {
	return s.ttl[p]
}

// Issue signs a token for subject with the lifetime configured for purpose.
func (s *Service) Issue(purpose Purpose, subject, role string) (string, error) {
	ttl, ok := s.ttl[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:    role,
		Purpose: purpose,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (s *Service) IssuePair(subject, role string) (*TokenPair, error) {
	access, err := s.Issue(PurposeAccess, subject, role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(PurposeRefresh, subject, role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature, expiry and purpose.
func (s *Service) Verify(token string, purpose Purpose) Verification {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case err == nil && parsed.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		if claims.Purpose != purpose || claims.Subject == "" {
			return Verification{Status: Invalid}
		}
		return Verification{Status: Expired, Claims: claims}
	default:
		return Verification{Status: Invalid}
	}

	if claims.Purpose != purpose || claims.Subject == "" {
		return Verification{Status: Invalid}
	}
	return Verification{Status: Valid, Claims: claims}
}

// HashToken is the stored form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
