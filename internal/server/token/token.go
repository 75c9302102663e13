// Package token implements the session token service: issuing, verifying and
// revoking bearer session tokens. Tokens are stateless HS256 JWTs; the only
// server-side state is the revocation ledger consulted on every request.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/apperr"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// Config contains the signing configuration for session tokens.
// The secret must be a cryptographically secure random string.
type Config struct {
	Issuer string
	Secret []byte
	TTL    time.Duration
}

// Claims represents the JWT claims of a session token
type Claims struct {
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Service issues, verifies and revokes session tokens
type Service struct {
	users     storage.UserStorage
	blacklist storage.TokenBlacklist
	cfg       Config
}

// NewService creates a new session token service
func NewService(cfg Config, users storage.UserStorage, blacklist storage.TokenBlacklist) *Service {
	return &Service{
		cfg:       cfg,
		users:     users,
		blacklist: blacklist,
	}
}

// Issue creates a signed session token embedding the identity and a fixed
// expiry. There is no refresh mechanism; callers re-login after expiry.
// Returns the token string and its lifetime in seconds.
func (s *Service) Issue(userID int64, username string, isAdmin bool) (string, int64, error) {
	now := time.Now()

	claims := Claims{
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(s.cfg.TTL.Seconds()), nil
}

// Authenticate verifies a bearer token and returns the caller's identity.
// Checks run in a fixed order: revocation ledger, signature and expiry, then
// user existence (the (user_id, username) pair must still resolve, which
// rejects tokens of deleted or renamed accounts).
func (s *Service) Authenticate(ctx context.Context, tokenString string) (models.Identity, error) {
	claims, err := s.verify(ctx, tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	return models.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// Revoke inserts the token into the revocation ledger. Revoking an invalid,
// expired or already-revoked token is an error, not a no-op: the token must
// authenticate before it can be blacklisted.
func (s *Service) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.verify(ctx, tokenString)
	if err != nil {
		return err
	}

	if err := s.blacklist.RevokeToken(ctx, tokenString, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// verify runs the full authentication sequence and returns the raw claims
func (s *Service) verify(ctx context.Context, tokenString string) (*Claims, error) {
	revoked, err := s.blacklist.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation ledger: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthorized(apperr.ReasonTokenRevoked, "token has been revoked")
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized(apperr.ReasonTokenExpired, "token has expired")
		}
		return nil, apperr.Unauthorized(apperr.ReasonTokenInvalid, "invalid token")
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.Unauthorized(apperr.ReasonUnknownUser, "token does not match a known user")
		}
		return nil, fmt.Errorf("failed to look up token user: %w", err)
	}
	if user.Username != claims.Username {
		return nil, apperr.Unauthorized(apperr.ReasonUnknownUser, "token does not match a known user")
	}

	return claims, nil
}

// parse validates the signature and standard claims of a token string
func (s *Service) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
