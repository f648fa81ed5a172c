package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/models"
	"github.com/Arayanmemon/devTube/internal/repo"
)

// VerifyAccess resolves an access token to the sanitized account it was
// issued for.
func (s *AuthService) VerifyAccess(ctx context.Context, token string) (*models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_access")

	if strings.TrimSpace(token) == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := s.Tokens.ParseAccess(token)
	if err != nil {
		l.Warn("verify_failed", "status", 401, "reason", "invalid access token", "error", err)
		return nil, apperr.InvalidToken("Invalid access token", err)
	}

	user, err := s.Repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("verify_failed", "status", 404, "reason", "subject not found")
			return nil, apperr.NotFound("User not found")
		}
		l.Error("verify_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Could not verify token", err)
	}

	pub := user.Public()
	return &pub, nil
}

// VerifyRefresh accepts a refresh token only while it is byte for byte the
// token stored for its subject. The subject comes from the verified claims.
func (s *AuthService) VerifyRefresh(ctx context.Context, token string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_refresh")

	if strings.TrimSpace(token) == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := s.Tokens.ParseRefresh(token)
	if err != nil {
		l.Warn("verify_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, apperr.InvalidToken("Refresh token is invalid or expired", err)
	}

	user, err := s.Repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("verify_failed", "status", 404, "reason", "subject not found")
			return nil, apperr.NotFound("Invalid token")
		}
		l.Error("verify_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Could not verify token", err)
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(token)) != 1 {
		l.Warn("verify_failed", "status", 401, "reason", "refresh token revoked", "user_id", user.ID)
		return nil, apperr.TokenRevoked("Refresh token is expired or revoked")
	}
	return user, nil
}
