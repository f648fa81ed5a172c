package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/assets"
	"github.com/Arayanmemon/devTube/internal/hash"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/models"
	"github.com/Arayanmemon/devTube/internal/mykafka"
	"github.com/Arayanmemon/devTube/internal/repo"
)

const passwordTooLongMsg = "Password must be at most 72 bytes"

type RegisterInput struct {
	UserName string
	Email    string
	Password string
	FullName string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type LoginResult struct {
	TokenPair
	User models.PublicUser
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, avatarPath, coverPath string) (_ *models.PublicUser, err error) {
	start := time.Now()
	defer func() { s.observe("register", start, err) }()
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.UserName)
	defer s.Assets.Discard(ctx, avatarPath, coverPath)

	if blank(in.UserName, in.Email, in.Password, in.FullName) {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return nil, apperr.BadRequest("All fields are required")
	}
	if hash.CheckLength(in.Password) != nil {
		l.Warn("register_failed", "status", 400, "reason", "password too long")
		return nil, apperr.BadRequest(passwordTooLongMsg)
	}

	exists, err := s.Repo.Exists(ctx, in.UserName, in.Email)
	if err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Something went wrong while registering the user", err)
	}
	if exists {
		l.Warn("register_failed", "status", 409, "reason", "user already exists")
		return nil, apperr.Conflict("User already exists")
	}

	if avatarPath == "" {
		l.Warn("register_failed", "status", 400, "reason", "avatar missing")
		return nil, apperr.BadRequest("Avatar is required")
	}

	avatarURL, coverURL, err := s.Assets.UploadPair(ctx, avatarPath, coverPath)
	if err != nil {
		if errors.Is(err, assets.ErrMissingFile) {
			l.Warn("register_failed", "status", 400, "reason", "avatar missing")
			return nil, apperr.BadRequest("Avatar is required")
		}
		l.Error("register_failed", "status", 500, "reason", "asset upload failed", "error", err)
		return nil, apperr.Internal("Could not upload profile images", err)
	}

	user := &models.User{
		UserName:   in.UserName,
		Email:      in.Email,
		FullName:   strings.TrimSpace(in.FullName),
		Avatar:     avatarURL,
		CoverImage: coverURL,
	}
	user.SetPassword(in.Password)

	if err := s.Repo.Create(ctx, user); err != nil {
		s.dropAssets(ctx, avatarURL, coverURL)
		switch {
		case errors.Is(err, repo.ErrUserAlreadyExist):
			l.Warn("register_failed", "status", 409, "reason", "user already exists")
			return nil, apperr.Conflict("User already exists")
		case errors.Is(err, hash.ErrPasswordTooLong):
			l.Warn("register_failed", "status", 400, "reason", "password too long")
			return nil, apperr.BadRequest(passwordTooLongMsg)
		}
		l.Error("register_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Something went wrong while registering the user", err)
	}

	s.publish(ctx, mykafka.EventUserRegistered, user)
	s.indexChannel(ctx, user)

	l.Info("register_success", "user_id", user.ID)
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) dropAssets(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := s.Assets.Delete(ctx, u); err != nil {
			logging.FromContext(ctx).Warn("asset_cleanup_failed", "url", u, "error", err)
		}
	}
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (_ *LoginResult, err error) {
	start := time.Now()
	defer func() { s.observe("login", start, err) }()
	l := logging.FromContext(ctx).With("svc", "auth.login", "identifier", identifier)

	if blank(identifier) || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "missing credentials")
		return nil, apperr.BadRequest("Email and password are required")
	}

	user, err := s.Repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "user not found")
			return nil, apperr.NotFound("User not found")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Something went wrong while logging in", err)
	}

	ok, err := s.Repo.Hasher.Verify(ctx, password, user.Password)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "stored digest unreadable", "error", err)
		return nil, apperr.Internal("Something went wrong while logging in", err)
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, apperr.Unauthorized("Wrong password")
	}

	pair, err := s.issuePair(ctx, user, nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, mykafka.EventUserLoggedIn, user)
	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{TokenPair: *pair, User: user.Public()}, nil
}

// issuePair mints both tokens and persists the refresh token. With expected
// set the write only succeeds while the stored token still equals it. No
// token leaves this function unless the refresh token was stored.
func (s *AuthService) issuePair(ctx context.Context, u *models.User, expected *string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.issue_pair", "user_id", u.ID)

	access, accessExp, err := s.Tokens.IssueAccessToken(u)
	if err != nil {
		l.Error("issue_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Something went wrong while generating the tokens", err)
	}
	refresh, refreshExp, err := s.Tokens.IssueRefreshToken(u)
	if err != nil {
		l.Error("issue_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Something went wrong while generating the tokens", err)
	}

	if expected == nil {
		err = s.Repo.SetRefreshToken(ctx, u.ID, &refresh)
	} else {
		err = s.Repo.SwapRefreshToken(ctx, u.ID, *expected, &refresh)
	}
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrRefreshConflict):
		l.Warn("issue_failed", "status", 409, "reason", "refresh token already rotated")
		return nil, apperr.Conflict("Refresh token was already used")
	case errors.Is(err, repo.ErrUserNotFound):
		l.Warn("issue_failed", "status", 404, "reason", "user vanished")
		return nil, apperr.NotFound("User not found")
	default:
		l.Error("issue_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Something went wrong while generating the tokens", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) (err error) {
	start := time.Now()
	defer func() { s.observe("logout", start, err) }()
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	err = s.Repo.SetRefreshToken(ctx, userID, nil)
	if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
		l.Error("logout_failed", "status", 500, "reason", "cannot clear refresh token", "error", err)
		return apperr.Internal("Could not log out", err)
	}

	s.publish(ctx, mykafka.EventUserLoggedOut, &models.User{ID: userID})
	l.Info("logout_success")
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (_ *TokenPair, err error) {
	start := time.Now()
	defer func() { s.observe("refresh", start, err) }()
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	user, err := s.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, user, &refreshToken)
	if err != nil {
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	start := time.Now()
	defer func() { s.observe("change_password", start, err) }()
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "user_id", userID)

	if oldPassword == "" || newPassword == "" {
		l.Warn("change_password_failed", "status", 400, "reason", "empty password")
		return apperr.BadRequest("New and Old Password cannot be empty")
	}
	if oldPassword == newPassword {
		l.Warn("change_password_failed", "status", 400, "reason", "same password")
		return apperr.BadRequest("New and Old passwords cannot be same")
	}
	if hash.CheckLength(newPassword) != nil {
		l.Warn("change_password_failed", "status", 400, "reason", "password too long")
		return apperr.BadRequest(passwordTooLongMsg)
	}

	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return apperr.Internal("Could not change password", err)
	}

	ok, err := s.Repo.Hasher.Verify(ctx, oldPassword, user.Password)
	if err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return apperr.Internal("Could not change password", err)
	}
	if !ok {
		l.Warn("change_password_failed", "status", 401, "reason", "old password mismatch")
		return apperr.Unauthorized("Old password is incorrect")
	}

	user.SetPassword(newPassword)
	if err := s.Repo.UpdatePassword(ctx, user); err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return apperr.BadRequest(passwordTooLongMsg)
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return apperr.Internal("Could not change password", err)
	}

	if s.RevokeOnPasswordChange {
		if err := s.Repo.SetRefreshToken(ctx, user.ID, nil); err != nil {
			l.Error("change_password_failed", "status", 500, "reason", "cannot revoke session", "error", err)
			return apperr.Internal("Could not change password", err)
		}
	}

	s.publish(ctx, mykafka.EventPasswordChanged, user)
	l.Info("change_password_success", "revoked", s.RevokeOnPasswordChange)
	return nil
}
