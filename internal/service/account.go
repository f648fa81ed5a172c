package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/assets"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/models"
	"github.com/Arayanmemon/devTube/internal/repo"
)

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Could not load user", err)
	}
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) UpdateAccount(ctx context.Context, userID, email, fullName string) (*models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "account.update", "user_id", userID)

	if blank(email, fullName) {
		return nil, apperr.BadRequest("credentials cannot be empty")
	}

	fullName = strings.TrimSpace(fullName)
	user, err := s.Repo.UpdateProfile(ctx, userID, repo.ProfileUpdate{Email: &email, FullName: &fullName})
	if err != nil {
		return nil, s.profileErr(l, err)
	}

	s.indexChannel(ctx, user)
	l.Info("account_updated")
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) UpdateAvatar(ctx context.Context, userID, path string) (*models.PublicUser, error) {
	return s.replaceImage(ctx, userID, path, "Avatar is missing", func(u *models.User) *string { return &u.Avatar },
		func(url string) repo.ProfileUpdate { return repo.ProfileUpdate{Avatar: &url} })
}

func (s *AuthService) UpdateCover(ctx context.Context, userID, path string) (*models.PublicUser, error) {
	return s.replaceImage(ctx, userID, path, "Cover Image is missing", func(u *models.User) *string { return &u.CoverImage },
		func(url string) repo.ProfileUpdate { return repo.ProfileUpdate{CoverImage: &url} })
}

// replaceImage uploads a new profile image, points the account at it, then
// deletes the image it replaced.
func (s *AuthService) replaceImage(
	ctx context.Context,
	userID, path, missingMsg string,
	field func(*models.User) *string,
	update func(url string) repo.ProfileUpdate,
) (*models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "account.image", "user_id", userID)
	defer s.Assets.Discard(ctx, path)

	if path == "" {
		return nil, apperr.BadRequest(missingMsg)
	}

	current, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, s.profileErr(l, err)
	}
	previous := *field(current)

	url, err := s.Assets.Upload(ctx, path)
	if err != nil {
		if errors.Is(err, assets.ErrMissingFile) {
			return nil, apperr.BadRequest(missingMsg)
		}
		l.Error("image_upload_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Could not upload image", err)
	}

	user, err := s.Repo.UpdateProfile(ctx, userID, update(url))
	if err != nil {
		s.dropAssets(ctx, url)
		return nil, s.profileErr(l, err)
	}
	s.dropAssets(ctx, previous)

	s.indexChannel(ctx, user)
	l.Info("image_updated")
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) profileErr(l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, repo.ErrUserNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, repo.ErrUserAlreadyExist):
		return apperr.Conflict("Email already in use")
	default:
		l.Error("profile_update_failed", "status", 500, "error", err)
		return apperr.Internal("Could not update account", err)
	}
}
