package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Arayanmemon/devTube/internal/hash"
	"github.com/Arayanmemon/devTube/internal/models"
)

var (
	ErrUserAlreadyExist  = errors.New("user already exist")
	ErrUserNotFound      = errors.New("user not found")
	ErrRefreshConflict   = errors.New("refresh token already rotated")
	ErrPlaintextPassword = errors.New("refusing to persist unhashed password")
)

type GormRepo struct {
	DB     *gorm.DB
	Hasher *hash.Hasher
}

func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// hashIfModified turns a staged plaintext password into a digest. Records
// whose password was not touched keep their stored digest as is.
func (r *GormRepo) hashIfModified(ctx context.Context, u *models.User) error {
	if !u.PasswordModified() {
		return nil
	}
	digest, err := r.Hasher.Hash(ctx, u.PendingPassword())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.CommitPasswordHash(digest)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
