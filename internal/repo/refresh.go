package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Arayanmemon/devTube/internal/models"
)

func tokenValue(token *string) any {
	if token == nil {
		return gorm.Expr("NULL")
	}
	return *token
}

// SetRefreshToken overwrites the stored session token unconditionally. A nil
// token clears the session.
func (r *GormRepo) SetRefreshToken(ctx context.Context, id string, token *string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token", tokenValue(token))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SwapRefreshToken replaces the stored token with next only while it still
// equals expected. ErrRefreshConflict means another request rotated or
// cleared it first.
func (r *GormRepo) SwapRefreshToken(ctx context.Context, id, expected string, next *string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", tokenValue(next))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRefreshConflict
	}
	return nil
}
