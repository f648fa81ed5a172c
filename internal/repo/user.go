package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Arayanmemon/devTube/internal/hash"
	"github.com/Arayanmemon/devTube/internal/models"
)

// FindByIdentifier matches identifier against both the email and the
// username columns.
func (r *GormRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	id := Normalize(identifier)
	if id == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := r.DB.WithContext(ctx).
		Where("email = ? OR user_name = ?", id, id).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) Exists(ctx context.Context, userName, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("user_name = ? OR email = ?", Normalize(userName), Normalize(email)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) Create(ctx context.Context, u *models.User) error {
	u.UserName = Normalize(u.UserName)
	u.Email = Normalize(u.Email)

	exists, err := r.Exists(ctx, u.UserName, u.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserAlreadyExist
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := r.hashIfModified(ctx, u); err != nil {
		return err
	}
	if !hash.IsHashed(u.Password) {
		return ErrPlaintextPassword
	}

	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return err
	}
	return nil
}

// UpdatePassword writes only the password column, and only when the record
// carries a newly staged password.
func (r *GormRepo) UpdatePassword(ctx context.Context, u *models.User) error {
	if !u.PasswordModified() {
		return nil
	}
	if err := r.hashIfModified(ctx, u); err != nil {
		return err
	}

	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Update("password", u.Password)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type ProfileUpdate struct {
	FullName   *string
	Email      *string
	Avatar     *string
	CoverImage *string
}

func (p ProfileUpdate) columns() map[string]any {
	cols := make(map[string]any, 4)
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.Email != nil {
		cols["email"] = Normalize(*p.Email)
	}
	if p.Avatar != nil {
		cols["avatar"] = *p.Avatar
	}
	if p.CoverImage != nil {
		cols["cover_image"] = *p.CoverImage
	}
	return cols
}

func (r *GormRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error) {
	cols := p.columns()
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	if email, ok := cols["email"].(string); ok {
		var count int64
		err := r.DB.WithContext(ctx).Model(&models.User{}).
			Where("email = ? AND id <> ?", email, id).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrUserAlreadyExist
		}
	}

	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExist
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}
