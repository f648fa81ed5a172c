package repo

import (
	"context"

	"github.com/Arayanmemon/devTube/internal/models"
)

type Results struct {
	Total int64
	Items []models.User
}

func (r *GormRepo) ChannelProfile(ctx context.Context, userName, viewerID string) (*models.ChannelProfile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("user_name = ?", Normalize(userName)).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}

	profile := models.ChannelProfile{
		ID:         user.ID,
		UserName:   user.UserName,
		FullName:   user.FullName,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
	}

	tx := r.DB.WithContext(ctx).Model(&models.Subscription{})
	if err := tx.Where("channel_id = ?", user.ID).Count(&profile.Subscribers).Error; err != nil {
		return nil, err
	}
	tx = r.DB.WithContext(ctx).Model(&models.Subscription{})
	if err := tx.Where("subscriber_id = ?", user.ID).Count(&profile.SubscribedTo).Error; err != nil {
		return nil, err
	}

	if viewerID != "" {
		var n int64
		err := r.DB.WithContext(ctx).Model(&models.Subscription{}).
			Where("channel_id = ? AND subscriber_id = ?", user.ID, viewerID).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		profile.IsSubscribed = n > 0
	}
	return &profile, nil
}

// SearchChannels is the database fallback used when no search cluster is
// configured. It matches on username and full name.
func (r *GormRepo) SearchChannels(ctx context.Context, q string, offset, limit int) (Results, error) {
	q = Normalize(q)
	if q == "" {
		return Results{Items: []models.User{}}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	like := "%" + q + "%"
	where := "user_name LIKE ? OR LOWER(full_name) LIKE ?"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where(where, like, like).Count(&total).Error; err != nil {
		return Results{}, err
	}

	items := make([]models.User, 0, limit)
	err := r.DB.WithContext(ctx).
		Where(where, like, like).
		Order("user_name").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return Results{}, err
	}
	return Results{Total: total, Items: items}, nil
}
