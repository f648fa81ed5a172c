package models

import (
	"time"
)

// User is the persisted account. Password always holds a bcrypt digest and
// RefreshToken holds the single active session token, nil when logged out.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"   json:"_id"`
	UserName     string    `gorm:"uniqueIndex;not null" json:"userName"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"not null"             json:"fullName"`
	Avatar       string    `gorm:"not null"             json:"avatar"`
	CoverImage   string    `gorm:"not null"             json:"coverImage"`
	Password     string    `gorm:"not null"             json:"-"`
	RefreshToken *string   `                            json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	plainPassword    string
	passwordModified bool
}

// SetPassword stages a plaintext password. The store hashes it on the next
// write that touches the password column.
func (u *User) SetPassword(plain string) {
	u.plainPassword = plain
	u.passwordModified = true
}

func (u *User) PasswordModified() bool { return u.passwordModified }

func (u *User) PendingPassword() string { return u.plainPassword }

func (u *User) CommitPasswordHash(digest string) {
	u.Password = digest
	u.plainPassword = ""
	u.passwordModified = false
}

// PublicUser is the sanitized account view sent to clients.
type PublicUser struct {
	ID         string    `json:"_id"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		UserName:   u.UserName,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type Subscription struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"                           json:"id"`
	SubscriberID string    `gorm:"size:36;not null;uniqueIndex:idx_subscription_pair" json:"subscriberId"`
	ChannelID    string    `gorm:"size:36;not null;uniqueIndex:idx_subscription_pair;index" json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ChannelProfile struct {
	ID           string `json:"_id"`
	UserName     string `json:"userName"`
	FullName     string `json:"fullName"`
	Avatar       string `json:"avatar"`
	CoverImage   string `json:"coverImage"`
	Subscribers  int64  `json:"subscribers"`
	SubscribedTo int64  `json:"subscribedTo"`
	IsSubscribed bool   `json:"isSubscribed"`
}
