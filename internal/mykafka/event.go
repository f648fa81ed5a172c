package mykafka

import "time"

const (
	EventUserRegistered  = "user_registered"
	EventUserLoggedIn    = "user_logged_in"
	EventUserLoggedOut   = "user_logged_out"
	EventPasswordChanged = "password_changed"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	At       time.Time `json:"at"`
}

func NewUserEvent(typ, userID, userName string) UserEvent {
	return UserEvent{Type: typ, UserID: userID, UserName: userName, At: time.Now().UTC()}
}
