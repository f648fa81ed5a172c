package service

import (
	"context"
	"time"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/es"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/metrics"
	"github.com/Arayanmemon/devTube/internal/models"
	"github.com/Arayanmemon/devTube/internal/mykafka"
	"github.com/Arayanmemon/devTube/internal/repo"
	"github.com/Arayanmemon/devTube/internal/tokens"
)

// AssetStore uploads local temp files and owns their removal.
type AssetStore interface {
	Upload(ctx context.Context, path string) (string, error)
	UploadPair(ctx context.Context, primary, secondary string) (string, string, error)
	Delete(ctx context.Context, url string) error
	Discard(ctx context.Context, paths ...string)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type ChannelIndexer interface {
	IndexChannel(ctx context.Context, u models.PublicUser) error
	SearchChannels(ctx context.Context, query string, from, size int) (int64, []es.ChannelDoc, error)
}

type AuthService struct {
	Repo    *repo.GormRepo
	Tokens  *tokens.Issuer
	Assets  AssetStore
	Events  EventPublisher
	Channel ChannelIndexer
	Metrics *metrics.Auth

	// RevokeOnPasswordChange clears the active session after a password
	// change. Off by default: the current refresh token stays valid.
	RevokeOnPasswordChange bool
}

func (s *AuthService) observe(op string, start time.Time, err error) {
	code := ""
	if err != nil {
		code = apperr.ErrInternal.Error()
		if e, ok := apperr.As(err); ok {
			code = e.Code()
		}
	}
	s.Metrics.Observe(op, code, time.Since(start).Seconds())
}

// publish is best effort. A broker outage never fails the request.
func (s *AuthService) publish(ctx context.Context, typ string, u *models.User) {
	if s.Events == nil {
		return
	}
	ev := mykafka.NewUserEvent(typ, u.ID, u.UserName)
	if err := s.Events.PublishEvent(ctx, mykafka.TopicUserEvents, u.ID, ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) indexChannel(ctx context.Context, u *models.User) {
	if s.Channel == nil {
		return
	}
	if err := s.Channel.IndexChannel(ctx, u.Public()); err != nil {
		logging.FromContext(ctx).Warn("channel_index_failed", "user_id", u.ID, "error", err)
	}
}
