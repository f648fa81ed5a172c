package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/es"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/models"
	"github.com/Arayanmemon/devTube/internal/repo"
	"github.com/Arayanmemon/devTube/internal/util"
)

type ChannelSearch struct {
	Total    int64           `json:"total"`
	Channels []es.ChannelDoc `json:"channels"`
}

func (s *AuthService) ChannelProfile(ctx context.Context, userName, viewerID string) (*models.ChannelProfile, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, apperr.BadRequest("wrong url or path")
	}

	p, err := s.Repo.ChannelProfile(ctx, userName, viewerID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, apperr.NotFound("channel doesn't exist")
		}
		logging.FromContext(ctx).Error("channel_profile_failed", "status", 500, "error", err)
		return nil, apperr.Internal("Could not load channel", err)
	}
	return p, nil
}

// SearchChannels queries the search cluster when one is configured and
// falls back to the database otherwise or when the cluster errors.
func (s *AuthService) SearchChannels(ctx context.Context, q string, page, size int) (*ChannelSearch, error) {
	l := logging.FromContext(ctx).With("svc", "channel.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.BadRequest("query error")
	}
	from, size := util.Calculate(page, size)

	if s.Channel != nil {
		total, docs, err := s.Channel.SearchChannels(ctx, q, from, size)
		if err == nil {
			return &ChannelSearch{Total: total, Channels: docs}, nil
		}
		l.Warn("es_search_failed", "error", err)
	}

	res, err := s.Repo.SearchChannels(ctx, q, from, size)
	if err != nil {
		l.Error("channel_search_failed", "status", 500, "error", err)
		return nil, apperr.Internal("search error", err)
	}

	docs := make([]es.ChannelDoc, len(res.Items))
	for i := range res.Items {
		docs[i] = es.DocFromUser(res.Items[i].Public())
	}
	return &ChannelSearch{Total: res.Total, Channels: docs}, nil
}
