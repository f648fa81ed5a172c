package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Arayanmemon/devTube/internal/models"
)

type ChannelDoc struct {
	ID         string `json:"id"`
	UserName   string `json:"userName"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

func DocFromUser(u models.PublicUser) ChannelDoc {
	return ChannelDoc{
		ID:         u.ID,
		UserName:   u.UserName,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}

// ChannelIndex keeps a search document per account.
type ChannelIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewChannelIndex(client *elasticsearch.Client, index string) *ChannelIndex {
	return &ChannelIndex{ES: client, Index: index}
}

func (ci *ChannelIndex) IndexChannel(ctx context.Context, u models.PublicUser) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocFromUser(u)); err != nil {
		return fmt.Errorf("es: encode channel: %w", err)
	}

	res, err := ci.ES.Index(ci.Index, &buf,
		ci.ES.Index.WithContext(ctx),
		ci.ES.Index.WithDocumentID(u.ID),
	)
	if err != nil {
		return fmt.Errorf("es: index channel: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es: index channel: %s: %s", res.Status(), body)
	}
	return nil
}

func (ci *ChannelIndex) SearchChannels(ctx context.Context, query string, from, size int) (int64, []ChannelDoc, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"userName^2", "fullName"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := ci.ES.Search(
		ci.ES.Search.WithContext(ctx),
		ci.ES.Search.WithIndex(ci.Index),
		ci.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ChannelDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode search: %w", err)
	}

	docs := make([]ChannelDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
