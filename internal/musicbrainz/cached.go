package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var _ ClientInterface = (*CachedClient)(nil)

type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

// CachedClient stores lookups in the shared cache table, including misses.
type CachedClient struct {
	client ClientInterface
	cache  Cache
	ttl    time.Duration
}

func NewCachedClient(client ClientInterface, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

type cachedRecording struct {
	Recording *Recording `json:"recording"`
	NotFound  bool       `json:"not_found"`
}

func (c *CachedClient) GetRecording(ctx context.Context, mbid string) (*Recording, error) {
	if mbid == "" {
		return nil, nil
	}
	cacheKey := "mb:recording:" + mbid

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var cached cachedRecording
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached.Recording, nil
		}
	}

	rec, err := c.client.GetRecording(ctx, mbid)
	if err != nil {
		return nil, err
	}

	cached := cachedRecording{Recording: rec, NotFound: rec == nil}
	if data, marshalErr := json.Marshal(cached); marshalErr == nil {
		_ = c.cache.SetCache(cacheKey, data, c.ttl)
	}
	return rec, nil
}

func (c *CachedClient) SearchRecordings(ctx context.Context, artist, title string, limit int) ([]Recording, error) {
	cacheKey := fmt.Sprintf("mb:search:%d:%s|%s", limit, strings.ToLower(strings.TrimSpace(artist)), strings.ToLower(strings.TrimSpace(title)))

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var cached []Recording
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached, nil
		}
	}

	recs, err := c.client.SearchRecordings(ctx, artist, title, limit)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(recs); marshalErr == nil {
		_ = c.cache.SetCache(cacheKey, data, c.ttl)
	}
	// seed per-recording entries so a later GetRecording is served locally
	for i := range recs {
		rec := recs[i]
		if data, marshalErr := json.Marshal(cachedRecording{Recording: &rec}); marshalErr == nil {
			_ = c.cache.SetCache("mb:recording:"+rec.ID, data, c.ttl)
		}
	}
	return recs, nil
}
