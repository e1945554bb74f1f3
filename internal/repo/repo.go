// Package repo persists the preset and feed collections in Redis.
//
// Each collection is stored whole, as one JSON array under its own key, and
// rewritten on every mutation. Order is significant: the first three presets
// are the built-ins.
package repo

import (
	"context"

	"go.uber.org/zap"
)

const (
	presetsKey      = "avcapture:presets"
	activePresetKey = "avcapture:presets:active"
	feedsKey        = "avcapture:feeds"
)

type Repository struct {
	log    *zap.Logger
	client *RedisClient

	Presets *PresetRepository
	Feeds   *FeedRepository
}

// NewRepository connects to Redis at addr. A failed ping is logged, not fatal:
// the server keeps running and reports persistence errors per request.
func NewRepository(ctx context.Context, log *zap.Logger, addr string, db int) *Repository {
	log = log.Named("repo")
	client := newRedisClient(addr, db, log)
	_ = client.Ping(ctx)

	return &Repository{
		log:     log,
		client:  client,
		Presets: &PresetRepository{kv: client, log: log.Named("presets")},
		Feeds:   &FeedRepository{kv: client, log: log.Named("feeds")},
	}
}

func (r *Repository) Close() error { return r.client.Close() }
