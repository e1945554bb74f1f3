package repo

import (
	"context"

	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/feed"
)

// FeedRepository stores the ordered IP camera feed list.
type FeedRepository struct {
	kv  *RedisClient
	log *zap.Logger
}

func (r *FeedRepository) SaveFeeds(ctx context.Context, list []*feed.IPCameraFeed) error {
	if list == nil {
		list = []*feed.IPCameraFeed{}
	}
	if err := r.kv.saveJSON(ctx, feedsKey, list); err != nil {
		return err
	}
	r.log.Debug("feeds saved", zap.Int("count", len(list)))
	return nil
}

func (r *FeedRepository) LoadFeeds(ctx context.Context) ([]*feed.IPCameraFeed, error) {
	var list []*feed.IPCameraFeed
	if _, err := r.kv.loadJSON(ctx, feedsKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}
