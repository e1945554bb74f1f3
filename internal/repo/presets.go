package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/preset"
)

// PresetRepository stores the ordered preset list and the active preset ID.
type PresetRepository struct {
	kv  *RedisClient
	log *zap.Logger
}

// SavePresets writes the list and the active ID in one transaction.
// An empty activeID clears the selection.
func (r *PresetRepository) SavePresets(ctx context.Context, list []*preset.EncodingPreset, activeID string) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	pipe := r.kv.TxPipeline()
	pipe.Set(ctx, presetsKey, payload, 0)
	if activeID == "" {
		pipe.Del(ctx, activePresetKey)
	} else {
		pipe.Set(ctx, activePresetKey, activeID, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	r.log.Debug("presets saved", zap.Int("count", len(list)), zap.String("active", activeID))
	return nil
}

// LoadPresets returns the stored list and active ID; found is false when
// nothing was ever saved.
func (r *PresetRepository) LoadPresets(ctx context.Context) (list []*preset.EncodingPreset, activeID string, found bool, err error) {
	found, err = r.kv.loadJSON(ctx, presetsKey, &list)
	if err != nil || !found {
		return nil, "", found, err
	}

	activeID, err = r.kv.Get(ctx, activePresetKey).Result()
	if errors.Is(err, redis.Nil) {
		return list, "", true, nil
	}
	if err != nil {
		return nil, "", true, fmt.Errorf("get %s: %w", activePresetKey, err)
	}
	return list, activeID, true, nil
}
