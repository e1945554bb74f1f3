package repo

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/feed"
	"github.com/edirooss/avcapture-server/internal/domain/preset"
)

func newTestRepo(t *testing.T) (*Repository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRepository(context.Background(), zap.NewNop(), mr.Addr(), 0)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestPresetsRoundTrip(t *testing.T) {
	r, mr := newTestRepo(t)
	ctx := context.Background()

	_, _, found, err := r.Presets.LoadPresets(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	list := preset.Builtins()
	require.NoError(t, r.Presets.SavePresets(ctx, list, preset.BuiltinHD1080ID))
	assert.True(t, mr.Exists(presetsKey))

	got, active, found, err := r.Presets.LoadPresets(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, preset.BuiltinHD1080ID, active)
	assert.Equal(t, list, got)

	require.NoError(t, r.Presets.SavePresets(ctx, list, ""))
	_, active, _, err = r.Presets.LoadPresets(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.False(t, mr.Exists(activePresetKey))
}

func TestFeedsRoundTrip(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	got, err := r.Feeds.LoadFeeds(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	list := []*feed.IPCameraFeed{
		{ID: "a", Name: "IP Camera 1", URL: "rtsp://h/s", Transport: feed.TransportRTP},
		{ID: "b", Name: "IP Camera 2", SDPFile: "/tmp/b.sdp", Transport: feed.TransportMPEGTSUDP, DenoiseAudio: true},
	}
	require.NoError(t, r.Feeds.SaveFeeds(ctx, list))

	got, err = r.Feeds.LoadFeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func TestLoadCorruptPayload(t *testing.T) {
	r, mr := newTestRepo(t)
	require.NoError(t, mr.Set(feedsKey, "{not json"))

	_, err := r.Feeds.LoadFeeds(context.Background())
	assert.ErrorContains(t, err, "decode")
}

func TestSaveFailsWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	r := NewRepository(context.Background(), zap.NewNop(), mr.Addr(), 0)
	defer r.Close()
	mr.Close()

	assert.Error(t, r.Feeds.SaveFeeds(context.Background(), nil))
}
