package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/pkg/ffmpegcmd"
)

// ProbeStream is the subset of ffprobe's stream object clients use.
type ProbeStream struct {
	Index         int    `json:"index"`
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Profile       string `json:"profile,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	PixFmt        string `json:"pix_fmt,omitempty"`
	AvgFrameRate  string `json:"avg_frame_rate,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
}

type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration,omitempty"`
	BitRate    string `json:"bit_rate,omitempty"`
}

type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// Prober runs ffprobe against a feed. It does not go through the session
// loop; a probe is not a session.
type Prober struct {
	log     *zap.Logger
	ffprobe string
	feeds   *FeedService
	spawner Spawner
}

func NewProber(log *zap.Logger, bins Binaries, feeds *FeedService, spawner Spawner) *Prober {
	return &Prober{log: log.Named("probe"), ffprobe: bins.FFprobe, feeds: feeds, spawner: spawner}
}

// Probe waits for ffprobe to finish or ctx to end, whichever comes first.
func (p *Prober) Probe(ctx context.Context, feedID string) (*ProbeResult, error) {
	f, err := p.feeds.Get(feedID)
	if err != nil {
		return nil, err
	}
	path, err := needBinary("ffprobe", p.ffprobe)
	if err != nil {
		return nil, err
	}
	if !f.HasInput() {
		return nil, fmt.Errorf("%q has neither URL nor SDP file: %w", f.Name, ErrFeedInvalid)
	}

	h, err := p.spawner.Spawn("probe:"+f.ID, path, ffmpegcmd.ProbeArgv(f))
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %v", ErrSpawn, err)
	}

	select {
	case <-h.Done():
	case <-ctx.Done():
		h.Interrupt()
		return nil, fmt.Errorf("probe %q: %w", f.Name, ctx.Err())
	}

	out := strings.Join(h.Output(0), "\n")
	if code := h.ExitCode(); code != 0 {
		p.log.Warn("ffprobe failed", zap.String("feed_id", f.ID), zap.Int("exit_code", code))
		return nil, fmt.Errorf("probe %q: exit code %d: %s", f.Name, code, out)
	}

	var res ProbeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return nil, fmt.Errorf("probe %q: decode output: %w", f.Name, err)
	}
	return &res, nil
}
