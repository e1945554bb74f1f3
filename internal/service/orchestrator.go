package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/internal/events"
	"github.com/edirooss/avcapture-server/internal/infrastructure/processmgr"
	"github.com/edirooss/avcapture-server/internal/metrics"
	"github.com/edirooss/avcapture-server/pkg/ffmpegcmd"
)

// -----------------------------------------------------------------------------
// Orchestrator
// -----------------------------------------------------------------------------
//
// Runtime model
//   • One goroutine (Run) owns every session. Public methods submit a closure
//     to it and wait for the result; nothing else reads or writes sessions.
//   • Each spawned process gets an exit watcher that posts a completion back
//     into the loop. A completion whose generation no longer matches the
//     session under its key (stopped, replaced) is a no-op.
//   • Stop sends SIGINT and forgets the session at once. SIGKILL escalation
//     is processmgr's business.
//
// Session keys
//   • "local"           the single AVFoundation recording
//   • "record:<feed>"   one recording per IP camera
//   • "preview:<feed>"  one ffplay window per IP camera
//
// Failure semantics
//   • Resolution and spawn errors leave the key idle and raise an alert.
//   • A process that exits with failure text in its output moves to failed
//     and keeps its captured output as the diagnostic until replaced or
//     stopped. Clean exits go back to idle silently.
//   • Nothing is retried.

// Spawner launches supervised processes. *processmgr.Manager implements it.
type Spawner interface {
	Spawn(key, path string, argv []string) (processmgr.Handle, error)
	Logs(key string, n int) ([]string, bool)
}

type OrchestratorConfig struct {
	RecordingsDir   string        // default target when no output path is given
	PreviewDebounce time.Duration // coalescing delay for local preview selection
}

const (
	minFrameRate     = 15
	maxFrameRate     = 60
	defaultFrameRate = 30
)

// LocalRecordingRequest starts the AVFoundation recording. An empty VideoID
// records the committed local preview selection.
type LocalRecordingRequest struct {
	VideoID    string         `json:"video_id"`
	AudioID    string         `json:"audio_id"`
	PresetID   string         `json:"preset_id"`   // empty = active preset
	OutputPath string         `json:"output_path"` // empty = recordings dir
	FrameRate  int            `json:"frame_rate"`  // 0 = preview selection's
	Limit      RecordingLimit `json:"limit"`
}

type IPRecordingRequest struct {
	PresetID   string         `json:"preset_id"`
	OutputPath string         `json:"output_path"`
	Limit      RecordingLimit `json:"limit"`
}

// PreviewSelection is the device pair shown by the local live preview.
type PreviewSelection struct {
	VideoID   string `json:"video_id"`
	AudioID   string `json:"audio_id,omitempty"`
	FrameRate int    `json:"frame_rate"`
}

// BatchResult is the outcome of one feed in StartAllIPRecordings.
type BatchResult struct {
	FeedID   string   `json:"feed_id"`
	FeedName string   `json:"feed_name"`
	Session  *Session `json:"session,omitempty"`
	Error    string   `json:"error,omitempty"`
	Err      error    `json:"-"`
}

type Orchestrator struct {
	log     *zap.Logger
	cfg     OrchestratorConfig
	bins    Binaries
	devices *DeviceRegistry
	presets *PresetService
	feeds   *FeedService
	spawner Spawner
	hub     *events.Hub
	metrics *metrics.Metrics
	now     func() time.Time

	cmds chan func()
	quit chan struct{}

	// loop-owned state
	sessions map[string]*session
	gen      uint64
	pending  PreviewSelection
	selected PreviewSelection
	selSeq   uint64
	selTimer *time.Timer
}

func NewOrchestrator(
	log *zap.Logger,
	cfg OrchestratorConfig,
	bins Binaries,
	devices *DeviceRegistry,
	presets *PresetService,
	feeds *FeedService,
	spawner Spawner,
	hub *events.Hub,
	m *metrics.Metrics,
) *Orchestrator {
	o := &Orchestrator{
		log:      log.Named("orchestrator"),
		cfg:      cfg,
		bins:     bins,
		devices:  devices,
		presets:  presets,
		feeds:    feeds,
		spawner:  spawner,
		hub:      hub,
		metrics:  m,
		now:      time.Now,
		cmds:     make(chan func()),
		quit:     make(chan struct{}),
		sessions: make(map[string]*session),
		selected: PreviewSelection{FrameRate: defaultFrameRate},
	}

	// Both hooks may fire from inside the loop (IndexesOf refreshes the
	// registry), so they only ever post asynchronously.
	devices.OnChange(func(evs []device.Event) {
		go o.post(func() { o.devicesChanged(evs) })
	})
	feeds.OnRemove(func(id string) {
		go o.post(func() {
			o.stop(previewKey(id), "")
			o.stop(recordKey(id), "")
		})
	})
	return o
}

// Run executes submitted commands until ctx is done, then stops every
// session before returning.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.quit)
	o.log.Info("session loop started")

	for {
		select {
		case <-ctx.Done():
			if n := o.stopAll(); n > 0 {
				o.log.Info("sessions stopped on shutdown", zap.Int("count", n))
			}
			o.log.Info("session loop stopped")
			return nil
		case fn := <-o.cmds:
			fn()
		}
	}
}

// do runs fn on the loop and waits for it. Once fn has been accepted it
// always runs to completion, so the caller waits even if ctx ends.
func (o *Orchestrator) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case o.cmds <- func() { defer close(done); fn() }:
	case <-o.quit:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// post queues fn without waiting. Never call it from the loop itself
// except via a new goroutine.
func (o *Orchestrator) post(fn func()) {
	select {
	case o.cmds <- fn:
	case <-o.quit:
	}
}

func call[T any](ctx context.Context, o *Orchestrator, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if derr := o.do(ctx, func() { out, err = fn() }); derr != nil {
		return out, derr
	}
	return out, err
}

// -----------------------------------------------------------------------------
// Local recording
// -----------------------------------------------------------------------------

func (o *Orchestrator) StartLocalRecording(ctx context.Context, req LocalRecordingRequest) (Session, error) {
	return call(ctx, o, func() (Session, error) {
		s, err := o.startLocal(ctx, req)
		if err != nil {
			return Session{}, o.reject(localKey, err)
		}
		return s, nil
	})
}

func (o *Orchestrator) startLocal(ctx context.Context, req LocalRecordingRequest) (Session, error) {
	if s, ok := o.sessions[localKey]; ok && s.active() {
		return Session{}, fmt.Errorf("local recording: %w", ErrSessionActive)
	}
	if err := req.Limit.Validate(); err != nil {
		return Session{}, err
	}

	ffmpeg, err := needBinary("ffmpeg", o.bins.FFmpeg)
	if err != nil {
		return Session{}, err
	}
	p, err := o.presets.Resolve(req.PresetID)
	if err != nil {
		return Session{}, err
	}
	out, err := o.outputPath(req.OutputPath)
	if err != nil {
		return Session{}, err
	}

	videoID, audioID, fps := req.VideoID, req.AudioID, req.FrameRate
	if videoID == "" {
		videoID, audioID = o.selected.VideoID, o.selected.AudioID
	}
	if fps == 0 {
		fps = o.selected.FrameRate
	}
	if fps < minFrameRate || fps > maxFrameRate {
		return Session{}, fmt.Errorf("frame rate must be between %d and %d: %w", minFrameRate, maxFrameRate, ErrInvalidRequest)
	}

	// Indices are positional in a fresh enumeration, taken right before
	// the spawn.
	if videoID == "" {
		return Session{}, fmt.Errorf("no camera selected: %w", ErrDeviceUnresolved)
	}
	vi, ai, ok := o.devices.IndexesOf(ctx, videoID, audioID)
	if !ok {
		return Session{}, fmt.Errorf("camera %q: %w", videoID, ErrDeviceUnresolved)
	}
	if audioID != "" && ai < 0 {
		o.log.Warn("microphone unavailable; recording without audio", zap.String("audio_id", audioID))
		audioID = ""
	}

	argv := ffmpegcmd.LocalRecordArgv(ffmpegcmd.LocalCapture{
		VideoIndex: vi,
		AudioIndex: ai,
		FrameRate:  fps,
		Limit:      req.Limit.String(),
		Preset:     p,
		Output:     out,
	})
	s := &session{
		Session: Session{
			Key:        localKey,
			Kind:       KindLocal,
			PresetID:   p.ID,
			OutputPath: out,
			Argv:       argv,
			Limit:      req.Limit.String(),
		},
		videoID: videoID,
		audioID: audioID,
	}
	return o.spawn(s, ffmpeg)
}

// StopLocalRecording is a no-op when nothing is recording.
func (o *Orchestrator) StopLocalRecording(ctx context.Context) error {
	return o.do(ctx, func() { o.stop(localKey, "") })
}

// -----------------------------------------------------------------------------
// IP cameras
// -----------------------------------------------------------------------------

func (o *Orchestrator) StartIPPreview(ctx context.Context, feedID string) (Session, error) {
	return call(ctx, o, func() (Session, error) {
		s, err := o.startPreview(feedID)
		if err != nil {
			return Session{}, o.reject(previewKey(feedID), err)
		}
		return s, nil
	})
}

func (o *Orchestrator) startPreview(feedID string) (Session, error) {
	f, err := o.feeds.Get(feedID)
	if err != nil {
		return Session{}, err
	}
	key := previewKey(f.ID)
	if s, ok := o.sessions[key]; ok && s.active() {
		return Session{}, fmt.Errorf("preview of %q: %w", f.Name, ErrSessionActive)
	}
	ffplay, err := needBinary("ffplay", o.bins.FFplay)
	if err != nil {
		return Session{}, err
	}
	if !f.HasInput() {
		return Session{}, fmt.Errorf("%q has neither URL nor SDP file: %w", f.Name, ErrFeedInvalid)
	}

	s := &session{Session: Session{
		Key:      key,
		Kind:     KindPreview,
		FeedID:   f.ID,
		FeedName: f.Name,
		Argv:     ffmpegcmd.PreviewArgv(f),
	}}
	return o.spawn(s, ffplay)
}

// StopIPPreview closes the preview and any recording of the same feed.
func (o *Orchestrator) StopIPPreview(ctx context.Context, feedID string) error {
	return o.do(ctx, func() {
		o.stop(previewKey(feedID), "")
		o.stop(recordKey(feedID), "")
	})
}

func (o *Orchestrator) StartIPRecording(ctx context.Context, feedID string, req IPRecordingRequest) (Session, error) {
	return call(ctx, o, func() (Session, error) {
		s, err := o.startRecording(feedID, req, "")
		if err != nil {
			return Session{}, o.reject(recordKey(feedID), err)
		}
		return s, nil
	})
}

// startRecording starts one IP recording. A non-empty base derives the
// output path from the camera name.
func (o *Orchestrator) startRecording(feedID string, req IPRecordingRequest, base string) (Session, error) {
	f, err := o.feeds.Get(feedID)
	if err != nil {
		return Session{}, err
	}
	key := recordKey(f.ID)
	if s, ok := o.sessions[key]; ok && s.active() {
		return Session{}, fmt.Errorf("recording of %q: %w", f.Name, ErrSessionActive)
	}
	if err := req.Limit.Validate(); err != nil {
		return Session{}, err
	}
	ffmpeg, err := needBinary("ffmpeg", o.bins.FFmpeg)
	if err != nil {
		return Session{}, err
	}
	if !f.HasInput() {
		return Session{}, fmt.Errorf("%q has neither URL nor SDP file: %w", f.Name, ErrFeedInvalid)
	}
	p, err := o.presets.Resolve(req.PresetID)
	if err != nil {
		return Session{}, err
	}

	out := req.OutputPath
	if base != "" {
		out = perCameraPath(base, f.Name)
	}
	if out, err = o.outputPath(out); err != nil {
		return Session{}, err
	}

	s := &session{Session: Session{
		Key:        key,
		Kind:       KindRecord,
		FeedID:     f.ID,
		FeedName:   f.Name,
		PresetID:   p.ID,
		OutputPath: out,
		Limit:      req.Limit.String(),
		Argv: ffmpegcmd.IPRecordArgv(ffmpegcmd.IPCapture{
			Feed:   f,
			Limit:  req.Limit.String(),
			Preset: p,
			Output: out,
		}),
	}}
	return o.spawn(s, ffmpeg)
}

func (o *Orchestrator) StopIPRecording(ctx context.Context, feedID string) error {
	return o.do(ctx, func() { o.stop(recordKey(feedID), "") })
}

// StartAllIPRecordings starts a recording for every open preview, writing
// to "<base>_<camera name><ext>". Previews are left alone; a feed that
// fails does not keep the others from starting.
func (o *Orchestrator) StartAllIPRecordings(ctx context.Context, presetID, baseOutputPath string, limit RecordingLimit) ([]BatchResult, error) {
	return call(ctx, o, func() ([]BatchResult, error) {
		var feedIDs []string
		for _, s := range o.sortedSessions() {
			if s.Kind == KindPreview && s.active() {
				feedIDs = append(feedIDs, s.FeedID)
			}
		}
		if len(feedIDs) == 0 {
			return nil, ErrPreviewNotOpen
		}

		base, err := o.outputPath(baseOutputPath)
		if err != nil {
			return nil, o.reject("", err)
		}

		req := IPRecordingRequest{PresetID: presetID, Limit: limit}
		results := make([]BatchResult, 0, len(feedIDs))
		for _, id := range feedIDs {
			r := BatchResult{FeedID: id, FeedName: o.sessions[previewKey(id)].FeedName}
			s, err := o.startRecording(id, req, base)
			if err != nil {
				r.Err, r.Error = err, err.Error()
				o.reject(recordKey(id), err)
			} else {
				r.Session = &s
			}
			results = append(results, r)
		}
		return results, nil
	})
}

// -----------------------------------------------------------------------------
// Everything
// -----------------------------------------------------------------------------

// StopAll stops every session and clears failed ones. It returns how many
// sessions were removed.
func (o *Orchestrator) StopAll(ctx context.Context, reason string) (int, error) {
	return call(ctx, o, func() (int, error) {
		n := o.stopAll()
		o.log.Info("all sessions stopped", zap.String("reason", reason), zap.Int("count", n))
		return n, nil
	})
}

func (o *Orchestrator) stopAll() int {
	n := 0
	for _, s := range o.sortedSessions() {
		if o.stop(s.Key, "") {
			n++
		}
	}
	return n
}

// Sessions returns every running or failed session ordered by key.
func (o *Orchestrator) Sessions(ctx context.Context) ([]Session, error) {
	return call(ctx, o, func() ([]Session, error) {
		now := o.now()
		out := make([]Session, 0, len(o.sessions))
		for _, s := range o.sortedSessions() {
			out = append(out, s.snapshot(now))
		}
		return out, nil
	})
}

// Session returns the session under key. An unknown key reads as idle.
func (o *Orchestrator) Session(ctx context.Context, key string) (Session, error) {
	return call(ctx, o, func() (Session, error) {
		if s, ok := o.sessions[key]; ok {
			return s.snapshot(o.now()), nil
		}
		return Session{Key: key, State: StateIdle, Elapsed: formatElapsed(0)}, nil
	})
}

// Logs returns up to n lines of the latest process output under key.
func (o *Orchestrator) Logs(key string, n int) ([]string, bool) {
	return o.spawner.Logs(key, n)
}

// -----------------------------------------------------------------------------
// Local preview selection
// -----------------------------------------------------------------------------

// SelectLocalPreview records a new device selection. Rapid successive calls
// are coalesced; only the last one is committed after the debounce delay.
func (o *Orchestrator) SelectLocalPreview(ctx context.Context, sel PreviewSelection) error {
	if sel.FrameRate == 0 {
		sel.FrameRate = defaultFrameRate
	}
	if sel.FrameRate < minFrameRate || sel.FrameRate > maxFrameRate {
		return fmt.Errorf("frame rate must be between %d and %d: %w", minFrameRate, maxFrameRate, ErrInvalidRequest)
	}
	if sel.VideoID != "" {
		if _, ok := o.devices.Lookup(device.KindVideo, sel.VideoID); !ok {
			return fmt.Errorf("camera %q: %w", sel.VideoID, ErrDeviceUnresolved)
		}
	}
	if sel.AudioID != "" {
		if _, ok := o.devices.Lookup(device.KindAudio, sel.AudioID); !ok {
			return fmt.Errorf("microphone %q: %w", sel.AudioID, ErrDeviceUnresolved)
		}
	}

	return o.do(ctx, func() {
		o.selSeq++
		seq := o.selSeq
		o.pending = sel
		if o.selTimer != nil {
			o.selTimer.Stop()
		}
		if o.cfg.PreviewDebounce <= 0 {
			o.commitPreview(seq)
			return
		}
		o.selTimer = time.AfterFunc(o.cfg.PreviewDebounce, func() {
			o.post(func() { o.commitPreview(seq) })
		})
	})
}

func (o *Orchestrator) commitPreview(seq uint64) {
	if seq != o.selSeq {
		return // superseded
	}
	o.selected = o.pending
	o.log.Info("local preview selected",
		zap.String("video_id", o.selected.VideoID),
		zap.String("audio_id", o.selected.AudioID),
		zap.Int("frame_rate", o.selected.FrameRate))
	o.hub.Publish(events.TypePreview, o.selected)
}

// LocalPreview returns the committed selection.
func (o *Orchestrator) LocalPreview(ctx context.Context) (PreviewSelection, error) {
	return call(ctx, o, func() (PreviewSelection, error) { return o.selected, nil })
}

// RestartLocalPreview re-announces the committed selection so the preview
// pipeline is rebuilt (after wake).
func (o *Orchestrator) RestartLocalPreview(ctx context.Context) error {
	return o.do(ctx, func() {
		if o.selected.VideoID == "" {
			return
		}
		o.hub.Publish(events.TypePreview, o.selected)
	})
}

// -----------------------------------------------------------------------------
// Loop internals
// -----------------------------------------------------------------------------

// spawn launches s under its key, replacing a failed session there.
func (o *Orchestrator) spawn(s *session, path string) (Session, error) {
	o.gen++
	s.gen = o.gen
	s.State = StateStarting
	o.sessions[s.Key] = s

	h, err := o.spawner.Spawn(s.Key, path, s.Argv)
	if err != nil {
		delete(o.sessions, s.Key)
		o.metrics.SpawnFailures.Inc()
		if errors.Is(err, processmgr.ErrNoSlot) {
			return Session{}, fmt.Errorf("%s: %w", s.Key, ErrSessionLimit)
		}
		return Session{}, fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrSpawn, err)
	}

	s.handle = h
	s.PID = h.PID()
	s.StartedAt = o.now()
	s.State = StateRunning
	o.metrics.RecordSessionStart(string(s.Kind))
	o.log.Info("session started",
		zap.String("key", s.Key),
		zap.Int("pid", s.PID),
		zap.Strings("argv", s.Argv))

	go o.watch(s.Key, s.gen, h)
	o.publish(s)
	return s.snapshot(o.now()), nil
}

func (o *Orchestrator) watch(key string, gen uint64, h processmgr.Handle) {
	<-h.Done()
	o.post(func() { o.complete(key, gen, h) })
}

// complete handles a process that exited on its own.
func (o *Orchestrator) complete(key string, gen uint64, h processmgr.Handle) {
	s, ok := o.sessions[key]
	if !ok || s.gen != gen || s.State != StateRunning {
		return // stopped or replaced meanwhile
	}

	now := o.now()
	secs := now.Sub(s.StartedAt).Seconds()
	s.ended = now
	s.handle = nil

	out := h.Output(0)
	if hits := failureLines(s.Kind, h.Marked()); len(hits) > 0 {
		s.State = StateFailed
		s.Diagnostic = strings.Join(out, "\n")
		if !slices.Contains(out, hits[0]) {
			// the first failure scrolled out of the captured tail
			s.Diagnostic = strings.Join(hits, "\n") + "\n...\n" + s.Diagnostic
		}
		o.metrics.RecordSessionEnd(string(s.Kind), "runtime", secs)
		o.log.Warn("session failed",
			zap.String("key", key),
			zap.Int("exit_code", h.ExitCode()),
			zap.Strings("matches", hits))
		o.publish(s)
		o.alert(key, failureMessage(s), s.Diagnostic)
	} else {
		delete(o.sessions, key)
		s.State = StateIdle
		o.metrics.RecordSessionEnd(string(s.Kind), "", secs)
		o.log.Info("session ended", zap.String("key", key), zap.Int("exit_code", h.ExitCode()))
		o.publish(s)
	}

	// closing the preview window also ends the feed's recording
	if s.Kind == KindPreview {
		o.stop(recordKey(s.FeedID), "")
	}
}

// stop interrupts and forgets the session under key. failure, when set, is
// the metrics reason recorded for a forced stop. Returns false for an idle key.
func (o *Orchestrator) stop(key, failure string) bool {
	s, ok := o.sessions[key]
	if !ok {
		return false
	}
	delete(o.sessions, key)

	if s.State != StateFailed {
		now := o.now()
		s.State = StateStopping
		o.publish(s)
		s.handle.Interrupt()
		s.handle = nil
		s.ended = now
		o.metrics.RecordSessionEnd(string(s.Kind), failure, now.Sub(s.StartedAt).Seconds())
		o.log.Info("session stopped", zap.String("key", key), zap.String("reason", failure))
	}

	s.State = StateIdle
	o.publish(s)
	return true
}

// devicesChanged force-stops the local session when one of its devices
// disconnects, alerting once.
func (o *Orchestrator) devicesChanged(evs []device.Event) {
	s, ok := o.sessions[localKey]
	if !ok || s.State != StateRunning {
		return
	}
	for _, ev := range evs {
		if ev.Change != device.Disconnected || !s.boundTo(ev.Device) {
			continue
		}
		o.metrics.DeviceLosses.Inc()
		o.stop(localKey, "device_lost")
		o.alert(localKey, fmt.Sprintf("Capture device %q was disconnected; recording stopped.", ev.Device.Name), "")
		return
	}
}

// reject logs and alerts a failed start, returning err unchanged.
func (o *Orchestrator) reject(key string, err error) error {
	o.log.Warn("session not started", zap.String("key", key), zap.Error(err))
	o.alert(key, err.Error(), "")
	return err
}

func (o *Orchestrator) alert(key, msg, output string) {
	o.hub.Publish(events.TypeAlert, events.Alert{Message: msg, Session: key, Output: output})
}

func (o *Orchestrator) publish(s *session) {
	o.hub.Publish(events.TypeSession, s.snapshot(o.now()))
}

func (o *Orchestrator) sortedSessions() []*session {
	out := make([]*session, 0, len(o.sessions))
	for _, s := range o.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// outputPath returns path, or a timestamped file in the recordings
// directory when path is empty.
func (o *Orchestrator) outputPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if o.cfg.RecordingsDir == "" {
		return "", ErrOutputPathMissing
	}
	return filepath.Join(o.cfg.RecordingsDir, DefaultSaveName(o.now())), nil
}

func failureMessage(s *session) string {
	switch s.Kind {
	case KindPreview:
		return fmt.Sprintf("Could not play %q.", s.FeedName)
	case KindRecord:
		return fmt.Sprintf("Recording of %q failed.", s.FeedName)
	}
	return "Recording failed."
}
