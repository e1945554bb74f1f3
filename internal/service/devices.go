package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/internal/events"
)

// DeviceEnumerator reports the OS capture devices in selector-index order.
type DeviceEnumerator interface {
	Enumerate(ctx context.Context) (video, audio []device.CaptureDevice, err error)
}

// DeviceRegistry caches the last device snapshot and reports changes.
// Indices handed to ffmpeg are always computed from a fresh enumeration.
type DeviceRegistry struct {
	log  *zap.Logger
	enum DeviceEnumerator
	hub  *events.Hub

	// refreshMu serializes refreshes from enumeration through the swap so
	// an older snapshot never commits over a newer one.
	refreshMu sync.Mutex

	mu        sync.RWMutex
	video     []device.CaptureDevice
	audio     []device.CaptureDevice
	listeners []func([]device.Event)
}

func NewDeviceRegistry(log *zap.Logger, enum DeviceEnumerator, hub *events.Hub) *DeviceRegistry {
	return &DeviceRegistry{
		log:  log.Named("devices"),
		enum: enum,
		hub:  hub,
	}
}

// OnChange registers fn to receive every non-empty change set. fn runs on
// the refreshing goroutine and must not block.
func (r *DeviceRegistry) OnChange(fn func([]device.Event)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *DeviceRegistry) ListVideo() []device.CaptureDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]device.CaptureDevice(nil), r.video...)
}

func (r *DeviceRegistry) ListAudio() []device.CaptureDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]device.CaptureDevice(nil), r.audio...)
}

// Refresh re-enumerates, swaps the snapshot and emits the differences.
func (r *DeviceRegistry) Refresh(ctx context.Context) ([]device.Event, error) {
	_, _, evs, err := r.refresh(ctx)
	return evs, err
}

// refresh returns the snapshot it committed along with the changes.
// Listeners and hub publishes run under refreshMu so events reach them in
// commit order.
func (r *DeviceRegistry) refresh(ctx context.Context) (video, audio []device.CaptureDevice, evs []device.Event, err error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	video, audio, err = r.enum.Enumerate(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	r.mu.Lock()
	evs = device.Diff(concat(r.video, r.audio), concat(video, audio))
	r.video, r.audio = video, audio
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	if len(evs) == 0 {
		return video, audio, nil, nil
	}
	for _, ev := range evs {
		r.log.Info("device "+string(ev.Change),
			zap.String("kind", string(ev.Device.Kind)),
			zap.String("id", ev.Device.ID))
		r.hub.Publish(events.TypeDevice, ev)
	}
	for _, fn := range listeners {
		fn(evs)
	}
	return video, audio, evs, nil
}

// IndexesOf re-enumerates once and returns the positions of the camera and
// the microphone in that single snapshot. audio is -1 when audioID is empty
// or not present. ok is false when the enumeration fails or the camera is
// missing.
func (r *DeviceRegistry) IndexesOf(ctx context.Context, videoID, audioID string) (video, audio int, ok bool) {
	vl, al, _, err := r.refresh(ctx)
	if err != nil {
		r.log.Warn("device enumeration failed", zap.Error(err))
		return 0, -1, false
	}

	video = slices.IndexFunc(vl, func(d device.CaptureDevice) bool { return d.ID == videoID })
	if video < 0 {
		return 0, -1, false
	}
	audio = -1
	if audioID != "" {
		audio = slices.IndexFunc(al, func(d device.CaptureDevice) bool { return d.ID == audioID })
	}
	return video, audio, true
}

// Lookup returns the cached device with id, without re-enumerating.
func (r *DeviceRegistry) Lookup(kind device.Kind, id string) (device.CaptureDevice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.video
	if kind == device.KindAudio {
		list = r.audio
	}
	for _, d := range list {
		if d.ID == id {
			return d, true
		}
	}
	return device.CaptureDevice{}, false
}

// Watch polls Refresh every interval until ctx is done. Enumeration errors
// are logged once per streak.
func (r *DeviceRegistry) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		if _, err := r.Refresh(ctx); err != nil {
			if !failing {
				r.log.Warn("device enumeration failed", zap.Error(err))
			}
			failing = true
		} else if failing {
			r.log.Info("device enumeration recovered")
			failing = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func concat(a, b []device.CaptureDevice) []device.CaptureDevice {
	out := make([]device.CaptureDevice, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
