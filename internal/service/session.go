package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/internal/infrastructure/processmgr"
)

// SessionKind tells which process template a session runs.
type SessionKind string

const (
	KindLocal   SessionKind = "local"   // AVFoundation capture to file
	KindRecord  SessionKind = "record"  // IP camera capture to file
	KindPreview SessionKind = "preview" // ffplay window for an IP camera
)

type SessionState string

const (
	StateIdle     SessionState = "idle"
	StateStarting SessionState = "starting"
	StateRunning  SessionState = "running"
	StateStopping SessionState = "stopping"
	StateFailed   SessionState = "failed"
)

// Session is a point-in-time view of one recording or preview.
type Session struct {
	Key        string       `json:"key"`                   // "local", "record:<feed>", "preview:<feed>"
	Kind       SessionKind  `json:"kind"`                  //
	FeedID     string       `json:"feed_id,omitempty"`     // IP sessions only
	FeedName   string       `json:"feed_name,omitempty"`   //
	State      SessionState `json:"state"`                 //
	PresetID   string       `json:"preset_id,omitempty"`   // recordings only
	OutputPath string       `json:"output_path,omitempty"` // recordings only
	Argv       []string     `json:"argv"`                  // without the executable
	PID        int          `json:"pid,omitempty"`         //
	StartedAt  time.Time    `json:"started_at"`            //
	Limit      string       `json:"limit,omitempty"`       // "HH:MM:SS" auto-stop
	Elapsed    string       `json:"elapsed"`               // "HH:MM:SS"
	Diagnostic string       `json:"diagnostic,omitempty"`  // captured output of a failed run
}

const localKey = "local"

func recordKey(feedID string) string  { return "record:" + feedID }
func previewKey(feedID string) string { return "preview:" + feedID }

// session is the orchestrator-owned record behind a Session. Only the
// command loop touches it.
type session struct {
	Session

	gen    uint64
	handle processmgr.Handle
	ended  time.Time

	// devices bound to a local session, by kind
	videoID string
	audioID string
}

func (s *session) snapshot(now time.Time) Session {
	out := s.Session
	out.Argv = append([]string(nil), s.Argv...)

	end := now
	if !s.ended.IsZero() {
		end = s.ended
	}
	if !s.StartedAt.IsZero() {
		out.Elapsed = formatElapsed(end.Sub(s.StartedAt))
	} else {
		out.Elapsed = formatElapsed(0)
	}
	return out
}

// active is true until the session is stopped or has failed.
func (s *session) active() bool { return s.State != StateFailed }

// boundTo reports whether a local session captures from the device.
func (s *session) boundTo(d device.CaptureDevice) bool {
	switch d.Kind {
	case device.KindVideo:
		return s.videoID != "" && s.videoID == d.ID
	case device.KindAudio:
		return s.audioID != "" && s.audioID == d.ID
	}
	return false
}

// RecordingLimit is an optional auto-stop duration. All zero = no limit.
type RecordingLimit struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func (l RecordingLimit) IsZero() bool { return l == RecordingLimit{} }

func (l RecordingLimit) Validate() error {
	if l.Hours < 0 || l.Hours > 99 {
		return fmt.Errorf("hours must be between 0 and 99: %w", ErrInvalidRequest)
	}
	if l.Minutes < 0 || l.Minutes > 59 {
		return fmt.Errorf("minutes must be between 0 and 59: %w", ErrInvalidRequest)
	}
	if l.Seconds < 0 || l.Seconds > 59 {
		return fmt.Errorf("seconds must be between 0 and 59: %w", ErrInvalidRequest)
	}
	return nil
}

// String renders the ffmpeg -t value; unset parts read as "00" and a zero
// limit renders empty.
func (l RecordingLimit) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", l.Hours, l.Minutes, l.Seconds)
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// DefaultSaveName is the file name used when a recording is started
// without an output path.
func DefaultSaveName(now time.Time) string {
	return "Recording_" + now.Format("2006-01-02_15-04-05") + ".mp4"
}

// perCameraPath derives "<base>_<camera><ext>" for batch recordings.
func perCameraPath(base, camera string) string {
	ext := filepath.Ext(base)
	name := strings.ReplaceAll(camera, string(filepath.Separator), "-")
	return strings.TrimSuffix(base, ext) + "_" + name + ext
}

// previewFailures are the ffplay messages that mean the stream never played.
var previewFailures = []string{
	"invalid data",
	"no such file",
	"connection refused",
	"not found",
	"failed: host is down",
}

// IsFailureLine reports whether line could mark any kind of run as failed.
// The process manager keeps such lines for the whole run so a long
// recording cannot push an early failure out of its output ring.
func IsFailureLine(line string) bool {
	return len(failureLines(KindRecord, []string{line})) > 0 ||
		len(failureLines(KindPreview, []string{line})) > 0
}

// failureLines returns the captured lines that mark a run as failed:
// any line containing "error" for recordings, or a known ffplay failure
// for previews. Matching is case-insensitive.
func failureLines(kind SessionKind, lines []string) []string {
	var hits []string
	for _, line := range lines {
		l := strings.ToLower(line)
		if kind != KindPreview {
			if strings.Contains(l, "error") {
				hits = append(hits, line)
			}
			continue
		}
		for _, f := range previewFailures {
			if strings.Contains(l, f) {
				hits = append(hits, line)
				break
			}
		}
	}
	return hits
}
