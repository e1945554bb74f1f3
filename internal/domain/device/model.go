package device

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// CaptureDevice is one OS-reported capture device. ID is the stable identity;
// the positional index used on the ffmpeg command line is never stored here.
type CaptureDevice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

type ChangeKind string

const (
	Connected    ChangeKind = "connected"
	Disconnected ChangeKind = "disconnected"
)

// Event is one difference between two consecutive device snapshots.
type Event struct {
	Change ChangeKind    `json:"change"`
	Device CaptureDevice `json:"device"`
}

// Diff returns the disconnects (in prev order) followed by the connects (in next order).
func Diff(prev, next []CaptureDevice) []Event {
	key := func(d CaptureDevice) string { return string(d.Kind) + "\x00" + d.ID }

	seen := make(map[string]struct{}, len(next))
	for _, d := range next {
		seen[key(d)] = struct{}{}
	}
	was := make(map[string]struct{}, len(prev))
	var evs []Event
	for _, d := range prev {
		was[key(d)] = struct{}{}
		if _, ok := seen[key(d)]; !ok {
			evs = append(evs, Event{Change: Disconnected, Device: d})
		}
	}
	for _, d := range next {
		if _, ok := was[key(d)]; !ok {
			evs = append(evs, Event{Change: Connected, Device: d})
		}
	}
	return evs
}
