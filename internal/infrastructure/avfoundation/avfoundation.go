// Package avfoundation enumerates macOS capture devices through ffmpeg's
// avfoundation input device.
package avfoundation

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/pkg/ffmpegcmd"
)

// listTimeout bounds one enumeration; ffmpeg answers in well under a second.
const listTimeout = 5 * time.Second

// Lister enumerates devices by running ffmpeg -list_devices.
type Lister struct {
	ffmpeg string
}

func NewLister(ffmpegPath string) *Lister {
	return &Lister{ffmpeg: ffmpegPath}
}

// Enumerate returns the video and audio devices in ffmpeg's index order.
func (l *Lister) Enumerate(ctx context.Context) (video, audio []device.CaptureDevice, err error) {
	if l.ffmpeg == "" {
		return nil, nil, errors.New("ffmpeg not available")
	}
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	// -list_devices always exits non-zero ("Error opening input"); the listing
	// is on stderr either way, so only a launch failure counts.
	out, runErr := exec.CommandContext(ctx, l.ffmpeg, ffmpegcmd.ListDevicesArgv()...).CombinedOutput()
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, nil, fmt.Errorf("run ffmpeg: %w", runErr)
	}

	video, audio, ok := Parse(out)
	if !ok {
		return nil, nil, errors.New("no avfoundation device listing in ffmpeg output")
	}
	return video, audio, nil
}

var (
	sectionRe = regexp.MustCompile(`AVFoundation (video|audio) devices:`)
	entryRe   = regexp.MustCompile(`\]\s*\[(\d+)\]\s+(.+)$`)
)

// Parse extracts both device sections from -list_devices output. ok is
// false when no section header was found at all. ffmpeg prints devices in
// index order, so list position is the selector index. Duplicate names get
// a " (n)" suffix so IDs stay unique.
func Parse(out []byte) (video, audio []device.CaptureDevice, ok bool) {
	var kind device.Kind
	seen := map[string]int{}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			ok = true
			kind = device.Kind(m[1])
			continue
		}
		if kind == "" {
			continue
		}
		m := entryRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[2])

		key := string(kind) + "\x00" + name
		seen[key]++
		id := name
		if n := seen[key]; n > 1 {
			id = fmt.Sprintf("%s (%d)", name, n)
		}

		d := device.CaptureDevice{ID: id, Name: name, Kind: kind}
		if kind == device.KindVideo {
			video = append(video, d)
		} else {
			audio = append(audio, d)
		}
	}
	return video, audio, ok
}
