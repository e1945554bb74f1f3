package feed

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edirooss/avcapture-server/pkg/avurl"
)

func (f *IPCameraFeed) Validate() error {
	// name: minLength 1, maxLength 100
	if len(f.Name) < 1 {
		return errors.New("name must be at least 1 character")
	}
	if len(f.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}

	switch f.Transport {
	case TransportRTP, TransportMPEGTSRTP, TransportMPEGTSUDP:
	default:
		return fmt.Errorf("invalid transport %q", f.Transport)
	}

	// url: optional, maxLength 2048, protocol required
	if f.URL != "" {
		if len(f.URL) > 2048 {
			return errors.New("url must be at most 2048 characters")
		}
		if err := validateInputURL(f.URL); err != nil {
			return fmt.Errorf("invalid url: %s", err)
		}
	}

	if len(f.Username) > 128 {
		return errors.New("username must be at most 128 characters")
	}
	if len(f.Password) > 128 {
		return errors.New("password must be at most 128 characters")
	}

	if f.SDPFile != "" && !strings.EqualFold(filepath.Ext(f.SDPFile), ".sdp") {
		return errors.New("sdp_file must have the .sdp extension")
	}
	return nil
}

// validateInputURL requires a protocol; ffmpeg would otherwise read a local file.
func validateInputURL(raw string) error {
	u, err := avurl.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return errors.New("missing protocol")
	}
	return nil
}
