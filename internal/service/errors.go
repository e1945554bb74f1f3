package service

import "errors"

var (
	// resolution errors: reported before anything is spawned
	ErrExecutableMissing = errors.New("executable not found")
	ErrDeviceUnresolved  = errors.New("capture device not available")
	ErrOutputPathMissing = errors.New("output path missing")

	ErrSessionActive = errors.New("session already active")
	ErrSessionLimit  = errors.New("concurrent session limit reached")
	ErrSpawn         = errors.New("failed to launch process")

	ErrFeedNotFound    = errors.New("feed not found")
	ErrFeedInvalid     = errors.New("invalid feed")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrPresetProtected = errors.New("built-in preset cannot be renamed or removed")
	ErrPresetInvalid   = errors.New("invalid preset")
	ErrPreviewNotOpen  = errors.New("no open preview for feed")
	ErrInvalidRequest  = errors.New("invalid request")
)

// ErrLoopStopped is returned once the session loop has exited.
var ErrLoopStopped = errors.New("session loop is not running")
