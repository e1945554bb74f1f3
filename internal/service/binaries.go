package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Binaries holds resolved executable paths; an empty path means missing.
type Binaries struct {
	FFmpeg  string `json:"ffmpeg"`
	FFplay  string `json:"ffplay"`
	FFprobe string `json:"ffprobe"`
}

// ResolveBinaries looks each tool up on PATH, falling back to bundleDir.
func ResolveBinaries(log *zap.Logger, bundleDir string) Binaries {
	b := Binaries{
		FFmpeg:  resolveBinary("ffmpeg", bundleDir),
		FFplay:  resolveBinary("ffplay", bundleDir),
		FFprobe: resolveBinary("ffprobe", bundleDir),
	}
	log.Info("binaries resolved",
		zap.String("ffmpeg", b.FFmpeg),
		zap.String("ffplay", b.FFplay),
		zap.String("ffprobe", b.FFprobe))
	return b
}

func resolveBinary(name, bundleDir string) string {
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	if bundleDir == "" {
		return ""
	}
	p := filepath.Join(bundleDir, name)
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() && fi.Mode()&0o111 != 0 {
		return p
	}
	return ""
}

// needBinary returns path or ErrExecutableMissing naming the tool.
func needBinary(name, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s: %w", name, ErrExecutableMissing)
	}
	return path, nil
}
