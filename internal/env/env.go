// Package env reads process-level switches from the environment.
package env

import "os"

// Dev reports whether the server runs in development mode (ENV=dev):
// permissive CORS, gin debug output, and full error dumps on startup failure.
func Dev() bool { return os.Getenv("ENV") == "dev" }

// ConfigPath is the config file to load; AVCAPTURE_CONFIG overrides the
// default next to the working directory.
func ConfigPath() string {
	if p := os.Getenv("AVCAPTURE_CONFIG"); p != "" {
		return p
	}
	return "avcapture-server.yaml"
}
