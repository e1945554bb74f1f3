// Package avurl parses and rewrites media URLs the way ffmpeg reads them.
package avurl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type URL struct {
	Scheme   string `json:"scheme"`
	Userinfo string `json:"userinfo"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Path     string `json:"path"`
}

// Parse splits a URL and validates its host and port. Userinfo embedded in
// the URL is rejected; credentials travel separately and are injected with
// WithCredentials right before spawn.
func Parse(raw string) (*URL, error) {
	p := split(raw)

	// invariant: the split must round-trip; a mismatch means split is broken
	if raw != p.String() {
		return nil, errors.New("unable to parse URL")
	}

	if p.junk != "" {
		return nil, errors.New("invalid URL")
	}
	if p.hasAt {
		return nil, errors.New("userinfo should not be embedded in the URL")
	}
	if p.host != "" {
		if err := validateHost(p.host); err != nil {
			return nil, err
		}
	}
	if p.port != "" && !isPort(p.port) {
		return nil, fmt.Errorf("bad port: '%s'", p.port)
	}

	return &URL{
		Scheme:   p.scheme,
		Userinfo: p.userinfo,
		Host:     p.host,
		Port:     p.port,
		Path:     p.path,
	}, nil
}

// Scheme returns the lower-cased scheme of raw, or "" for plain paths.
func Scheme(raw string) string {
	return strings.ToLower(split(raw).scheme)
}

// WithCredentials returns raw with "user:pass@" set as its userinfo.
// The URL is returned unchanged unless both username and password are
// non-empty. Reserved characters are percent-encoded.
func WithCredentials(raw, username, password string) string {
	if username == "" || password == "" {
		return raw
	}
	p := split(raw)
	if p.host == "" && !p.brackets {
		return raw
	}
	p.hasAt = true
	p.userinfo = escapeUsername(username) + ":" + escapePassword(password)
	return p.String()
}

// Redact masks the password part of any embedded userinfo.
func Redact(raw string) string {
	p := split(raw)
	if !p.hasAt {
		return raw
	}
	if user, _, ok := strings.Cut(p.userinfo, ":"); ok {
		p.userinfo = user + ":xxxxx"
	}
	return p.String()
}

var (
	usernameEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "?", "%3F", "#", "%23", ":", "%3A", "@", "%40")
	passwordEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "?", "%3F", "#", "%23", "@", "%40")
)

// escapeUsername escapes '%', '/', '?', '#', ':' and '@'.
func escapeUsername(s string) string { return usernameEscaper.Replace(s) }

// escapePassword escapes '%', '/', '?', '#' and '@'; ':' is legal after the first one.
func escapePassword(s string) string { return passwordEscaper.Replace(s) }

// isPort reports whether s is a decimal port number (0–65535) without leading zeros.
func isPort(s string) bool {
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return port >= 0 && port <= 65535
}
