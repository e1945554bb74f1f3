package avurl

import (
	"fmt"
	"net"
	"strings"
	"unicode"
)

func validateHost(raw string) error {
	switch {
	case isDottedQuad(raw):
		if ip := net.ParseIP(raw); ip == nil || ip.To4() == nil {
			return fmt.Errorf("bad IP: '%s'", raw)
		}
	case strings.Contains(raw, ":"):
		if ip := net.ParseIP(raw); ip == nil || ip.To4() != nil {
			return fmt.Errorf("bad IPv6: '%s'", raw)
		}
	default:
		if !isHostname(raw) {
			return fmt.Errorf("bad hostname: '%s'", raw)
		}
	}
	return nil
}

func isDottedQuad(raw string) bool {
	octets := strings.Split(raw, ".")
	if len(octets) != 4 {
		return false
	}
	for _, o := range octets {
		if o == "" || strings.IndexFunc(o, func(r rune) bool { return !unicode.IsDigit(r) }) != -1 {
			return false
		}
	}
	return true
}

// isHostname applies RFC 1123 label rules.
func isHostname(raw string) bool {
	if len(raw) > 253 {
		return false
	}
	for _, label := range strings.Split(raw, ".") {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
				return false
			}
		}
	}
	return true
}
