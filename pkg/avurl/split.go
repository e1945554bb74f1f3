package avurl

import "strings"

// parts is one URL broken up the way ffmpeg's av_url_split does, plus the
// separators needed to rebuild the exact input.
type parts struct {
	scheme, userinfo, host, port, path string

	hasScheme bool
	slashes   int
	hasAt     bool
	brackets  bool
	hasPort   bool
	junk      string // bytes between ']' and the path
}

// split follows libavformat's av_url_split without its buffer truncation.
// The port is kept as the raw substring rather than atoi'd.
func split(url string) (p parts) {
	colon := strings.IndexByte(url, ':')
	if colon == -1 {
		// no scheme: plain file path
		p.path = url
		return
	}
	p.hasScheme = true
	p.scheme = url[:colon]

	i := colon + 1
	for p.slashes < 2 && i < len(url) && url[i] == '/' {
		i++
		p.slashes++
	}
	if i == len(url) {
		return
	}

	end := i + strcspn(url[i:], "/?#")
	p.path = url[end:]
	if end == i {
		return // schema:[//](/|?|#)..., no authority
	}

	// userinfo runs up to the last '@' of the authority
	start := i
	for {
		at := strings.IndexByte(url[i:end], '@')
		if at == -1 {
			break
		}
		p.hasAt = true
		p.userinfo = url[start : i+at]
		i += at + 1
		if i == len(url) {
			return
		}
	}

	authority := url[i:end]
	if rb := strings.IndexByte(authority, ']'); rb != -1 && authority[0] == '[' {
		p.brackets = true
		p.host = authority[1:rb]
		rest := authority[rb+1:]
		switch {
		case rest == "":
		case rest[0] == ':':
			p.hasPort = true
			p.port = rest[1:]
		default:
			p.junk = rest
		}
		return
	}
	if c := strings.IndexByte(authority, ':'); c != -1 {
		p.hasPort = true
		p.host, p.port = authority[:c], authority[c+1:]
		return
	}
	p.host = authority
	return
}

// String rebuilds the URL; for any input s, split(s).String() == s.
func (p parts) String() string {
	var b strings.Builder
	b.WriteString(p.scheme)
	if p.hasScheme {
		b.WriteByte(':')
	}
	b.WriteString(strings.Repeat("/", p.slashes))
	b.WriteString(p.userinfo)
	if p.hasAt {
		b.WriteByte('@')
	}
	if p.brackets {
		b.WriteString("[" + p.host + "]")
	} else {
		b.WriteString(p.host)
	}
	if p.hasPort {
		b.WriteByte(':')
	}
	b.WriteString(p.port)
	b.WriteString(p.junk)
	b.WriteString(p.path)
	return b.String()
}

func strcspn(s, reject string) int {
	if idx := strings.IndexAny(s, reject); idx != -1 {
		return idx
	}
	return len(s)
}
