// Package ffmpegcmd builds argument vectors for ffmpeg, ffplay and ffprobe.
//
// This layer only constructs commands: no execution, no I/O. Every function
// is pure, so identical inputs always yield byte-identical argv.
//
// Emission policy:
//
//   - Optional string flags are emitted only when the value is non-empty.
//   - Numeric fields held as strings are emitted only when they parse as a
//     positive integer; anything else drops the whole flag/value pair.
//   - The executable path is not part of argv; the process layer owns it.
package ffmpegcmd

import (
	"strconv"
	"strings"
)

// Builder accumulates argv tokens. Fluent, single-use, not concurrency-safe.
type Builder struct {
	args []string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Flag appends flag and val if val is non-empty.
func (b *Builder) Flag(flag, val string) *Builder {
	if val != "" {
		b.args = append(b.args, flag, val)
	}
	return b
}

// PositiveFlag appends flag and val+suffix if val parses as an integer > 0.
func (b *Builder) PositiveFlag(flag, val, suffix string) *Builder {
	if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && n > 0 {
		b.args = append(b.args, flag, strconv.Itoa(n)+suffix)
	}
	return b
}

// Args appends tokens verbatim (including empty ones).
func (b *Builder) Args(tokens ...string) *Builder {
	b.args = append(b.args, tokens...)
	return b
}

// If runs fn against b when cond holds; keeps chains flat.
func (b *Builder) If(cond bool, fn func(*Builder)) *Builder {
	if cond {
		fn(b)
	}
	return b
}

// BuildArgv returns a copy of the argument vector.
func (b *Builder) BuildArgv() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}

// Quote renders argv as one POSIX-shell-safe string, for logs.
func Quote(name string, argv []string) string {
	quoted := make([]string, 0, len(argv)+1)
	quoted = append(quoted, shQuote(name))
	for _, a := range argv {
		quoted = append(quoted, shQuote(a))
	}
	return strings.Join(quoted, " ")
}

// shQuote single-quotes s for a POSIX shell, closing and reopening the
// quote around each inner single quote.
func shQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
