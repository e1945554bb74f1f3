// Package fmtt prints error chains for startup diagnostics.
package fmtt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// ErrChain renders every layer of err with its dynamic type, one per line.
// errors.Join branches are indented under their parent.
func ErrChain(err error) string {
	if err == nil {
		return "<nil>"
	}
	var b strings.Builder
	walk(err, 0, func(depth int, e error) {
		fmt.Fprintf(&b, "%s%T: %v\n", strings.Repeat("  ", depth), e, e)
	})
	return b.String()
}

// DumpErrChain writes ErrChain followed by a spew dump of each layer's
// value. Used in development mode only; dumps may contain config values.
func DumpErrChain(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, MaxDepth: 4}
	i := 0
	walk(err, 0, func(depth int, e error) {
		fmt.Fprintf(w, "[%d] %T\n", i, e)
		fmt.Fprintf(w, "   Error(): %v\n", e)
		cfg.Fdump(w, e)
		i++
	})
}

func walk(err error, depth int, fn func(int, error)) {
	for e := err; e != nil; {
		fn(depth, e)
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner, depth+1, fn)
			}
			return
		default:
			e = errors.Unwrap(e)
		}
	}
}
