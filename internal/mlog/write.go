package mlog

import (
	"io"
	"strings"

	"github.com/dogmatiq/iago/must"
)

// String renders a log line as a string.
func String(
	ids []IconWithLabel,
	icons []Icon,
	text ...string,
) string {
	w := &strings.Builder{}
	mustWrite(w, ids, icons, text)
	return w.String()
}

// Write renders a log line to w.
func Write(
	w io.Writer,
	ids []IconWithLabel,
	icons []Icon,
	text ...string,
) (n int, err error) {
	defer must.Recover(&err)
	n = mustWrite(w, ids, icons, text)
	return
}

// mustWrite renders the identifiers, then the status icons, then the text
// segments separated by SeparatorIcon. Empty segments are elided.
func mustWrite(
	w io.Writer,
	ids []IconWithLabel,
	icons []Icon,
	text []string,
) (n int) {
	for _, v := range ids {
		n += must.WriteTo(w, v)
		n += must.Write(w, space2)
	}

	for _, v := range icons {
		n += must.WriteTo(w, v)
		n += must.Write(w, space1)
	}

	sep := false
	for _, s := range text {
		if s == "" {
			continue
		}

		n += must.Write(w, space1)

		if sep {
			n += must.WriteTo(w, SeparatorIcon)
			n += must.Write(w, space1)
		}

		n += must.WriteString(w, s)
		sep = true
	}

	return
}

var (
	space1 = []byte{' '}
	space2 = []byte{' ', ' '}
)
