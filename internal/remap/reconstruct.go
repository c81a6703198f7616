package remap

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/learnercorpus/errmap/internal/annotation"
)

// Reconstruct splices the kept corrections into text from left to right
// and appends a resolved entry per kept correction to lookup. A running
// offset tracks how far earlier replacements have shifted the text, so a
// correction at [start, end) lands at [start+offset, start+offset+len).
//
// kept must be in ascending start order, as Resolve returns it. Any kept
// correction without exactly one replacement, outside the text, or
// starting inside the previous one fails the whole call and leaves lookup
// untouched.
func Reconstruct(text string, kept []annotation.Record, lookup *Lookup) (string, error) {
	if len(kept) == 0 {
		return text, nil
	}
	src := []rune(text)

	var b strings.Builder
	b.Grow(len(text))
	resolved := make([]Entry, 0, len(kept))
	offset, prevEnd := 0, 0
	for _, k := range kept {
		repl, err := k.Replacement()
		if err != nil {
			return "", err
		}
		if !k.Span.Valid(len(src)) {
			return "", fmt.Errorf("%w: correction %s span %s outside text of %d characters",
				annotation.ErrMalformedAnnotation, k.ID, k.Span, len(src))
		}
		if k.Span.Start < prevEnd {
			return "", fmt.Errorf("%w: correction %s span %s crosses the previous correction ending at %d",
				annotation.ErrMalformedAnnotation, k.ID, k.Span, prevEnd)
		}

		b.WriteString(string(src[prevEnd:k.Span.Start]))
		b.WriteString(repl)
		prevEnd = k.Span.End

		replLen := utf8.RuneCountInString(repl)
		newStart := k.Span.Start + offset
		resolved = append(resolved, Entry{
			ID:        k.ID,
			OrigStart: k.Span.Start,
			OrigEnd:   k.Span.End,
			Kind:      RefResolved,
			NewStart:  newStart,
			NewEnd:    newStart + replLen,
		})
		offset += replLen - k.Span.Len()
	}
	b.WriteString(string(src[prevEnd:]))

	for _, e := range resolved {
		lookup.add(e)
	}
	return b.String(), nil
}
