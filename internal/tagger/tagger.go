// Package tagger runs corrected text through a morphosyntactic tagger and
// returns its CoNLL-U output with character ranges per token.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTaggingFailed is matched by every error a Tagger returns for a text it
// could not tag: transport errors, timeouts, non-2xx statuses and
// responses without a result.
var ErrTaggingFailed = errors.New("tagging failed")

// Tagger produces CoNLL-U for text. Implementations are safe for
// concurrent use.
type Tagger interface {
	Tag(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function to the Tagger interface.
type Func func(ctx context.Context, text string) (string, error)

// Tag calls f.
func (f Func) Tag(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// Failure describes one failed tagger call.
type Failure struct {
	Endpoint string
	Status   int // HTTP status, 0 when no response arrived
	Detail   string
	Err      error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString("tagger: ")
	if f.Endpoint != "" {
		b.WriteString(f.Endpoint)
		b.WriteString(": ")
	}
	if f.Status != 0 {
		fmt.Fprintf(&b, "HTTP error %d: ", f.Status)
	}
	b.WriteString(f.Detail)
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrTaggingFailed and the underlying cause.
func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{ErrTaggingFailed}
	}
	return []error{ErrTaggingFailed, f.Err}
}
