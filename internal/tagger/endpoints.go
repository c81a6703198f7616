package tagger

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Endpoints is a round-robin pool of tagger base URLs.
type Endpoints struct {
	urls    []string
	counter atomic.Uint64
}

// NewEndpoints creates a pool from base URLs. Blank entries are skipped and
// trailing slashes trimmed. At least one URL is required.
func NewEndpoints(urls []string) (*Endpoints, error) {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u != "" {
			clean = append(clean, u)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("tagger: at least one endpoint is required")
	}
	for i, u := range clean {
		slog.Debug("tagger endpoint registered", "index", i, "endpoint", u)
	}
	return &Endpoints{urls: clean}, nil
}

// Next returns the next endpoint. It is safe for concurrent use.
func (p *Endpoints) Next() string {
	idx := p.counter.Add(1) - 1
	return p.urls[idx%uint64(len(p.urls))]
}

// NextExcluding returns the next endpoint not in tried. Once every endpoint
// has been tried it falls back to plain round-robin.
func (p *Endpoints) NextExcluding(tried map[string]bool) string {
	for range p.urls {
		if u := p.Next(); !tried[u] {
			return u
		}
	}
	return p.Next()
}

// Len returns the number of endpoints.
func (p *Endpoints) Len() int { return len(p.urls) }

// All returns the endpoints in configuration order.
func (p *Endpoints) All() []string {
	out := make([]string, len(p.urls))
	copy(out, p.urls)
	return out
}
