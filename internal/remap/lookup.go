package remap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/learnercorpus/errmap/internal/annotation"
)

// ErrLookupInconsistency signals that the lookup table does not describe
// every correction of a unit exactly once, or that an id's reference chain
// does not end at a resolved entry.
var ErrLookupInconsistency = errors.New("lookup inconsistency")

// RefKind tells how an entry relates to the reconstructed text.
type RefKind string

const (
	// RefDuplicate: the span equals an earlier correction's span; that
	// correction stands for it.
	RefDuplicate RefKind = "duplicate"
	// RefOverlap: the span lies inside the kept span named by RefID.
	RefOverlap RefKind = "overlap"
	// RefResolved: the correction was spliced at [NewStart, NewEnd).
	RefResolved RefKind = "resolved"
)

// Entry is one lookup row per correction id.
type Entry struct {
	ID        string  `json:"id"`
	OrigStart int     `json:"orig_start"`
	OrigEnd   int     `json:"orig_end"`
	RefID     string  `json:"ref_id,omitempty"`
	Kind      RefKind `json:"kind"`
	NewStart  int     `json:"new_start"`
	NewEnd    int     `json:"new_end"`
}

// Span returns the original span of the entry.
func (e Entry) Span() annotation.Span {
	return annotation.Span{Start: e.OrigStart, End: e.OrigEnd}
}

// Lookup maps correction ids of one unit to their place in the
// reconstructed text. It is built per unit and never shared.
type Lookup struct {
	entries []Entry
	byID    map[string]int
	// bySpan names the first correction seen for each distinct span.
	bySpan map[annotation.Span]string
}

func newLookup(capacity int) *Lookup {
	return &Lookup{
		entries: make([]Entry, 0, capacity),
		byID:    make(map[string]int, capacity),
		bySpan:  make(map[annotation.Span]string, capacity),
	}
}

func (l *Lookup) add(e Entry) {
	l.byID[e.ID] = len(l.entries)
	l.entries = append(l.entries, e)
}

// Len returns the number of entries.
func (l *Lookup) Len() int { return len(l.entries) }

// Entries returns a copy of the entries ordered by original start. Entries
// with the same start keep insertion order.
func (l *Lookup) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrigStart < out[j].OrigStart })
	return out
}

// Entry returns the row for id as recorded, without following references.
func (l *Lookup) Entry(id string) (Entry, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Resolve follows id's references to the resolved entry that covers it in
// the reconstructed text. A duplicate hops to the correction that
// represented its span; an overlap hops to its containing kept span.
func (l *Lookup) Resolve(id string) (Entry, error) {
	e, ok := l.Entry(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: no entry for id %q", ErrLookupInconsistency, id)
	}
	if e.Kind == RefDuplicate {
		rep, ok := l.bySpan[e.Span()]
		if !ok || rep == e.ID {
			return Entry{}, fmt.Errorf("%w: duplicate %q has no representative", ErrLookupInconsistency, id)
		}
		if e, ok = l.Entry(rep); !ok {
			return Entry{}, fmt.Errorf("%w: representative %q of %q missing", ErrLookupInconsistency, rep, id)
		}
		if e.Kind == RefDuplicate {
			return Entry{}, fmt.Errorf("%w: representative %q of %q is itself a duplicate", ErrLookupInconsistency, rep, id)
		}
	}
	if e.Kind == RefOverlap {
		ref := e.RefID
		if e, ok = l.Entry(ref); !ok {
			return Entry{}, fmt.Errorf("%w: overlap target %q of %q missing", ErrLookupInconsistency, ref, id)
		}
	}
	if e.Kind != RefResolved {
		return Entry{}, fmt.Errorf("%w: %q does not resolve (ends at %s entry %q)", ErrLookupInconsistency, id, e.Kind, e.ID)
	}
	return e, nil
}

// Check verifies that the table holds exactly one entry per correction and
// that every entry resolves.
func (l *Lookup) Check(corrections []annotation.Record) error {
	if len(l.entries) != len(corrections) || len(l.byID) != len(l.entries) {
		return fmt.Errorf("%w: %d entries (%d distinct ids) for %d corrections",
			ErrLookupInconsistency, len(l.entries), len(l.byID), len(corrections))
	}
	for _, c := range corrections {
		if _, err := l.Resolve(c.ID); err != nil {
			return err
		}
	}
	return nil
}
