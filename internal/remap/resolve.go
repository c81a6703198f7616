package remap

import (
	"sort"

	"github.com/learnercorpus/errmap/internal/annotation"
)

// Resolve collapses the corrections of one unit to one kept correction per
// region. Label records are ignored.
//
// Corrections are ordered by start ascending and end descending, so of two
// spans with the same start the wider is seen first; ties keep input order.
// A correction whose span repeats an earlier one becomes a duplicate entry.
// A correction contained in an already kept span becomes an overlap entry
// referencing the first such kept span in keep order. Everything else is
// kept. The kept corrections are returned in ascending start order; the
// returned lookup holds the duplicate and overlap entries and is completed
// by Reconstruct.
func Resolve(records []annotation.Record) ([]annotation.Record, *Lookup) {
	sorted := make([]annotation.Record, 0, len(records))
	for _, r := range records {
		if r.Kind == annotation.KindCorrection {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Span, sorted[j].Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End > b.End
	})

	lookup := newLookup(len(sorted))
	candidates := make([]annotation.Record, 0, len(sorted))
	for _, r := range sorted {
		if _, seen := lookup.bySpan[r.Span]; seen {
			lookup.add(Entry{
				ID:        r.ID,
				OrigStart: r.Span.Start,
				OrigEnd:   r.Span.End,
				Kind:      RefDuplicate,
			})
			continue
		}
		lookup.bySpan[r.Span] = r.ID
		candidates = append(candidates, r)
	}

	kept := make([]annotation.Record, 0, len(candidates))
	for _, c := range candidates {
		if k, ok := firstContaining(kept, c.Span); ok {
			lookup.add(Entry{
				ID:        c.ID,
				OrigStart: c.Span.Start,
				OrigEnd:   c.Span.End,
				RefID:     k.ID,
				Kind:      RefOverlap,
			})
			continue
		}
		kept = append(kept, c)
	}
	return kept, lookup
}

// firstContaining returns the earliest kept record whose span contains s.
// kept is in ascending start order, so only the prefix starting at or
// before s.Start can contain it.
func firstContaining(kept []annotation.Record, s annotation.Span) (annotation.Record, bool) {
	n := sort.Search(len(kept), func(i int) bool { return kept[i].Span.Start > s.Start })
	for _, k := range kept[:n] {
		if k.Span.Contains(s) {
			return k, true
		}
	}
	return annotation.Record{}, false
}
