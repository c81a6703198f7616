package remap

import (
	"fmt"

	"github.com/learnercorpus/errmap/internal/annotation"
	"github.com/learnercorpus/errmap/internal/conllu"
)

// Mapping is the reconstruction of one text unit: the corrected text and
// the lookup that places every correction id in it.
type Mapping struct {
	Unit      annotation.TextUnit
	Corrected string
	Kept      []annotation.Record
	Lookup    *Lookup
}

// Map reconstructs unit and checks that its lookup covers every
// correction exactly once. Every correction must carry exactly one
// corrected form, including those that are dropped as duplicates or
// overlaps.
func Map(unit annotation.TextUnit) (*Mapping, error) {
	for _, c := range unit.Corrections() {
		if _, err := c.Replacement(); err != nil {
			return nil, fmt.Errorf("unit %s: %w", unit.ID, err)
		}
	}
	kept, lookup := Resolve(unit.Records)
	corrected, err := Reconstruct(unit.Text, kept, lookup)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit.ID, err)
	}
	if err := lookup.Check(unit.Corrections()); err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit.ID, err)
	}
	return &Mapping{
		Unit:      unit,
		Corrected: corrected,
		Kept:      kept,
		Lookup:    lookup,
	}, nil
}

// Range returns the range in the corrected text that covers the
// correction id, following duplicate and overlap references.
func (m *Mapping) Range(id string) (annotation.Span, error) {
	e, err := m.Lookup.Resolve(id)
	if err != nil {
		return annotation.Span{}, fmt.Errorf("unit %s: %w", m.Unit.ID, err)
	}
	return annotation.Span{Start: e.NewStart, End: e.NewEnd}, nil
}

// Align returns the tagger lines inside the range of id.
func (m *Mapping) Align(id string, lines []conllu.TokenLine) ([]conllu.TokenLine, error) {
	r, err := m.Range(id)
	if err != nil {
		return nil, err
	}
	return AlignRange(lines, r.Start, r.End), nil
}
