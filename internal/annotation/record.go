package annotation

import (
	"errors"
	"fmt"
)

// ErrMalformedAnnotation marks a record that cannot be reconstructed or
// classified: an empty or ambiguous correction, several labels on one
// region, or offsets that fall outside the text.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// Span is a half-open interval [Start, End) of rune offsets into a text.
type Span struct {
	Start int
	End   int
}

// Equal reports whether both bounds match.
func (s Span) Equal(o Span) bool { return s.Start == o.Start && s.End == o.End }

// Contains reports whether o lies within s. A span contains itself.
func (s Span) Contains(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

// Len returns the number of runes covered by s.
func (s Span) Len() int { return s.End - s.Start }

// Valid reports whether s is a well-formed span over a text of n runes.
func (s Span) Valid(n int) bool { return 0 <= s.Start && s.Start <= s.End && s.End <= n }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Kind discriminates the two result types Label Studio emits per region.
type Kind uint8

const (
	KindLabel      Kind = iota + 1 // "labels": carries the error category
	KindCorrection                 // "textarea": carries the corrected form
)

func (k Kind) String() string {
	switch k {
	case KindLabel:
		return "labels"
	case KindCorrection:
		return "textarea"
	default:
		return "unknown"
	}
}

// ParseKind maps a Label Studio result type to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "labels":
		return KindLabel, true
	case "textarea":
		return KindCorrection, true
	}
	return 0, false
}

// Record is one annotation result over a text unit. Label and correction
// records of the same region share an ID.
type Record struct {
	ID   string
	Kind Kind
	Span Span

	// Labels holds the error categories of a label record.
	Labels []string
	// Texts holds the corrected forms of a correction record.
	Texts []string
	// Surface is the annotated (erroneous) text as Label Studio saw it.
	// Only label records carry it.
	Surface string
}

// Replacement returns the single corrected form of a correction record.
func (r Record) Replacement() (string, error) {
	if r.Kind != KindCorrection {
		return "", fmt.Errorf("%w: record %s is %s, not textarea", ErrMalformedAnnotation, r.ID, r.Kind)
	}
	switch len(r.Texts) {
	case 1:
		return r.Texts[0], nil
	case 0:
		return "", fmt.Errorf("%w: record %s has no corrected text", ErrMalformedAnnotation, r.ID)
	default:
		return "", fmt.Errorf("%w: record %s has %d corrected texts", ErrMalformedAnnotation, r.ID, len(r.Texts))
	}
}

// Tag returns the error category of a label record.
func (r Record) Tag() (Tag, error) {
	if r.Kind != KindLabel {
		return TagUnknown, fmt.Errorf("%w: record %s is %s, not labels", ErrMalformedAnnotation, r.ID, r.Kind)
	}
	switch len(r.Labels) {
	case 1:
		return ParseTag(r.Labels[0]), nil
	case 0:
		return TagUnknown, fmt.Errorf("%w: record %s has no label", ErrMalformedAnnotation, r.ID)
	default:
		return TagUnknown, fmt.Errorf("%w: record %s has %d labels", ErrMalformedAnnotation, r.ID, len(r.Labels))
	}
}

// TextUnit is one annotated text and its records, in export order.
type TextUnit struct {
	ID      string // Label Studio task id
	DataID  string // id carried by the corpus data itself
	Text    string
	Records []Record
}

// Corrections returns the correction records in input order.
func (u TextUnit) Corrections() []Record { return u.byKind(KindCorrection) }

// Labels returns the label records in input order.
func (u TextUnit) Labels() []Record { return u.byKind(KindLabel) }

func (u TextUnit) byKind(k Kind) []Record {
	out := make([]Record, 0, len(u.Records))
	for _, r := range u.Records {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}
