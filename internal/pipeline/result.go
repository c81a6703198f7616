package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/learnercorpus/errmap/internal/remap"
)

// ErrorResult is one annotated error placed in the corrected text.
type ErrorResult struct {
	ID      string `json:"id"`
	Tag     string `json:"tag"`      // category name, or the raw label when unknown
	TagCode string `json:"tag_code"` // empty when the label is not a known category
	Group   string `json:"group"`

	Original   string        `json:"original"`
	OrigStart  int           `json:"orig_start"`
	OrigEnd    int           `json:"orig_end"`
	Correction string        `json:"correction"`
	Ref        remap.RefKind `json:"ref,omitempty"` // empty when the id has no correction
	RefID      string        `json:"ref_id,omitempty"`

	NewStart int `json:"new_start"`
	NewEnd   int `json:"new_end"`

	// Aligned is false when no tagger token lies inside the corrected
	// range. That is normal for deletions and is not an error.
	Aligned  bool     `json:"aligned"`
	Sentence string   `json:"sentence,omitempty"`
	Tokens   []string `json:"tokens,omitempty"` // CoNLL-U lines
}

// UnitResult is the outcome of one successfully processed unit.
type UnitResult struct {
	ID        string        `json:"id"`
	DataID    string        `json:"data_id,omitempty"`
	Text      string        `json:"text"`
	Corrected string        `json:"corrected"`
	Lookup    []remap.Entry `json:"lookup"`
	Errors    []ErrorResult `json:"errors"`
	CoNLLU    string        `json:"conllu,omitempty"`
}

// UnitFailure records a unit that could not be processed. The rest of the
// batch is unaffected.
type UnitFailure struct {
	UnitID string
	DataID string
	Err    error
}

func (f UnitFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UnitID string `json:"unit_id"`
		DataID string `json:"data_id,omitempty"`
		Error  string `json:"error"`
	}{f.UnitID, f.DataID, f.Err.Error()})
}

// Batch is the result of one run over an export, in input order.
type Batch struct {
	RunID    uuid.UUID     `json:"run_id"`
	Units    []UnitResult  `json:"units"`
	Failures []UnitFailure `json:"failures"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Total returns the number of units the batch saw.
func (b *Batch) Total() int { return len(b.Units) + len(b.Failures) }
