package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Task is one entry of a Label Studio JSON export.
type Task struct {
	ID          int64        `json:"id"`
	Data        TaskData     `json:"data"`
	Annotations []Annotation `json:"annotations"`
}

// TaskData is the imported row the task was created from.
type TaskData struct {
	ID   FlexString `json:"ID"`
	Text string     `json:"DATA"`
}

// Annotation is one annotator's submission for a task.
type Annotation struct {
	ID     int64    `json:"id"`
	Result []Result `json:"result"`
}

// Result is a single region result. Label and textarea results describing
// the same region share ID.
type Result struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value Value  `json:"value"`
}

// Value holds the region offsets and payload. Text is a string for
// "labels" results and a list of strings for "textarea" results.
type Value struct {
	Start  int64           `json:"start"`
	End    int64           `json:"end"`
	Text   json.RawMessage `json:"text"`
	Labels []string        `json:"labels"`
}

// FlexString accepts either a JSON string or a JSON number. Corpus ids come
// from spreadsheets and are exported as whichever the cell held.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// Decode reads a Label Studio JSON export (an array of tasks).
func Decode(r io.Reader) ([]Task, error) {
	var tasks []Task
	dec := json.NewDecoder(r)
	if err := dec.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("annotation: decode export: %w", err)
	}
	return tasks, nil
}

// Unit converts the task into a TextUnit. The export must hold at most one
// annotation per task.
func (t Task) Unit() (TextUnit, error) {
	u := TextUnit{
		ID:     strconv.FormatInt(t.ID, 10),
		DataID: string(t.Data.ID),
		Text:   t.Data.Text,
	}
	switch len(t.Annotations) {
	case 0:
		return u, nil
	case 1:
	default:
		return u, fmt.Errorf("task %s: %w: %d annotations, want 1", u.ID, ErrMalformedAnnotation, len(t.Annotations))
	}

	n := utf8.RuneCountInString(u.Text)
	results := t.Annotations[0].Result
	u.Records = make([]Record, 0, len(results))
	for _, res := range results {
		kind, ok := ParseKind(res.Type)
		if !ok {
			continue
		}
		rec, err := res.record(kind, n)
		if err != nil {
			return u, fmt.Errorf("task %s: %w", u.ID, err)
		}
		u.Records = append(u.Records, rec)
	}
	return u, nil
}

func (r Result) record(kind Kind, textLen int) (Record, error) {
	start, err := safecast.Conv[uint32](r.Value.Start)
	if err != nil {
		return Record{}, fmt.Errorf("%w: result %s start %d: %v", ErrMalformedAnnotation, r.ID, r.Value.Start, err)
	}
	end, err := safecast.Conv[uint32](r.Value.End)
	if err != nil {
		return Record{}, fmt.Errorf("%w: result %s end %d: %v", ErrMalformedAnnotation, r.ID, r.Value.End, err)
	}
	rec := Record{
		ID:   r.ID,
		Kind: kind,
		Span: Span{Start: int(start), End: int(end)},
	}
	if !rec.Span.Valid(textLen) {
		return Record{}, fmt.Errorf("%w: result %s span %s outside text of %d characters", ErrMalformedAnnotation, r.ID, rec.Span, textLen)
	}

	switch kind {
	case KindLabel:
		rec.Labels = r.Value.Labels
		if len(r.Value.Text) > 0 {
			// surface text is informational; tolerate odd shapes
			if err := json.Unmarshal(r.Value.Text, &rec.Surface); err != nil {
				slog.Debug("annotation: ignoring label surface text", "result", r.ID, "err", err)
			}
		}
	case KindCorrection:
		if len(r.Value.Text) > 0 {
			if err := json.Unmarshal(r.Value.Text, &rec.Texts); err != nil {
				return Record{}, fmt.Errorf("%w: result %s text: %v", ErrMalformedAnnotation, r.ID, err)
			}
		}
	}
	return rec, nil
}
