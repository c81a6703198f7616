// Package report renders batch and reconstruction results for people and
// for machines.
package report

import (
	"bytes"
	"encoding/json"
	"io"
)

// MarshalNoEscape behaves like json.Marshal but keeps <, > and & intact.
// Learner texts are full of them.
func MarshalNoEscape(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := MarshalNoEscape(v, true)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
