// Package conllu reads the CoNLL-U output of a UD tagger run with the
// "ranges" tokenizer, which records each token's character offsets in the
// MISC column as TokenRange=<start>:<end>.
// For the format see https://universaldependencies.org/format.html
package conllu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	FieldSeparator    = "\t"
	NumFields         = 10
	FeatureSeparator  = "|"
	FeatureAssignment = "="
	Blank             = "_"

	textComment     = "# text = "
	tokenRangeKey   = "TokenRange"
	maxLineBytes    = 1 << 20
	multiwordIDSign = "-"
)

// ErrSyntax is returned for token lines that cannot be parsed.
var ErrSyntax = errors.New("conllu: syntax error")

// TokenID is the ID column. Ordinary tokens have First == Last; multiword
// tokens ("m-n") span the syntactic words First..Last that follow them.
type TokenID struct {
	First int
	Last  int
}

// IsRange reports whether the id names a multiword token.
func (id TokenID) IsRange() bool { return id.Last > id.First }

func (id TokenID) String() string {
	if id.IsRange() {
		return fmt.Sprintf("%d-%d", id.First, id.Last)
	}
	return strconv.Itoa(id.First)
}

// ParseTokenID parses "7" or "3-4". Empty nodes ("8.1") are rejected.
func ParseTokenID(s string) (TokenID, error) {
	if first, last, ok := strings.Cut(s, multiwordIDSign); ok {
		a, err := strconv.Atoi(first)
		if err != nil {
			return TokenID{}, fmt.Errorf("%w: id %q: %v", ErrSyntax, s, err)
		}
		b, err := strconv.Atoi(last)
		if err != nil {
			return TokenID{}, fmt.Errorf("%w: id %q: %v", ErrSyntax, s, err)
		}
		if b <= a {
			return TokenID{}, fmt.Errorf("%w: id range %q must have last > first", ErrSyntax, s)
		}
		return TokenID{First: a, Last: b}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return TokenID{}, fmt.Errorf("%w: id %q: %v", ErrSyntax, s, err)
	}
	return TokenID{First: n, Last: n}, nil
}

// TokenLine is one token row of tagger output.
type TokenLine struct {
	Sentence int // index of the sentence in the document
	ID       TokenID
	Form     string
	Lemma    string
	UPOS     string
	XPOS     string
	Feats    string
	Head     int
	DepRel   string
	Deps     string
	Misc     string

	// Start and End are the half-open character range from TokenRange.
	// HasRange is false when the line carries no TokenRange attribute.
	Start    int
	End      int
	HasRange bool

	Raw string
}

func (l TokenLine) String() string {
	if l.Raw != "" {
		return l.Raw
	}
	fields := []string{
		l.ID.String(), l.Form, l.Lemma, l.UPOS, l.XPOS, l.Feats,
		strconv.Itoa(l.Head), l.DepRel, l.Deps, l.Misc,
	}
	if l.ID.IsRange() {
		fields[6] = ""
	}
	for i, f := range fields {
		if f == "" {
			fields[i] = Blank
		}
	}
	return strings.Join(fields, FieldSeparator)
}

// Sentence is one blank-line separated block.
type Sentence struct {
	Index    int
	Text     string // from the "# text = " comment
	Comments []string
	Lines    []TokenLine
}

// Document is a parsed CoNLL-U text.
type Document struct {
	Sentences []Sentence
}

// Lines returns every token line of the document in order.
func (d Document) Lines() []TokenLine {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Lines)
	}
	out := make([]TokenLine, 0, n)
	for _, s := range d.Sentences {
		out = append(out, s.Lines...)
	}
	return out
}

// SentenceText returns the text comment of sentence i, or "".
func (d Document) SentenceText(i int) string {
	if i < 0 || i >= len(d.Sentences) {
		return ""
	}
	return d.Sentences[i].Text
}

// ParseString parses a CoNLL-U document held in memory.
func ParseString(s string) (Document, error) {
	return Read(strings.NewReader(s))
}

// Read parses a CoNLL-U stream. Lines with a field count other than ten and
// empty nodes are skipped, as UD readers conventionally do.
func Read(r io.Reader) (Document, error) {
	var (
		doc  Document
		cur  Sentence
		line int
	)
	flush := func() {
		if len(cur.Lines) > 0 || len(cur.Comments) > 0 {
			cur.Index = len(doc.Sentences)
			for i := range cur.Lines {
				cur.Lines[i].Sentence = cur.Index
			}
			doc.Sentences = append(doc.Sentences, cur)
		}
		cur = Sentence{}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		switch {
		case text == "":
			flush()
			continue
		case strings.HasPrefix(text, "#"):
			cur.Comments = append(cur.Comments, text)
			if rest, ok := strings.CutPrefix(text, textComment); ok {
				cur.Text = rest
			}
			continue
		}

		record := strings.Split(text, FieldSeparator)
		if len(record) != NumFields || strings.Contains(record[0], ".") {
			continue
		}
		tl, err := ParseLine(record)
		if err != nil {
			return Document{}, fmt.Errorf("line %d: %w", line, err)
		}
		tl.Raw = text
		cur.Lines = append(cur.Lines, tl)
	}
	if err := sc.Err(); err != nil {
		return Document{}, fmt.Errorf("conllu: read: %w", err)
	}
	flush()
	return doc, nil
}

// ParseLine parses the ten fields of a token line.
func ParseLine(record []string) (TokenLine, error) {
	if len(record) != NumFields {
		return TokenLine{}, fmt.Errorf("%w: %d fields, want %d", ErrSyntax, len(record), NumFields)
	}
	id, err := ParseTokenID(record[0])
	if err != nil {
		return TokenLine{}, err
	}
	tl := TokenLine{
		ID:     id,
		Form:   record[1],
		Lemma:  record[2],
		UPOS:   parseString(record[3]),
		XPOS:   parseString(record[4]),
		Feats:  parseString(record[5]),
		DepRel: parseString(record[7]),
		Deps:   parseString(record[8]),
		Misc:   parseString(record[9]),
	}
	if h := record[6]; h != Blank {
		tl.Head, err = strconv.Atoi(h)
		if err != nil {
			return TokenLine{}, fmt.Errorf("%w: head %q: %v", ErrSyntax, h, err)
		}
	}
	tl.Start, tl.End, tl.HasRange, err = tokenRange(tl.Misc)
	if err != nil {
		return TokenLine{}, err
	}
	return tl, nil
}

func parseString(v string) string {
	if v == Blank {
		return ""
	}
	return v
}

// tokenRange extracts TokenRange=<start>:<end> from the MISC column.
func tokenRange(misc string) (start, end int, ok bool, err error) {
	if misc == "" {
		return 0, 0, false, nil
	}
	for _, part := range strings.Split(misc, FeatureSeparator) {
		name, value, found := strings.Cut(part, FeatureAssignment)
		if !found || strings.TrimSpace(name) != tokenRangeKey {
			continue
		}
		a, b, found := strings.Cut(strings.TrimSpace(value), ":")
		if !found {
			return 0, 0, false, fmt.Errorf("%w: TokenRange %q", ErrSyntax, value)
		}
		start, err = strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: TokenRange %q: %v", ErrSyntax, value, err)
		}
		end, err = strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: TokenRange %q: %v", ErrSyntax, value, err)
		}
		return start, end, true, nil
	}
	return 0, 0, false, nil
}
