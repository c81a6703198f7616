package remap

import "github.com/learnercorpus/errmap/internal/conllu"

// AlignRange selects the tagger lines that belong to the reconstructed
// range [start, end).
//
// A line is selected when its TokenRange lies fully inside the range.
// When a selected line is a multiword token "m-n", the syntactic words
// that follow it, up to id n, are selected too, whatever their own ranges.
// Lines appear at most once and in input order. An empty result means no
// token lies inside the range, which is normal for pure omissions.
func AlignRange(lines []conllu.TokenLine, start, end int) []conllu.TokenLine {
	var (
		out       []conllu.TokenLine
		active    bool
		activeEnd int
		sentence  int
	)
	for _, l := range lines {
		if l.Sentence != sentence {
			active = false
			sentence = l.Sentence
		}
		appended := false
		if active {
			if !l.ID.IsRange() && l.ID.First <= activeEnd {
				out = append(out, l)
				appended = true
				if l.ID.First == activeEnd {
					active = false
				}
			} else {
				active = false
			}
		}

		if !l.HasRange || l.Start < start || l.End > end {
			continue
		}
		if !appended {
			out = append(out, l)
		}
		if l.ID.IsRange() {
			active = true
			activeEnd = l.ID.Last
		}
	}
	return out
}
