package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/learnercorpus/errmap/internal/pipeline"
	"github.com/learnercorpus/errmap/internal/remap"
)

const (
	idWidth   = 12
	tagWidth  = 22
	textWidth = 24
)

// Text writes human-readable reports. Columns are padded by display width
// so Turkish and wide characters line up.
type Text struct {
	w io.Writer

	unit    *color.Color
	heading *color.Color
	ok      *color.Color
	warn    *color.Color
	bad     *color.Color
	dim     *color.Color
}

// NewText returns a Text writer. Colour codes are written only when colour
// is true.
func NewText(w io.Writer, colour bool) *Text {
	t := &Text{
		w:       w,
		unit:    color.New(color.FgCyan, color.Bold),
		heading: color.New(color.Bold),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed, color.Bold),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{t.unit, t.heading, t.ok, t.warn, t.bad, t.dim} {
		if colour {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Batch writes every unit, then the failures and a summary line.
func (t *Text) Batch(b *pipeline.Batch) error {
	for i := range b.Units {
		if err := t.Unit(&b.Units[i]); err != nil {
			return err
		}
	}
	for _, f := range b.Failures {
		if _, err := fmt.Fprintf(t.w, "%s %s: %v\n", t.bad.Sprint("FAILED"), unitName(f.UnitID, f.DataID), f.Err); err != nil {
			return err
		}
	}
	summary := fmt.Sprintf("%d units, %d failed, %s (run %s)", b.Total(), len(b.Failures), b.Elapsed.Round(time.Millisecond), b.RunID)
	c := t.ok
	if len(b.Failures) > 0 {
		c = t.bad
	}
	_, err := fmt.Fprintln(t.w, c.Sprint(summary))
	return err
}

// Unit writes one unit: its texts and one row per error.
func (t *Text) Unit(u *pipeline.UnitResult) error {
	var b strings.Builder
	b.WriteString(t.unit.Sprint("unit " + unitName(u.ID, u.DataID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", t.dim.Sprint("original: "), u.Text)
	fmt.Fprintf(&b, "  %s %s\n", t.dim.Sprint("corrected:"), u.Corrected)

	if len(u.Errors) > 0 {
		b.WriteString("  ")
		b.WriteString(t.heading.Sprint(
			pad("id", idWidth) + " " + pad("tag", tagWidth) + " " +
				pad("original", textWidth) + " " + pad("correction", textWidth) + " range"))
		b.WriteString("\n")
	}
	for _, e := range u.Errors {
		b.WriteString("  ")
		b.WriteString(pad(e.ID, idWidth))
		b.WriteString(" ")
		b.WriteString(pad(e.Tag, tagWidth))
		b.WriteString(" ")
		b.WriteString(pad(quote(e.Original), textWidth))
		b.WriteString(" ")
		b.WriteString(pad(quote(e.Correction), textWidth))
		b.WriteString(" ")
		b.WriteString(t.rangeCell(e, u.CoNLLU != ""))
		b.WriteString("\n")
		for _, tok := range e.Tokens {
			b.WriteString("      ")
			b.WriteString(t.dim.Sprint(strings.ReplaceAll(tok, "\t", "  ")))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(t.w, b.String())
	return err
}

// rangeCell marks unaligned ranges only when the unit was tagged.
func (t *Text) rangeCell(e pipeline.ErrorResult, tagged bool) string {
	if e.Ref == "" {
		return t.warn.Sprint("no correction")
	}
	cell := fmt.Sprintf("[%d,%d)", e.NewStart, e.NewEnd)
	if e.RefID != "" {
		cell += " via " + e.RefID
	} else if e.Ref != remap.RefResolved {
		cell += " " + string(e.Ref)
	}
	switch {
	case e.Aligned || !tagged:
		return t.ok.Sprint(cell)
	case e.NewStart == e.NewEnd:
		return t.warn.Sprint(cell + " (deletion)")
	default:
		return t.warn.Sprint(cell + " (unaligned)")
	}
}

func unitName(id, dataID string) string {
	if dataID == "" {
		return id
	}
	return id + " (" + dataID + ")"
}

func quote(s string) string { return "\"" + s + "\"" }

// pad fits s into width display columns.
func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// Reconstruction writes each unit's texts and lookup table, for batches
// run without a tagger.
func (t *Text) Reconstruction(b *pipeline.Batch) error {
	var sb strings.Builder
	for _, u := range b.Units {
		sb.WriteString(t.unit.Sprint("unit " + unitName(u.ID, u.DataID)))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %s %s\n", t.dim.Sprint("original: "), u.Text)
		fmt.Fprintf(&sb, "  %s %s\n", t.dim.Sprint("corrected:"), u.Corrected)
		if len(u.Lookup) > 0 {
			sb.WriteString("  ")
			sb.WriteString(t.heading.Sprint(
				pad("id", idWidth) + " " + pad("kind", 10) + " " + pad("original", 12) + " " + pad("corrected", 12) + " ref"))
			sb.WriteString("\n")
		}
		for _, e := range u.Lookup {
			newRange := ""
			if e.Kind == remap.RefResolved {
				newRange = fmt.Sprintf("[%d,%d)", e.NewStart, e.NewEnd)
			}
			fmt.Fprintf(&sb, "  %s %s %s %s %s\n",
				pad(e.ID, idWidth), pad(string(e.Kind), 10),
				pad(fmt.Sprintf("[%d,%d)", e.OrigStart, e.OrigEnd), 12), pad(newRange, 12), e.RefID)
		}
		sb.WriteString("\n")
	}
	for _, f := range b.Failures {
		fmt.Fprintf(&sb, "%s %s: %v\n", t.bad.Sprint("FAILED"), unitName(f.UnitID, f.DataID), f.Err)
	}
	_, err := io.WriteString(t.w, sb.String())
	return err
}
