// Package pipeline runs annotated text units through reconstruction,
// tagging and alignment, one unit per worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnercorpus/errmap/internal/annotation"
	"github.com/learnercorpus/errmap/internal/conllu"
	"github.com/learnercorpus/errmap/internal/remap"
	"github.com/learnercorpus/errmap/internal/tagger"
)

// Processor maps, tags and aligns text units. With a nil Tagger units are
// only reconstructed and nothing is aligned. Logger and Sink default to
// slog.Default and Discard.
type Processor struct {
	Tagger  tagger.Tagger
	Logger  *slog.Logger
	Sink    Sink
	Workers int // concurrent units, GOMAXPROCS when zero
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Processor) sink() Sink {
	if p.Sink == nil {
		return Discard
	}
	return p.Sink
}

// ProcessUnit reconstructs unit, tags the corrected text and places every
// annotated error in the tagger output. A unit without corrections is not
// sent to the tagger.
func (p *Processor) ProcessUnit(ctx context.Context, unit annotation.TextUnit) (UnitResult, error) {
	return p.processUnit(ctx, unit, func(Stage) {})
}

func (p *Processor) processUnit(ctx context.Context, unit annotation.TextUnit, stage func(Stage)) (UnitResult, error) {
	stage(StageMap)
	m, err := remap.Map(unit)
	if err != nil {
		return UnitResult{}, err
	}
	tags, err := labelTags(unit)
	if err != nil {
		return UnitResult{}, fmt.Errorf("unit %s: %w", unit.ID, err)
	}

	res := UnitResult{
		ID:        unit.ID,
		DataID:    unit.DataID,
		Text:      unit.Text,
		Corrected: m.Corrected,
		Lookup:    m.Lookup.Entries(),
	}

	var doc conllu.Document
	if m.Lookup.Len() > 0 && p.Tagger != nil {
		stage(StageTag)
		out, err := p.Tagger.Tag(ctx, m.Corrected)
		if err != nil {
			return UnitResult{}, fmt.Errorf("unit %s: %w", unit.ID, err)
		}
		if doc, err = conllu.ParseString(out); err != nil {
			return UnitResult{}, fmt.Errorf("unit %s: %w: %w", unit.ID, tagger.ErrTaggingFailed, err)
		}
		res.CoNLLU = out
	}

	stage(StageAlign)
	lines := doc.Lines()
	src := []rune(unit.Text)
	for _, id := range errorIDs(unit) {
		e := ErrorResult{ID: id}
		if t, ok := tags[id]; ok {
			e.Tag, e.TagCode, e.Group = t.name, t.tag.Code(), t.tag.Group().String()
		} else {
			e.Tag = annotation.TagUnknown.Name()
		}

		entry, ok := m.Lookup.Entry(id)
		if !ok {
			// Labelled region without a correction.
			if l, ok := tags[id]; ok && l.span.Valid(len(src)) {
				e.OrigStart, e.OrigEnd = l.span.Start, l.span.End
				e.Original = string(src[l.span.Start:l.span.End])
			}
			res.Errors = append(res.Errors, e)
			continue
		}
		e.OrigStart, e.OrigEnd = entry.OrigStart, entry.OrigEnd
		e.Original = string(src[entry.OrigStart:entry.OrigEnd])
		e.Ref, e.RefID = entry.Kind, entry.RefID
		if e.Correction, err = correctionText(unit, id); err != nil {
			return UnitResult{}, fmt.Errorf("unit %s: %w", unit.ID, err)
		}

		r, err := m.Range(id)
		if err != nil {
			return UnitResult{}, err
		}
		e.NewStart, e.NewEnd = r.Start, r.End

		aligned := remap.AlignRange(lines, r.Start, r.End)
		if len(aligned) > 0 {
			e.Aligned = true
			e.Sentence = doc.SentenceText(aligned[0].Sentence)
			e.Tokens = make([]string, len(aligned))
			for i, l := range aligned {
				e.Tokens[i] = l.String()
			}
		}
		res.Errors = append(res.Errors, e)
	}
	return res, nil
}

type labelInfo struct {
	tag  annotation.Tag
	name string
	span annotation.Span
}

// labelTags returns the category of every label record by id.
func labelTags(unit annotation.TextUnit) (map[string]labelInfo, error) {
	out := make(map[string]labelInfo)
	for _, l := range unit.Labels() {
		t, err := l.Tag()
		if err != nil {
			return nil, err
		}
		name := t.Name()
		if t == annotation.TagUnknown {
			name = l.Labels[0]
		}
		if _, dup := out[l.ID]; !dup {
			out[l.ID] = labelInfo{tag: t, name: name, span: l.Span}
		}
	}
	return out, nil
}

// errorIDs returns the ids of all records in order of first appearance.
func errorIDs(unit annotation.TextUnit) []string {
	seen := make(map[string]bool, len(unit.Records))
	var ids []string
	for _, r := range unit.Records {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func correctionText(unit annotation.TextUnit, id string) (string, error) {
	for _, c := range unit.Corrections() {
		if c.ID == id {
			return c.Replacement()
		}
	}
	return "", nil
}

// Run processes units concurrently. A failing unit is recorded in
// Batch.Failures and the others continue; only cancellation of ctx stops
// the batch early, in which case the partial batch is returned with the
// context error.
func (p *Processor) Run(ctx context.Context, units []annotation.TextUnit) (*Batch, error) {
	items := make([]item, len(units))
	for i, u := range units {
		items[i] = item{unit: u}
	}
	return p.run(ctx, items)
}

// RunTasks converts tasks to units and runs them. Tasks that cannot be
// converted are reported as failures in their input position.
func (p *Processor) RunTasks(ctx context.Context, tasks []annotation.Task) (*Batch, error) {
	items := make([]item, len(tasks))
	for i, t := range tasks {
		u, err := t.Unit()
		items[i] = item{unit: u, err: err}
	}
	return p.run(ctx, items)
}

type item struct {
	unit annotation.TextUnit
	err  error // set when the unit could not be built
}

func (p *Processor) run(ctx context.Context, items []item) (*Batch, error) {
	start := time.Now()
	b := &Batch{RunID: uuid.New()}
	log := p.logger().With("run", b.RunID.String())
	sink := p.sink()

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]UnitResult, len(items))
	errs := make([]error, len(items))
	done := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			t0 := time.Now()
			current := StageStart
			emit := func(s Stage) {
				current = s
				sink.Emit(Event{Unit: it.unit.ID, Index: i, Total: len(items), Stage: s, Elapsed: time.Since(t0)})
			}
			emit(StageStart)

			err := it.err
			if err == nil {
				results[i], err = p.processUnit(gctx, it.unit, emit)
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				errs[i] = err
				log.Warn("unit failed", "unit", it.unit.ID, "data_id", it.unit.DataID, "stage", current, "err", err)
				sink.Emit(Event{Unit: it.unit.ID, Index: i, Total: len(items), Stage: current, Err: err, Elapsed: time.Since(t0)})
				return nil
			}
			done[i] = true
			log.Debug("unit done", "unit", it.unit.ID, "errors", len(results[i].Errors), "elapsed", time.Since(t0))
			sink.Emit(Event{Unit: it.unit.ID, Index: i, Total: len(items), Stage: StageDone, Elapsed: time.Since(t0)})
			return nil
		})
	}
	werr := g.Wait()
	if werr == nil && ctx.Err() != nil {
		werr = ctx.Err()
	}

	for i, it := range items {
		switch {
		case errs[i] != nil:
			b.Failures = append(b.Failures, UnitFailure{UnitID: it.unit.ID, DataID: it.unit.DataID, Err: errs[i]})
		case done[i]:
			b.Units = append(b.Units, results[i])
		}
	}
	b.Elapsed = time.Since(start)

	if werr != nil {
		if errors.Is(werr, context.Canceled) || errors.Is(werr, context.DeadlineExceeded) {
			log.Warn("batch interrupted", "done", b.Total(), "units", len(items), "err", werr)
		}
		return b, fmt.Errorf("pipeline: run: %w", werr)
	}
	log.Info("batch done", "units", len(b.Units), "failed", len(b.Failures), "elapsed", b.Elapsed)
	return b, nil
}
