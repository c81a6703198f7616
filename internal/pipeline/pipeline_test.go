package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/learnercorpus/errmap/internal/annotation"
	"github.com/learnercorpus/errmap/internal/remap"
	"github.com/learnercorpus/errmap/internal/tagger"
)

const tagged = "# sent_id = 1\n" +
	"# text = Ali okula gidiyor.\n" +
	"1\tAli\tAli\tPROPN\t_\t_\t3\tnsubj\t_\tTokenRange=0:3\n" +
	"2\tokula\tokul\tNOUN\t_\tCase=Dat\t3\tobl\t_\tTokenRange=4:9\n" +
	"3\tgidiyor\tgit\tVERB\t_\tAspect=Prog\t0\troot\t_\tSpaceAfter=No|TokenRange=10:17\n" +
	"4\t.\t.\tPUNCT\t_\t_\t3\tpunct\t_\tTokenRange=17:18\n\n"

func fakeTagger(calls *atomic.Int32) tagger.Tagger {
	return tagger.Func(func(ctx context.Context, text string) (string, error) {
		calls.Add(1)
		switch {
		case strings.Contains(text, "boom"):
			return "", &tagger.Failure{Endpoint: "fake", Status: 503, Detail: "unavailable"}
		case strings.Contains(text, "garbage"):
			return "1\tx\tx\tX\tX\t_\t0\troot\t_\tTokenRange=oops\n", nil
		case text == "Ali okula gidiyor.":
			return tagged, nil
		}
		return "", nil
	})
}

func rec(kind annotation.Kind, id string, start, end int, payload string) annotation.Record {
	r := annotation.Record{ID: id, Kind: kind, Span: annotation.Span{Start: start, End: end}}
	if kind == annotation.KindLabel {
		r.Labels = []string{payload}
	} else {
		r.Texts = []string{payload}
	}
	return r
}

func goodUnit(id string) annotation.TextUnit {
	return annotation.TextUnit{
		ID:     id,
		DataID: "D-" + id,
		Text:   "Ali okula gidyor.",
		Records: []annotation.Record{
			rec(annotation.KindLabel, "e1", 10, 16, "YA"),
			rec(annotation.KindCorrection, "e1", 10, 16, "gidiyor"),
		},
	}
}

func TestProcessUnit(t *testing.T) {
	var calls atomic.Int32
	p := &Processor{Tagger: fakeTagger(&calls)}

	res, err := p.ProcessUnit(context.Background(), goodUnit("1"))
	if err != nil {
		t.Fatalf("ProcessUnit: %v", err)
	}
	if res.Corrected != "Ali okula gidiyor." || len(res.Lookup) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(res.Errors))
	}
	e := res.Errors[0]
	if e.Tag != "Spelling" || e.TagCode != "YA" || e.Group != "Orthography" {
		t.Errorf("tag = %q %q %q", e.Tag, e.TagCode, e.Group)
	}
	if e.Original != "gidyor" || e.Correction != "gidiyor" || e.Ref != remap.RefResolved {
		t.Errorf("error = %+v", e)
	}
	if e.NewStart != 10 || e.NewEnd != 17 {
		t.Errorf("range = [%d,%d)", e.NewStart, e.NewEnd)
	}
	if !e.Aligned || e.Sentence != "Ali okula gidiyor." || len(e.Tokens) != 1 || !strings.HasPrefix(e.Tokens[0], "3\tgidiyor\tgit") {
		t.Errorf("alignment = %v %q %q", e.Aligned, e.Sentence, e.Tokens)
	}
}

func TestProcessUnitOverlapAndUnknownLabel(t *testing.T) {
	var calls atomic.Int32
	p := &Processor{Tagger: fakeTagger(&calls)}
	u := annotation.TextUnit{
		ID:   "2",
		Text: "Ali okula gidyor.",
		Records: []annotation.Record{
			rec(annotation.KindCorrection, "outer", 4, 16, "okula gidiyor"),
			rec(annotation.KindLabel, "inner", 10, 16, "XYZ"),
			rec(annotation.KindCorrection, "inner", 10, 16, "gidiyor"),
			rec(annotation.KindLabel, "note", 0, 3, "SH"),
		},
	}
	res, err := p.ProcessUnit(context.Background(), u)
	if err != nil {
		t.Fatalf("ProcessUnit: %v", err)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %+v", len(res.Errors), res.Errors)
	}
	outer, inner, note := res.Errors[0], res.Errors[1], res.Errors[2]
	if outer.Tag != "Unknown" || outer.TagCode != "" {
		t.Errorf("unlabelled correction tag = %q %q", outer.Tag, outer.TagCode)
	}
	if inner.Tag != "XYZ" || inner.Ref != remap.RefOverlap || inner.RefID != "outer" {
		t.Errorf("inner = %+v", inner)
	}
	if inner.NewStart != outer.NewStart || inner.NewEnd != outer.NewEnd {
		t.Errorf("inner range [%d,%d) != outer [%d,%d)", inner.NewStart, inner.NewEnd, outer.NewStart, outer.NewEnd)
	}
	if len(inner.Tokens) != 2 {
		t.Errorf("inner tokens = %q", inner.Tokens)
	}
	if note.Ref != "" || note.Original != "Ali" || note.Aligned {
		t.Errorf("label without correction = %+v", note)
	}
}

func TestMalformedOverlapFailsUnit(t *testing.T) {
	var calls atomic.Int32
	p := &Processor{Tagger: fakeTagger(&calls)}
	u := goodUnit("5")
	inner := rec(annotation.KindCorrection, "e2", 11, 13, "")
	inner.Texts = nil
	u.Records = append(u.Records, inner)

	if _, err := p.ProcessUnit(context.Background(), u); !errors.Is(err, annotation.ErrMalformedAnnotation) {
		t.Fatalf("err = %v, want ErrMalformedAnnotation", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("tagger called %d times", calls.Load())
	}
}

func TestNoCorrectionsSkipsTagger(t *testing.T) {
	var calls atomic.Int32
	p := &Processor{Tagger: fakeTagger(&calls)}
	u := annotation.TextUnit{ID: "3", Text: "Merhaba."}
	res, err := p.ProcessUnit(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 0 {
		t.Fatalf("tagger called %d times", calls.Load())
	}
	if res.Corrected != "Merhaba." || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var doneEvents []string
	p := &Processor{
		Tagger:  fakeTagger(&calls),
		Workers: 2,
		Sink: SinkFunc(func(e Event) {
			if e.Stage == StageDone {
				mu.Lock()
				doneEvents = append(doneEvents, e.Unit)
				mu.Unlock()
			}
		}),
	}

	boom := annotation.TextUnit{ID: "b", Text: "boom now", Records: []annotation.Record{
		rec(annotation.KindCorrection, "x", 0, 4, "boom!"),
	}}
	crossing := annotation.TextUnit{ID: "c", Text: "0123456789", Records: []annotation.Record{
		rec(annotation.KindCorrection, "x", 0, 5, "a"),
		rec(annotation.KindCorrection, "y", 3, 8, "b"),
	}}
	garbage := annotation.TextUnit{ID: "g", Text: "garbage", Records: []annotation.Record{
		rec(annotation.KindCorrection, "x", 0, 1, "g"),
	}}
	units := []annotation.TextUnit{goodUnit("1"), boom, crossing, goodUnit("2"), garbage}

	b, err := p.Run(context.Background(), units)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(b.Units) != 2 || b.Units[0].ID != "1" || b.Units[1].ID != "2" {
		t.Fatalf("units = %+v", b.Units)
	}
	if len(b.Failures) != 3 || b.Total() != 5 {
		t.Fatalf("failures = %+v", b.Failures)
	}
	if f := b.Failures[0]; f.UnitID != "b" || !errors.Is(f.Err, tagger.ErrTaggingFailed) {
		t.Errorf("failure 0 = %v", f.Err)
	}
	if f := b.Failures[1]; f.UnitID != "c" || !errors.Is(f.Err, annotation.ErrMalformedAnnotation) {
		t.Errorf("failure 1 = %v", f.Err)
	}
	if f := b.Failures[2]; f.UnitID != "g" || !errors.Is(f.Err, tagger.ErrTaggingFailed) {
		t.Errorf("failure 2 = %v", f.Err)
	}
	if len(doneEvents) != 2 {
		t.Errorf("done events = %v", doneEvents)
	}
	if b.RunID.String() == "" {
		t.Error("run id not set")
	}
}

func TestRunTasksReportsBadTasks(t *testing.T) {
	var calls atomic.Int32
	p := &Processor{Tagger: fakeTagger(&calls)}
	tasks := []annotation.Task{
		{ID: 7, Data: annotation.TaskData{Text: "abc"}, Annotations: []annotation.Annotation{{}, {}}},
		{ID: 8, Data: annotation.TaskData{ID: "x8", Text: "Merhaba."}},
	}
	b, err := p.RunTasks(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Failures) != 1 || b.Failures[0].UnitID != "7" {
		t.Fatalf("failures = %+v", b.Failures)
	}
	if len(b.Units) != 1 || b.Units[0].DataID != "x8" {
		t.Fatalf("units = %+v", b.Units)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Processor{
		Workers: 1,
		Tagger: tagger.Func(func(ctx context.Context, text string) (string, error) {
			cancel()
			<-ctx.Done()
			return "", &tagger.Failure{Detail: "canceled", Err: ctx.Err()}
		}),
	}
	b, err := p.Run(ctx, []annotation.TextUnit{goodUnit("1"), goodUnit("2")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(b.Units) != 0 {
		t.Fatalf("units = %+v", b.Units)
	}
}

func TestNilTaggerReconstructsOnly(t *testing.T) {
	p := &Processor{}
	res, err := p.ProcessUnit(context.Background(), goodUnit("1"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Corrected != "Ali okula gidiyor." || res.CoNLLU != "" {
		t.Fatalf("result = %+v", res)
	}
	if e := res.Errors[0]; e.Aligned || e.NewEnd != 17 {
		t.Fatalf("error = %+v", e)
	}
}
