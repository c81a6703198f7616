package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/learnercorpus/errmap/internal/pipeline"
)

func TestProgressModelTracksUnits(t *testing.T) {
	m := NewProgressModel("errmap", 3, nil).(*progressModel)

	events := []pipeline.Event{
		{Unit: "10", Index: 0, Stage: pipeline.StageStart},
		{Unit: "11", Index: 1, Stage: pipeline.StageTag},
		{Unit: "10", Index: 0, Stage: pipeline.StageDone},
		{Unit: "12", Index: 2, Stage: pipeline.StageMap, Err: errors.New("malformed annotation")},
	}
	for _, ev := range events {
		m.Update(eventMsg(ev))
	}

	if m.done != 2 || m.failed != 1 {
		t.Fatalf("done = %d, failed = %d", m.done, m.failed)
	}
	if len(m.active) != 1 || m.active[0] != 1 {
		t.Fatalf("active = %v", m.active)
	}
	view := m.View()
	for _, want := range []string{"2/3", "1 failed", "tagging", "unit 11", "unit 12: malformed annotation"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m.Update(doneMsg{})
	if !m.closed || !strings.Contains(m.View(), "done: errmap") {
		t.Fatalf("view after close:\n%s", m.View())
	}
}

func TestProgressModelIgnoresUnknownIndex(t *testing.T) {
	m := NewProgressModel("errmap", 1, nil).(*progressModel)
	m.Update(eventMsg(pipeline.Event{Unit: "x", Index: 5, Stage: pipeline.StageDone}))
	if m.done != 0 {
		t.Fatalf("done = %d", m.done)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
