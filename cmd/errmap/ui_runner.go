package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/learnercorpus/errmap/internal/annotation"
	"github.com/learnercorpus/errmap/internal/pipeline"
	"github.com/learnercorpus/errmap/internal/ui"
)

type batchOutcome struct {
	batch *pipeline.Batch
	err   error
}

// runWithUI runs the batch while a progress view follows it. Worker logs
// are dropped; failures still reach the final report.
func runWithUI(ctx context.Context, title string, proc pipeline.Processor, tasks []annotation.Task) (*pipeline.Batch, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		proc.Sink = pipeline.ChannelSink(events)
		proc.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		b, err := proc.RunTasks(ctx, tasks)
		outcomeCh <- batchOutcome{batch: b, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, len(tasks), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()

	var outcome batchOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// The view quit before the batch finished (ctrl+c). Stop the
		// workers and drain events so none blocks on a full channel.
		cancel()
		go func() {
			for range events {
			}
		}()
		outcome = <-outcomeCh
	}
	if uiErr != nil {
		return outcome.batch, uiErr
	}
	return outcome.batch, outcome.err
}
