package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/learnercorpus/errmap/internal/pipeline"
	"github.com/learnercorpus/errmap/internal/report"
)

var processCmd = &cobra.Command{
	Use:   "process <export.json|->",
	Short: "Reconstruct, tag and align every task of a Label Studio export",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().String("format", "text", "output format (text|json)")
	processCmd.Flags().Int("workers", 0, "units processed concurrently (default from config)")
	processCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	format, err := readFormat(cmd)
	if err != nil {
		return err
	}
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Workers
	}

	tasks, err := readExport(args[0])
	if err != nil {
		return err
	}
	tg, _, err := newTagger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := pipeline.Processor{Tagger: tg, Workers: workers}
	var batch *pipeline.Batch
	if shouldUseTUI(mode) {
		batch, err = runWithUI(ctx, "errmap "+args[0], proc, tasks)
	} else {
		batch, err = proc.RunTasks(ctx, tasks)
	}
	if batch != nil {
		if werr := writeBatch(format, batch); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if n := len(batch.Failures); n > 0 {
		return fmt.Errorf("%d of %d units failed", n, batch.Total())
	}
	return nil
}

func readFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "text", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
}

func writeBatch(format string, b *pipeline.Batch) error {
	if format == "json" {
		return report.WriteJSON(os.Stdout, b)
	}
	colour, err := useColor(os.Stdout)
	if err != nil {
		return err
	}
	return report.NewText(os.Stdout, colour).Batch(b)
}

