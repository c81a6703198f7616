package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/learnercorpus/errmap/internal/pipeline"
	"github.com/learnercorpus/errmap/internal/report"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <export.json|->",
	Short: "Print the corrected text and lookup table of every task, without tagging",
	Args:  cobra.ExactArgs(1),
	RunE:  runReconstruct,
}

func init() {
	reconstructCmd.Flags().String("format", "text", "output format (text|json)")
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	format, err := readFormat(cmd)
	if err != nil {
		return err
	}
	tasks, err := readExport(args[0])
	if err != nil {
		return err
	}

	proc := pipeline.Processor{Workers: cfg.Workers}
	batch, err := proc.RunTasks(cmd.Context(), tasks)
	if err != nil {
		return err
	}

	if format == "json" {
		err = report.WriteJSON(os.Stdout, batch)
	} else {
		var colour bool
		if colour, err = useColor(os.Stdout); err == nil {
			err = report.NewText(os.Stdout, colour).Reconstruction(batch)
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
