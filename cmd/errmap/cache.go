package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnercorpus/errmap/internal/tagger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the tagger output cache",
}

var cacheDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Remove every cached tagger result",
	Args:  cobra.NoArgs,
	RunE:  runCacheDrop,
}

func init() {
	cacheCmd.AddCommand(cacheDropCmd)
}

func runCacheDrop(cmd *cobra.Command, _ []string) error {
	c, err := tagger.NewCache(cfg.CacheDir, cfg.TaggerModel, nil)
	if err != nil {
		return err
	}
	if err := c.Drop(); err != nil {
		return fmt.Errorf("drop cache %s: %w", cfg.CacheDir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dropped tagger cache in %s\n", cfg.CacheDir)
	return nil
}
