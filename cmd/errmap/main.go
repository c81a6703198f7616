package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/learnercorpus/errmap/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "errmap",
	Short: "Map annotated learner errors onto corrected, tagged text",
	Long: `errmap reconstructs the corrected version of annotated learner texts,
runs it through UDPipe and places every annotated error in the tagger output.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	verbose    bool
	colorFlag  string

	cfg *config.Cfg
)

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML run profile (default $ERRMAP_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	if cfg.Profile != "" {
		slog.Debug("profile loaded", "path", cfg.Profile)
	}
	return nil
}

// useColor resolves --color against the terminal state of f.
func useColor(f *os.File) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(colorFlag)) {
	case "", "auto":
		return isTerminal(f) && !color.NoColor, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
