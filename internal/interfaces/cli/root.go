// Package cli implements the sfner command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath     string
	OutputFormat   string
	GazetteerDir   string
	FuzzyThreshold int
	NoColor        bool
}

// NewRootCommand creates the root cobra command with global flags and
// subcommands mounted.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "sfner",
		Short:   "Dictionary-based entity extraction for TB drug discovery text",
		Long:    "sfner extracts compounds, protein targets, diseases, accession numbers,\nscreening methods, and functional categories from free text using a curated\ngazetteer with derived accession patterns and optional fuzzy matching.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.NoColor {
				color.NoColor = true
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (serve only)")
	flags.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format: json|table")
	flags.StringVar(&opts.GazetteerDir, "gazetteer-dir", "", "directory of additional gazetteer YAML files")
	flags.IntVar(&opts.FuzzyThreshold, "fuzzy-threshold", ner.DefaultFuzzyThreshold, "fuzzy similarity threshold 0-100; 0 disables")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newExtractCmd(opts),
		newGazetteersCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// Execute runs the root command and converts failures to exit code 1.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// buildExtractor constructs an extractor from the global flags.
func buildExtractor(opts *RootOptions) (*ner.Extractor, error) {
	threshold := opts.FuzzyThreshold
	return ner.New(ner.Options{
		FuzzyThreshold: &threshold,
		GazetteerDir:   opts.GazetteerDir,
	})
}

// loadConfig loads the service config honoring --config.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadFromEnv()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode output")
	}
	return nil
}

func printError(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
}
