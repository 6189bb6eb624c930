package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

type extractOptions struct {
	root *RootOptions

	text     string
	showText bool
}

func newExtractCmd(root *RootOptions) *cobra.Command {
	opts := &extractOptions{root: root}

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract entities from a file, stdin, or --text",
		Long:  "Extract reads text from the given file, from stdin when no file is given,\nor from the --text flag, and prints every recognized entity span.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "extract from this literal text instead of a file")
	cmd.Flags().BoolVar(&opts.showText, "full-text", false, "do not truncate the matched text column")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *extractOptions) error {
	text, err := readInput(cmd.InOrStdin(), args, opts.text)
	if err != nil {
		return err
	}
	if text == "" {
		return apperrors.New(apperrors.ErrCodeBadRequest, "no input text: pass a file, pipe stdin, or use --text")
	}

	ext, err := buildExtractor(opts.root)
	if err != nil {
		return err
	}

	result := ext.Extract(text)

	switch opts.root.OutputFormat {
	case "json":
		return printJSON(cmd.OutOrStdout(), result)
	case "table":
		renderMatchTable(cmd.OutOrStdout(), result.Entities, opts.showText)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d entities\n", len(result.Entities))
		return nil
	default:
		return apperrors.Newf(apperrors.ErrCodeBadRequest, "unknown output format %q", opts.root.OutputFormat)
	}
}

// readInput resolves the extract input source. Priority: --text, file
// argument, then stdin.
func readInput(stdin io.Reader, args []string, literal string) (string, error) {
	if literal != "" {
		return literal, nil
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "failed to read input file")
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "failed to read stdin")
	}
	return string(data), nil
}

func renderMatchTable(w io.Writer, matches []ner.Match, showFull bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Text", "Type", "Canonical", "Span", "Method", "Score"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, m := range matches {
		text := m.Text
		if !showFull && len(text) > 40 {
			text = text[:37] + "..."
		}
		table.Append([]string{
			text,
			colorType(m.Type),
			m.Canonical,
			fmt.Sprintf("%d-%d", m.Start, m.End),
			string(m.Method),
			strconv.Itoa(m.Score),
		})
	}
	table.Render()
}

func colorType(t ner.EntityType) string {
	switch t {
	case ner.TypeCompound:
		return color.GreenString(string(t))
	case ner.TypeTarget:
		return color.CyanString(string(t))
	case ner.TypeDisease:
		return color.RedString(string(t))
	case ner.TypeAccession:
		return color.YellowString(string(t))
	default:
		return string(t)
	}
}
