package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

type gazetteersOptions struct {
	root *RootOptions

	entityType string
	terms      bool
}

func newGazetteersCmd(root *RootOptions) *cobra.Command {
	opts := &gazetteersOptions{root: root}

	cmd := &cobra.Command{
		Use:   "gazetteers",
		Short: "Inspect the loaded gazetteer dictionaries",
		Long:  "Gazetteers prints a per-type summary of the loaded dictionaries, or the\nfull canonical term list when --terms is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGazetteers(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.entityType, "type", "", "restrict output to one entity type")
	cmd.Flags().BoolVar(&opts.terms, "terms", false, "list canonical terms instead of counts")
	return cmd
}

type gazetteerReport struct {
	Fingerprint    string         `json:"fingerprint"`
	FuzzyThreshold int            `json:"fuzzy_threshold"`
	TermCount      int            `json:"term_count"`
	PatternCount   int            `json:"pattern_count"`
	TermsByType    map[string]int `json:"terms_by_type"`
	Terms          []termEntry    `json:"terms,omitempty"`
}

type termEntry struct {
	Canonical string `json:"canonical"`
	Type      string `json:"entity_type"`
}

func runGazetteers(cmd *cobra.Command, opts *gazetteersOptions) error {
	ext, err := buildExtractor(opts.root)
	if err != nil {
		return err
	}
	store := ext.Store()

	var filter []ner.EntityType
	if opts.entityType != "" {
		filter = append(filter, ner.EntityType(opts.entityType))
	}
	candidates := store.Canonicals(filter...)
	if opts.entityType != "" && len(candidates) == 0 {
		return apperrors.Newf(apperrors.ErrCodeNotFound, "no terms of type %q", opts.entityType)
	}

	report := gazetteerReport{
		Fingerprint:    ext.Fingerprint(),
		FuzzyThreshold: ext.FuzzyThreshold(),
		TermCount:      store.TermCount(),
		PatternCount:   len(store.Patterns()),
		TermsByType:    map[string]int{},
	}
	for _, c := range candidates {
		report.TermsByType[string(c.Type)]++
		if opts.terms {
			report.Terms = append(report.Terms, termEntry{Canonical: c.Canonical, Type: string(c.Type)})
		}
	}
	sort.Slice(report.Terms, func(i, j int) bool {
		if report.Terms[i].Type != report.Terms[j].Type {
			return report.Terms[i].Type < report.Terms[j].Type
		}
		return report.Terms[i].Canonical < report.Terms[j].Canonical
	})

	switch opts.root.OutputFormat {
	case "json":
		return printJSON(cmd.OutOrStdout(), report)
	case "table":
		renderGazetteerReport(cmd.OutOrStdout(), report, opts.terms)
		return nil
	default:
		return apperrors.Newf(apperrors.ErrCodeBadRequest, "unknown output format %q", opts.root.OutputFormat)
	}
}

func renderGazetteerReport(w io.Writer, report gazetteerReport, listTerms bool) {
	fmt.Fprintf(w, "Fingerprint:     %s\n", report.Fingerprint)
	fmt.Fprintf(w, "Fuzzy threshold: %d\n", report.FuzzyThreshold)
	fmt.Fprintf(w, "Terms:           %d\n", report.TermCount)
	fmt.Fprintf(w, "Patterns:        %d\n\n", report.PatternCount)

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)

	if listTerms {
		table.SetHeader([]string{"Canonical", "Type"})
		table.SetAutoWrapText(false)
		for _, t := range report.Terms {
			table.Append([]string{t.Canonical, t.Type})
		}
	} else {
		table.SetHeader([]string{"Type", "Terms"})
		types := make([]string, 0, len(report.TermsByType))
		for t := range report.TermsByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			table.Append([]string{t, fmt.Sprintf("%d", report.TermsByType[t])})
		}
	}
	table.Render()
}
