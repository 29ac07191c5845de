package handlers

import (
	"casaideal/internal/compare"
	"casaideal/internal/core"
	"casaideal/internal/pipeline"
	"casaideal/internal/render"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command
func NewCompareCmd() *cobra.Command {
	var (
		ids    []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "compare <results.json>",
		Short: "Compare 2 to 4 listings from a saved search",
		Long: `Compare listings side by side from a search saved with --format json.

Listings and alternatives can be mixed. Without --ids the first listings
of the search are compared. When an alternative shares its id with a
listing, repeat the id: the second occurrence picks the alternative.

Examples:
  casaideal search --format json --output results
  casaideal compare results/casaideal_20250310-153000.json --ids p-1,s-2
  casaideal compare results.json --ids p-1,p-2,p-3 --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.OutOrStdout(), args[0], ids, format)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Listing IDs to compare, in display order")
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatTerminal, "Output format: terminal, markdown, json")

	return cmd
}

func runCompare(w io.Writer, path string, ids []string, format string) error {
	result, err := loadResult(path)
	if err != nil {
		return err
	}

	all := append(append([]core.Property{}, result.Listings...), result.Similar...)
	if len(ids) == 0 {
		n := min(len(all), compare.MaxProperties)
		ids = core.IDs(all[:n])
	}

	selected, err := compare.Select(all, ids)
	if err != nil {
		return err
	}

	comparison, err := compare.Build(selected)
	if err != nil {
		return err
	}

	switch format {
	case render.FormatTerminal, "":
		_, err = fmt.Fprint(w, render.ComparisonTable(comparison))
	case render.FormatMarkdown:
		_, err = fmt.Fprint(w, render.ComparisonMarkdown(comparison))
	case render.FormatJSON:
		var data []byte
		if data, err = render.JSON(comparison); err == nil {
			_, err = w.Write(data)
		}
	default:
		err = fmt.Errorf("unknown format %q (expected one of %s)", format, strings.Join([]string{render.FormatTerminal, render.FormatMarkdown, render.FormatJSON}, ", "))
	}
	return err
}

func loadResult(path string) (*pipeline.SearchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var result pipeline.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse results file %s: %w", path, err)
	}
	return &result, nil
}
