package handlers

import (
	"casaideal/internal/config"
	"casaideal/internal/core"
	"casaideal/internal/cost"
	"casaideal/internal/pipeline"
	"casaideal/internal/render"
	"casaideal/internal/tui"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type searchOptions struct {
	preferencesFile string
	format          string
	outputDir       string
	browse          bool
	noSimilar       bool
	refine          bool
	estimate        bool
	timeout         time.Duration

	prefs core.Preferences
}

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	opts := &searchOptions{prefs: core.DefaultPreferences()}
	var intention string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Generate property recommendations for your preferences",
		Long: `Generate three tailored property listings followed by two alternatives.

Preferences come from flags, from a YAML or JSON file, or both (flags win).
Progress is printed to stderr; results go to stdout or to --output.

Examples:
  # Buy a house in Pinheiros
  casaideal search --name Ana --type Casa --location "Pinheiros, São Paulo" \
    --min-budget 800000 --max-budget 1500000 --priorities "Bairro tranquilo" --extras Garagem

  # Rent, from a preferences file, as markdown
  casaideal search --preferences prefs.yaml --intention Alugar --format markdown

  # Browse the results interactively
  casaideal search --preferences prefs.json --browse

  # Estimate the cost without calling the models
  casaideal search --preferences prefs.yaml --estimate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("intention") {
				opts.prefs.Intention = core.Intention(intention)
			}
			return runSearch(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.preferencesFile, "preferences", "p", "", "YAML or JSON file with preferences")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: terminal, json, markdown, html (default from config)")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Directory to save the result instead of printing it")
	flags.BoolVar(&opts.browse, "browse", false, "Open the interactive browser after the search")
	flags.BoolVar(&opts.noSimilar, "no-similar", false, "Skip the alternative listings")
	flags.BoolVar(&opts.refine, "refine", false, "Report progress as a refinement of an earlier search")
	flags.BoolVar(&opts.estimate, "estimate", false, "Print the estimated cost of the search and exit")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Give up after this long")

	flags.StringVar(&opts.prefs.Name, "name", "", "How to address you in the listings")
	flags.StringVar(&intention, "intention", string(core.IntentionBuy), "Comprar or Alugar")
	flags.StringVar(&opts.prefs.PropertyType, "type", "", "Property type: "+strings.Join(core.PropertyTypeOptions, ", "))
	flags.StringVar(&opts.prefs.OtherPropertyType, "other-type", "", "Free-text property type")
	flags.Int64Var(&opts.prefs.Budget.Min, "min-budget", opts.prefs.Budget.Min, "Minimum budget in BRL")
	flags.Int64Var(&opts.prefs.Budget.Max, "max-budget", opts.prefs.Budget.Max, "Maximum budget in BRL")
	flags.StringVar(&opts.prefs.Location, "location", opts.prefs.Location, "Desired location")
	flags.StringSliceVar(&opts.prefs.Priorities, "priorities", nil, "Priorities: "+strings.Join(core.PriorityOptions, ", "))
	flags.StringVar(&opts.prefs.OtherPriorities, "other-priorities", "", "Free-text priorities")
	flags.IntVar(&opts.prefs.Bedrooms, "bedrooms", opts.prefs.Bedrooms, "Bedrooms")
	flags.IntVar(&opts.prefs.Bathrooms, "bathrooms", opts.prefs.Bathrooms, "Bathrooms")
	flags.StringSliceVar(&opts.prefs.Extras, "extras", nil, "Extras: "+strings.Join(core.ExtraOptions, ", "))
	flags.StringVar(&opts.prefs.OtherExtras, "other-extras", "", "Free-text extras")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *searchOptions) error {
	cfg := config.Get()

	prefs, err := resolvePreferences(cmd, opts)
	if err != nil {
		return err
	}
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}

	if opts.estimate {
		estimate := cost.EstimateSearch(prefs, cost.Options{
			TextModel:      cfg.AI.Gemini.TextModel,
			ImageModel:     cfg.AI.Gemini.ImageModel,
			ImageCount:     cfg.AI.Gemini.ImageCount,
			IncludeSimilar: !opts.noSimilar,
		})
		_, err := fmt.Fprint(cmd.OutOrStdout(), estimate.FormatEstimate())
		return err
	}

	format := opts.format
	if format == "" {
		format = cfg.CLI.DefaultFormat
	}
	if !slices.Contains(render.Formats, format) {
		return fmt.Errorf("unknown format %q (expected one of %s)", format, strings.Join(render.Formats, ", "))
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	p, analytics, err := newPipeline(ctx, cfg, opts.noSimilar)
	if err != nil {
		return err
	}
	defer analytics.Close()

	progress := pipeline.ProgressFunc(func(message string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "⏳ %s\n", message)
	})

	run := p.Search
	if opts.refine {
		run = p.Refine
	}

	result, err := run(ctx, prefs, progress)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s\n", pipeline.UserMessage(err))
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✅ %d imóveis e %d alternativas em %s\n",
		len(result.Listings), len(result.Similar), result.Duration.Round(time.Millisecond))

	if err := writeResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, format, opts.outputDir); err != nil {
		return err
	}

	if opts.browse {
		return tui.Run(result)
	}
	return nil
}

// resolvePreferences starts from the preferences file, if any, and applies
// every flag the user set explicitly.
func resolvePreferences(cmd *cobra.Command, opts *searchOptions) (core.Preferences, error) {
	if opts.preferencesFile == "" {
		return opts.prefs, nil
	}

	prefs, err := loadPreferences(opts.preferencesFile)
	if err != nil {
		return core.Preferences{}, err
	}

	overrides := map[string]func(){
		"name":             func() { prefs.Name = opts.prefs.Name },
		"intention":        func() { prefs.Intention = opts.prefs.Intention },
		"type":             func() { prefs.PropertyType = opts.prefs.PropertyType },
		"other-type":       func() { prefs.OtherPropertyType = opts.prefs.OtherPropertyType },
		"min-budget":       func() { prefs.Budget.Min = opts.prefs.Budget.Min },
		"max-budget":       func() { prefs.Budget.Max = opts.prefs.Budget.Max },
		"location":         func() { prefs.Location = opts.prefs.Location },
		"priorities":       func() { prefs.Priorities = opts.prefs.Priorities },
		"other-priorities": func() { prefs.OtherPriorities = opts.prefs.OtherPriorities },
		"bedrooms":         func() { prefs.Bedrooms = opts.prefs.Bedrooms },
		"bathrooms":        func() { prefs.Bathrooms = opts.prefs.Bathrooms },
		"extras":           func() { prefs.Extras = opts.prefs.Extras },
		"other-extras":     func() { prefs.OtherExtras = opts.prefs.OtherExtras },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return prefs, nil
}

// loadPreferences reads preferences from a JSON file (camelCase keys) or a
// YAML file (snake_case keys). Missing fields keep their defaults.
func loadPreferences(path string) (core.Preferences, error) {
	prefs := core.DefaultPreferences()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return prefs, fmt.Errorf("failed to read preferences file: %w", err)
		}
		if err := json.Unmarshal(data, &prefs); err != nil {
			return prefs, fmt.Errorf("failed to parse preferences file %s: %w", path, err)
		}
		return prefs, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return prefs, fmt.Errorf("failed to read preferences file: %w", err)
	}
	if err := v.Unmarshal(&prefs); err != nil {
		return prefs, fmt.Errorf("failed to parse preferences file %s: %w", path, err)
	}
	return prefs, nil
}

// writeResult prints the result, or saves it under outputDir when set
func writeResult(stdout, stderr io.Writer, result *pipeline.SearchResult, format, outputDir string) error {
	content, err := render.Result(result, format)
	if err != nil {
		return err
	}

	if outputDir == "" {
		_, err := fmt.Fprint(stdout, content)
		return err
	}

	filename := fmt.Sprintf("casaideal_%s%s", result.StartedAt.Format("20060102-150405"), render.Extension(format))
	path, err := render.WriteToFile(content, outputDir, filename)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "📄 Resultado salvo em %s\n", path)
	return nil
}
