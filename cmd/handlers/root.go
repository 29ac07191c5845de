/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"context"
	"fmt"
	"os"

	"casaideal/internal/config"
	"casaideal/internal/logger"
	"casaideal/internal/observability"
	"casaideal/internal/pipeline"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "casaideal",
		Short: "casaideal generates personalized property recommendations.",
		Long: `casaideal turns a short questionnaire (intention, budget, location,
priorities, rooms and extras) into tailored property listings.

Each listing is written by Gemini, illustrated with Imagen and described
with a neighborhood narrative. A second pass suggests alternatives that
stretch the criteria in interesting ways.

Examples:
  casaideal search --name Ana --location "Pinheiros, São Paulo"
  casaideal search --preferences prefs.yaml --format markdown --output results
  casaideal compare results/casaideal.json --ids p-1,p-2
  casaideal serve --port 8080`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.casaideal.yaml)")

	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewCompareCmd())
	rootCmd.AddCommand(NewOptionsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}

// newPipeline wires the Gemini-backed pipeline and optional analytics from config.
// The returned analytics client must be closed by the caller.
func newPipeline(ctx context.Context, cfg *config.Config, skipSimilar bool) (*pipeline.Pipeline, *observability.PostHogClient, error) {
	analytics, err := observability.NewPostHogClient(cfg.Analytics.PostHog)
	if err != nil {
		logger.Warn("PostHog analytics unavailable", "error", err)
		analytics = observability.Disabled()
	}

	builder := pipeline.NewBuilder().
		WithGemini(cfg.AI.Gemini).
		WithAnalytics(analytics)
	if skipSimilar {
		builder = builder.WithoutSimilar()
	}

	p, err := builder.Build(ctx)
	if err != nil {
		_ = analytics.Close()
		return nil, nil, err
	}
	return p, analytics, nil
}
