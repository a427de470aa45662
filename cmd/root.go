// Package cmd implements the fauna CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/app"
	"github.com/derickschaefer/fauna/internal/config"
	"github.com/derickschaefer/fauna/internal/render"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Src     string
	Format  string
	Out     string
	Timeout string
	Rate    float64
	Quiet   bool
	Verbose bool
	Debug   bool
}

// rootCmd is the base command. Running `fauna` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "fauna",
	Short: "fauna: species speed charts from CSV",
	Long: `fauna loads a CSV of animals (name, top speed, diet) from a file, stdin,
an HTTP URL or an s3:// object and draws it as a bar chart coloured by diet.

The input needs three columns:

  Animal,Top Speed (km/h),Diet
  Cheetah,120,Carnivore
  Elephant,40,Herbivore

Quick start:
  fauna config init                       # create a config.json
  fauna render --src species.csv --out chart.svg
  fauna preview --src species.csv         # ASCII bars in the terminal
  fauna serve --src species.csv --watch   # live chart on :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// resolveConfig loads config and applies the global flag overrides.
func resolveConfig() (*config.Config, error) {
	cfg, err := config.Load(globalFlags.Src)
	if err != nil {
		return nil, err
	}

	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		if !render.ValidFormat(globalFlags.Format) {
			return nil, fmt.Errorf("unknown format %q (want one of %v)", globalFlags.Format, render.Formats)
		}
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout %q: %w", globalFlags.Timeout, err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Src, "src", "",
		"data source: file path, '-' for stdin, http(s):// URL or s3://bucket/key (overrides env FAUNA_SOURCE and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|yaml (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max remote requests per second (default: 2.0)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show source/timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log loader, controller and server activity to stderr")
}
