/*
Copyright (c) 2026 veyra-labs
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veyra-labs/dpscan/internal/app/interactive"
	"github.com/veyra-labs/dpscan/internal/app/scan"
	"github.com/veyra-labs/dpscan/internal/app/ui"
	"github.com/veyra-labs/dpscan/internal/config"
	appver "github.com/veyra-labs/dpscan/internal/version"
)

var (
	version = appver.Value

	policyPath    string
	inputPath     string
	outputDir     string
	formats       []string
	minConfidence float64
	workers       int
	headless      bool
	timeoutMs     int
	delaySec      float64
	depth         int
	maxPages      int
	database      string
)

var rootCmd = &cobra.Command{
	Use:   "dpscan [target]",
	Short: "dpscan analyzes web pages for dark patterns: manipulative interface designs such as confirmshaming, preselected options, hidden costs, cancellation obstacles, disguised ads, false urgency, and confusing interfaces.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := buildPolicy(cmd)
		if err != nil {
			return err
		}

		if len(args) == 0 && inputPath == "" {
			interactive.Run(policy)
			return nil
		}

		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		err = scan.Run(scan.Options{
			Target:       target,
			InputPath:    inputPath,
			AllowPrompts: true,
			Policy:       policy,
		})
		if err != nil {
			fmt.Printf("%sScan failed: %v%s\n", ui.ColorRed, err, ui.ColorReset)
			os.Exit(1)
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// buildPolicy loads the policy file and overlays any flags the user set.
func buildPolicy(cmd *cobra.Command) (config.Policy, error) {
	policy, err := config.Load(policyPath)
	if err != nil {
		return config.Policy{}, err
	}

	if cmd.Flags().Changed("output-dir") {
		policy.OutputDir = outputDir
	}
	if cmd.Flags().Changed("formats") {
		policy.Formats = formats
	}
	if cmd.Flags().Changed("min-confidence") {
		policy.MinConfidence = minConfidence
	}
	if cmd.Flags().Changed("workers") {
		policy.Workers = workers
	}
	if cmd.Flags().Changed("headless") {
		policy.Fetch.Headless = headless
	}
	if cmd.Flags().Changed("timeout") {
		policy.Fetch.TimeoutMs = timeoutMs
	}
	if cmd.Flags().Changed("delay") {
		policy.Fetch.InteractionDelaySec = delaySec
	}
	if cmd.Flags().Changed("depth") {
		policy.Depth = depth
	}
	if cmd.Flags().Changed("max-pages") {
		policy.MaxPages = maxPages
	}
	if cmd.Flags().Changed("db") {
		policy.Database = database
	}

	if err := policy.Validate(); err != nil {
		return config.Policy{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return policy, nil
}

func init() {
	rootCmd.Version = version

	defaults := config.Default()

	rootCmd.Flags().StringVar(&policyPath, "config", config.DefaultPolicyPath, "Path to the policy file")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Batch file of URLs (csv, json, or one per line)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", defaults.OutputDir, "Directory for generated reports")
	rootCmd.Flags().StringSliceVar(&formats, "formats", defaults.Formats, "Report formats: json, csv, html, xlsx")
	rootCmd.Flags().Float64Var(&minConfidence, "min-confidence", defaults.MinConfidence, "Minimum detection confidence to report (0-1)")
	rootCmd.Flags().IntVar(&workers, "workers", defaults.Workers, "Concurrent page analyses")
	rootCmd.Flags().BoolVar(&headless, "headless", defaults.Fetch.Headless, "Run the browser without a visible window")
	rootCmd.Flags().IntVar(&timeoutMs, "timeout", defaults.Fetch.TimeoutMs, "Per-page fetch timeout in milliseconds")
	rootCmd.Flags().Float64Var(&delaySec, "delay", defaults.Fetch.InteractionDelaySec, "Settle time after page load in seconds")
	rootCmd.Flags().IntVar(&depth, "depth", defaults.Depth, "Same-site link discovery depth (0 disables)")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", defaults.MaxPages, "Maximum pages per target when discovering links")
	rootCmd.Flags().StringVar(&database, "db", defaults.Database, "SQLite database file for storing reports")

	rootCmd.Long = ui.AsciiArt + `
dpscan is a heuristic dark-pattern scanner for web pages.

Usage:
   dpscan [target_url] [flags]

Example:
  dpscan https://example.com
  dpscan https://example.com --depth 2 --max-pages 10
  dpscan --input urls.csv --formats json,csv,xlsx
  dpscan https://example.com --headless=false

It renders each page in a real browser, runs seven pattern detectors
over the captured DOM, and reports each detection with its confidence,
location, and evidence, plus a 0-10 severity score per page.

This tool is intended for research and consumer-protection review of
publicly accessible pages.
`
}
