package main

import (
	"fmt"
	"os"

	"github.com/opscart/hardware-explorer/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	planPath     string
	workspaceDir string
	cacheBackend string
	logLevel     string
	verbose      bool

	// Exploration flags
	outputFormat string
	reportOutput string
	dryRun       bool

	// Report flags
	reportPath   string
	reportFormat string
	allWorkloads bool

	// Global config
	cfg *config.Config
)

func main() {
	// Initialize config
	cfg = config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "hardware-explore",
		Short: "Find the cheapest hardware that meets the performance thresholds",
		Long: `Explore instance types, node counts and database instance types under a fixed
workload. Each candidate runs as repeated trials; results are cached so an
interrupted exploration resumes where it stopped.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&planPath, "plan", "p", "exploration.yaml", "Exploration plan file")
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "workspace", "", "Workspace directory (overrides HWX_WORKSPACE)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "Cache backend: bolt, postgres, s3, memory (overrides HWX_CACHE_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Human readable debug logging")

	jiraCmd := &cobra.Command{
		Use:   "jira",
		Short: "Explore Jira instance types and node counts",
		RunE:  runJira,
	}
	addExploreFlags(jiraCmd)

	databaseCmd := &cobra.Command{
		Use:   "database",
		Short: "Explore database instance types for the best Jira hardware",
		RunE:  runDatabase,
	}
	addExploreFlags(databaseCmd)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render a report from cached results",
		RunE:  runReport,
	}
	reportCmd.Flags().StringVar(&reportPath, "report-output", "reports/hardware-exploration.html", "Output file for the report")
	reportCmd.Flags().StringVar(&reportFormat, "report-format", "", "Report format: html, csv (default from the file extension)")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the result cache",
	}
	cacheListCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached results for the plan's workload",
		RunE:  runCacheList,
	}
	cacheListCmd.Flags().BoolVar(&allWorkloads, "all", false, "List every workload")
	cacheCmd.AddCommand(cacheListCmd)

	rootCmd.AddCommand(jiraCmd)
	rootCmd.AddCommand(databaseCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func addExploreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	cmd.Flags().StringVar(&reportOutput, "report-output", "", "Also render a report to this file (.html or .csv)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the first candidates without running trials")
}

// applyFlags lets flags override the environment
func applyFlags() {
	if workspaceDir != "" {
		cfg.WorkspaceDir = workspaceDir
	}
	if cacheBackend != "" {
		cfg.Cache.Type = cacheBackend
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.Verbose = true
	}
}
