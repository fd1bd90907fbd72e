package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/OriginalDaemon/datalens/client"
)

type options struct {
	configFile string
	apiURL     string
	logFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "datalens-tui",
		Short: "Terminal dashboard for the datalens analytics API",
		Long: `Browse datasets, view their analytics, upload CSV files and delete
datasets from the terminal.

Examples:
  datalens-tui                                  # Use ./config.yaml or ./config.json
  datalens-tui --api-url http://host:5000/api   # Override the API location
  datalens-tui report 7                         # Open the report of dataset 7`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, api *client.Client) tea.Model {
				return newAppModel(ctx, api)
			})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file (JSON or YAML)")
	flags.StringVar(&opts.apiURL, "api-url", "", "Analytics API base URL, including /api")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")

	root.AddCommand(newReportCmd(opts), newInitConfigCmd(opts))
	return root
}

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:          "report <dataset-id>",
		Short:        "Show the detailed report of one dataset",
		Args:         datasetIDArg,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := strconv.Atoi(args[0])
			return run(cmd.Context(), opts, func(ctx context.Context, api *client.Client) tea.Model {
				return newReportApp(ctx, api, id)
			})
		},
	}
}

func newInitConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the effective configuration to a file",
		Long: `Write the configuration the dashboard would use, after the config file,
.env and flags are applied. The format follows the extension (.yaml, .yml or
JSON otherwise); the default path is ./config.yaml.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "./config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := SaveConfig(path, loadConfig(opts)); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

// datasetIDArg accepts exactly one positive integer
func datasetIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid dataset id %q", args[0])
	}
	return nil
}

// loadConfig resolves configuration: file, then .env, then flags
func loadConfig(opts *options) *Config {
	path := opts.configFile
	if path == "" {
		path = defaultConfigPath()
	}
	config := LoadConfig(path)
	config.ApplyEnv(".env")

	if opts.apiURL != "" {
		config.APIURL = opts.apiURL
	}
	if opts.logFile != "" {
		config.LogFile = opts.logFile
	}
	return config
}

func run(ctx context.Context, opts *options, newModel func(context.Context, *client.Client) tea.Model) error {
	config := loadConfig(opts)

	cleanup, err := initLogging(config)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanup()

	log.Printf("Configuration loaded: API=%s, Request timeout=%ds", config.APIURL, config.RequestTimeoutSeconds)

	api := client.NewClient(config.APIURL)
	api.HTTPClient.Timeout = config.RequestTimeout()

	p := tea.NewProgram(newModel(ctx, api), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
