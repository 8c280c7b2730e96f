// Package cli implements the ttokjang command line: parse a basket, resolve
// ambiguous items against the catalog and generate store plans.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ttokjang/backend/config"
	"github.com/ttokjang/backend/internal/infrastructure/offlineapi"
	"github.com/ttokjang/backend/internal/logger"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	apiURL     string
	logLevel   string
}

// app is what subcommands share once the root command has initialized
type app struct {
	cfg *config.Config
	log *zap.Logger
	api *offlineapi.Client
}

func (a *app) init(opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log, err := logger.New(cfg.Server.Environment, level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.api = offlineapi.NewClient(offlineapi.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		RetryMax: cfg.API.RetryMax,
		Logger:   log.Named("api"),
	})
	return nil
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:   "ttokjang",
		Short: "Plan an offline grocery run from a free-text basket.",
		Long: `ttokjang turns a basket written one item per line ("우유 1L 2개", "계란,1,30구")
into store plans: ambiguous items are resolved against the product catalog,
your location is geocoded, and the offline API ranks nearby stores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "offline API base URL (overrides api.base_url)")
	root.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "", "Set log level. Available: debug, info, warn, error")

	root.AddCommand(newParseCmd(), newResolveCmd(a), newPlanCmd(a))
	return root
}

// Execute runs the CLI and exits non-zero on failure.
// This is called by main.main().
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError shows err and, for API failures, the raw response body
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)

	var apiErr *offlineapi.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(w, "Status: %d\n", apiErr.StatusCode)
		if apiErr.Body != "" {
			fmt.Fprintf(w, "Response: %s\n", apiErr.Body)
		}
	}
}
