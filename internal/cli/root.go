package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datallboy/comexdown/internal/app"
	"github.com/datallboy/comexdown/internal/infra/config"
	"github.com/datallboy/comexdown/internal/infra/logger"
)

var version = "dev"

// errBatchFailed means not a single request of the batch succeeded.
var errBatchFailed = errors.New("every request in the batch failed")

func Execute() {
	// Ctrl+C stops dispatch; in-flight transfers drop their .part file
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	outputDir  string
	verifyTLS  bool
	workers    int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "comexdown",
		Short: "Download Brazil's foreign trade data",
		Long: `Downloads the export/import records and auxiliary code tables published by
SECEX (balanca.economia.gov.br), keeping local copies up to date and indexed.`,
		Version:      version,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default ./comexdown.yaml if present)")
	pf.StringVarP(&opts.outputDir, "output", "o", "", "output directory (default ./data/secex-comex)")
	pf.BoolVar(&opts.verifyTLS, "verify-tls", false, "verify the server TLS certificate")
	pf.IntVar(&opts.workers, "workers", 0, "parallel downloads (default 1)")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newTradeCmd(opts))
	cmd.AddCommand(newTableCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

// loadConfig reads the configuration and applies the flags the user set.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = o.outputDir
	}
	if flags.Changed("verify-tls") {
		cfg.Download.VerifyTLS = o.verifyTLS
	}
	if flags.Changed("workers") && o.workers > 0 {
		cfg.Download.Workers = o.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	return cfg, nil
}

// setup builds the application for one command. The caller must Close it.
func (o *globalOptions) setup(cmd *cobra.Command) (*app.Context, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), false)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	if cfg.Log.Console {
		log.SetConsole(cmd.ErrOrStderr())
	}

	// Parallel transfers would fight over a single progress line
	var progress io.Writer
	if cfg.Download.Workers == 1 {
		progress = cmd.OutOrStdout()
	}

	a, err := app.Build(cmd.Context(), cfg, log, progress)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	a.AddCloser(log)

	return a, nil
}
