package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go-sheet-pipeline/internal/config"
	"go-sheet-pipeline/internal/logging"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
)

type globalOptions struct {
	configPath string
	logLevel   string
	timeout    time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:          "pipeline",
		Short:        "Ingest and aggregate published sheet exports",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.New(logging.Options{Level: opts.logLevel, Writer: cmd.ErrOrStderr()})
			return err
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("PIPELINE_CONFIG"), "Path to the YAML config")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request fetch timeout")

	root.AddCommand(newRunCmd(&opts), newIngestCmd(&opts), newStatementCmd(&opts))
	return root
}

// fetcher builds the fetcher every command shares, taking retry and breaker
// policies from the config when one is given.
func (o *globalOptions) fetcher() (*pipeline.HTTPFetcher, *config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, nil, err
		}
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = config.Duration(cfg.Fetch.Timeout, 30*time.Second)
	}
	f := pipeline.NewHTTPFetcher(timeout, cfg.Fetch.Retry, cfg.Fetch.Breaker)
	f.OnBreaker = func(host string, s pipeline.BreakerState) {
		slog.Warn("⚠️ breaker changed", "host", host, "state", s)
	}
	return f, cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func presetHints(name string) (model.Hints, error) {
	if name == "" {
		return model.Hints{}, nil
	}
	h, ok := model.Preset(name)
	if !ok {
		return model.Hints{}, fmt.Errorf("unknown preset %q (known: %s)", name, strings.Join(model.PresetNames(), ", "))
	}
	return h, nil
}

