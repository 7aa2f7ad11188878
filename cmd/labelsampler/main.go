// Command labelsampler packs labeled records into record stores and
// inspects or samples them.
//
//	labelsampler pack -in records.jsonl -out train.seg
//	LABELSAMPLER_SOURCE=train.seg labelsampler inspect
//	LABELSAMPLER_SOURCE=train.seg LABELSAMPLER_POLICY=triplet labelsampler sample -n 3
//
// Configuration is read from LABELSAMPLER_* environment variables and an
// optional .env file in the working directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/labelsampler"
	labelprom "github.com/hupe1980/labelsampler/metrics/prometheus"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const usage = `usage: labelsampler <command> [flags]

commands:
  pack      write JSON-lines records into a segment, parquet or dynamodb store
  inspect   print record and label statistics of LABELSAMPLER_SOURCE
  sample    draw batches from LABELSAMPLER_SOURCE and print their traces
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := ValidateConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mc labelsampler.MetricsCollector
	if cfg.MetricsAddr != "" {
		c, err := labelprom.NewCollector(nil)
		if err != nil {
			logger.Error("Failed to register metrics", "error", err)
			os.Exit(1)
		}
		mc = c

		go func() {
			logger.Info("Starting metrics server", "address", cfg.MetricsAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("Failed to start metrics server", "error", err)
			}
		}()
	}

	if err := run(ctx, cfg, logger, mc, os.Args[1:], os.Stdout); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, logger *labelsampler.Logger, mc labelsampler.MetricsCollector, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "pack":
		return runPack(ctx, cfg, logger, args[1:])
	case "inspect":
		return runInspect(ctx, cfg, logger, mc, out)
	case "sample":
		return runSample(ctx, cfg, logger, mc, args[1:], out)
	case "help", "-h", "--help":
		_, err := io.WriteString(out, usage)
		return err
	}
	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}
