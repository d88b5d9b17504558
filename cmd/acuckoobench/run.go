package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwong775/acuckoo/internal/bench"
)

const metricsReadHeaderTimeout = 5 * time.Second

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Insert a key set, sweep a larger disjoint set, and converge the filter",
		RunE:  runBenchmark,
	}

	flags := cmd.Flags()
	flags.Uint64("n", 1000, "number of keys to insert into R")
	flags.Int("bits-per-fp", 12, "fingerprint width in bits (4, 8, 12, 16, 32)")
	flags.Float64("max-load-factor", 0.95, "target load factor when sizing the bucket count")
	flags.Int("max-kicks", 500, "cuckoo-path random walk bound per insert")
	flags.String("hash-family", "xxhash", "hash family to use (xxhash, murmur)")
	flags.Uint64("seed", 1, "PRNG seed, for reproducible runs")
	flags.Int("max-rounds", 200, "maximum lookup-sweep rounds before giving up on convergence")
	flags.String("output-dir", ".", "directory to write the CSV report and chart into")
	flags.Bool("chart", false, "render an HTML convergence chart")
	flags.String("metrics-addr", "", "if set, serve Prometheus metrics on this address until the run completes")

	return cmd
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	cfg, err := bench.LoadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var metrics *bench.Metrics
	if cfg.MetricsAddr != "" {
		metrics = bench.NewMetrics()
		server := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	result, err := bench.Run(context.Background(), cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	csvPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("report-%s.csv", result.RunID))
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := bench.WriteCSV(f, result); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.Chart {
		chartPath, err := bench.WriteConvergenceChart(cfg.OutputDir, result)
		if err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		logger.Info("wrote convergence chart", "path", chartPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), bench.SummaryTable(result))
	logger.Info("run complete", "run_id", result.RunID, "converged", result.Converged, "rounds", len(result.Rounds))
	return nil
}
