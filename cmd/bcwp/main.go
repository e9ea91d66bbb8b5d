// Command bcwp runs the inverse-optimization experiment on the prognostic
// breast-cancer (BCWP) data: repeated train/test splits, both loss variants
// and the ridge/logistic baseline, followed by a mean/percentile report.
//
// Usage:
//
//	bcwp --data data/wpbc_data.csv [--config bcwp.yaml] [--db runs.db] [--plot out/] [--metrics bcwp.prom]
//
// Every config key can also be set through INVOPT_<KEY> environment variables
// or the flags of the same name.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/invopt/experiment"
	"github.com/YuminosukeSato/invopt/pkg/errors"
	"github.com/YuminosukeSato/invopt/pkg/log"
	"github.com/YuminosukeSato/invopt/preprocessing"
)

type options struct {
	configPath  string
	dbPath      string
	plotDir     string
	metricsPath string
}

func main() {
	fs := pflag.NewFlagSet("bcwp", pflag.ExitOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "config file (yaml, toml or json)")
	fs.StringVar(&opts.dbPath, "db", "", "SQLite database receiving every run")
	fs.StringVar(&opts.plotDir, "plot", "", "directory for box plots of the test errors")
	fs.StringVar(&opts.metricsPath, "metrics", "", "write Prometheus metrics to this textfile")
	fs.String("data", "", "headerless csv: z, y, signals...")
	fs.Int("runs", 0, "number of repetitions")
	fs.Float64("test_fraction", 0, "fraction of samples held out per repetition")
	fs.Uint64("seed", 0, "base seed of the splits")
	fs.Float64("reg_param", 0, "regularization strength κ")
	fs.String("scaler", "", "signal scaling: standard, minmax or none")
	fs.String("log_level", "", "debug, info, warn or error")
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, fs, opts); err != nil {
		fmt.Fprintf(os.Stderr, "bcwp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, fs *pflag.FlagSet, opts options) error {
	cfg, err := experiment.LoadConfig(opts.configPath, fs)
	if err != nil {
		return err
	}
	if err := log.Setup(cfg.LogLevel, os.Stderr); err != nil {
		return err
	}
	logger := log.GetLoggerWithName("bcwp")

	if cfg.DataPath == "" {
		return errors.NewValidationError("data", "a data file is required", "")
	}
	S, X, err := preprocessing.LoadCSV(cfg.DataPath)
	if err != nil {
		return err
	}
	n, u := S.Dims()
	logger.Info("Data loaded", log.SamplesKey, n, log.FeaturesKey, u)

	reg := prometheus.NewRegistry()
	runnerOpts := []experiment.RunnerOption{
		experiment.WithMetrics(experiment.NewMetrics(reg)),
		experiment.WithLogger(logger),
	}
	if opts.dbPath != "" {
		store, err := experiment.NewStore(opts.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runnerOpts = append(runnerOpts, experiment.WithStore(store))
	}

	runner, err := experiment.NewRunner(cfg, S, X, runnerOpts...)
	if err != nil {
		return err
	}
	results, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	report, err := experiment.NewReport(results)
	if err != nil {
		return err
	}
	if err := report.Render(os.Stdout); err != nil {
		return err
	}

	if opts.plotDir != "" {
		if err := os.MkdirAll(opts.plotDir, 0o755); err != nil {
			return errors.Wrap(err, "create plot directory")
		}
		plots := map[experiment.Metric]string{
			experiment.MetricTestY: "test_y.png",
			experiment.MetricTestZ: "test_z.png",
		}
		for metric, name := range plots {
			if err := experiment.SavePlot(results, metric, filepath.Join(opts.plotDir, name)); err != nil {
				return err
			}
		}
	}

	if opts.metricsPath != "" {
		if err := prometheus.WriteToTextfile(opts.metricsPath, reg); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}
