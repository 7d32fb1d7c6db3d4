// Package main provides the spsmtool binary entry point. Spsmtool is a
// demonstration harness around the SPSM library: it matches
// function-like expression trees given on the command line, in fixture
// files, or extracted from JavaScript source.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sematrix/spsm/async"
	"github.com/sematrix/spsm/config"
	"github.com/sematrix/spsm/filter"
	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/metrics"
	"github.com/sematrix/spsm/scorer"
	"github.com/sematrix/spsm/sourcetree"
	"github.com/sematrix/spsm/spsm"
	"github.com/sematrix/spsm/tree"
	"github.com/sematrix/spsm/treeio"
)

// Version information, set at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const appName = "spsmtool"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type toolState struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	publisher *async.Publisher
	nc        *nats.Conn
}

func rootCmd() *cobra.Command {
	var (
		configPath  string
		logLevel    string
		metricsAddr string
		asymmetric  bool
	)

	cmd := &cobra.Command{
		Use:   "spsmtool",
		Short: "Structure-preserving semantic matching over expression trees",
		Long: `Spsmtool matches two function-like expression trees, such as
f(a,b(c)), under a candidate relation matrix and reports the filtered
one-to-one mapping and its similarity score.

Trees are written in function notation; candidate relations use
source=target (equivalent), source>target (more general),
source<target (less general) and source!target (disjoint).`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")
	cmd.PersistentFlags().BoolVar(&asymmetric, "asymmetric", false, "Use the asymmetric (query-vs-reference) similarity")

	var relations []string
	matchCmd := &cobra.Command{
		Use:   "match SOURCE TARGET",
		Short: "Match two expression trees",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := setup(configPath, logLevel, metricsAddr)
			if err != nil {
				return err
			}
			defer st.close()
			return runMatch(cmd.Context(), st, args[0], args[1], relations, asymmetric)
		},
	}
	matchCmd.Flags().StringArrayVarP(&relations, "relation", "r", nil, "Candidate relation, e.g. -r f=f -r a=a (repeatable)")
	cmd.AddCommand(matchCmd)

	var fixtures string
	var watchConfig bool
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Match every fixture file matched by a glob",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := setup(configPath, logLevel, metricsAddr)
			if err != nil {
				return err
			}
			defer st.close()
			return runBatch(cmd.Context(), st, fixtures, asymmetric, watchConfig, configPath)
		},
	}
	batchCmd.Flags().StringVar(&fixtures, "fixtures", "testdata/**/*.fn", "Doublestar glob of fixture files")
	batchCmd.Flags().BoolVar(&watchConfig, "watch-config", false, "Keep running and re-score fixtures when the config file changes")
	cmd.AddCommand(batchCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "extract FILE.js",
		Short: "Extract the first call expression from JavaScript source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}
			t, err := sourcetree.FromJavaScript(cmd.Context(), src)
			if err != nil {
				return err
			}
			fmt.Println(tree.Signature(t.Root()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func setup(configPath, logLevel, metricsAddr string) (*toolState, error) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err == nil {
			err = cfg.Validate()
		}
	} else {
		cfg, err = config.NewLoader(logger).Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st := &toolState{cfg: cfg, logger: logger}

	if metricsAddr == "" && cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		st.collector = metrics.NewCollector(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		st.nc = nc
		st.publisher = async.NewPublisher(nc, cfg.NATS.CompletionSubject)
		logger.Info("publishing filter completions", "subject", cfg.NATS.CompletionSubject)
	}

	return st, nil
}

func (st *toolState) close() {
	if st.nc != nil {
		st.nc.Close()
	}
}

func (st *toolState) filterOptions() filter.Options {
	return filter.Options{RichRowPruneVariant: st.cfg.Filter.RichRowPruneVariant}
}

func (st *toolState) scorerParams() scorer.Params {
	return scorer.Params{
		PathLengthLimit:  st.cfg.TED.PathLengthLimit,
		WeightInsert:     st.cfg.TED.WeightInsert,
		WeightDelete:     st.cfg.TED.WeightDelete,
		WeightSubstitute: st.cfg.TED.WeightSubstitute,
	}
}

// score matches one candidate and returns the filtered mapping with a
// similarity recomputed under the configured edit weights.
func (st *toolState) score(ctx context.Context, candidate *mapping.Matrix, asymmetric bool) (*mapping.Matrix, error) {
	mode := spsm.Symmetric
	if asymmetric {
		mode = spsm.Asymmetric
	}

	start := time.Now()
	considered := candidate.Size()

	task := async.Filter(ctx, candidate, mode, st.publisher, st.filterOptions(), st.logger)
	filtered, err := task.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if asymmetric {
		filtered.SetSimilarity(scorer.AsymmetricWith(filtered, st.scorerParams()))
	} else {
		filtered.SetSimilarity(scorer.SymmetricWith(filtered, st.scorerParams()))
	}

	if st.collector != nil {
		st.collector.ObserveRun(considered, filtered.Size(), time.Since(start))
	}
	return filtered, nil
}

func runMatch(ctx context.Context, st *toolState, sourceExpr, targetExpr string, relations []string, asymmetric bool) error {
	fixture := fmt.Sprintf("source: %s\ntarget: %s\n%s\n", sourceExpr, targetExpr, strings.Join(relations, "\n"))
	f, err := treeio.ParseFixture(strings.NewReader(fixture))
	if err != nil {
		return err
	}

	filtered, err := st.score(ctx, f.Candidate, asymmetric)
	if err != nil {
		return err
	}

	printResult(os.Stdout, filtered)
	return nil
}

func runBatch(ctx context.Context, st *toolState, pattern string, asymmetric, watchConfig bool, configPath string) error {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return fmt.Errorf("expand fixtures glob: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no fixtures match %q", pattern)
	}

	runAll := func() error {
		for _, path := range paths {
			f, err := treeio.LoadFixture(path)
			if err != nil {
				return err
			}
			filtered, err := st.score(ctx, f.Candidate, asymmetric)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s\t%.4f\t%d pairs\n", path, filtered.Similarity(), filtered.Size())
		}
		return nil
	}

	if err := runAll(); err != nil {
		return err
	}
	if !watchConfig || configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, st.logger)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go watcher.Run(ctx)

	st.logger.Info("watching config, re-scoring on change", "path", configPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-watcher.Updates():
			if !ok {
				return nil
			}
			st.cfg = cfg
			if err := runAll(); err != nil {
				st.logger.Error("batch re-run failed", "error", err)
			}
		}
	}
}

func printResult(w *os.File, m *mapping.Matrix) {
	fmt.Fprintf(w, "source: %s\n", tree.Signature(m.SourceContext().Root()))
	fmt.Fprintf(w, "target: %s\n", tree.Signature(m.TargetContext().Root()))
	for _, el := range m.Elements() {
		fmt.Fprintf(w, "  %s %s %s\n", el.Source.Name(), el.Relation, el.Target.Name())
	}
	fmt.Fprintf(w, "similarity: %.4f\n", m.Similarity())
}
