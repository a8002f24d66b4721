package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"printguard/internal/check"
	"printguard/internal/config"
	"printguard/internal/diag"
	"printguard/internal/history"
	"printguard/internal/logging"
	"printguard/internal/watch"
)

var (
	// Global flags
	cfgPath   string
	verbose   bool
	noColor   bool
	watchMode bool

	// Rewrite output paths
	optimizePath string
	typecastPath string

	// Logger
	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "printguard [files...]",
	Short: "Validate printf-family calls in C source",
	Long: `printguard finds printf, sprintf, and snprintf call sites in C source
and validates them: the format argument must be a string literal, every
conversion specifier must have a matching argument, and explicit type
casts must agree with their specifiers.

On a clean file it can emit two rewrites:
  --optimize   replace every site with a safe_printf-family call that
               interleaves literal chunks, argument pointers, and
               per-type formatter functions
  --typecast   reconstruct every site with a normalized format string
               and an explicit cast on every argument`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		return logging.Initialize(wd, logging.Options{
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.Flags().StringVar(&optimizePath, "optimize", "", "path to write optimized output to")
	rootCmd.Flags().StringVar(&typecastPath, "typecast", "", "path to write output with type casts added to format arguments")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-check files when they change")

	rootCmd.AddCommand(historyCmd)
}

// fileResult is the outcome of checking one file.
type fileResult struct {
	path     string
	analysis *check.Analysis
	report   *diag.Report
}

func (r *fileResult) sites() int {
	if r.analysis == nil {
		return 0
	}
	return len(r.analysis.Sites)
}

func (r *fileResult) findings() int {
	if r.report == nil {
		return 0
	}
	return len(r.report.Diagnostics)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.NewString()
	logging.Get(logging.CategoryBoot).Infof("run %s: checking %d file(s)", runID, len(args))

	rewriting := optimizePath != "" || typecastPath != ""
	if rewriting && len(args) > 1 {
		return fmt.Errorf("--optimize and --typecast accept exactly one input file")
	}
	if rewriting && watchMode {
		return fmt.Errorf("--watch cannot be combined with --optimize or --typecast")
	}

	color := useColor()

	var store *history.Store
	if cfg.History.Enabled {
		var err error
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	results := make([]fileResult, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			res, err := checkFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	findings := 0
	for i := range results {
		res := &results[i]
		if res.report != nil {
			res.report.Render(os.Stderr, color)
		}
		findings += res.findings()
		if store != nil {
			if err := store.Record(ctx, res.path, res.sites(), res.findings()); err != nil {
				logger.Warn("failed recording run", zap.String("file", res.path), zap.Error(err))
			}
		}
	}

	if findings == 0 && rewriting {
		if optimizePath != "" {
			if err := writeRewrite(results[0].analysis.RenderOptimize(), "optimize", optimizePath); err != nil {
				return err
			}
		}
		if typecastPath != "" {
			if err := writeRewrite(results[0].analysis.RenderTypecast(), "typecast", typecastPath); err != nil {
				return err
			}
		}
	}

	if watchMode {
		return runWatch(ctx, args, color, store)
	}

	if findings > 0 {
		return fmt.Errorf("source code contains errors")
	}
	return nil
}

// checkFile reads and analyzes a single file. A checker is created per
// call because the underlying parser is not safe for concurrent use.
func checkFile(ctx context.Context, path string) (fileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("failed reading input at %s: %w", path, err)
	}

	checker := check.NewChecker(cfg.Checker.Functions)
	defer checker.Close()

	analysis, diags, err := checker.Analyze(ctx, string(data))
	if err != nil {
		return fileResult{}, fmt.Errorf("failed parsing %s: %w", path, err)
	}

	res := fileResult{path: path, analysis: analysis}
	if len(diags) > 0 {
		res.report = diag.NewReport(path, string(data), diags)
	}
	return res, nil
}

// runWatch blocks until interrupted, re-checking files as they settle.
func runWatch(ctx context.Context, files []string, color bool, store *history.Store) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serializes terminal output and per-file rechecks.
	var mu sync.Mutex
	w, err := watch.New(files, cfg.Watch.DebounceDuration(), func(ctx context.Context, path string) {
		mu.Lock()
		defer mu.Unlock()

		res, err := checkFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return
		}
		if res.report != nil {
			res.report.Render(os.Stderr, color)
		} else {
			fmt.Fprintf(os.Stderr, "%s: ok (%d sites)\n", path, res.sites())
		}
		if store != nil {
			if err := store.Record(ctx, path, res.sites(), res.findings()); err != nil {
				logger.Warn("failed recording run", zap.String("file", path), zap.Error(err))
			}
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintln(os.Stderr, "watching for changes, press Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

// writeRewrite writes rewritten source to path. The file is created
// exclusively; overwriting an existing file is an error.
func writeRewrite(content, kind, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed creating output for --%s: %w", kind, err)
	}

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed writing to file for --%s: %w", kind, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed flushing buffered writer for --%s: %w", kind, err)
	}
	return f.Close()
}

// useColor decides whether diagnostics get styled.
func useColor() bool {
	if noColor {
		return false
	}
	switch cfg.Output.Color {
	case "always":
		return true
	case "never":
		return false
	}
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
