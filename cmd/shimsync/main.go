package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shimsync/internal/config"
	"shimsync/internal/correspond"
	"shimsync/internal/crawler"
	"shimsync/internal/extractor"
	"shimsync/internal/generator"
	"shimsync/internal/report"
	"shimsync/internal/verify"
	"shimsync/internal/watch"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// errFailed marks an operation that ran and failed, so main can exit 1
// and reserve exit 2 for usage errors.
var errFailed = errors.New("failed")

var rootCmd = &cobra.Command{
	Use:   "shimsync",
	Short: "shimsync - keep adapter facades in sync with their backend modules",
	Long: `shimsync reads Python backend modules without executing them, checks an
adapter facade against their declared surface, and scores how much of
that surface the adapter covers.

It can also generate a deterministic adapter scaffold for a backend
module: a string-keyed dispatch table of placeholder stubs, bound to the
backend all-or-nothing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [adapter.py] [backend...]",
	Short: "Check an adapter against backend modules and score the coverage",
	Long: `Extracts the inventory of every backend module (files or directories),
checks each against the adapter, and prints a report. By default items
are matched lexically against the adapter source, which gives credit to
string-keyed dispatch tables; --structural compares declared classes
and functions instead.

Exits 0 when the aggregate coverage meets the threshold and every
module could be checked, 1 otherwise.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runVerify,
}

var genCmd = &cobra.Command{
	Use:   "gen [backend.py]",
	Short: "Generate a Python adapter scaffold for a backend module",
	Long: `Extracts the backend module's inventory and renders the adapter
scaffold: doc block, all-or-nothing binding, dispatch table and one
placeholder stub per method and function. Regenerating from unchanged
source reproduces the file byte for byte.

Generation fails when two declarations derive the same dispatch key.`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory [path...]",
	Short: "Print the extracted inventory of Python modules",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInventory,
}

var watchCmd = &cobra.Command{
	Use:   "watch [adapter.py] [backend...]",
	Short: "Re-run verification whenever the sources change",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file")

	for _, cmd := range []*cobra.Command{verifyCmd, watchCmd} {
		cmd.Flags().Float64P("threshold", "t", 0, "Coverage percentage required to pass (default from config)")
		cmd.Flags().Bool("structural", false, "Compare declared surfaces instead of matching lexically")
		cmd.Flags().IntP("parallelism", "p", 0, "Backend modules extracted in parallel (default: number of CPUs)")
	}
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a change triggers a re-run")

	genCmd.Flags().StringP("output", "o", "", "Scaffold path, or - for stdout (default from config)")
	genCmd.Flags().String("backend", "", "Import path the scaffold binds against (default: module name)")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errFailed) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

// buildOptions folds config file and command flags into runner options.
// Flags win when set.
func buildOptions(cmd *cobra.Command) (verify.Options, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return verify.Options{}, fmt.Errorf("failed to load config: %w", err)
	}

	opts := verify.Options{
		Threshold:  cfg.Verify.Threshold,
		Mode:       correspond.ModeLexical,
		IgnoreDirs: cfg.Source.IgnoreDirs,
	}
	if cfg.Verify.Structural {
		opts.Mode = correspond.ModeStructural
	}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("structural") {
		structural, _ := cmd.Flags().GetBool("structural")
		opts.Mode = correspond.ModeLexical
		if structural {
			opts.Mode = correspond.ModeStructural
		}
	}
	opts.Parallelism, _ = cmd.Flags().GetInt("parallelism")
	return opts, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	runner := verify.NewRunner(logger, opts)
	run, err := runner.Run(cmd.Context(), args[0], args[1:])
	if err != nil {
		return fmt.Errorf("verification %w: %v", errFailed, err)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Render(run))
	if !run.Passed() {
		return fmt.Errorf("verification %w: coverage below threshold or modules not checkable", errFailed)
	}
	return nil
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.Scaffold.Output
	}
	backend, _ := cmd.Flags().GetString("backend")
	if backend == "" {
		backend = cfg.Scaffold.Backend
	}

	inv, err := extractor.ExtractFile(args[0])
	if err != nil {
		return fmt.Errorf("generation %w: %v", errFailed, err)
	}
	logger.Debug("inventory extracted",
		zap.String("module", inv.Module),
		zap.Int("classes", len(inv.Classes)),
		zap.Int("functions", len(inv.Functions)))

	if output == "-" {
		content, err := generator.RenderScaffold(inv, backend)
		if err != nil {
			return fmt.Errorf("generation %w: %v", errFailed, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}

	if err := generator.WriteScaffold(output, inv, backend); err != nil {
		return fmt.Errorf("generation %w: %v", errFailed, err)
	}
	table, err := generator.BuildKeyTable(inv)
	if err != nil {
		return fmt.Errorf("generation %w: %v", errFailed, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ scaffold written: %s (%d stubs)\n", output, table.Len())
	return nil
}

func runInventory(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	paths, err := crawler.NewCrawler(cfg.Source.IgnoreDirs...).Expand(args)
	if err != nil {
		return err
	}

	failures := 0
	for _, path := range paths {
		inv, err := extractor.ExtractFile(path)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not checkable: %v\n", filepath.Base(path), err)
			failures++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d classes, %d methods, %d functions\n",
			inv.Module, len(inv.Classes), inv.MethodCount(), len(inv.Functions))
		for _, class := range inv.Classes {
			fmt.Fprintf(cmd.OutOrStdout(), "  class %s: %v\n", class.Name, class.Methods)
		}
		for _, fn := range inv.Functions {
			fmt.Fprintf(cmd.OutOrStdout(), "  def %s\n", fn)
		}
	}
	if failures > 0 {
		return fmt.Errorf("inventory %w: %d modules not checkable", errFailed, failures)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	runner := verify.NewRunner(logger, opts)
	rerun := func() {
		run, err := runner.Run(ctx, args[0], args[1:])
		if err != nil {
			logger.Error("verification run failed", zap.Error(err))
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Render(run))
	}
	rerun()

	watcher, err := watch.NewWatcher(logger, debounce, func(paths []string) {
		logger.Info("sources changed", zap.Strings("paths", paths))
		rerun()
	})
	if err != nil {
		return err
	}
	for _, path := range args {
		if err := watcher.Add(path); err != nil {
			watcher.Stop()
			return fmt.Errorf("watch %w: cannot watch %s: %v", errFailed, path, err)
		}
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "👀 watching %d paths, re-running on change (Ctrl-C to stop)\n", len(args))
	<-ctx.Done()
	return nil
}
