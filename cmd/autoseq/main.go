package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/LinkesAuge/autoseq/engine"
	"github.com/LinkesAuge/autoseq/sequence"
	"github.com/LinkesAuge/autoseq/server"
)

var (
	flagConfig  string
	flagVerbose bool
	flagVars    []string
	flagDir     string
	flagAddr    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "autoseq",
	Short:        "Run, simulate and serve automation sequences",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run <sequence-file>",
	Short: "Execute a sequence file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSequence(args[0], engine.ModeExecute)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <sequence-file>",
	Short: "Dry-run a sequence file without touching the screen or disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSequence(args[0], engine.ModeSimulate)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <sequence-file>",
	Short: "Check that a sequence file parses and validates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := sequence.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d actions, ok\n", seq.Name, len(seq.Actions))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sequences over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(flagConfig)
		if err != nil {
			return err
		}
		if flagDir != "" {
			cfg.SequencesDir = flagDir
		}
		if flagAddr != "" {
			cfg.Addr = flagAddr
		}
		l := setupLogger(cfg)
		sequences, err := sequence.LoadDir(cfg.SequencesDir)
		if err != nil {
			return err
		}
		l.Info("sequences loaded", "count", len(sequences), "dir", cfg.SequencesDir)
		return server.New(l, sequences, newLogDriver(l)).Run(cfg.Addr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to an ini config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().StringArrayVar(&flagVars, "var", nil, "initial variable as name=value (repeatable)")
	simulateCmd.Flags().StringArrayVar(&flagVars, "var", nil, "initial variable as name=value (repeatable)")

	serveCmd.Flags().StringVar(&flagDir, "dir", "", "sequences directory (overrides config)")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")

	rootCmd.AddCommand(runCmd, simulateCmd, validateCmd, serveCmd)
}

func runSequence(path string, mode engine.Mode) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	l := setupLogger(cfg).With("run_id", uuid.NewString())

	seq, err := sequence.Load(path)
	if err != nil {
		return err
	}
	store, err := storeFromFlags(flagVars)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := engine.NewExecutor(l, newLogDriver(l))
	if !executor.Run(ctx, seq.Actions, store, mode) {
		return fmt.Errorf("sequence %q failed", seq.Name)
	}
	l.Info("sequence finished", "sequence", seq.Name, "variables", store.Len())
	return nil
}

// storeFromFlags seeds a store from repeated name=value flags.
func storeFromFlags(pairs []string) (*engine.Store, error) {
	store := engine.NewStore()
	for _, pair := range pairs {
		name, value, err := splitVarFlag(pair)
		if err != nil {
			return nil, err
		}
		store.Set(name, value)
	}
	return store, nil
}

func setupLogger(cfg appConfig) *slog.Logger {
	level := cfg.LogLevel
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
