package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Iki-leo/emoji-mood-tracker/internal/config"
	"github.com/Iki-leo/emoji-mood-tracker/internal/store"
)

// app carries the flag values and lazily built dependencies shared by all
// subcommands
type app struct {
	env        map[string]string
	configPath string
	overrides  config.Overrides
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

func newRootCmd(env map[string]string) *cobra.Command {
	a := &app{env: env, now: time.Now}

	rootCmd := &cobra.Command{
		Use:          "mood",
		Short:        "Daily mood journal with statistics",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (JSONC)")
	flags.StringVar(&a.overrides.DataDir, "data-dir", "", "directory holding the journal")
	flags.StringVar(&a.overrides.Storage, "storage", "", "storage backend: sqlite, file or memory")
	flags.StringVar(&a.overrides.Slot, "slot", "", "name of the journal slot")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(setCmd(a))
	rootCmd.AddCommand(noteCmd(a))
	rootCmd.AddCommand(deleteCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(moodsCmd(a))
	rootCmd.AddCommand(demoCmd(a))
	rootCmd.AddCommand(statsCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(configCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd
}

// setup resolves configuration and the logger
func (a *app) setup() error {
	cfg, err := config.Load(config.LoadInput{
		ConfigPath: a.configPath,
		Overrides:  a.overrides,
		Env:        a.env,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger != nil {
		return nil
	}

	zcfg := zap.NewProductionConfig()
	level, _ := zapcore.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	a.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func (a *app) getStore(ctx context.Context) (*store.Store, error) {
	slot, err := a.cfg.OpenSlot()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, slot, a.logger), nil
}

// today is the current time in the configured zone
func (a *app) today() time.Time {
	loc, err := a.cfg.Location()
	if err != nil {
		loc = time.Local
	}
	return a.now().In(loc)
}
