package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/logging"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/store"
)

// #region main

// cfg and logger are set once per invocation by the root's PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "controller",
		Short: "Symbol drift simulation controller",
		Long: `controller runs a population of agents that negotiate private symbol
meanings through repeated communication, periodic context shifts and
passive forgetting.

"serve" exposes the engine over gRPC with a tick driver; "run" advances
a fixed number of steps headlessly and prints a summary.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			logger, err = logging.NewLogger(cfg.Logging.Level)
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

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Uint64("seed", 0, "random seed")
	pf.Int("agents", 0, "number of agents")
	pf.String("vocabulary", "", "comma separated symbols")
	pf.String("db", "", "SQLite database to record runs into")

	rootCmd.AddCommand(newServeCmd(), newRunCmd())
	return rootCmd
}

// #endregion main

// #region config

// loadConfig layers flags over file and environment settings. Only flags the
// user actually set take effect.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("agents") {
		cfg.Population.Agents, _ = flags.GetInt("agents")
	}
	if flags.Changed("vocabulary") {
		v, _ := flags.GetString("vocabulary")
		cfg.Population.Vocabulary = config.SplitVocabulary(v)
	}
	if flags.Changed("db") {
		cfg.Store.Path, _ = flags.GetString("db")
	}
	return cfg, nil
}

// #endregion config

// #region engine

// app bundles an engine with its optional recorder.
type app struct {
	engine   *sim.Engine
	store    *store.Store
	recorder *store.Recorder
}

// newApp builds the engine and, when cfg.Store.Path is set, a recorder
// attached to it.
func newApp(cfg *config.Config) (*app, error) {
	rt := &app{}
	opts := []sim.Option{sim.WithLogger(logger)}
	if cfg.Store.Path != "" {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		st, err := store.NewStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		rec, err := store.NewRecorder(st, *cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
		rt.store, rt.recorder = st, rec
		opts = append(opts, sim.WithObserver(rec))
		logger.Info("recording run", zap.String("db", cfg.Store.Path), zap.String("run_id", rec.RunID()))
	}
	e, err := sim.New(cfg, opts...)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.engine = e
	return rt, nil
}

// finish stores the final state of the current run and closes the store.
func (rt *app) finish(snap sim.Snapshot) error {
	defer rt.close()
	if rt.recorder == nil {
		return nil
	}
	if err := rt.recorder.Finish(snap); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	logger.Info("run finished", zap.String("run_id", rt.recorder.RunID()), zap.Int("step", snap.Step))
	return nil
}

func (rt *app) close() {
	if rt.store != nil {
		rt.store.Close()
		rt.store = nil
	}
}

// #endregion engine
