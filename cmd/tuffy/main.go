// Command tuffy runs one marginal-inference request over an MLN program
// file and prints the resulting marginals and run summary.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tuffy"
	"tuffy/config"
	"tuffy/metrics"
	"tuffy/model"
	"tuffy/program"
	"tuffy/store"
	"tuffy/store/mangle"
	"tuffy/store/memstore"
	"tuffy/store/sqlite"
	"tuffy/unitsolver"
	"tuffy/unitsolver/exec"
	"tuffy/unitsolver/local"
	"tuffy/unitsolver/remote"
)

var (
	configPath    string
	programPath   string
	storeOverride string
	timeoutFlag   string
	samplesFlag   int
	verbose       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tuffy",
		Short: "run marginal inference over an MLN program",
		RunE:  runInfer,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a run configuration YAML file (defaults applied if omitted)")
	cmd.Flags().StringVar(&programPath, "program", "", "path to an MLN program YAML file (predicates, templates, evidence)")
	cmd.Flags().StringVar(&storeOverride, "store", "", "override the configured store backend (memstore|sqlite|mangle)")
	cmd.Flags().StringVar(&timeoutFlag, "timeout", "", "override the configured deadline, e.g. 30s (0 disables it)")
	cmd.Flags().IntVar(&samplesFlag, "samples", 0, "override the configured MC-SAT sample count")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.MarkFlagRequired("program")
	return cmd
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()
	sink := metrics.New(log)

	prog, err := program.Load(programPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	st, closeStore, err := openStore(ctx, cfg, prog)
	if err != nil {
		return err
	}
	defer closeStore()

	solver, closeSolver, err := openSolver(cfg)
	if err != nil {
		return err
	}
	defer closeSolver()

	d := tuffy.New(st, solver, cfg, sink, prog.Templates, prog.Predicates)
	res, err := d.Run(ctx)
	if err != nil {
		return err
	}

	printResult(res)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if storeOverride != "" {
		cfg.Store = storeOverride
	}
	if samplesFlag > 0 {
		cfg.Samples = samplesFlag
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func newLogger(configuredLevel string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	switch configuredLevel {
	case "debug":
		cfg.Level.SetLevel(zapcore.DebugLevel)
	case "warn":
		cfg.Level.SetLevel(zapcore.WarnLevel)
	case "error":
		cfg.Level.SetLevel(zapcore.ErrorLevel)
	default:
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}
	return cfg.Build()
}

func openStore(ctx context.Context, cfg *config.Config, prog *program.Program) (store.GroundStore, func(), error) {
	switch cfg.Store {
	case "sqlite":
		path := cfg.StoreDSN
		if path == "" {
			path = "tuffy.db"
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		if err := prog.Seed(func(predicate string, tuples []model.Tuple, active bool) error {
			return s.Seed(ctx, predicate, tuples, active)
		}); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "mangle":
		s := mangle.New(prog.Predicates)
		if err := prog.Seed(func(predicate string, tuples []model.Tuple, active bool) error {
			return s.Seed(predicate, tuples, active)
		}); err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "memstore", "":
		s := memstore.New(prog.Predicates)
		if err := prog.Seed(func(predicate string, tuples []model.Tuple, active bool) error {
			return s.Seed(predicate, tuples, active)
		}); err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openSolver(cfg *config.Config) (unitsolver.UnitSolver, func(), error) {
	switch {
	case cfg.UnitOracleAddr != "":
		c, err := remote.Dial("tcp", cfg.UnitOracleAddr)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	case cfg.GlucosePath != "":
		return exec.New(cfg.GlucosePath, exec.ModeUnits), func() {}, nil
	default:
		return local.New(), func() {}, nil
	}
}

func printResult(res *tuffy.Result) {
	sorted := append([]tuffy.AtomMarginal(nil), res.Marginals...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Predicate != sorted[j].Predicate {
			return sorted[i].Predicate < sorted[j].Predicate
		}
		return sorted[i].AtomID < sorted[j].AtomID
	})
	for _, m := range sorted {
		if m.Predicate != "" {
			fmt.Printf("%s(%s)\t%.4f\n", m.Predicate, joinArgs(m.Args), m.Prob)
		} else {
			fmt.Printf("atom#%d\t%.4f\n", m.AtomID, m.Prob)
		}
	}
	s := res.Summary
	fmt.Printf("\n%d ground clauses, %d units, %d ground atoms\n", s.NumberGroundClauses, s.NumberUnits, s.NumberGroundAtoms)
	fmt.Printf("samples=%d max_flips=%d walksat_prob=%v sa_prob=%v sa_coef=%v\n",
		s.Samples, s.MaxFlips, s.WalkSATRandomStepProb, s.SimulatedAnnealingProb, s.SimulatedAnnealingCoef)
	fmt.Printf("average cost: %v\n", res.AverageCost)
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ","
		}
		out += a
	}
	return out
}
