package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/runway/internal/config"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
	"github.com/theirongolddev/runway/internal/source"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagInput     string
	flagPolicy    string
	flagTPRate    float64
	flagLTRate    float64
	flagInjection float64
	flagQuiet     bool
	flagLogLevel  string
)

// logger carries diagnostics to stderr. Command output goes to stdout.
var logger = logrus.New()

// appCfg is loaded once per invocation before any command runs.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "runway",
	Short: "Cash runway dashboard",
	Long: "Project a company's cash runway from monthly balances and per-product\n" +
		"throughput / lead time, and explore what-if improvements.",
	PersistentPreRunE: prepare,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (runSummary -> loadInputs -> rootCmd).
	rootCmd.RunE = runSummary
	rootCmd.PersistentFlags().StringVarP(&flagInput, "input", "i", "", "Input file (.yaml, .toml, .json or exported .xlsx); built-in sample when empty")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Aggregation policy: pooled-weighted or per-product-averaged")
	rootCmd.PersistentFlags().Float64Var(&flagTPRate, "tp-rate", 0, "Throughput improvement, whole percent")
	rootCmd.PersistentFlags().Float64Var(&flagLTRate, "lt-rate", 0, "Lead-time reduction, whole percent")
	rootCmd.PersistentFlags().Float64Var(&flagInjection, "injection", 0, "One-off cash injection")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// prepare loads the config and configures logging for every command.
func prepare(_ *cobra.Command, _ []string) error {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	appCfg = cfg

	level := flagLogLevel
	if level == "" {
		level = config.GetLogLevel(cfg)
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using warn")
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)
	return nil
}

// runInputs is everything a command needs to compute outputs.
type runInputs struct {
	ds     model.Dataset
	params model.SimulationParams
	opts   pipeline.Options
	path   string // empty for the built-in sample
}

func (r runInputs) compute() model.Outputs {
	return pipeline.Compute(model.Inputs{Dataset: r.ds, Params: r.params}, r.opts)
}

// loadInputs is the shared input path used by all commands. Flags override
// environment, which overrides the config file.
func loadInputs() (runInputs, error) {
	var in runInputs

	opts, err := appCfg.Options()
	if err != nil {
		return in, err
	}
	if flagPolicy != "" {
		p, err := model.ParsePolicy(flagPolicy)
		if err != nil {
			return in, err
		}
		opts.Policy = p
	}
	in.opts = opts

	in.path = flagInput
	if in.path == "" {
		in.path = config.GetInput(appCfg)
	}
	if in.path == "" {
		in.ds = source.Sample()
	} else {
		ds, err := source.Load(in.path)
		if err != nil {
			return in, err
		}
		in.ds = ds
	}

	in.params = appCfg.Simulation.Defaults
	flags := rootCmd.PersistentFlags()
	if flags.Changed("tp-rate") {
		in.params.TPRate = flagTPRate
	}
	if flags.Changed("lt-rate") {
		in.params.LTRate = flagLTRate
	}
	if flags.Changed("injection") {
		in.params.CashInjection = flagInjection
	}
	if in.params.CashInjection < 0 {
		return in, errors.New("cash injection must not be negative")
	}
	if b := appCfg.Bounds(); !b.Contains(in.params) {
		logger.WithFields(logrus.Fields{
			"tp_rate": in.params.TPRate,
			"lt_rate": in.params.LTRate,
		}).Warnf("rates outside the slider range (TP %g..%g%%, LT %g..%g%%)", b.TPMin, b.TPMax, b.LTMin, b.LTMax)
	}

	if !flagQuiet {
		from := "built-in sample"
		if in.path != "" {
			from = in.path
		}
		fmt.Fprintf(os.Stderr, "  Loaded %d months, %d products from %s\n",
			len(in.ds.History), len(in.ds.Products), from)
	}
	logger.WithFields(logrus.Fields{
		"policy":         in.opts.Policy.String(),
		"days_per_month": in.opts.Units.DaysPerMonth,
	}).Debug("inputs resolved")

	return in, nil
}
