package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/crillab/gowcsp/config"
	"github.com/crillab/gowcsp/gen"
	"github.com/crillab/gowcsp/metrics"
	"github.com/crillab/gowcsp/wcsp"
)

type randomFlags struct {
	configPath      string
	vars            int
	domain          int
	binary          int
	ternary         int
	nary            int
	seed            int64
	ub              int64
	binaryBranching bool
	verbose         bool
	metricsAddr     string
	timeout         time.Duration
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gowcsp",
		Short:         "A branch and bound solver for weighted constraint satisfaction problems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRandomCmd(), newVersionCmd(), newConfigCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of gowcsp",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gowcsp %s\n", version)
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [path]",
		Short: "Writes the default configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(args[0]); err != nil {
				return fmt.Errorf("could not write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "c default configuration written to %s\n", args[0])
			return nil
		},
	}
}

func newRandomCmd() *cobra.Command {
	var f randomFlags
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Generates a random problem and solves it to optimality",
		Long: `Generates a random weighted constraint problem from a seed, then looks for an optimal solution.
Each improving solution is printed as an "o cost" line, and the final status as an "s STATUS" line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return runRandom(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, f.metricsAddr, f.timeout)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "YAML configuration file")
	flags.IntVar(&f.vars, "vars", 0, "number of variables")
	flags.IntVar(&f.domain, "domain", 0, "domain size of each variable")
	flags.IntVar(&f.binary, "binary", 0, "number of binary constraints")
	flags.IntVar(&f.ternary, "ternary", 0, "number of ternary constraints")
	flags.IntVar(&f.nary, "nary", 0, "number of n-ary constraints")
	flags.Int64Var(&f.seed, "seed", 0, "random seed")
	flags.Int64Var(&f.ub, "ub", 0, "initial upper bound; 0 means no bound")
	flags.BoolVar(&f.binaryBranching, "binary-branching", true, "branch on a value then refute it, instead of trying every value")
	flags.BoolVar(&f.verbose, "verbose", false, "log every choice point")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "address where Prometheus metrics are served, e.g :9090")
	flags.DurationVar(&f.timeout, "timeout", 0, "stop the search after that duration; 0 means no limit")
	return cmd
}

// load reads the configuration file, then applies the flags that were explicitly set.
func (f *randomFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("vars") {
		cfg.Random.Vars = f.vars
	}
	if flags.Changed("domain") {
		cfg.Random.Domain = f.domain
	}
	if flags.Changed("binary") {
		cfg.Random.Binary = f.binary
	}
	if flags.Changed("ternary") {
		cfg.Random.Ternary = f.ternary
	}
	if flags.Changed("nary") {
		cfg.Random.Nary = f.nary
	}
	if flags.Changed("seed") {
		cfg.Random.Seed = f.seed
	}
	if flags.Changed("ub") {
		cfg.Random.Ub = f.ub
	}
	if flags.Changed("binary-branching") {
		cfg.Solver.BinaryBranching = f.binaryBranching
	}
	if flags.Changed("verbose") {
		cfg.Solver.Verbose = f.verbose
	}
	return cfg, nil
}

// serveMetrics serves the metrics of reg on addr until the returned server is closed.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}

func runRandom(out, logOut io.Writer, cfg config.Config, metricsAddr string, timeout time.Duration) error {
	logger, err := cfg.Log.Logger(logOut)
	if err != nil {
		return err
	}
	pb, err := gen.Random(cfg.Random.Params())
	if err != nil {
		return fmt.Errorf("could not generate problem: %w", err)
	}
	fmt.Fprintf(out, "c generated %s: %d variables, %d constraints\n", pb.Name, pb.NbVars(), pb.NbConstraints())
	merged, eliminated := pb.Preprocess(cfg.Preprocess.Options())
	if merged+eliminated > 0 {
		fmt.Fprintf(out, "c preprocessing: %d constraints merged, %d variables eliminated\n", merged, eliminated)
	}

	s := wcsp.New(pb)
	s.Options = cfg.Solver.Options()
	s.Verbose = cfg.Solver.Verbose
	s.Logger = logger
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		s.Observer = metrics.New(reg, pb.Name)
		srv, err := serveMetrics(metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	results := make(chan wcsp.Result)
	done := make(chan wcsp.Result)
	go func() {
		done <- s.Optimal(results, stop)
	}()
	stopped := false
	for {
		select {
		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			fmt.Fprintf(out, "o %v\n", res.Cost)
		case <-sigs:
			logger.Warn("interrupted")
			if !stopped {
				close(stop)
				stopped = true
			}
		case <-timer:
			logger.Warn("timeout reached", "timeout", timeout)
			if !stopped {
				close(stop)
				stopped = true
			}
		case <-done:
			fmt.Fprintf(out, "c nodes: %d\nc backtracks: %d\nc solutions: %d\n", s.Stats.NbNodes, s.Stats.NbBacktracks, s.Stats.NbSolutions)
			return s.OutputSolution(out)
		}
	}
}
