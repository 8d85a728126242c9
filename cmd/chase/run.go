package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/config"
	"github.com/vovakirdan/chase/internal/core"
	"github.com/vovakirdan/chase/internal/logging"
	"github.com/vovakirdan/chase/internal/registry"
)

var (
	flagWait  bool
	flagQuiet bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run a simulation to the end and print the status of every round.

After each round the selected sinks are written:
  json    - positions of every round in <dir>/pos.json
  csv     - survivor count per round in <dir>/alive.csv
  sqlite  - run history in the --db database

Examples:
  chase run
  chase run -r 100 -s 20
  chase run --wait
  chase run --dir ./out --log debug
  chase run --format json,csv,sqlite --seed 42`,
	Args: cobra.NoArgs,
	Run:  runRun,
}

func init() {
	runCmd.Flags().IntP("rounds", "r", 0, "Maximum number of rounds (default from config)")
	runCmd.Flags().IntP("sheep", "s", 0, "Number of sheep in the flock (default from config)")
	runCmd.Flags().StringSlice("format", nil, "Output sinks, comma separated (default from config)")
	runCmd.Flags().BoolVarP(&flagWait, "wait", "w", false, "Wait for Enter after each round")
	runCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Do not print the status of each round")
}

func runRun(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	err = simulate(runOptions{
		cfg:      cfg,
		seed:     resolveSeed(),
		logLevel: flagLogLevel,
		wait:     flagWait,
		quiet:    flagQuiet,
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	cfg      config.ChaseConfig
	seed     int64
	logLevel string
	wait     bool
	quiet    bool
	in       io.Reader
	out      io.Writer
}

// simulate runs one simulation to the end, writing every configured sink
// and printing the status of each round.
func simulate(opts runOptions) error {
	cfg := opts.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, name := range cfg.Output.Formats {
		if !registry.Exists(name) {
			return fmt.Errorf("unknown output format %q (run 'chase sinks' to list them)", name)
		}
	}

	logger, logFile, err := logging.OpenFile(cfg.Output.Dir, opts.logLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	params := cfg.Params()
	sinks, err := registry.CreateAll(cfg.Output.Formats, registry.Options{
		Dir:    cfg.Output.Dir,
		DBPath: cfg.Output.DB,
		Seed:   opts.seed,
		Params: params,
	})
	if err != nil {
		logger.Error("cannot open output", "error", err)
		return err
	}
	defer sinks.Close()

	sim, err := chase.New(params,
		chase.WithRNG(core.NewRNG(opts.seed)),
		chase.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	logger.Info("run started", "seed", opts.seed, "formats", cfg.Output.Formats)

	in := bufio.NewReader(opts.in)
	status := chase.RecorderFunc(func(res chase.RoundResult) error {
		if !opts.quiet {
			fmt.Fprintln(opts.out, chase.StatusReport(res))
		}
		if opts.wait {
			fmt.Fprint(opts.out, "Press Enter to continue...")
			if _, err := in.ReadString('\n'); err != nil && err != io.EOF {
				return fmt.Errorf("cannot read from terminal: %w", err)
			}
		}
		return nil
	})

	// Sinks first, so a round is on disk before the pause.
	recorders := append(chase.Recorders{}, sinks...)
	recorders = append(recorders, status)

	summaries, err := sim.Run(recorders)
	if err != nil {
		logger.Error("run failed", "round", sim.Round(), "error", err)
		return err
	}

	logger.Info("run finished", "rounds", len(summaries), "survivors", sim.Alive())
	fmt.Fprintf(opts.out, "Simulation finished after %d rounds with %d of %d sheep alive (seed %d)\n",
		len(summaries), sim.Alive(), params.FlockSize, opts.seed)
	return nil
}
