package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/core"
	"github.com/vovakirdan/chase/internal/logging"
	"github.com/vovakirdan/chase/internal/platform/tui"
	"github.com/vovakirdan/chase/internal/registry"
)

var (
	flagFPS    int
	flagPaused bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a simulation in the terminal",
	Long: `Play a simulation on screen, one round per tick.

The wolf is W, sheep are o and the sheep being chased is O.
Rounds are recorded to the selected sinks exactly like 'chase run'.

Controls:
  Space/P    - Pause / resume
  N/Right    - Next round (while paused)
  +/-        - Faster / slower
  ?          - Toggle help
  Q/Ctrl+C   - Quit

Examples:
  chase watch
  chase watch --fps 10 --sheep 30
  chase watch --paused --seed 7`,
	Args: cobra.NoArgs,
	Run:  runWatch,
}

func init() {
	watchCmd.Flags().IntP("rounds", "r", 0, "Maximum number of rounds (default from config)")
	watchCmd.Flags().IntP("sheep", "s", 0, "Number of sheep in the flock (default from config)")
	watchCmd.Flags().StringSlice("format", nil, "Output sinks, comma separated (default from config)")
	watchCmd.Flags().IntVar(&flagFPS, "fps", 4, "Rounds per second")
	watchCmd.Flags().BoolVar(&flagPaused, "paused", false, "Start paused")
}

func runWatch(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := watch(cfg.Params(), cfg.Output.Dir, cfg.Output.DB, cfg.Output.Formats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func watch(params chase.Params, dir, dbPath string, formats []string) error {
	logger, logFile, err := logging.OpenFile(dir, flagLogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	seed := resolveSeed()
	sinks, err := registry.CreateAll(formats, registry.Options{
		Dir:    dir,
		DBPath: dbPath,
		Seed:   seed,
		Params: params,
	})
	if err != nil {
		return err
	}
	defer sinks.Close()

	sim, err := chase.New(params,
		chase.WithRNG(core.NewRNG(seed)),
		chase.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	// Get terminal size
	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	return tui.Run(sim, sinks, tui.Options{
		Width:  width,
		Height: height,
		FPS:    flagFPS,
		Paused: flagPaused,
	})
}
