// chase simulates a wolf hunting a flock of sheep on an open plane.
//
// Usage:
//
//	chase run                - Run a simulation and print every round
//	chase watch              - Watch a simulation in the terminal
//	chase history [run-id]   - Show recorded runs
//	chase sinks              - List output sinks
//	chase serve              - Serve simulations over SSH and/or HTTP
//
// Global flags:
//
//	--config <path>  - Config file (default search: ~/.chase, ./configs)
//	--dir <path>     - Output directory for pos.json, alive.csv and chase.log
//	--log <level>    - Write chase.log at this level (debug, info, warning, error, critical)
//	--seed <value>   - Set RNG seed for reproducible runs
//	--db <path>      - Set run history database (default: ~/.chase/runs.db)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfigPath string
	flagDir        string
	flagLogLevel   string
	flagSeed       int64
	flagDBPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chase",
	Short: "Chase - a wolf hunts a flock of sheep",
	Long: `Chase simulates a wolf hunting a flock of sheep on an unbounded plane.

Every round each living sheep steps in a random direction, then the wolf
either eats the nearest sheep, if it is close enough, or moves toward it.

Available commands:
  run      - Run a simulation and print the status of every round
  watch    - Watch a simulation in the terminal
  history  - Show runs recorded in the database
  sinks    - List the output sinks
  serve    - Serve simulations over SSH and/or HTTP

Examples:
  chase run
  chase run --rounds 100 --sheep 20 --dir ./out --log info
  chase watch --fps 10
  chase history
  chase serve --http :8080`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "Output directory (created if missing)")
	rootCmd.PersistentFlags().StringVarP(&flagLogLevel, "log", "l", "", "Log level for chase.log (debug, info, warning, error, critical)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run history database (default from config)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sinksCmd)
	rootCmd.AddCommand(serveCmd)
}
