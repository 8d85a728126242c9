package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chase/internal/storage"
)

const curveWidth = 40 // Widest bar in a survivor curve

var (
	flagHistoryLimit int
	flagHistoryClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs",
	Long: `List the runs recorded by the sqlite sink, newest first, or show the
survivor curve of a single run.

Examples:
  chase history
  chase history --limit 5
  chase history 12
  chase history --clear`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of runs to list")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete the whole run history")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Output.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case flagHistoryClear:
		err = store.ClearRuns()
		if err == nil {
			fmt.Println("Run history cleared.")
		}
	case len(args) == 1:
		err = showRun(store, args[0])
	default:
		err = listRuns(store, flagHistoryLimit)
	}
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listRuns(store *storage.Store, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'chase run --format sqlite' to record one.")
		return nil
	}

	fmt.Printf("  %-5s  %-16s  %-7s  %-6s  %-9s  %s\n", "ID", "Date", "Rounds", "Sheep", "Survivors", "Status")
	fmt.Printf("  %-5s  %-16s  %-7s  %-6s  %-9s  %s\n", "--", "----", "------", "-----", "---------", "------")

	for _, r := range runs {
		status := "finished"
		if !r.Finished {
			status = "interrupted"
		}
		fmt.Printf("  %-5d  %-16s  %-7d  %-6d  %-9d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Rounds, r.Params.FlockSize, r.Survivors, status)
	}

	fmt.Println()
	fmt.Println("Run 'chase history <id>' to see a run's survivor curve.")
	return nil
}

func showRun(store *storage.Store, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("run id must be a number, got %q", arg)
	}

	run, err := store.RunByID(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}

	counts, err := store.RoundCounts(id)
	if err != nil {
		return err
	}

	p := run.Params
	fmt.Printf("Run %d - %s (seed %d)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.Seed)
	fmt.Printf("  rounds %d/%d, sheep %d, start limit %g, sheep step %g, wolf step %g\n",
		run.Rounds, p.MaxRounds, p.FlockSize, p.InitPosLimit, p.SheepMoveDist, p.WolfMoveDist)
	fmt.Printf("  %d survivors\n", run.Survivors)
	fmt.Println()

	fmt.Print(survivorCurve(counts, p.FlockSize))
	return nil
}

// survivorCurve draws one bar per round, scaled so a full flock is
// curveWidth wide.
func survivorCurve(counts []storage.RoundCount, flockSize int) string {
	var sb strings.Builder
	for _, c := range counts {
		width := 0
		if flockSize > 0 {
			width = c.Alive * curveWidth / flockSize
		}
		fmt.Fprintf(&sb, "  %4d  %-*s  %d\n", c.Round, curveWidth, strings.Repeat("#", width), c.Alive)
	}
	return sb.String()
}
