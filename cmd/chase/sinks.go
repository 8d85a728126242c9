package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chase/internal/registry"
)

var sinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "List all output sinks",
	Long:  `Shows the output sinks that 'run' and 'watch' can write with --format.`,
	Run:   runSinks,
}

func runSinks(cmd *cobra.Command, args []string) {
	sinks := registry.List()

	if len(sinks) == 0 {
		fmt.Println("No sinks available.")
		return
	}

	fmt.Println("Available sinks:")
	fmt.Println()

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, s := range sinks {
		if len(s.Name) > maxNameLen {
			maxNameLen = len(s.Name)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxNameLen, "Name", "Writes")
	fmt.Printf("  %-*s  %s\n", maxNameLen, "----", "------")

	for _, s := range sinks {
		fmt.Printf("  %-*s  %s\n", maxNameLen, s.Name, s.Description)
	}

	fmt.Println()
	fmt.Println("Run 'chase run --format json,csv' to pick sinks.")
}
