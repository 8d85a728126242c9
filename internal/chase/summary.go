package chase

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/chase/internal/core"
)

// RoundSummary is the snapshot of one executed round. Sheep[n] is the
// position of sheep n, or nil once it has been eaten; slots are never
// removed or reordered.
type RoundSummary struct {
	Round int
	Wolf  core.Point
	Sheep []*core.Point
}

// RoundResult is everything the engine emits for one round.
type RoundResult struct {
	Summary RoundSummary
	Alive   int
	Outcome Outcome
}

// Round returns the 1-based number of the round.
func (r RoundResult) Round() int {
	return r.Summary.Round
}

func snapshot(round int, wolf *Wolf, flock []*Sheep) RoundSummary {
	sheep := make([]*core.Point, len(flock))
	for i, s := range flock {
		if pos, ok := s.Position(); ok {
			sheep[i] = &pos
		}
	}
	return RoundSummary{
		Round: round,
		Wolf:  wolf.Pos,
		Sheep: sheep,
	}
}

// StatusReport renders the human-readable status of a round.
func StatusReport(r RoundResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Round %d\n", r.Round())
	fmt.Fprintf(&sb, "Wolf position: %s\n", r.Summary.Wolf)
	fmt.Fprintf(&sb, "Number of alive sheep: %d\n", r.Alive)
	switch r.Outcome.Kind {
	case OutcomeCapture:
		fmt.Fprintf(&sb, "Sheep %d was eaten\n", r.Outcome.SheepID)
	case OutcomeChase:
		fmt.Fprintf(&sb, "Wolf is chasing sheep %d\n", r.Outcome.SheepID)
	}
	return sb.String()
}
