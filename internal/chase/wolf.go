package chase

import (
	"math"

	"github.com/vovakirdan/chase/internal/core"
)

// OutcomeKind says what the wolf did in its last move.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeCapture
	OutcomeChase
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCapture:
		return "capture"
	case OutcomeChase:
		return "chase"
	}
	return "none"
}

// Outcome is the result of one wolf move. SheepID is meaningful only when
// Kind is not OutcomeNone.
type Outcome struct {
	Kind    OutcomeKind
	SheepID int
}

// Wolf is the single predator. It starts at the origin.
type Wolf struct {
	Pos      core.Point
	MoveDist float64

	outcome Outcome
}

// NewWolf creates a wolf at the origin that covers moveDist per round.
func NewWolf(moveDist float64) *Wolf {
	return &Wolf{MoveDist: moveDist}
}

// Move hunts the nearest living sheep in flock. Within MoveDist (inclusive)
// the wolf jumps onto the sheep and eats it; otherwise it advances exactly
// MoveDist straight toward it. With no living sheep the wolf stays put.
func (w *Wolf) Move(flock []*Sheep) Outcome {
	w.outcome = Outcome{}
	if len(flock) == 0 {
		return w.outcome
	}

	target, dist := w.nearest(flock)
	if target == nil {
		return w.outcome
	}

	if dist <= w.MoveDist {
		w.Pos = target.pos
		target.kill()
		w.outcome = Outcome{Kind: OutcomeCapture, SheepID: target.ID}
	} else {
		w.Pos = w.Pos.Toward(target.pos, w.MoveDist, dist)
		w.outcome = Outcome{Kind: OutcomeChase, SheepID: target.ID}
	}
	return w.outcome
}

// nearest scans flock in order and returns the first living sheep at the
// minimum distance, or nil when none are alive.
func (w *Wolf) nearest(flock []*Sheep) (*Sheep, float64) {
	var target *Sheep
	minDist := math.Inf(1)
	for _, s := range flock {
		if !s.alive {
			continue
		}
		if d := w.Pos.Dist(s.pos); d < minDist {
			minDist = d
			target = s
		}
	}
	return target, minDist
}

// Outcome returns the pending outcome of the last move.
func (w *Wolf) Outcome() Outcome {
	return w.outcome
}

// LastCaptured returns the ID of the sheep eaten by the last move, if any.
func (w *Wolf) LastCaptured() (int, bool) {
	if w.outcome.Kind != OutcomeCapture {
		return 0, false
	}
	return w.outcome.SheepID, true
}

// LastChased returns the ID of the sheep chased by the last move, if any.
func (w *Wolf) LastChased() (int, bool) {
	if w.outcome.Kind != OutcomeChase {
		return 0, false
	}
	return w.outcome.SheepID, true
}

// ClearOutcome resets both markers once the round has been reported.
func (w *Wolf) ClearOutcome() {
	w.outcome = Outcome{}
}
