// Package chase implements the wolf-and-sheep pursuit simulation: sheep
// random-walk on a plane, the wolf chases the nearest living sheep and eats
// it once it is within one step.
package chase

import "github.com/vovakirdan/chase/internal/core"

// Direction is one of the four compass directions a sheep can step in.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// directions is indexed by the RNG draw; its order fixes what each draw means.
var directions = [...]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Sheep is a single member of the flock.
type Sheep struct {
	// ID is the sheep's creation index within its flock.
	ID int

	pos   core.Point
	alive bool
}

// NewSheep creates a living sheep at pos.
func NewSheep(id int, pos core.Point) *Sheep {
	return &Sheep{ID: id, pos: pos, alive: true}
}

// Alive reports whether the sheep has not been eaten.
func (s *Sheep) Alive() bool {
	return s.alive
}

// Position returns the sheep's position. ok is false for a dead sheep,
// which has no position.
func (s *Sheep) Position() (pos core.Point, ok bool) {
	return s.pos, s.alive
}

// Move steps the sheep by step in a uniformly drawn direction and returns
// that direction. The caller must only move living sheep.
func (s *Sheep) Move(step float64, rng core.RNG) Direction {
	d := directions[rng.IntN(len(directions))]
	switch d {
	case North:
		s.pos.Y += step
	case South:
		s.pos.Y -= step
	case East:
		s.pos.X += step
	case West:
		s.pos.X -= step
	}
	return d
}

func (s *Sheep) kill() {
	s.alive = false
	s.pos = core.Point{}
}
