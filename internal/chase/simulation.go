package chase

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chase/internal/core"
)

// ErrInvalidParams is wrapped by every Params validation failure.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params configures one simulation run.
type Params struct {
	MaxRounds     int
	FlockSize     int
	InitPosLimit  float64
	SheepMoveDist float64
	WolfMoveDist  float64
}

// Validate checks the engine's own preconditions. An empty flock and
// stationary sheep are allowed here; the configuration layer is stricter.
func (p Params) Validate() error {
	switch {
	case p.MaxRounds <= 0:
		return fmt.Errorf("%w: max rounds must be positive, got %d", ErrInvalidParams, p.MaxRounds)
	case p.FlockSize < 0:
		return fmt.Errorf("%w: flock size must not be negative, got %d", ErrInvalidParams, p.FlockSize)
	case !(p.InitPosLimit > 0) || math.IsInf(p.InitPosLimit, 1):
		return fmt.Errorf("%w: initial position limit must be positive and finite, got %g", ErrInvalidParams, p.InitPosLimit)
	case !(p.SheepMoveDist >= 0) || math.IsInf(p.SheepMoveDist, 1):
		return fmt.Errorf("%w: sheep move distance must be finite and not negative, got %g", ErrInvalidParams, p.SheepMoveDist)
	case !(p.WolfMoveDist > 0) || math.IsInf(p.WolfMoveDist, 1):
		return fmt.Errorf("%w: wolf move distance must be positive and finite, got %g", ErrInvalidParams, p.WolfMoveDist)
	}
	return nil
}

// Option customises a Simulation.
type Option func(*Simulation)

// WithRNG sets the source of chance. Defaults to a clock-seeded RNG.
func WithRNG(rng core.RNG) Option {
	return func(s *Simulation) {
		s.rng = rng
	}
}

// WithLogger sets the event logger. Defaults to a discarding logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// Simulation owns the flock and the wolf for one run and steps them round
// by round. It is not safe for concurrent use.
type Simulation struct {
	params Params
	rng    core.RNG
	logger *log.Logger

	flock []*Sheep
	wolf  *Wolf

	round     int
	alive     int
	done      bool
	summaries []RoundSummary
}

// New validates p, scatters the flock uniformly over
// [-InitPosLimit, InitPosLimit] on both axes and puts the wolf at the origin.
func New(p Params, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{params: p}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = core.NewRNG(0)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	s.flock = make([]*Sheep, p.FlockSize)
	for i := range s.flock {
		x := s.rng.Uniform(-p.InitPosLimit, p.InitPosLimit)
		y := s.rng.Uniform(-p.InitPosLimit, p.InitPosLimit)
		s.flock[i] = NewSheep(i, core.Pt(x, y))
	}
	s.alive = p.FlockSize
	s.logger.Info("sheep positions initialized", "flock", p.FlockSize)

	s.wolf = NewWolf(p.WolfMoveDist)
	s.logger.Info("wolf position initialized", "pos", s.wolf.Pos)

	return s, nil
}

// Step executes one round: every living sheep moves, then the wolf, then
// survivors are counted and the round is reported. ok is false, and nothing
// happens, once the simulation is done.
func (s *Simulation) Step() (res RoundResult, ok bool) {
	if s.done {
		return RoundResult{}, false
	}
	s.logger.Debug("starting round", "round", s.round+1)

	s.moveSheep()
	s.moveWolf()
	s.alive = s.countAlive()

	res = RoundResult{
		Summary: snapshot(s.round+1, s.wolf, s.flock),
		Alive:   s.alive,
		Outcome: s.wolf.Outcome(),
	}
	s.wolf.ClearOutcome()
	s.summaries = append(s.summaries, res.Summary)

	s.round++
	if s.round >= s.params.MaxRounds {
		s.done = true
	}
	// An empty flock has nothing to go extinct; it runs to the round limit.
	if s.alive == 0 && len(s.flock) > 0 {
		s.logger.Info("all sheep have been eaten", "round", s.round)
		s.done = true
	}
	return res, true
}

func (s *Simulation) moveSheep() {
	for _, sheep := range s.flock {
		if !sheep.Alive() {
			s.logger.Debug("sheep was eaten, skipping", "sheep", sheep.ID)
			continue
		}
		dir := sheep.Move(s.params.SheepMoveDist, s.rng)
		pos, _ := sheep.Position()
		s.logger.Debug("sheep moved", "sheep", sheep.ID, "dir", dir, "pos", pos)
	}
}

func (s *Simulation) moveWolf() {
	out := s.wolf.Move(s.flock)
	switch out.Kind {
	case OutcomeCapture:
		s.logger.Info("wolf ate sheep", "sheep", out.SheepID, "pos", s.wolf.Pos)
	case OutcomeChase:
		s.logger.Info("wolf is chasing sheep", "sheep", out.SheepID, "pos", s.wolf.Pos)
	default:
		s.logger.Debug("wolf has nothing to hunt")
	}
}

func (s *Simulation) countAlive() int {
	n := 0
	for _, sheep := range s.flock {
		if sheep.Alive() {
			n++
		}
	}
	return n
}

// Run steps the simulation to completion. Each round is handed to rec
// before the next one starts, and rec.Finish receives every summary at the
// end. A nil rec is allowed. A recorder failure stops the run.
func (s *Simulation) Run(rec Recorder) ([]RoundSummary, error) {
	for {
		res, ok := s.Step()
		if !ok {
			break
		}
		if rec != nil {
			if err := rec.RecordRound(res); err != nil {
				return s.Summaries(), fmt.Errorf("chase: record round %d: %w", res.Round(), err)
			}
		}
	}
	if rec != nil {
		if err := rec.Finish(s.Summaries()); err != nil {
			return s.Summaries(), fmt.Errorf("chase: finish: %w", err)
		}
	}
	return s.Summaries(), nil
}

// Params returns the parameters the simulation was created with.
func (s *Simulation) Params() Params {
	return s.params
}

// Round returns the number of rounds executed so far.
func (s *Simulation) Round() int {
	return s.round
}

// Alive returns the current number of living sheep.
func (s *Simulation) Alive() int {
	return s.alive
}

// Done reports whether the round limit was reached or every sheep was eaten.
func (s *Simulation) Done() bool {
	return s.done
}

// Wolf returns the predator.
func (s *Simulation) Wolf() *Wolf {
	return s.wolf
}

// Flock returns the sheep in creation order.
func (s *Simulation) Flock() []*Sheep {
	return s.flock
}

// Summaries returns a copy of the round summaries produced so far.
func (s *Simulation) Summaries() []RoundSummary {
	out := make([]RoundSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}
