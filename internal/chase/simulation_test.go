package chase

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vovakirdan/chase/internal/core"
)

// scriptedRNG replays fixed draws so trajectories can be pinned exactly.
// Empty scripts yield zero.
type scriptedRNG struct {
	uniforms []float64
	dirs     []int
	ui, di   int
}

func (r *scriptedRNG) Uniform(lo, hi float64) float64 {
	if len(r.uniforms) == 0 {
		return 0
	}
	v := r.uniforms[r.ui%len(r.uniforms)]
	r.ui++
	return v
}

func (r *scriptedRNG) IntN(n int) int {
	if len(r.dirs) == 0 {
		return 0
	}
	v := r.dirs[r.di%len(r.dirs)] % n
	r.di++
	return v
}

func mustNew(t *testing.T, p Params, opts ...Option) *Simulation {
	t.Helper()
	sim, err := New(p, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return sim
}

func TestParamsValidate(t *testing.T) {
	valid := Params{MaxRounds: 10, FlockSize: 3, InitPosLimit: 10, SheepMoveDist: 0.5, WolfMoveDist: 1}

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{"valid", func(p *Params) {}, false},
		{"empty flock allowed", func(p *Params) { p.FlockSize = 0 }, false},
		{"stationary sheep allowed", func(p *Params) { p.SheepMoveDist = 0 }, false},
		{"zero rounds", func(p *Params) { p.MaxRounds = 0 }, true},
		{"negative flock", func(p *Params) { p.FlockSize = -1 }, true},
		{"zero limit", func(p *Params) { p.InitPosLimit = 0 }, true},
		{"negative sheep step", func(p *Params) { p.SheepMoveDist = -0.5 }, true},
		{"zero wolf step", func(p *Params) { p.WolfMoveDist = 0 }, true},
		{"NaN limit", func(p *Params) { p.InitPosLimit = math.NaN() }, true},
		{"infinite limit", func(p *Params) { p.InitPosLimit = math.Inf(1) }, true},
		{"NaN sheep step", func(p *Params) { p.SheepMoveDist = math.NaN() }, true},
		{"infinite sheep step", func(p *Params) { p.SheepMoveDist = math.Inf(1) }, true},
		{"NaN wolf step", func(p *Params) { p.WolfMoveDist = math.NaN() }, true},
		{"infinite wolf step", func(p *Params) { p.WolfMoveDist = math.Inf(1) }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			err := p.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("error %v should wrap ErrInvalidParams", err)
			}
			if _, newErr := New(p); (newErr != nil) != tc.wantErr {
				t.Errorf("New() error = %v, wantErr %v", newErr, tc.wantErr)
			}
		})
	}
}

func TestNewPlacesFlockAndWolf(t *testing.T) {
	rng := &scriptedRNG{uniforms: []float64{1, 2, -3, 4, 5, -6}}
	sim := mustNew(t, Params{MaxRounds: 5, FlockSize: 3, InitPosLimit: 10, SheepMoveDist: 1, WolfMoveDist: 1}, WithRNG(rng))

	want := []core.Point{core.Pt(1, 2), core.Pt(-3, 4), core.Pt(5, -6)}
	for i, s := range sim.Flock() {
		if s.ID != i {
			t.Errorf("sheep %d has ID %d", i, s.ID)
		}
		pos, ok := s.Position()
		if !ok || pos != want[i] {
			t.Errorf("sheep %d at %v (alive=%v), expected %v", i, pos, ok, want[i])
		}
	}
	if sim.Wolf().Pos != (core.Point{}) {
		t.Errorf("wolf should start at origin, got %v", sim.Wolf().Pos)
	}
	if sim.Alive() != 3 {
		t.Errorf("Alive() = %d, expected 3", sim.Alive())
	}
}

func TestNewDrawsWithinLimit(t *testing.T) {
	sim := mustNew(t, Params{MaxRounds: 1, FlockSize: 200, InitPosLimit: 2.5, SheepMoveDist: 1, WolfMoveDist: 1}, WithRNG(core.NewRNG(99)))

	for _, s := range sim.Flock() {
		pos, _ := s.Position()
		if math.Abs(pos.X) > 2.5 || math.Abs(pos.Y) > 2.5 {
			t.Fatalf("sheep %d placed outside limit at %v", s.ID, pos)
		}
	}
}

func TestSheepMove(t *testing.T) {
	tests := []struct {
		draw     int
		dir      Direction
		expected core.Point
	}{
		{0, North, core.Pt(0, 0.5)},
		{1, South, core.Pt(0, -0.5)},
		{2, East, core.Pt(0.5, 0)},
		{3, West, core.Pt(-0.5, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.dir.String(), func(t *testing.T) {
			s := NewSheep(0, core.Pt(0, 0))
			got := s.Move(0.5, &scriptedRNG{dirs: []int{tc.draw}})
			if got != tc.dir {
				t.Errorf("Move() direction = %v, expected %v", got, tc.dir)
			}
			if pos, _ := s.Position(); pos != tc.expected {
				t.Errorf("position = %v, expected %v", pos, tc.expected)
			}
		})
	}
}

func TestSheepDriftsUnbounded(t *testing.T) {
	s := NewSheep(0, core.Pt(0, 0))
	rng := &scriptedRNG{dirs: []int{2}}
	for i := 0; i < 1000; i++ {
		s.Move(1, rng)
	}
	if pos, _ := s.Position(); pos.X != 1000 {
		t.Errorf("sheep should not be clamped, got %v", pos)
	}
}

func TestWolfCapture(t *testing.T) {
	tests := []struct {
		name  string
		sheep core.Point
	}{
		{"exactly one step away", core.Pt(1, 0)},
		{"within one step", core.Pt(0.3, -0.4)},
		{"same cell", core.Pt(0, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWolf(1)
			s := NewSheep(0, tc.sheep)

			out := w.Move([]*Sheep{s})
			if out.Kind != OutcomeCapture || out.SheepID != 0 {
				t.Fatalf("Move() = %+v, expected capture of sheep 0", out)
			}
			if w.Pos != tc.sheep {
				t.Errorf("wolf at %v, expected the sheep's position %v", w.Pos, tc.sheep)
			}
			if s.Alive() {
				t.Error("captured sheep should be dead")
			}
			if _, ok := s.Position(); ok {
				t.Error("dead sheep should have no position")
			}
			if id, ok := w.LastCaptured(); !ok || id != 0 {
				t.Errorf("LastCaptured() = %d, %v", id, ok)
			}
			if _, ok := w.LastChased(); ok {
				t.Error("capture must not also mark a chase")
			}
		})
	}
}

func TestWolfPursuit(t *testing.T) {
	w := NewWolf(1)
	w.Pos = core.Pt(1, 1)
	target := core.Pt(4, 5)
	s := NewSheep(7, target)

	out := w.Move([]*Sheep{s})
	if out.Kind != OutcomeChase || out.SheepID != 7 {
		t.Fatalf("Move() = %+v, expected chase of sheep 7", out)
	}

	disp := w.Pos.Sub(core.Pt(1, 1))
	if math.Abs(disp.Len()-1) > 1e-12 {
		t.Errorf("displacement length = %v, expected 1", disp.Len())
	}
	dir := target.Sub(core.Pt(1, 1)).Scale(1 / 5.0)
	if math.Abs(disp.X-dir.X) > 1e-12 || math.Abs(disp.Y-dir.Y) > 1e-12 {
		t.Errorf("displacement %v does not point at the target (unit %v)", disp, dir)
	}
	if !s.Alive() {
		t.Error("chased sheep should stay alive")
	}
	if _, ok := w.LastCaptured(); ok {
		t.Error("chase must not also mark a capture")
	}
}

func TestWolfNearestTieBreak(t *testing.T) {
	w := NewWolf(1)
	flock := []*Sheep{
		NewSheep(0, core.Pt(0, 5)),
		NewSheep(1, core.Pt(5, 0)),
		NewSheep(2, core.Pt(-5, 0)),
	}

	out := w.Move(flock)
	if out.SheepID != 0 {
		t.Errorf("tie should go to the first sheep in scan order, got %d", out.SheepID)
	}
}

func TestWolfSkipsDeadSheep(t *testing.T) {
	w := NewWolf(1)
	dead := NewSheep(0, core.Pt(0.5, 0))
	dead.kill()
	far := NewSheep(1, core.Pt(10, 0))

	out := w.Move([]*Sheep{dead, far})
	if out.Kind != OutcomeChase || out.SheepID != 1 {
		t.Errorf("Move() = %+v, expected chase of sheep 1", out)
	}
}

func TestWolfNoPrey(t *testing.T) {
	t.Run("empty flock", func(t *testing.T) {
		w := NewWolf(1)
		if out := w.Move(nil); out.Kind != OutcomeNone {
			t.Errorf("Move(nil) = %+v", out)
		}
		if w.Pos != (core.Point{}) {
			t.Errorf("wolf moved to %v", w.Pos)
		}
	})

	t.Run("all dead", func(t *testing.T) {
		w := NewWolf(1)
		w.Pos = core.Pt(2, 2)
		s := NewSheep(0, core.Pt(3, 3))
		s.kill()
		if out := w.Move([]*Sheep{s}); out.Kind != OutcomeNone {
			t.Errorf("Move() = %+v", out)
		}
		if w.Pos != core.Pt(2, 2) {
			t.Errorf("wolf moved to %v", w.Pos)
		}
	})
}

func TestStepClearsOutcomeMarkers(t *testing.T) {
	rng := &scriptedRNG{uniforms: []float64{3, 0}}
	sim := mustNew(t, Params{MaxRounds: 10, FlockSize: 1, InitPosLimit: 10, SheepMoveDist: 0, WolfMoveDist: 1}, WithRNG(rng))

	for {
		res, ok := sim.Step()
		if !ok {
			break
		}
		if res.Outcome.Kind == OutcomeNone {
			t.Errorf("round %d reported no outcome", res.Round())
		}
		if sim.Wolf().Outcome() != (Outcome{}) {
			t.Errorf("round %d left outcome %+v on the wolf", res.Round(), sim.Wolf().Outcome())
		}
		if _, ok := sim.Wolf().LastCaptured(); ok {
			t.Error("capture marker should be cleared after report")
		}
		if _, ok := sim.Wolf().LastChased(); ok {
			t.Error("chase marker should be cleared after report")
		}
	}
}

func TestScenarioStationarySheepCapturedInFiveRounds(t *testing.T) {
	rng := &scriptedRNG{uniforms: []float64{5, 0}}
	sim := mustNew(t, Params{MaxRounds: 50, FlockSize: 1, InitPosLimit: 10, SheepMoveDist: 0, WolfMoveDist: 1}, WithRNG(rng))

	var results []RoundResult
	for {
		res, ok := sim.Step()
		if !ok {
			break
		}
		results = append(results, res)
	}

	if len(results) != 5 {
		t.Fatalf("expected 5 rounds, got %d", len(results))
	}
	for k, res := range results {
		round := k + 1
		if res.Round() != round {
			t.Errorf("result %d has round %d", k, res.Round())
		}
		want := core.Pt(math.Min(float64(round), 5), 0)
		if res.Summary.Wolf != want {
			t.Errorf("round %d: wolf at %v, expected %v", round, res.Summary.Wolf, want)
		}
		if round < 5 {
			if res.Alive != 1 || res.Outcome.Kind != OutcomeChase {
				t.Errorf("round %d: alive=%d outcome=%v, expected a chase", round, res.Alive, res.Outcome.Kind)
			}
		}
	}

	last := results[4]
	if last.Alive != 0 || last.Outcome.Kind != OutcomeCapture || last.Outcome.SheepID != 0 {
		t.Errorf("round 5: alive=%d outcome=%+v, expected capture of sheep 0", last.Alive, last.Outcome)
	}
	if last.Summary.Sheep[0] != nil {
		t.Errorf("eaten sheep should be reported with no position, got %v", *last.Summary.Sheep[0])
	}
	if !sim.Done() || sim.Round() != 5 {
		t.Errorf("Done()=%v Round()=%d, expected done after 5", sim.Done(), sim.Round())
	}
	if _, ok := sim.Step(); ok {
		t.Error("Step() must not run after extinction")
	}
}

func TestScenarioEmptyFlockRunsAllRounds(t *testing.T) {
	sim := mustNew(t, Params{MaxRounds: 7, FlockSize: 0, InitPosLimit: 10, SheepMoveDist: 1, WolfMoveDist: 1})

	summaries, err := sim.Run(RecorderFunc(func(res RoundResult) error {
		if res.Alive != 0 {
			t.Errorf("round %d: alive = %d", res.Round(), res.Alive)
		}
		if res.Outcome.Kind != OutcomeNone {
			t.Errorf("round %d: unexpected outcome %+v", res.Round(), res.Outcome)
		}
		if res.Summary.Wolf != (core.Point{}) {
			t.Errorf("round %d: wolf moved to %v", res.Round(), res.Summary.Wolf)
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(summaries) != 7 {
		t.Errorf("expected 7 rounds, got %d", len(summaries))
	}
}

func TestScenarioSingleRound(t *testing.T) {
	sim := mustNew(t, Params{MaxRounds: 1, FlockSize: 5, InitPosLimit: 10, SheepMoveDist: 0.5, WolfMoveDist: 1}, WithRNG(core.NewRNG(7)))

	summaries, err := sim.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if moved := summaries[0].Wolf.Len(); moved > 1+1e-9 {
		t.Errorf("wolf moved %v, more than one step", moved)
	}
}

func TestRunProperties(t *testing.T) {
	const flockSize = 20
	sim := mustNew(t, Params{MaxRounds: 500, FlockSize: flockSize, InitPosLimit: 5, SheepMoveDist: 0.5, WolfMoveDist: 2}, WithRNG(core.NewRNG(2024)))

	ids := make(map[int]bool)
	for _, s := range sim.Flock() {
		if ids[s.ID] {
			t.Fatalf("duplicate sheep ID %d", s.ID)
		}
		ids[s.ID] = true
	}

	var results []RoundResult
	_, err := sim.Run(RecorderFunc(func(res RoundResult) error {
		results = append(results, res)
		return nil
	}))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	prevAlive := flockSize
	dead := make([]bool, flockSize)
	for i, res := range results {
		if res.Alive > prevAlive {
			t.Fatalf("round %d: survivors rose from %d to %d", res.Round(), prevAlive, res.Alive)
		}
		if res.Alive == 0 && i != len(results)-1 {
			t.Fatalf("round %d: rounds continued after extinction", res.Round())
		}
		prevAlive = res.Alive

		if len(res.Summary.Sheep) != flockSize {
			t.Fatalf("round %d: %d sheep slots, expected %d", res.Round(), len(res.Summary.Sheep), flockSize)
		}
		nilCount := 0
		for id, pos := range res.Summary.Sheep {
			if pos == nil {
				dead[id] = true
				nilCount++
			} else if dead[id] {
				t.Fatalf("round %d: sheep %d came back to life", res.Round(), id)
			}
		}
		if flockSize-nilCount != res.Alive {
			t.Fatalf("round %d: %d positioned sheep but %d alive", res.Round(), flockSize-nilCount, res.Alive)
		}
	}

	for i, s := range sim.Flock() {
		if s.ID != i {
			t.Errorf("sheep at index %d changed ID to %d", i, s.ID)
		}
	}
}

func TestSummariesAreIndependentSnapshots(t *testing.T) {
	rng := &scriptedRNG{uniforms: []float64{0, 5}, dirs: []int{2}}
	sim := mustNew(t, Params{MaxRounds: 3, FlockSize: 1, InitPosLimit: 10, SheepMoveDist: 1, WolfMoveDist: 0.5}, WithRNG(rng))

	first, _ := sim.Step()
	sim.Step()

	if got := *first.Summary.Sheep[0]; got != core.Pt(1, 5) {
		t.Errorf("first summary changed to %v after later rounds", got)
	}
}

type failingRecorder struct {
	failAt   int
	rounds   []int
	finished bool
}

func (f *failingRecorder) RecordRound(res RoundResult) error {
	f.rounds = append(f.rounds, res.Round())
	if res.Round() == f.failAt {
		return errors.New("disk full")
	}
	return nil
}

func (f *failingRecorder) Finish([]RoundSummary) error {
	f.finished = true
	return nil
}

func TestRunRecordsIncrementally(t *testing.T) {
	rec := &failingRecorder{failAt: -1}
	sim := mustNew(t, Params{MaxRounds: 4, FlockSize: 0, InitPosLimit: 1, SheepMoveDist: 1, WolfMoveDist: 1})

	if _, err := sim.Run(rec); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(rec.rounds) != 4 {
		t.Fatalf("recorded %v, expected 4 rounds", rec.rounds)
	}
	for i, r := range rec.rounds {
		if r != i+1 {
			t.Errorf("rounds recorded out of order: %v", rec.rounds)
		}
	}
	if !rec.finished {
		t.Error("Finish() was not called")
	}
}

func TestRunStopsOnRecorderError(t *testing.T) {
	rec := &failingRecorder{failAt: 2}
	sim := mustNew(t, Params{MaxRounds: 10, FlockSize: 0, InitPosLimit: 1, SheepMoveDist: 1, WolfMoveDist: 1})

	summaries, err := sim.Run(rec)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Run() error = %v, expected the recorder failure", err)
	}
	if len(summaries) != 2 {
		t.Errorf("expected 2 summaries before the failure, got %d", len(summaries))
	}
	if rec.finished {
		t.Error("Finish() should not run after a failed round")
	}
}

func TestRecordersFanOut(t *testing.T) {
	a := &failingRecorder{failAt: -1}
	b := &failingRecorder{failAt: -1}
	sim := mustNew(t, Params{MaxRounds: 2, FlockSize: 0, InitPosLimit: 1, SheepMoveDist: 1, WolfMoveDist: 1})

	if _, err := sim.Run(Recorders{a, b}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(a.rounds) != 2 || len(b.rounds) != 2 || !a.finished || !b.finished {
		t.Errorf("fan-out incomplete: a=%v/%v b=%v/%v", a.rounds, a.finished, b.rounds, b.finished)
	}
}

func TestStatusReport(t *testing.T) {
	res := RoundResult{
		Summary: RoundSummary{Round: 3, Wolf: core.Pt(1.23456, -2)},
		Alive:   4,
		Outcome: Outcome{Kind: OutcomeChase, SheepID: 2},
	}
	want := "Round 3\nWolf position: (1.235, -2.000)\nNumber of alive sheep: 4\nWolf is chasing sheep 2\n"
	if got := StatusReport(res); got != want {
		t.Errorf("StatusReport() = %q, expected %q", got, want)
	}

	res.Outcome = Outcome{Kind: OutcomeCapture, SheepID: 1}
	if got := StatusReport(res); !strings.HasSuffix(got, "Sheep 1 was eaten\n") {
		t.Errorf("capture narration missing: %q", got)
	}
}
