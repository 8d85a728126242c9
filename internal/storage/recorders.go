package storage

import (
	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/registry"
)

func init() {
	registry.Register("json", "Positions of every round in <dir>/pos.json", func(opts registry.Options) (chase.Recorder, error) {
		return NewPositionsWriter(opts.Dir)
	})
	registry.Register("csv", "Survivor count per round in <dir>/alive.csv", func(opts registry.Options) (chase.Recorder, error) {
		return NewAliveWriter(opts.Dir)
	})
	registry.Register("sqlite", "Run history in the --db database", func(opts registry.Options) (chase.Recorder, error) {
		store, err := Open(opts.DBPath)
		if err != nil {
			return nil, err
		}
		rec, err := NewRunRecorder(store, opts.Seed, opts.Params)
		if err != nil {
			store.Close()
			return nil, err
		}
		rec.ownsStore = true
		return rec, nil
	})
}

// RunRecorder records a simulation into the run history: the survivor
// count is committed every round and positions when the run finishes.
type RunRecorder struct {
	store     *Store
	runID     int64
	ownsStore bool
}

// NewRunRecorder starts a new run in store.
func NewRunRecorder(store *Store, seed int64, p chase.Params) (*RunRecorder, error) {
	id, err := store.BeginRun(seed, p)
	if err != nil {
		return nil, err
	}
	return &RunRecorder{store: store, runID: id}, nil
}

// RunID returns the ID of the run being recorded.
func (r *RunRecorder) RunID() int64 {
	return r.runID
}

// RecordRound implements chase.Recorder.
func (r *RunRecorder) RecordRound(res chase.RoundResult) error {
	return r.store.SaveRoundCount(r.runID, res.Round(), res.Alive)
}

// Finish implements chase.Recorder.
func (r *RunRecorder) Finish(summaries []chase.RoundSummary) error {
	return r.store.SaveSummaries(r.runID, summaries)
}

// Close closes the store if the recorder opened it.
func (r *RunRecorder) Close() error {
	if r.ownsStore {
		return r.store.Close()
	}
	return nil
}
