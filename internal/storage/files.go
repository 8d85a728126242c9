package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/core"
)

// File names written into the output directory.
const (
	PositionsFile = "pos.json"
	AliveFile     = "alive.csv"
)

// RoundRecord is the on-disk form of a round summary. Positions are [x, y]
// pairs and eaten sheep are null.
type RoundRecord struct {
	RoundNo  int           `json:"round_no"`
	WolfPos  [2]float64    `json:"wolf_pos"`
	SheepPos []*[2]float64 `json:"sheep_pos"`
}

// NewRoundRecord converts a summary to its on-disk form.
func NewRoundRecord(sum chase.RoundSummary) RoundRecord {
	rec := RoundRecord{
		RoundNo:  sum.Round,
		WolfPos:  [2]float64{sum.Wolf.X, sum.Wolf.Y},
		SheepPos: make([]*[2]float64, len(sum.Sheep)),
	}
	for i, p := range sum.Sheep {
		if p != nil {
			rec.SheepPos[i] = &[2]float64{p.X, p.Y}
		}
	}
	return rec
}

// Summary converts the record back to a round summary.
func (r RoundRecord) Summary() chase.RoundSummary {
	sum := chase.RoundSummary{
		Round: r.RoundNo,
		Wolf:  core.Pt(r.WolfPos[0], r.WolfPos[1]),
		Sheep: make([]*core.Point, len(r.SheepPos)),
	}
	for i, p := range r.SheepPos {
		if p != nil {
			pt := core.Pt(p[0], p[1])
			sum.Sheep[i] = &pt
		}
	}
	return sum
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}
	return nil
}

// PositionsWriter writes every round's positions to pos.json once the run
// is finished.
type PositionsWriter struct {
	path string
}

// NewPositionsWriter prepares dir/pos.json, creating dir if needed.
func NewPositionsWriter(dir string) (*PositionsWriter, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &PositionsWriter{path: filepath.Join(dir, PositionsFile)}, nil
}

// Path returns the file being written.
func (w *PositionsWriter) Path() string {
	return w.path
}

// RecordRound does nothing; positions are written in one piece by Finish.
func (w *PositionsWriter) RecordRound(chase.RoundResult) error {
	return nil
}

// Finish writes all summaries as an indented JSON array.
func (w *PositionsWriter) Finish(summaries []chase.RoundSummary) error {
	records := make([]RoundRecord, len(summaries))
	for i, sum := range summaries {
		records[i] = NewRoundRecord(sum)
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("storage: cannot encode positions: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", w.path, err)
	}
	return nil
}

// ReadPositions loads a pos.json file.
func ReadPositions(path string) ([]RoundRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot read %s: %w", path, err)
	}
	var records []RoundRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("storage: cannot parse %s: %w", path, err)
	}
	return records, nil
}

// AliveWriter appends "round,alive" rows to alive.csv as rounds complete.
// Each row is flushed and synced before the next round starts.
type AliveWriter struct {
	f *os.File
	w *csv.Writer
}

// NewAliveWriter creates (or truncates) dir/alive.csv, creating dir if needed.
func NewAliveWriter(dir string) (*AliveWriter, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, AliveFile)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot create %s: %w", path, err)
	}
	return &AliveWriter{f: f, w: csv.NewWriter(f)}, nil
}

// Path returns the file being written.
func (a *AliveWriter) Path() string {
	return a.f.Name()
}

// RecordRound appends one row and makes it durable.
func (a *AliveWriter) RecordRound(res chase.RoundResult) error {
	if err := a.w.Write([]string{strconv.Itoa(res.Round()), strconv.Itoa(res.Alive)}); err != nil {
		return fmt.Errorf("storage: cannot write alive count: %w", err)
	}
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		return fmt.Errorf("storage: cannot flush alive count: %w", err)
	}
	if err := a.f.Sync(); err != nil {
		return fmt.Errorf("storage: cannot sync %s: %w", a.f.Name(), err)
	}
	return nil
}

// Finish flushes any pending output.
func (a *AliveWriter) Finish([]chase.RoundSummary) error {
	a.w.Flush()
	return a.w.Error()
}

// Close closes the file.
func (a *AliveWriter) Close() error {
	return a.f.Close()
}

// ReadAlive loads an alive.csv file.
func ReadAlive(path string) ([]RoundCount, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: cannot parse %s: %w", path, err)
	}
	counts := make([]RoundCount, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("storage: malformed row %v in %s", row, path)
		}
		round, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("storage: bad round %q in %s: %w", row[0], path, err)
		}
		alive, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("storage: bad count %q in %s: %w", row[1], path, err)
		}
		counts = append(counts, RoundCount{Round: round, Alive: alive})
	}
	return counts, nil
}
