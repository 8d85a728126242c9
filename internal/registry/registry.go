// Package registry provides a global registry of output sinks.
// Sinks register themselves in init() functions, so the CLI can discover and
// build them by name without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/chase/internal/chase"
)

// Options carries what a sink may need to open itself.
type Options struct {
	// Dir is the output directory ("" = current directory).
	Dir string
	// DBPath is the run history database.
	DBPath string
	// Seed and Params describe the run being recorded.
	Seed   int64
	Params chase.Params
}

// SinkInfo contains metadata about a registered sink.
type SinkInfo struct {
	Name        string
	Description string
}

// Factory opens a sink for one simulation run.
type Factory func(opts Options) (chase.Recorder, error)

type entry struct {
	description string
	factory     Factory
}

var (
	sinks = make(map[string]entry)
	mu    sync.RWMutex
)

// Register adds a sink factory to the registry.
// Panics if a sink with the same name is already registered.
func Register(name, description string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := sinks[name]; exists {
		panic(fmt.Sprintf("registry: sink %q already registered", name))
	}
	sinks[name] = entry{description: description, factory: f}
}

// List returns all registered sinks, sorted by name.
func List() []SinkInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]SinkInfo, 0, len(sinks))
	for name, e := range sinks {
		result = append(result, SinkInfo{Name: name, Description: e.description})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Create opens the named sink.
func Create(name string, opts Options) (chase.Recorder, error) {
	mu.RLock()
	e, ok := sinks[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown sink %q", name)
	}
	return e.factory(opts)
}

// CreateAll opens every named sink in order. On failure, the sinks already
// opened are closed.
func CreateAll(names []string, opts Options) (chase.Recorders, error) {
	recs := make(chase.Recorders, 0, len(names))
	for _, name := range names {
		rec, err := Create(name, opts)
		if err != nil {
			recs.Close()
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Exists checks if a sink with the given name is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := sinks[name]
	return ok
}
