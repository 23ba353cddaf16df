// Package stage defines the interface every pipeline stage implements and
// a registry used to look stages up by name, for a fixed five-node DAG
// (Normalize -> {Embed, Extract, Signal} -> Rank).
package stage

import (
	"context"
	"fmt"
	"sync"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/config"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/progress"
)

// RunContext is the shared environment passed to every stage. It carries
// fixed, typed fields rather than an arbitrary key/value bag: stages in
// this pipeline pass whole tables through the artifact store, not ad hoc
// context values.
type RunContext struct {
	RunID  string
	Store  *artifact.Store
	Config config.Config
	Log    *logging.Logger
	Bus    *progress.Bus
}

// Cancelled reports whether ctx has been cancelled, the cooperative check
// stages make at partition boundaries rather than polling ctx.Err() inline
// everywhere.
func Cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Stage is one node of the pipeline DAG. Run reads its declared inputs from
// rc.Store and writes its declared outputs back to rc.Store; it must be a
// pure function of those inputs plus rc.Config so reruns with an unchanged
// input hash are byte-identical.
type Stage interface {
	// Name identifies the stage for logging, progress events, and artifact
	// manifest bookkeeping.
	Name() string

	// Run executes the stage. Implementations must check Cancelled(ctx) at
	// partition boundaries and return ctx.Err() promptly when cancelled.
	Run(ctx context.Context, rc *RunContext) error
}

// Registry holds constructible stages by name, so a caller can wire a run
// without importing every stage package directly. internal/pipeline and
// cmd/pvsignal construct their stages directly and do not use it.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register adds a Stage under its own Name. Registering a second stage
// under a name already taken is an error.
func (r *Registry) Register(s Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stages[s.Name()]; exists {
		return fmt.Errorf("stage %q already registered", s.Name())
	}
	r.stages[s.Name()] = s
	return nil
}

// Get looks up a stage by name.
func (r *Registry) Get(name string) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, exists := r.stages[name]
	if !exists {
		return nil, fmt.Errorf("stage %q not registered", name)
	}
	return s, nil
}

// Names returns every registered stage name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stages))
	for n := range r.stages {
		names = append(names, n)
	}
	return names
}
