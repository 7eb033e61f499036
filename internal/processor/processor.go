// Package processor holds the per-extension file transformations applied
// while mirroring the source tree into the build output.
package processor

import (
	"strings"
	"sync"

	"github.com/Norgate-AV/pdmake/internal/utils"
)

// Processor transforms one source file into its build artifact
type Processor interface {
	// Process reads src and writes the artifact for dest
	Process(src, dest string) error

	// OutputPath returns where Process writes for the given mirrored destination
	OutputPath(dest string) string
}

// Registry dispatches files to processors by lowercase extension
type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
	fallback   Processor
}

// NewRegistry creates an empty registry falling back to Copy
func NewRegistry() *Registry {
	return &Registry{
		processors: make(map[string]Processor),
		fallback:   Copy{},
	}
}

// Register binds p to every given extension, replacing earlier bindings
func (r *Registry) Register(p Processor, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range exts {
		r.processors[normalizeExt(ext)] = p
	}
}

// Lookup returns the processor for ext and whether one was registered.
// A miss returns the fallback.
func (r *Registry) Lookup(ext string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.processors[normalizeExt(ext)]; ok {
		return p, true
	}

	return r.fallback, false
}

// For returns the processor handling path
func (r *Registry) For(path string) Processor {
	p, _ := r.Lookup(utils.Ext(path))
	return p
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
