// Package prompt is a small registry for oracle system prompts. Prompts ship
// as compiled-in defaults and can be overridden from JSON files at startup,
// so wording changes do not require a rebuild.
package prompt

import (
	"fmt"
	"sync"
)

// Template is one named system prompt.
type Template struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	System      string `json:"system_prompt"`
	Version     string `json:"version,omitempty"`
}

// Registry holds registered templates. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]*Template
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry singleton.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = &Registry{prompts: make(map[string]*Template)}
	})
	return globalRegistry
}

// Register adds or replaces a template.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[t.ID] = t
	return nil
}

// System returns the system prompt for id.
func (r *Registry) System(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.prompts[id]; ok {
		return t.System, true
	}
	return "", false
}

// Count reports how many templates are registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}

// SystemOr returns the registered system prompt for id, or fallback when no
// override exists. This is the call sites' single entry point: hardcoded
// defaults keep working with an empty registry.
func SystemOr(id, fallback string) string {
	if s, ok := Get().System(id); ok {
		return s
	}
	return fallback
}
