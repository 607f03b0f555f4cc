// Package provider holds the daemon's stand-in for an upstream network
// management API. The Local client keeps resource state in memory,
// optionally seeded from a YAML file, and satisfies the guard's reader
// and writer ports until a real API client is wired in its place.
package provider

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type Local struct {
	mu     sync.Mutex
	states map[string]map[string]any
}

func NewLocal() *Local {
	return &Local{states: make(map[string]map[string]any)}
}

// LoadSeed fills the store from a YAML file mapping resource keys to state
// documents. A missing path is not an error; the store starts empty.
func (l *Local) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read seed: %w", err)
	}

	var seed map[string]map[string]any
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, state := range seed {
		l.states[key] = state
	}
	return nil
}

func (l *Local) ReadState(ctx context.Context, operation string, args map[string]any) (map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[resourceKey(operation, args)]
	if !ok {
		// An absent resource still snapshots cleanly: restoring an
		// empty document expresses "it did not exist".
		return map[string]any{}, nil
	}
	copied := make(map[string]any, len(state))
	for k, v := range state {
		copied[k] = v
	}
	return copied, nil
}

func (l *Local) WriteState(ctx context.Context, operation string, args map[string]any, state map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[resourceKey(operation, args)] = state
	return nil
}

// resourceKey scopes state to the network or device an operation targets,
// falling back to the operation name for org-wide calls.
func resourceKey(operation string, args map[string]any) string {
	for _, key := range []string{"network_id", "serial", "org_id"} {
		if v, ok := args[key]; ok {
			return fmt.Sprintf("%s/%v", operation, v)
		}
	}
	return operation
}
