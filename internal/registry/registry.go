package registry

import (
	"fmt"
	"os"
	"sort"

	"github.com/cnl-ai/warden/pkg/types"
	"gopkg.in/yaml.v3"
)

// Registry maps operation names to their declared safety level. It is
// immutable once constructed; callers wanting a different classification
// build a new one rather than mutating a shared table.
type Registry struct {
	levels map[string]types.SafetyLevel
}

// Builtin returns the registry for the upstream provider's operation catalog.
func Builtin() *Registry {
	return FromTable(builtinTable)
}

// FromTable builds a registry from an explicit table. The table is copied.
func FromTable(table map[string]types.SafetyLevel) *Registry {
	levels := make(map[string]types.SafetyLevel, len(table))
	for name, level := range table {
		levels[name] = level
	}
	return &Registry{levels: levels}
}

// Load returns the built-in registry extended by the overlay file at path.
// Overlay entries add new operations or override built-in levels. An empty
// path yields the built-in registry unchanged.
func Load(path string) (*Registry, error) {
	reg := Builtin()
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry overlay: %w", err)
	}

	var overlay overlayFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse registry overlay: %w", err)
	}

	for name, level := range overlay.Operations {
		parsed, err := parseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("overlay entry %q: %w", name, err)
		}
		reg.levels[name] = parsed
	}

	return reg, nil
}

type overlayFile struct {
	Operations map[string]string `yaml:"operations"`
}

func parseLevel(s string) (types.SafetyLevel, error) {
	switch types.SafetyLevel(s) {
	case types.LevelSafe, types.LevelModerate, types.LevelDangerous:
		return types.SafetyLevel(s), nil
	default:
		return "", fmt.Errorf("unknown safety level %q", s)
	}
}

// Lookup reports the declared level for an operation. ok is false for
// operations the registry has never heard of; those are the caller's cue to
// fail closed.
func (r *Registry) Lookup(operation string) (types.SafetyLevel, bool) {
	level, ok := r.levels[operation]
	return level, ok
}

// Operations returns all registered operation names, sorted.
func (r *Registry) Operations() []string {
	names := make([]string, 0, len(r.levels))
	for name := range r.levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
