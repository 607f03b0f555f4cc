package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cnl-ai/warden/internal/registry"
	"github.com/cnl-ai/warden/pkg/types"
)

// Classifier resolves operations against an injected registry. It is a total
// function: every name classifies, and names the registry does not know fall
// through to dangerous with typed confirmation.
type Classifier struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) *Classifier {
	return &Classifier{registry: reg}
}

// Classify derives the safety check for one operation. It never fails and
// has no side effects.
func (c *Classifier) Classify(operation string, args map[string]any) types.SafetyCheck {
	level, ok := c.registry.Lookup(operation)
	if !ok {
		level = types.LevelDangerous
	}

	check := types.SafetyCheck{
		Operation: operation,
		Level:     level,
		Action:    actionDescription(operation, args),
		Preview:   previewText(operation, args, level),
	}

	switch level {
	case types.LevelSafe:
		check.BackupRequired = false
		check.Confirmation = types.ConfirmNone
	case types.LevelModerate:
		check.BackupRequired = true
		check.Confirmation = types.ConfirmSimple
	default:
		check.BackupRequired = true
		check.Confirmation = types.ConfirmTyped
	}

	return check
}

// actionDescription renders a short human-readable line from the operation
// name and its best-known arguments.
func actionDescription(operation string, args map[string]any) string {
	parts := []string{titleCase(operation)}

	if networkID, ok := stringArg(args, "network_id"); ok {
		parts = append(parts, fmt.Sprintf("on network %s", networkID))
	}
	if num, ok := firstArg(args, "ssid_number", "number"); ok {
		parts = append(parts, fmt.Sprintf("SSID #%v", num))
	}
	if name, ok := stringArg(args, "name"); ok {
		parts = append(parts, fmt.Sprintf("'%s'", name))
	}
	if vlanID, ok := args["vlan_id"]; ok {
		parts = append(parts, fmt.Sprintf("VLAN %v", vlanID))
	}

	return strings.Join(parts, " ")
}

// previewText renders the parameter listing shown to the operator before
// they approve the change.
func previewText(operation string, args map[string]any, level types.SafetyLevel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Operation: %s\n", operation)
	fmt.Fprintf(&b, "Safety Level: %s\n", strings.ToUpper(string(level)))
	b.WriteString("\nParameters:\n")

	for _, key := range sortedKeys(args) {
		switch value := args[key].(type) {
		case string, int, int64, float64, bool:
			fmt.Fprintf(&b, "  - %s: %v\n", key, value)
		case map[string]any:
			fmt.Fprintf(&b, "  - %s: %d items\n", key, len(value))
		case []any:
			fmt.Fprintf(&b, "  - %s: %d items\n", key, len(value))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func titleCase(operation string) string {
	words := strings.Split(operation, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func sortedKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func stringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	return value, ok && value != ""
}

func firstArg(args map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := args[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}
