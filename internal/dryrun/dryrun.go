package dryrun

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cnl-ai/warden/internal/classify"
	"github.com/cnl-ai/warden/pkg/types"
)

// patterns recognise a simulation request in free-form operator text.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`--dry-run`),
	regexp.MustCompile(`\bdry\s*run\b`),
	regexp.MustCompile(`what would happen`),
	regexp.MustCompile(`\bpreview\b`),
	regexp.MustCompile(`\bsimulate\b`),
	regexp.MustCompile(`show me what`),
	regexp.MustCompile(`without (actually|really) (doing|executing|running)`),
}

// Detect reports whether the operator is asking for a simulation rather
// than a real change.
func Detect(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range patterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// Runner projects the impact of an operation without executing it. It holds
// only a classifier: no provider clients, no limiter, so a dry run can never
// touch the network or spend budget.
type Runner struct {
	classifier *classify.Classifier
}

func NewRunner(classifier *classify.Classifier) *Runner {
	return &Runner{classifier: classifier}
}

// Execute builds the same impact view a real confirmation would show.
func (r *Runner) Execute(operation string, args map[string]any) types.DryRunResult {
	check := r.classifier.Classify(operation, args)

	var b strings.Builder
	fmt.Fprintf(&b, "Function: %s\n", operation)
	fmt.Fprintf(&b, "Safety Level: %s\n", strings.ToUpper(string(check.Level)))
	b.WriteString("\nParameters:\n")
	for _, key := range sortedKeys(args) {
		fmt.Fprintf(&b, "  - %s: %v\n", key, args[key])
	}
	b.WriteString("\nChanges that would be made:\n")
	b.WriteString(check.Action)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Backup required: %t\n", check.BackupRequired)
	fmt.Fprintf(&b, "Confirmation type: %s", check.Confirmation)

	var networks []string
	if networkID, ok := args["network_id"].(string); ok && networkID != "" {
		networks = append(networks, networkID)
	}

	return types.DryRunResult{
		DryRun:           true,
		Action:           check.Action,
		Impact:           b.String(),
		Level:            check.Level,
		BackupRequired:   check.BackupRequired,
		Confirmation:     check.Confirmation,
		NetworksAffected: networks,
		APICallsAvoided:  1,
	}
}

func sortedKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
