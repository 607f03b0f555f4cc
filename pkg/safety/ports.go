package safety

import "context"

// ResourceReader fetches the current upstream state of the resource an
// operation is about to change. Implementations wrap the provider API
// client; reads count against tenant capacity like any other call.
type ResourceReader interface {
	ReadState(ctx context.Context, operation string, args map[string]any) (map[string]any, error)
}

// ResourceWriter pushes a previously captured state back to the provider.
// It is the restore half of the undo path.
type ResourceWriter interface {
	WriteState(ctx context.Context, operation string, args map[string]any, state map[string]any) error
}
