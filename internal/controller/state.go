package controller

// State is the explicit cache state for one entity. Using a tagged state
// instead of ad hoc flags keeps illegal combinations unrepresentable:
// a cache cannot be simultaneously loading and optimistically patched.
type State int

const (
	// StateIdle means the cache holds the last reconciled server state
	// (or nothing, before the first load).
	StateIdle State = iota

	// StateLoading means a load is in flight and the cache may be stale.
	StateLoading

	// StateOptimistic means a locally patched value is showing while the
	// confirming request is in flight; the caller holds the rollback
	// snapshot in its own frame.
	StateOptimistic

	// StateError means the last operation failed and no load has
	// succeeded since; cached data, if any, is stale.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateOptimistic:
		return "optimistic"
	case StateError:
		return "error"
	}
	return "unknown"
}
