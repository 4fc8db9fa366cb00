package cache

// EventType is the lifecycle stage a cache operation reports.
type EventType string

const (
	// EventPending fires when an optimistic mutation has been applied
	// locally and its network call is in flight.
	EventPending EventType = "pending"

	// EventCommitted fires when the server confirmed the mutation and
	// the optimistic entry was replaced with the server entity.
	EventCommitted EventType = "committed"

	// EventRolledBack fires when the mutation failed and the cache was
	// restored to its pre-mutation state.
	EventRolledBack EventType = "rolled_back"

	// EventLoaded fires when a load replaced the cached set.
	EventLoaded EventType = "loaded"
)

// Op names the cache operation an event belongs to.
type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpToggle Op = "toggle"
	OpDelete Op = "delete"
)

// Event is a state-transition notification emitted by the TaskCache.
// The view layer subscribes to these instead of passing callbacks into
// each mutation.
type Event struct {
	Type   EventType
	Op     Op
	TaskID string
	Err    error
}
