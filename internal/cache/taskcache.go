// Package cache keeps a local, filtered, ordered view of the user's
// tasks consistent with the backend under optimistic updates.
//
// Every mutation follows the same discipline: apply locally, call the
// gateway, then commit the server entity or roll the local change
// back. Mutations on one task ID are serialized; mutations on
// different IDs and loads proceed concurrently. A load that has been
// superseded by a newer one discards its result, so a slow stale
// response never clobbers a fresher set.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/internal/query"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// Gateway is the subset of the API client the cache needs, defined
// here so the cache depends on behavior rather than the api package's
// concrete client.
type Gateway interface {
	ListTasks(ctx context.Context, rawQuery string) ([]models.Task, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Authorizer reports the active session token. Mutations are gated on
// it: with no session active, no mutation is attempted and the caller
// is told to re-authenticate. Implemented by session.Store.
type Authorizer interface {
	Token() string
}

// TaskCache is the client-side source of truth the view layer renders.
type TaskCache struct {
	gw       Gateway
	auth     Authorizer
	resolver *query.Resolver

	mu      sync.Mutex
	filter  models.TaskFilter
	tasks   []models.Task
	pending map[string]bool
	// prevStatus remembers the last non-completed status per task so
	// ToggleComplete can restore it when un-completing.
	prevStatus map[string]models.TaskStatus
	loading    bool
	lastErr    error
	loadSeq    uint64

	locks map[string]*sync.Mutex

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates an empty TaskCache backed by the given gateway. auth
// may be nil, in which case mutations are not gated locally and the
// backend's 401 is the only authentication check.
func New(gw Gateway, auth Authorizer) *TaskCache {
	return &TaskCache{
		gw:         gw,
		auth:       auth,
		resolver:   query.NewResolver(),
		pending:    make(map[string]bool),
		prevStatus: make(map[string]models.TaskStatus),
		locks:      make(map[string]*sync.Mutex),
		subs:       make(map[int]chan Event),
	}
}

// --- Subscription ---

// Subscribe registers a listener for state-transition events. Events
// are delivered best-effort: a subscriber that stops draining its
// channel loses events rather than blocking mutations.
func (c *TaskCache) Subscribe() (<-chan Event, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, 64)
	c.subs[id] = ch
	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *TaskCache) emit(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// --- Presented state ---

// Snapshot returns a copy of the current ordered task set.
func (c *TaskCache) Snapshot() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Loading reports whether a load is in flight.
func (c *TaskCache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastErr returns the most recent operation failure, or nil. A
// successful load clears it.
func (c *TaskCache) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Pending reports whether a mutation on the given task is unsettled.
func (c *TaskCache) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

// Filter returns the filter the current set was loaded with.
func (c *TaskCache) Filter() models.TaskFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Stats summarizes the cached set for the list header and board.
func (c *TaskCache) Stats() models.TaskStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := models.TaskStats{Total: len(c.tasks)}
	for _, t := range c.tasks {
		if t.Status == models.StatusCompleted {
			s.Completed++
		}
		if t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent {
			s.HighPriority++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// --- Loading ---

// SetFilter resolves the filter and reloads the set only when the
// canonical query actually changed. The old and new result sets are
// never merged.
func (c *TaskCache) SetFilter(ctx context.Context, f models.TaskFilter) (reloaded bool, err error) {
	c.mu.Lock()
	_, changed := c.resolver.Resolve(f)
	c.mu.Unlock()
	if !changed {
		return false, nil
	}
	return true, c.Load(ctx, f)
}

// Load clears the current set and replaces it with the backend's
// result for the filter, ordered per the resolver's total order. When
// loads overlap, the most recently initiated one wins: a result
// arriving for a superseded load is discarded.
func (c *TaskCache) Load(ctx context.Context, f models.TaskFilter) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.filter = f
	c.tasks = nil
	c.loading = true
	c.mu.Unlock()

	rawQuery := query.Canonical(f)
	tasks, err := c.gw.ListTasks(ctx, rawQuery)

	c.mu.Lock()
	if seq != c.loadSeq {
		// A newer load was initiated while this one was in flight.
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.emit(Event{Type: EventRolledBack, Op: OpLoad, Err: err})
		return err
	}
	query.Sort(tasks, f)
	c.tasks = tasks
	c.lastErr = nil
	for _, t := range tasks {
		if t.Status != models.StatusCompleted {
			c.prevStatus[t.ID] = t.Status
		}
	}
	c.mu.Unlock()
	c.emit(Event{Type: EventLoaded, Op: OpLoad})
	return nil
}

// --- Mutations ---

// requireSession fails a mutation before any optimistic change is
// applied when no session is active.
func (c *TaskCache) requireSession(op string) error {
	if c.auth != nil && c.auth.Token() == "" {
		return &api.Error{Kind: api.ErrUnauthenticated, Op: op, Detail: "no active session"}
	}
	return nil
}

// lockTask serializes mutations per task ID. The returned unlock must
// be called after the mutation settles (commit or rollback) so a
// second mutation on the same task waits instead of interleaving.
func (c *TaskCache) lockTask(id string) func() {
	c.mu.Lock()
	m, ok := c.locks[id]
	if !ok {
		m = &sync.Mutex{}
		c.locks[id] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Create inserts the draft optimistically under a temporary local ID,
// then adopts the server entity (and its server-assigned ID) on
// success or removes the temporary entry on failure.
func (c *TaskCache) Create(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	if err := c.requireSession("creating task"); err != nil {
		return nil, err
	}
	if draft.Title == "" {
		return nil, fmt.Errorf("creating task: title must not be empty")
	}
	if draft.Status == "" {
		draft.Status = models.StatusTodo
	}
	if draft.Priority == "" {
		draft.Priority = models.PriorityMedium
	}
	draft.Tags = query.NormalizeTags(draft.Tags)
	if draft.Tags == nil {
		draft.Tags = []string{}
	}

	tempID := "local-" + uuid.NewString()
	unlock := c.lockTask(tempID)
	defer unlock()

	optimistic := models.Task{
		ID:              tempID,
		Title:           draft.Title,
		Description:     draft.Description,
		Status:          draft.Status,
		Priority:        draft.Priority,
		DueDate:         draft.DueDate,
		Tags:            draft.Tags,
		Category:        draft.Category,
		ProjectID:       draft.ProjectID,
		EstimatedTime:   draft.EstimatedTime,
		ActualTimeSpent: draft.ActualTimeSpent,
	}

	c.mu.Lock()
	c.tasks = append(c.tasks, optimistic)
	query.Sort(c.tasks, c.filter)
	c.pending[tempID] = true
	c.mu.Unlock()
	c.emit(Event{Type: EventPending, Op: OpCreate, TaskID: tempID})

	created, err := c.gw.CreateTask(ctx, draft)

	c.mu.Lock()
	delete(c.pending, tempID)
	if err != nil {
		c.removeLocked(tempID)
		c.lastErr = err
		c.mu.Unlock()
		c.emit(Event{Type: EventRolledBack, Op: OpCreate, TaskID: tempID, Err: err})
		return nil, err
	}
	// Adopt the server entity. If a concurrent load already brought in
	// the server ID, drop the temporary row instead of duplicating it.
	c.removeLocked(tempID)
	c.removeLocked(created.ID)
	c.tasks = append(c.tasks, *created)
	query.Sort(c.tasks, c.filter)
	if created.Status != models.StatusCompleted {
		c.prevStatus[created.ID] = created.Status
	}
	c.lastErr = nil
	c.mu.Unlock()
	c.emit(Event{Type: EventCommitted, Op: OpCreate, TaskID: created.ID})

	out := *created
	return &out, nil
}

// Update applies the patch optimistically, then replaces the entry
// with the server-confirmed entity or restores the prior snapshot.
func (c *TaskCache) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := c.requireSession("updating task"); err != nil {
		return nil, err
	}
	unlock := c.lockTask(id)
	defer unlock()
	return c.update(ctx, OpUpdate, id, patch)
}

// ToggleComplete flips the task between completed and its last known
// non-completed status (todo when none is recorded), with the same
// optimistic and rollback behavior as Update.
func (c *TaskCache) ToggleComplete(ctx context.Context, id string) (*models.Task, error) {
	if err := c.requireSession("toggling task"); err != nil {
		return nil, err
	}
	unlock := c.lockTask(id)
	defer unlock()

	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("toggling task %s: not in cache", id)
	}
	var target models.TaskStatus
	if c.tasks[idx].Status == models.StatusCompleted {
		target = c.prevStatus[id]
		if target == "" || target == models.StatusCompleted {
			target = models.StatusTodo
		}
	} else {
		target = models.StatusCompleted
	}
	c.mu.Unlock()

	return c.update(ctx, OpToggle, id, models.TaskPatch{Status: &target})
}

// update runs the optimistic update cycle. The caller holds the
// per-task lock. The optimistic apply edits the entry in place without
// re-sorting, so a rollback restores the exact prior set.
func (c *TaskCache) update(ctx context.Context, op Op, id string, patch models.TaskPatch) (*models.Task, error) {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("updating task %s: not in cache", id)
	}
	snapshot := c.tasks[idx]
	c.tasks[idx] = patch.Apply(snapshot)
	c.pending[id] = true
	c.mu.Unlock()
	c.emit(Event{Type: EventPending, Op: op, TaskID: id})

	confirmed, err := c.gw.UpdateTask(ctx, id, patch)

	c.mu.Lock()
	delete(c.pending, id)
	if err != nil {
		if i := c.indexLocked(id); i >= 0 {
			c.tasks[i] = snapshot
		}
		c.lastErr = err
		c.mu.Unlock()
		c.emit(Event{Type: EventRolledBack, Op: op, TaskID: id, Err: err})
		return nil, err
	}
	if i := c.indexLocked(id); i >= 0 {
		c.tasks[i] = *confirmed
		query.Sort(c.tasks, c.filter)
	}
	if confirmed.Status == models.StatusCompleted {
		if snapshot.Status != models.StatusCompleted {
			c.prevStatus[id] = snapshot.Status
		}
	} else {
		c.prevStatus[id] = confirmed.Status
	}
	c.lastErr = nil
	c.mu.Unlock()
	c.emit(Event{Type: EventCommitted, Op: op, TaskID: id})

	out := *confirmed
	return &out, nil
}

// Delete removes the task optimistically and re-inserts it at its
// original position if the backend call fails. A 404 from the backend
// is treated as a failure requiring rollback; treating it as an
// already-deleted no-op is a product decision deliberately not taken
// here.
func (c *TaskCache) Delete(ctx context.Context, id string) error {
	if err := c.requireSession("deleting task"); err != nil {
		return err
	}
	unlock := c.lockTask(id)
	defer unlock()

	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("deleting task %s: not in cache", id)
	}
	snapshot := c.tasks[idx]
	c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
	c.pending[id] = true
	c.mu.Unlock()
	c.emit(Event{Type: EventPending, Op: OpDelete, TaskID: id})

	err := c.gw.DeleteTask(ctx, id)

	c.mu.Lock()
	delete(c.pending, id)
	if err != nil {
		pos := idx
		if pos > len(c.tasks) {
			pos = len(c.tasks)
		}
		c.tasks = append(c.tasks, models.Task{})
		copy(c.tasks[pos+1:], c.tasks[pos:])
		c.tasks[pos] = snapshot
		c.lastErr = err
		c.mu.Unlock()
		c.emit(Event{Type: EventRolledBack, Op: OpDelete, TaskID: id, Err: err})
		return err
	}
	delete(c.prevStatus, id)
	c.lastErr = nil
	c.mu.Unlock()
	c.emit(Event{Type: EventCommitted, Op: OpDelete, TaskID: id})
	return nil
}

// --- Internals ---

// indexLocked returns the position of id in the ordered set, or -1.
// Caller holds mu.
func (c *TaskCache) indexLocked(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// removeLocked drops id from the set if present. Caller holds mu.
func (c *TaskCache) removeLocked(id string) {
	if i := c.indexLocked(id); i >= 0 {
		c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	}
}
