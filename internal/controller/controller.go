// Package controller binds user gestures to the task store, persistence and
// the display model. Every gesture runs under one lock, so the board behaves
// like a single-threaded event loop regardless of which surface drives it.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/drag"
	"github.com/thruflo/taskboard/internal/logging"
	"github.com/thruflo/taskboard/internal/render"
	"github.com/thruflo/taskboard/internal/state"
)

// ClearPrompt is the question asked before deleting every task.
const ClearPrompt = "Are you sure you want to delete all tasks?"

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Options holds the controller's collaborators. Nil fields get defaults:
// an empty store, in-memory storage, a fresh renderer and the default logger.
type Options struct {
	Store    *board.Store
	Storage  *state.Storage
	Renderer *render.Renderer
	Logger   *logging.Logger
}

// Controller handles board gestures.
type Controller struct {
	mu       sync.Mutex
	store    *board.Store
	storage  *state.Storage
	renderer *render.Renderer
	machine  *drag.Machine
	log      *logging.Logger

	// readOnly is set when the saved board could not be read. Saving would
	// overwrite it with whatever this session holds.
	readOnly atomic.Bool
}

// New creates a Controller. Call Open before handling gestures.
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	c := &Controller{
		store:    opts.Store,
		storage:  opts.Storage,
		renderer: opts.Renderer,
		machine:  drag.New(),
		log:      log.With("component", "controller"),
	}
	if c.store == nil {
		c.store = board.NewStore()
	}
	if c.storage == nil {
		c.storage = state.NewStorage(state.NewMemoryBackend(), log)
	}
	if c.renderer == nil {
		c.renderer = render.New()
	}
	return c
}

// Open loads the saved board, seeding the defaults when there is none, and
// renders it.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.storage.Load(ctx)
	switch {
	case err == nil:
		c.store.Restore(snap.Tasks, snap.Counter)
		c.log.Debug("board loaded", "tasks", len(snap.Tasks), "counter", c.store.Counter())

	case errors.Is(err, state.ErrAbsent):
		c.store.Restore(board.Defaults(), board.DefaultCounter)
		c.persist(ctx)
		c.log.Debug("no saved board, seeded defaults")

	case errors.Is(err, state.ErrMalformed):
		c.log.Warn("saved board is malformed, reseeding defaults", "error", err)
		c.store.Restore(board.Defaults(), board.DefaultCounter)
		c.persist(ctx)

	default:
		// Storage is unreachable; Load already logged it. Keep whatever is
		// saved there untouched for the rest of the session.
		c.readOnly.Store(true)
		c.log.Warn("saved board unreadable, changes will not be saved", "error", err)
		c.store.Restore(board.Defaults(), board.DefaultCounter)
	}

	c.renderer.RenderAll(c.store.Tasks(), c.store)
	c.renderer.Focus(render.FieldAddInput)
	return nil
}

// Add creates a task from the add form. Empty text shakes the input and
// returns board.ErrEmptyText without touching the board.
func (c *Controller) Add(ctx context.Context, text string, status board.Status) (board.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.store.Add(text, status)
	if err != nil {
		if errors.Is(err, board.ErrEmptyText) {
			c.renderer.Shake(render.FieldAddInput)
		}
		return board.Task{}, err
	}

	c.persist(ctx)
	c.renderer.RenderOne(task)
	c.renderer.UpdateCounts(c.store)
	c.renderer.SetValue(render.FieldAddInput, "")
	c.renderer.Focus(render.FieldAddInput)
	return task, nil
}

// Select sets the status the add form will use.
func (c *Controller) Select(status board.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.Select(status)
}

// OpenEdit opens the edit modal for a task. Unknown ids are ignored.
func (c *Controller) OpenEdit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.store.Get(id)
	if !ok {
		return false
	}
	c.renderer.OpenModal(task.ID, task.Text)
	return true
}

// SaveEdit commits the modal's text. Empty text shakes the modal input and
// keeps it open.
func (c *Controller) SaveEdit(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.renderer.Snapshot().Modal.TaskID
	if id == "" {
		return nil
	}
	err := c.edit(ctx, id, text)
	if errors.Is(err, board.ErrEmptyText) {
		c.renderer.Shake(render.FieldEditInput)
		return err
	}
	// Saved, or the task vanished while the modal was open.
	c.renderer.CloseModal()
	return err
}

// Edit replaces a task's text directly, without the modal.
func (c *Controller) Edit(ctx context.Context, id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edit(ctx, id, text)
}

func (c *Controller) edit(ctx context.Context, id, text string) error {
	if err := c.store.Update(id, text); err != nil {
		return err
	}

	task, _ := c.store.Get(id)
	c.persist(ctx)
	c.renderer.UpdateCardText(id, task.Text)
	return nil
}

// CancelEdit closes the modal and discards its input.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.CloseModal()
}

// ClickBackdrop behaves like cancel.
func (c *Controller) ClickBackdrop() {
	c.CancelEdit()
}

// Delete removes a task and animates its card out. Unknown ids are ignored.
func (c *Controller) Delete(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(id); err != nil {
		return false
	}
	c.persist(ctx)
	c.renderer.RemoveCard(id, c.store)
	return true
}

// ClearAll deletes every task after confirmation and reports whether it did.
// An empty board asks nothing.
func (c *Controller) ClearAll(ctx context.Context, confirm Confirmer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Len() == 0 {
		return false
	}
	if confirm == nil || !confirm.Confirm(ClearPrompt) {
		return false
	}

	c.store.Clear()
	c.persist(ctx)
	c.renderer.RenderAll(c.store.Tasks(), c.store)
	return true
}

// Board returns a snapshot of the display.
func (c *Controller) Board() render.Board {
	return c.renderer.Snapshot()
}

// Renderer returns the display the controller draws into.
func (c *Controller) Renderer() *render.Renderer {
	return c.renderer
}

// Tasks returns the collection in insertion order.
func (c *Controller) Tasks() []board.Task {
	return c.store.Tasks()
}

// Counts returns the number of tasks per status.
func (c *Controller) Counts() map[board.Status]int {
	out := make(map[board.Status]int, len(board.Statuses))
	for _, st := range board.Statuses {
		out[st] = c.store.CountByStatus(st)
	}
	return out
}

// Degraded reports whether changes are not being saved: the last save
// failed, or the saved board could not be read at startup.
func (c *Controller) Degraded() bool {
	return c.readOnly.Load() || c.storage.Degraded()
}

// Close releases storage.
func (c *Controller) Close() error {
	return c.storage.Close()
}

// persist saves the whole board. Failures are logged by Storage and the
// session carries on in memory. Must be called with mu held.
func (c *Controller) persist(ctx context.Context) {
	if c.readOnly.Load() {
		return
	}
	tasks, counter := c.store.Snapshot()
	_ = c.storage.Save(ctx, tasks, counter)
}
