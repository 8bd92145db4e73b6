package controller

import (
	"context"
	"errors"

	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/drag"
)

// DragStart picks up a card. Unknown ids are ignored.
func (c *Controller) DragStart(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.store.Get(id); !ok {
		return nil
	}
	_, err := c.handle(context.Background(), drag.Start{TaskID: id})
	return err
}

// DragEnter highlights the column under the pointer.
func (c *Controller) DragEnter(status board.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.handle(context.Background(), drag.Enter{Zone: status})
}

// DragOver keeps the column highlighted and reports whether the surface
// should accept a drop there.
func (c *Controller) DragOver(status board.Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, _ := c.handle(context.Background(), drag.Over{Zone: status})
	return res.PreventDefault
}

// DragLeave clears the highlight unless the pointer is still inside the
// column's bounds.
func (c *Controller) DragLeave(status board.Status, inside bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.handle(context.Background(), drag.Leave{Zone: status, Inside: inside})
}

// Drop moves the dragged card into status.
func (c *Controller) Drop(ctx context.Context, status board.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.handle(ctx, drag.Drop{Zone: status})
	return err
}

// DragEnd finishes the gesture, dropped or not.
func (c *Controller) DragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.handle(context.Background(), drag.End{})
}

// Dragging returns the card in flight, or "".
func (c *Controller) Dragging() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.TaskID()
}

// Move runs a whole drag gesture for one card: pick up, enter the target
// column, drop and end.
func (c *Controller) Move(ctx context.Context, id string, status board.Status) error {
	if !status.Valid() {
		return board.ErrInvalidStatus
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.store.Get(id); !ok {
		return board.ErrNotFound
	}
	if c.machine.State() == drag.Dragging {
		// A pointer gesture is in flight; abandon it.
		_, _ = c.handle(ctx, drag.End{})
	}

	for _, ev := range []drag.Event{
		drag.Start{TaskID: id},
		drag.Enter{Zone: status},
		drag.Drop{Zone: status},
		drag.End{},
	} {
		if _, err := c.handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// handle feeds one event to the machine and applies its effects.
// Must be called with mu held.
func (c *Controller) handle(ctx context.Context, ev drag.Event) (drag.Result, error) {
	res, err := c.machine.Handle(ev)
	if err != nil {
		c.log.Debug("drag event rejected", "event", ev, "error", err)
		return res, err
	}

	for _, eff := range res.Effects {
		switch eff.Kind {
		case drag.MarkDragging:
			c.renderer.SetDragging(eff.TaskID, true)
		case drag.ClearDragging:
			c.renderer.SetDragging(eff.TaskID, false)
		case drag.Highlight:
			c.renderer.SetOver(eff.Zone, true)
		case drag.Unhighlight:
			c.renderer.SetOver(eff.Zone, false)
		case drag.ClearAllHighlights:
			c.renderer.ClearOver()
		case drag.MoveTask:
			c.moveTask(ctx, eff.TaskID, eff.Zone)
		}
	}
	return res, nil
}

func (c *Controller) moveTask(ctx context.Context, id string, status board.Status) {
	if err := c.store.Move(id, status); err != nil {
		if !errors.Is(err, board.ErrNotFound) {
			c.log.Warn("move rejected", "task", id, "status", status, "error", err)
		}
		return
	}
	c.persist(ctx)
	c.renderer.MoveCard(id, status)
	c.renderer.UpdateCounts(c.store)
}
