package render

import (
	"sync"
	"time"

	"github.com/thruflo/taskboard/internal/board"
)

// DefaultRemoveDelay is how long a deleted card animates before its node is
// removed.
const DefaultRemoveDelay = 200 * time.Millisecond

// Counter supplies per-column counts; *board.Store satisfies it.
type Counter interface {
	CountByStatus(status board.Status) int
}

// Scheduler runs f after d. The default is time.AfterFunc.
type Scheduler func(d time.Duration, f func())

// Option configures a Renderer.
type Option func(*Renderer)

// WithRemoveDelay overrides the delete animation delay.
func WithRemoveDelay(d time.Duration) Option {
	return func(r *Renderer) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithScheduler overrides how delayed removals are scheduled.
func WithScheduler(s Scheduler) Option {
	return func(r *Renderer) {
		if s != nil {
			r.after = s
		}
	}
}

// Renderer owns the display model. It is safe for concurrent use because
// delayed removals fire on timer goroutines.
type Renderer struct {
	mu       sync.Mutex
	board    *Board
	delay    time.Duration
	after    Scheduler
	onChange []func()
}

// New creates a Renderer with empty columns.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		board: newBoard(),
		delay: DefaultRemoveDelay,
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn to be called after every display change.
func (r *Renderer) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

// Snapshot returns a deep copy of the display model.
func (r *Renderer) Snapshot() Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.clone()
}

// RenderAll clears every column and rebuilds one card per task in collection
// order, then refreshes counts.
func (r *Renderer) RenderAll(tasks []board.Task, counts Counter) {
	r.update(func(b *Board) {
		for _, col := range b.Columns {
			col.Cards = nil
		}
		for _, t := range tasks {
			appendCard(b, t)
		}
		writeCounts(b, counts)
	})
}

// RenderOne appends a card for a newly created task.
func (r *Renderer) RenderOne(task board.Task) {
	r.update(func(b *Board) {
		appendCard(b, task)
	})
}

// UpdateCounts writes the live count of each status into its column.
func (r *Renderer) UpdateCounts(counts Counter) {
	r.update(func(b *Board) {
		writeCounts(b, counts)
	})
}

// UpdateCardText replaces a card's text in place.
func (r *Renderer) UpdateCardText(id, text string) {
	r.update(func(b *Board) {
		if card, _, _ := b.FindCard(id); card != nil {
			card.Text = text
		}
	})
}

// MoveCard relocates a card node to the end of the target column.
func (r *Renderer) MoveCard(id string, status board.Status) {
	r.update(func(b *Board) {
		card, from, i := b.FindCard(id)
		to := b.Column(status)
		if card == nil || to == nil {
			return
		}
		from.Cards = append(from.Cards[:i:i], from.Cards[i+1:]...)
		to.Cards = append(to.Cards, card)
	})
}

// RemoveCard starts the delete animation and removes the node once the delay
// has passed, then refreshes counts.
func (r *Renderer) RemoveCard(id string, counts Counter) {
	found := false
	r.update(func(b *Board) {
		if card, _, _ := b.FindCard(id); card != nil {
			card.Classes.Add(ClassRemoving)
			found = true
		}
	})
	if !found {
		return
	}

	r.mu.Lock()
	delay, after := r.delay, r.after
	r.mu.Unlock()

	after(delay, func() {
		r.update(func(b *Board) {
			if _, col, i := b.FindCard(id); col != nil {
				col.Cards = append(col.Cards[:i:i], col.Cards[i+1:]...)
			}
			writeCounts(b, counts)
		})
	})
}

// SetDragging toggles the dragging class on a card.
func (r *Renderer) SetDragging(id string, on bool) {
	r.update(func(b *Board) {
		if card, _, _ := b.FindCard(id); card != nil {
			toggle(&card.Classes, ClassDragging, on)
		}
	})
}

// SetOver toggles the drop-target highlight on a column.
func (r *Renderer) SetOver(status board.Status, on bool) {
	r.update(func(b *Board) {
		if col := b.Column(status); col != nil {
			toggle(&col.Classes, ClassOver, on)
		}
	})
}

// ClearOver removes stale highlights from every column.
func (r *Renderer) ClearOver() {
	r.update(func(b *Board) {
		for _, col := range b.Columns {
			col.Classes.Remove(ClassOver)
		}
	})
}

// OpenModal shows the edit dialog pre-filled with text.
func (r *Renderer) OpenModal(id, text string) {
	r.update(func(b *Board) {
		b.Modal.TaskID = id
		b.Modal.Input.Value = text
		b.Modal.Input.Focused = true
		b.Modal.Classes.Add(ClassActive)
		b.AddInput.Focused = false
	})
}

// CloseModal hides the edit dialog and discards its input.
func (r *Renderer) CloseModal() {
	r.update(func(b *Board) {
		b.Modal.TaskID = ""
		b.Modal.Input.Value = ""
		b.Modal.Input.Focused = false
		b.Modal.Classes.Remove(ClassActive)
	})
}

// Shake plays the validation cue on a field and keeps it focused.
func (r *Renderer) Shake(id FieldID) {
	r.update(func(b *Board) {
		f := b.field(id)
		f.Shakes++
		f.Focused = true
	})
}

// Focus moves focus to a field.
func (r *Renderer) Focus(id FieldID) {
	r.update(func(b *Board) {
		b.AddInput.Focused = false
		b.Modal.Input.Focused = false
		b.field(id).Focused = true
	})
}

// Blur removes focus from every field.
func (r *Renderer) Blur() {
	r.update(func(b *Board) {
		b.AddInput.Focused = false
		b.Modal.Input.Focused = false
	})
}

// SetValue writes a field's text.
func (r *Renderer) SetValue(id FieldID, value string) {
	r.update(func(b *Board) {
		b.field(id).Value = value
	})
}

// Select sets the add form's status selector.
func (r *Renderer) Select(status board.Status) {
	r.update(func(b *Board) {
		b.Selected = status
	})
}

func (r *Renderer) update(fn func(b *Board)) {
	r.mu.Lock()
	fn(r.board)
	hooks := append([]func(){}, r.onChange...)
	r.mu.Unlock()

	for _, h := range hooks {
		h()
	}
}

func appendCard(b *Board, t board.Task) {
	col := b.Column(t.Status)
	if col == nil {
		return
	}
	col.Cards = append(col.Cards, &Card{ID: t.ID, Text: t.Text})
}

func writeCounts(b *Board, counts Counter) {
	if counts == nil {
		return
	}
	for _, col := range b.Columns {
		col.Count = counts.CountByStatus(col.Status)
	}
}

func toggle(c *ClassList, name string, on bool) {
	if on {
		c.Add(name)
	} else {
		c.Remove(name)
	}
}
