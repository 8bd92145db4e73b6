// Package render projects the task store onto a display model: three column
// containers of cards, per-column counts, the add form and the edit modal.
// Surfaces (the terminal board and the web page) paint snapshots of this
// model; none of them hold task data of their own.
package render

import (
	"slices"

	"github.com/thruflo/taskboard/internal/board"
)

// CSS-style state classes carried by display nodes.
const (
	ClassDragging = "dragging" // card being dragged
	ClassOver     = "over"     // column under the pointer
	ClassActive   = "active"   // open modal
	ClassRemoving = "removing" // card shrinking out after delete
)

// ClassList is an ordered set of class names.
type ClassList []string

// Has reports whether name is present.
func (c ClassList) Has(name string) bool {
	return slices.Contains(c, name)
}

// Add inserts name if absent.
func (c *ClassList) Add(name string) {
	if !c.Has(name) {
		*c = append(*c, name)
	}
}

// Remove deletes name if present.
func (c *ClassList) Remove(name string) {
	*c = slices.DeleteFunc(*c, func(s string) bool { return s == name })
}

// String joins the classes with spaces, like a class attribute.
func (c ClassList) String() string {
	out := ""
	for i, s := range c {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

// Card is the display node for one task. Text is raw; surfaces escape it.
type Card struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	Classes ClassList `json:"classes"`
}

// Column is the container for one status.
type Column struct {
	Status  board.Status `json:"status"`
	Title   string       `json:"title"`
	Count   int          `json:"count"`
	Cards   []*Card      `json:"cards"`
	Classes ClassList    `json:"classes"`
}

// FieldID identifies an input field.
type FieldID int

const (
	FieldAddInput FieldID = iota
	FieldEditInput
)

// Field is a text input. Shakes counts validation cues so a surface can tell
// a new cue from one it already played.
type Field struct {
	Value   string `json:"value"`
	Focused bool   `json:"focused"`
	Shakes  int    `json:"shakes"`
}

// Modal is the edit dialog.
type Modal struct {
	TaskID  string    `json:"taskId,omitempty"`
	Input   Field     `json:"input"`
	Classes ClassList `json:"classes"`
}

// Active reports whether the modal is open.
func (m Modal) Active() bool {
	return m.Classes.Has(ClassActive)
}

// Board is the whole display.
type Board struct {
	Columns  []*Column    `json:"columns"`
	AddInput Field        `json:"addInput"`
	Selected board.Status `json:"selected"`
	Modal    Modal        `json:"modal"`
}

// newBoard creates an empty board with one column per status.
func newBoard() *Board {
	b := &Board{Selected: board.StatusTodo}
	for _, st := range board.Statuses {
		b.Columns = append(b.Columns, &Column{Status: st, Title: st.Title()})
	}
	return b
}

// Column returns the container for status, or nil.
func (b Board) Column(status board.Status) *Column {
	for _, c := range b.Columns {
		if c.Status == status {
			return c
		}
	}
	return nil
}

// FindCard locates a card and the column holding it.
func (b Board) FindCard(id string) (*Card, *Column, int) {
	for _, col := range b.Columns {
		for i, card := range col.Cards {
			if card.ID == id {
				return card, col, i
			}
		}
	}
	return nil, nil, -1
}

// field returns the field for id.
func (b *Board) field(id FieldID) *Field {
	if id == FieldEditInput {
		return &b.Modal.Input
	}
	return &b.AddInput
}

// clone returns a deep copy.
func (b *Board) clone() Board {
	out := Board{
		AddInput: b.AddInput,
		Selected: b.Selected,
		Modal: Modal{
			TaskID:  b.Modal.TaskID,
			Input:   b.Modal.Input,
			Classes: slices.Clone(b.Modal.Classes),
		},
	}
	for _, col := range b.Columns {
		c := &Column{
			Status:  col.Status,
			Title:   col.Title,
			Count:   col.Count,
			Classes: slices.Clone(col.Classes),
			Cards:   make([]*Card, 0, len(col.Cards)),
		}
		for _, card := range col.Cards {
			c.Cards = append(c.Cards, &Card{
				ID:      card.ID,
				Text:    card.Text,
				Classes: slices.Clone(card.Classes),
			})
		}
		out.Columns = append(out.Columns, c)
	}
	return out
}
