// Package drag implements drag-and-drop reassignment of a single card as an
// explicit two-state machine. It knows nothing about any display surface:
// events come in typed, and the machine answers with Effects for the caller to
// apply.
package drag

import (
	"errors"
	"fmt"

	"github.com/thruflo/taskboard/internal/board"
)

// State is the machine state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyDragging is returned for a Start while a card is in flight.
	ErrAlreadyDragging = errors.New("drag already in progress")
	// ErrNotDragging is returned for a Drop with no card in flight.
	ErrNotDragging = errors.New("no drag in progress")
)

// Event is an input to the machine.
type Event interface {
	isEvent()
}

// Start begins dragging the card for TaskID.
type Start struct{ TaskID string }

// Enter reports the pointer entering a column.
type Enter struct{ Zone board.Status }

// Over reports the pointer moving within a column.
type Over struct{ Zone board.Status }

// Leave reports the pointer leaving a column element. Inside is true when the
// pointer is still within the column's bounds (it moved onto a child).
type Leave struct {
	Zone   board.Status
	Inside bool
}

// Drop releases the card over a column.
type Drop struct{ Zone board.Status }

// End finishes the gesture, whether or not a drop happened.
type End struct{}

func (Start) isEvent() {}
func (Enter) isEvent() {}
func (Over) isEvent()  {}
func (Leave) isEvent() {}
func (Drop) isEvent()  {}
func (End) isEvent()   {}

// EffectKind says what the caller should do.
type EffectKind int

const (
	MarkDragging EffectKind = iota
	ClearDragging
	Highlight
	Unhighlight
	ClearAllHighlights
	MoveTask
)

func (k EffectKind) String() string {
	switch k {
	case MarkDragging:
		return "mark_dragging"
	case ClearDragging:
		return "clear_dragging"
	case Highlight:
		return "highlight"
	case Unhighlight:
		return "unhighlight"
	case ClearAllHighlights:
		return "clear_all_highlights"
	case MoveTask:
		return "move_task"
	default:
		return "unknown"
	}
}

// Effect is one instruction produced by a transition.
type Effect struct {
	Kind   EffectKind
	TaskID string
	Zone   board.Status
}

// Result is the outcome of handling one event.
type Result struct {
	From, To State
	Effects  []Effect
	// PreventDefault is set for Over events while dragging, signalling the
	// surface to accept the drop.
	PreventDefault bool
}

// Machine tracks a single dragged card.
type Machine struct {
	state  State
	taskID string
	// lastID is the card of the most recent gesture; End clears its
	// dragging mark even after a Drop already returned the machine to Idle.
	lastID string
}

// New returns a machine in the Idle state.
func New() *Machine {
	return &Machine{}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// TaskID returns the dragged card, or "" when idle.
func (m *Machine) TaskID() string { return m.taskID }

// Handle applies one event.
func (m *Machine) Handle(ev Event) (Result, error) {
	res := Result{From: m.state}

	switch e := ev.(type) {
	case Start:
		if m.state == Dragging {
			res.To = m.state
			return res, fmt.Errorf("%w: %s", ErrAlreadyDragging, m.taskID)
		}
		m.state = Dragging
		m.taskID = e.TaskID
		m.lastID = e.TaskID
		res.Effects = []Effect{{Kind: MarkDragging, TaskID: e.TaskID}}

	case Enter:
		if m.state == Dragging {
			res.Effects = []Effect{{Kind: Highlight, Zone: e.Zone}}
		}

	case Over:
		if m.state == Dragging {
			res.PreventDefault = true
			res.Effects = []Effect{{Kind: Highlight, Zone: e.Zone}}
		}

	case Leave:
		if !e.Inside {
			res.Effects = []Effect{{Kind: Unhighlight, Zone: e.Zone}}
		}

	case Drop:
		if m.state != Dragging {
			res.To = m.state
			return res, ErrNotDragging
		}
		res.Effects = []Effect{
			{Kind: MoveTask, TaskID: m.taskID, Zone: e.Zone},
			{Kind: Unhighlight, Zone: e.Zone},
		}
		m.state = Idle
		m.taskID = ""

	case End:
		if m.lastID != "" {
			res.Effects = append(res.Effects, Effect{Kind: ClearDragging, TaskID: m.lastID})
		}
		res.Effects = append(res.Effects, Effect{Kind: ClearAllHighlights})
		m.state = Idle
		m.taskID = ""
		m.lastID = ""

	default:
		return res, fmt.Errorf("unknown drag event %T", ev)
	}

	res.To = m.state
	return res, nil
}
