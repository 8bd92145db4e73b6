// Package tui is the terminal surface of the board. It paints snapshots of
// the display model and turns key presses into controller gestures.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/controller"
	"github.com/thruflo/taskboard/internal/render"
)

// Board is the set of gestures the terminal drives; *controller.Controller
// implements it.
type Board interface {
	Board() render.Board
	Add(ctx context.Context, text string, status board.Status) (board.Task, error)
	Select(status board.Status)
	OpenEdit(id string) bool
	SaveEdit(ctx context.Context, text string) error
	CancelEdit()
	Delete(ctx context.Context, id string) bool
	ClearAll(ctx context.Context, confirm controller.Confirmer) bool
	DragStart(id string) error
	DragEnter(status board.Status)
	DragOver(status board.Status) bool
	DragLeave(status board.Status, inside bool)
	Drop(ctx context.Context, status board.Status) error
	DragEnd()
	Degraded() bool
}

// errQuit ends the event loop.
var errQuit = errors.New("quit")

// TUI manages the terminal user interface.
type TUI struct {
	terminal *Terminal
	out      io.Writer
	board    Board
	editor   *LineEditor

	mu     sync.Mutex
	vs     ViewState
	shakes [2]int // validation cues already played, per field
	width  int
	height int

	keys   chan KeyEvent
	redraw chan struct{}
}

// New creates a TUI reading keys from in and drawing to out.
func New(b Board, in *os.File, out io.Writer) *TUI {
	return &TUI{
		terminal: NewTerminal(in, out),
		out:      out,
		board:    b,
		editor:   NewLineEditor(),
		width:    100,
		height:   30,
		keys:     make(chan KeyEvent, 16),
		redraw:   make(chan struct{}, 1),
	}
}

// Invalidate asks the event loop for a redraw. Safe from any goroutine;
// wire it to render.Renderer.OnChange.
func (t *TUI) Invalidate() {
	select {
	case t.redraw <- struct{}{}:
	default:
	}
}

// State returns the terminal view state.
func (t *TUI) State() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vs
}

// Run enters raw mode and handles keys until the user quits or ctx ends.
func (t *TUI) Run(ctx context.Context) error {
	if !t.terminal.IsTerminal() {
		return fmt.Errorf("the board needs an interactive terminal")
	}
	if err := t.terminal.EnterRaw(); err != nil {
		return err
	}
	defer t.terminal.ExitRaw()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keyErr := make(chan error, 1)
	go t.readKeys(ctx, NewKeyReader(t.terminal), keyErr)

	t.draw()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-keyErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err

		case <-t.redraw:
			t.draw()

		case ev := <-t.keys:
			if err := t.HandleKey(ctx, ev); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
			t.draw()
		}
	}
}

func (t *TUI) readKeys(ctx context.Context, kr *KeyReader, errc chan<- error) {
	for {
		ev, err := kr.ReadKey()
		if err != nil {
			errc <- err
			return
		}
		select {
		case t.keys <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// HandleKey applies one key press.
func (t *TUI) HandleKey(ctx context.Context, ev KeyEvent) error {
	switch t.State().Mode {
	case ModeAdd:
		return t.handleAddKey(ctx, ev)
	case ModeEdit:
		return t.handleEditKey(ctx, ev)
	default:
		return t.handleBoardKey(ctx, ev)
	}
}

func (t *TUI) handleBoardKey(ctx context.Context, ev KeyEvent) error {
	cmd := ParseCommand(ev)
	if t.State().Carrying != "" {
		return t.handleCarryCommand(ctx, cmd)
	}

	switch cmd {
	case CmdQuit:
		return errQuit
	case CmdLeft:
		t.moveCursor(-1, 0)
	case CmdRight:
		t.moveCursor(1, 0)
	case CmdUp:
		t.moveCursor(0, -1)
	case CmdDown:
		t.moveCursor(0, 1)
	case CmdAdd:
		t.editor.Clear()
		t.setMode(ModeAdd)
		t.board.Select(t.currentStatus())
	case CmdEdit:
		if id := t.selectedID(); id != "" && t.board.OpenEdit(id) {
			t.editor.SetText(t.board.Board().Modal.Input.Value)
			t.setMode(ModeEdit)
		}
	case CmdDelete:
		if id := t.selectedID(); id != "" {
			t.board.Delete(ctx, id)
		}
	case CmdClear:
		t.board.ClearAll(ctx, controller.ConfirmFunc(func(prompt string) bool {
			return t.confirm(ctx, prompt)
		}))
		t.setMode(ModeBoard)
		t.clampCursor()
	case CmdCarry:
		t.pickUp()
	}
	return nil
}

// handleCarryCommand moves a picked-up card between columns. The pointer
// leaves one column and enters the next, like a mouse drag.
func (t *TUI) handleCarryCommand(ctx context.Context, cmd Command) error {
	vs := t.State()
	from := board.Statuses[vs.Pointer]

	switch cmd {
	case CmdLeft, CmdRight:
		next := vs.Pointer - 1
		if cmd == CmdRight {
			next = vs.Pointer + 1
		}
		if next < 0 || next >= len(board.Statuses) {
			return nil
		}
		to := board.Statuses[next]
		t.board.DragLeave(from, false)
		t.board.DragEnter(to)
		t.board.DragOver(to)
		t.mu.Lock()
		t.vs.Pointer = next
		t.mu.Unlock()

	case CmdCarry:
		if t.board.DragOver(from) {
			if err := t.board.Drop(ctx, from); err != nil {
				t.board.DragEnd()
				t.endCarry(vs.Col)
				return nil
			}
		}
		t.board.DragEnd()
		t.endCarry(vs.Pointer)
		t.selectCard(vs.Carrying)

	case CmdAbort:
		t.board.DragEnd()
		t.endCarry(vs.Col)

	case CmdQuit:
		t.board.DragEnd()
		t.endCarry(vs.Col)
		return errQuit
	}
	return nil
}

func (t *TUI) pickUp() {
	id := t.selectedID()
	if id == "" {
		return
	}
	if err := t.board.DragStart(id); err != nil {
		return
	}
	vs := t.State()
	status := board.Statuses[vs.Col]
	t.board.DragEnter(status)
	t.board.DragOver(status)

	t.mu.Lock()
	t.vs.Carrying = id
	t.vs.Pointer = vs.Col
	t.mu.Unlock()
}

func (t *TUI) endCarry(col int) {
	t.mu.Lock()
	t.vs.Carrying = ""
	t.vs.Col = col
	t.mu.Unlock()
	t.clampCursor()
}

func (t *TUI) handleAddKey(ctx context.Context, ev KeyEvent) error {
	switch ev.Key {
	case KeyCtrlC:
		return errQuit
	case KeyEscape:
		t.setMode(ModeBoard)
		return nil
	case KeyTab:
		b := t.board.Board()
		next := (b.Selected.Index() + 1) % len(board.Statuses)
		t.board.Select(board.Statuses[next])
		return nil
	}

	if !t.editor.HandleKey(ev) {
		t.syncInput(false)
		return nil
	}

	_, err := t.board.Add(ctx, t.editor.Text(), t.board.Board().Selected)
	if errors.Is(err, board.ErrEmptyText) {
		t.syncInput(t.cue(render.FieldAddInput))
		return nil
	}
	if err != nil {
		return err
	}
	t.editor.Clear()
	t.syncInput(false)
	return nil
}

func (t *TUI) handleEditKey(ctx context.Context, ev KeyEvent) error {
	switch ev.Key {
	case KeyCtrlC:
		t.board.CancelEdit()
		return errQuit
	case KeyEscape:
		t.board.CancelEdit()
		t.setMode(ModeBoard)
		return nil
	}

	if !t.editor.HandleKey(ev) {
		t.syncInput(false)
		return nil
	}

	err := t.board.SaveEdit(ctx, t.editor.Text())
	if errors.Is(err, board.ErrEmptyText) {
		t.syncInput(t.cue(render.FieldEditInput))
		return nil
	}
	t.setMode(ModeBoard)
	if err != nil && !errors.Is(err, board.ErrNotFound) {
		return err
	}
	return nil
}

// confirm shows prompt and blocks for the answer key.
func (t *TUI) confirm(ctx context.Context, prompt string) bool {
	t.mu.Lock()
	t.vs.Mode = ModeConfirm
	t.vs.Prompt = prompt
	t.mu.Unlock()
	t.draw()

	defer t.setMode(ModeBoard)
	select {
	case ev := <-t.keys:
		return ev.Key == KeyRune && (ev.Rune == 'y' || ev.Rune == 'Y')
	case <-ctx.Done():
		return false
	}
}

// cue reports whether a new validation shake happened on field and rings the
// bell for it.
func (t *TUI) cue(field render.FieldID) bool {
	b := t.board.Board()
	n := b.AddInput.Shakes
	if field == render.FieldEditInput {
		n = b.Modal.Input.Shakes
	}

	t.mu.Lock()
	fresh := n > t.shakes[field]
	t.shakes[field] = n
	t.mu.Unlock()

	if fresh {
		t.terminal.RingBell()
	}
	return fresh
}

func (t *TUI) syncInput(shake bool) {
	t.mu.Lock()
	t.vs.Input = t.editor.Text()
	t.vs.InputCursor = t.editor.Cursor()
	t.vs.Shake = shake
	t.mu.Unlock()
}

func (t *TUI) setMode(m Mode) {
	t.mu.Lock()
	t.vs.Mode = m
	t.vs.Shake = false
	t.vs.Prompt = ""
	t.vs.Input = t.editor.Text()
	t.vs.InputCursor = t.editor.Cursor()
	t.mu.Unlock()
}

func (t *TUI) currentStatus() board.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return board.Statuses[t.vs.Col]
}

func (t *TUI) selectedID() string {
	b := t.board.Board()
	t.mu.Lock()
	defer t.mu.Unlock()

	col := b.Columns[t.vs.Col]
	if t.vs.Row < 0 || t.vs.Row >= len(col.Cards) {
		return ""
	}
	card := col.Cards[t.vs.Row]
	if card.Classes.Has(render.ClassRemoving) {
		return ""
	}
	return card.ID
}

// selectCard puts the cursor on the card with id.
func (t *TUI) selectCard(id string) {
	b := t.board.Board()
	_, col, row := b.FindCard(id)
	if col == nil {
		return
	}
	t.mu.Lock()
	t.vs.Col = col.Status.Index()
	t.vs.Row = row
	t.mu.Unlock()
}

func (t *TUI) moveCursor(dc, dr int) {
	t.mu.Lock()
	t.vs.Col = min(max(t.vs.Col+dc, 0), len(board.Statuses)-1)
	t.vs.Row += dr
	t.mu.Unlock()
	t.clampCursor()
}

func (t *TUI) clampCursor() {
	b := t.board.Board()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(b.Columns[t.vs.Col].Cards)
	t.vs.Row = min(max(t.vs.Row, 0), max(n-1, 0))
}

// Frame renders the current screen without writing it.
func (t *TUI) Frame() string {
	b := t.board.Board()
	t.mu.Lock()
	vs := t.vs
	width := t.width
	t.mu.Unlock()
	vs.Degraded = t.board.Degraded()
	return RenderBoard(b, vs, width)
}

func (t *TUI) draw() {
	if w, h, err := t.terminal.Size(); err == nil {
		t.mu.Lock()
		t.width, t.height = w, h
		t.mu.Unlock()
	}
	frame := strings.ReplaceAll(t.Frame(), "\n", "\r\n")
	t.terminal.Write(ClearScreen + CursorHome + frame)
}
