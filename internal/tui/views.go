package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/render"
)

// Mode is what the keyboard is currently driving.
type Mode int

const (
	ModeBoard   Mode = iota // moving around the columns
	ModeAdd                 // typing into the add form
	ModeEdit                // typing into the edit modal
	ModeConfirm             // answering the clear-all question
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBoard:
		return "board"
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	case ModeConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// ViewState is the terminal-only state layered over the display model.
type ViewState struct {
	Mode        Mode
	Col, Row    int
	Pointer     int // column under the carried card
	Carrying    string
	Input       string
	InputCursor int
	Prompt      string
	Shake       bool
	Degraded    bool
}

var (
	colorAccent = lipgloss.Color("62")
	colorMuted  = lipgloss.Color("243")
	colorError  = lipgloss.Color("9")
	colorWarn   = lipgloss.Color("11")

	headerStyle   = lipgloss.NewStyle().Bold(true)
	countStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	draggingStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	removingStyle = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	shakeStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
)

const minColumnWidth = 18

// ColumnWidth returns the outer width of one column for a terminal width.
func ColumnWidth(width int) int {
	w := (width - 2) / len(board.Statuses)
	if w < minColumnWidth {
		w = minColumnWidth
	}
	return w
}

// RenderBoard paints the display model and terminal state into a frame.
func RenderBoard(b render.Board, vs ViewState, width int) string {
	colW := ColumnWidth(width)

	cols := make([]string, 0, len(b.Columns))
	for i, col := range b.Columns {
		if i > 0 {
			cols = append(cols, " ")
		}
		cols = append(cols, renderColumn(col, i, vs, colW))
	}

	sections := []string{
		headerStyle.Render("Task Board"),
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		renderAddForm(b, vs),
	}

	if b.Modal.Active() {
		sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, renderModal(b, vs, colW*2)))
	}
	if vs.Mode == ModeConfirm {
		sections = append(sections, warnStyle.Render(vs.Prompt+" [y/N]"))
	}
	if vs.Degraded {
		sections = append(sections, errorStyle.Render("storage unavailable: changes are kept in memory only"))
	}
	sections = append(sections, helpStyle.Render(helpText(vs)))

	return strings.Join(sections, "\n")
}

func renderColumn(col *render.Column, idx int, vs ViewState, width int) string {
	inner := width - 4

	header := headerStyle.Render(Truncate(col.Title, inner-4)) + " " + countStyle.Render(fmt.Sprintf("%d", col.Count))
	lines := []string{header}
	if vs.Carrying != "" && vs.Pointer == idx {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorAccent).Render("▼ drop here"))
	} else {
		lines = append(lines, "")
	}

	for row, card := range col.Cards {
		selected := vs.Mode == ModeBoard && vs.Carrying == "" && vs.Col == idx && vs.Row == row
		lines = append(lines, renderCard(card, selected, inner)...)
	}
	if len(col.Cards) == 0 {
		lines = append(lines, helpStyle.Render("no tasks"))
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(width-2).
		Padding(0, 1)
	if col.Classes.Has(render.ClassOver) {
		style = style.BorderForeground(colorAccent)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func renderCard(card *render.Card, selected bool, width int) []string {
	style := lipgloss.NewStyle()
	marker := "• "
	switch {
	case card.Classes.Has(render.ClassRemoving):
		style = removingStyle
	case card.Classes.Has(render.ClassDragging):
		style = draggingStyle
		marker = "⇢ "
	case selected:
		style = selectedStyle
		marker = "› "
	}

	wrapped := WrapText(Sanitize(card.Text), width-2)
	if len(wrapped) == 0 {
		wrapped = []string{""}
	}
	out := make([]string, 0, len(wrapped))
	for i, line := range wrapped {
		prefix := "  "
		if i == 0 {
			prefix = marker
		}
		out = append(out, style.Render(prefix+PadOrTruncate(line, width-2)))
	}
	return out
}

func renderAddForm(b render.Board, vs ViewState) string {
	label := fmt.Sprintf("Add to [%s]: ", b.Selected.Title())
	text := Sanitize(b.AddInput.Value)
	if vs.Mode == ModeAdd {
		text = withCursor(vs.Input, vs.InputCursor)
	}
	line := label + text
	if vs.Mode == ModeAdd && vs.Shake {
		return shakeStyle.Render(label) + text + shakeStyle.Render("  task text is required")
	}
	if vs.Mode != ModeAdd {
		return helpStyle.Render(line)
	}
	return line
}

func renderModal(b render.Board, vs ViewState, width int) string {
	input := Sanitize(b.Modal.Input.Value)
	if vs.Mode == ModeEdit {
		input = withCursor(vs.Input, vs.InputCursor)
	}

	lines := []string{
		headerStyle.Render("Edit task"),
		"",
		"> " + input,
	}
	if vs.Mode == ModeEdit && vs.Shake {
		lines = append(lines, shakeStyle.Render("task text is required"))
	}
	lines = append(lines, "", helpStyle.Render("enter save · esc cancel"))

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Width(width).
		Padding(0, 1)
	if vs.Shake {
		style = style.BorderForeground(colorError)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// withCursor sanitizes s and marks the cursor position.
func withCursor(s string, cursor int) string {
	r := []rune(s)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(r) {
		cursor = len(r)
	}
	at := " "
	rest := ""
	if cursor < len(r) {
		at = string(r[cursor])
		rest = string(r[cursor+1:])
	}
	return Sanitize(string(r[:cursor])) + cursorStyle.Render(Sanitize(at)) + Sanitize(rest)
}

func helpText(vs ViewState) string {
	switch {
	case vs.Carrying != "":
		return "←/→ choose column · space drop · esc cancel"
	case vs.Mode == ModeAdd:
		return "type a task · tab change column · enter add · esc done"
	case vs.Mode == ModeEdit:
		return "enter save · esc cancel"
	case vs.Mode == ModeConfirm:
		return "y confirm · any other key cancels"
	default:
		return "←/→ column · ↑/↓ card · a add · e edit · x delete · space move · C clear all · q quit"
	}
}
