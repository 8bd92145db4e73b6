package tui

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Key represents a keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
	KeyCtrlD
	KeyRune // Regular character
)

// KeyEvent represents a key press event.
type KeyEvent struct {
	Key  Key
	Rune rune // Only valid when Key == KeyRune
}

// KeyReader reads keyboard input from a raw terminal.
type KeyReader struct {
	reader *bufio.Reader
}

// NewKeyReader creates a KeyReader from the given io.Reader.
// The reader should be a raw terminal input (e.g., os.Stdin after term.MakeRaw).
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{
		reader: bufio.NewReaderSize(r, 64),
	}
}

// ReadKey reads a single key event from the input.
// This method blocks until a key is pressed.
func (k *KeyReader) ReadKey() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}

	switch b {
	case 0x03: // Ctrl+C
		return KeyEvent{Key: KeyCtrlC}, nil
	case 0x04: // Ctrl+D
		return KeyEvent{Key: KeyCtrlD}, nil
	case 0x09:
		return KeyEvent{Key: KeyTab}, nil
	case 0x0D, 0x0A:
		return KeyEvent{Key: KeyEnter}, nil
	case 0x7F, 0x08: // DEL or BS
		return KeyEvent{Key: KeyBackspace}, nil
	case 0x1B:
		return k.readEscapeSequence()
	default:
		if b >= 0x20 && b < 0x7F {
			return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
		}
		if b >= 0xC0 {
			return k.readUTF8(b)
		}
		return KeyEvent{Key: KeyUnknown}, nil
	}
}

// readEscapeSequence tells a bare Escape from an arrow key. Terminals write a
// whole sequence at once, so an Escape with nothing buffered behind it is the
// key itself.
func (k *KeyReader) readEscapeSequence() (KeyEvent, error) {
	if k.reader.Buffered() == 0 {
		return KeyEvent{Key: KeyEscape}, nil
	}

	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEscape}, nil
	}
	if b != '[' && b != 'O' {
		_ = k.reader.UnreadByte()
		return KeyEvent{Key: KeyEscape}, nil
	}
	return k.parseCSI()
}

// parseCSI parses a CSI or SS3 sequence after its introducer.
func (k *KeyReader) parseCSI() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEscape}, nil
	}

	switch b {
	case 'A':
		return KeyEvent{Key: KeyUp}, nil
	case 'B':
		return KeyEvent{Key: KeyDown}, nil
	case 'C':
		return KeyEvent{Key: KeyRight}, nil
	case 'D':
		return KeyEvent{Key: KeyLeft}, nil
	default:
		// Unknown sequence, consume up to its final byte.
		next := b
		for !isFinalByte(next) && k.reader.Buffered() > 0 {
			next, _ = k.reader.ReadByte()
		}
		return KeyEvent{Key: KeyUnknown}, nil
	}
}

func isFinalByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~'
}

// readUTF8 reads a multi-byte UTF-8 character.
func (k *KeyReader) readUTF8(first byte) (KeyEvent, error) {
	var buf [4]byte
	buf[0] = first

	var n int
	switch {
	case first&0xE0 == 0xC0:
		n = 2
	case first&0xF0 == 0xE0:
		n = 3
	case first&0xF8 == 0xF0:
		n = 4
	default:
		return KeyEvent{Key: KeyUnknown}, nil
	}

	for i := 1; i < n; i++ {
		b, err := k.reader.ReadByte()
		if err != nil {
			return KeyEvent{Key: KeyUnknown}, err
		}
		buf[i] = b
	}

	r, _ := utf8.DecodeRune(buf[:n])
	if r == utf8.RuneError {
		return KeyEvent{Key: KeyUnknown}, nil
	}

	return KeyEvent{Key: KeyRune, Rune: r}, nil
}

// Command is a board gesture bound to a key.
type Command int

const (
	CmdNone  Command = iota
	CmdLeft          // ← previous column
	CmdRight         // → next column
	CmdUp            // ↑ previous card
	CmdDown          // ↓ next card
	CmdAdd           // 'a' focus the add form
	CmdEdit          // 'e' edit selected card
	CmdDelete        // 'x' delete selected card
	CmdClear         // 'C' clear all
	CmdCarry         // space pick up / drop
	CmdAbort         // esc
	CmdQuit          // 'q' or ctrl+c
)

// String returns the string representation of the command.
func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdLeft:
		return "left"
	case CmdRight:
		return "right"
	case CmdUp:
		return "up"
	case CmdDown:
		return "down"
	case CmdAdd:
		return "add"
	case CmdEdit:
		return "edit"
	case CmdDelete:
		return "delete"
	case CmdClear:
		return "clear"
	case CmdCarry:
		return "carry"
	case CmdAbort:
		return "abort"
	case CmdQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// ParseCommand maps a key on the board to a Command.
func ParseCommand(ev KeyEvent) Command {
	switch ev.Key {
	case KeyLeft:
		return CmdLeft
	case KeyRight:
		return CmdRight
	case KeyUp:
		return CmdUp
	case KeyDown:
		return CmdDown
	case KeyEscape:
		return CmdAbort
	case KeyCtrlC, KeyCtrlD:
		return CmdQuit
	case KeyEnter:
		return CmdEdit
	case KeyRune:
		switch ev.Rune {
		case 'h':
			return CmdLeft
		case 'l':
			return CmdRight
		case 'k':
			return CmdUp
		case 'j':
			return CmdDown
		case 'a', 'n':
			return CmdAdd
		case 'e':
			return CmdEdit
		case 'x', 'd':
			return CmdDelete
		case 'C':
			return CmdClear
		case ' ', 'm':
			return CmdCarry
		case 'q':
			return CmdQuit
		}
	}
	return CmdNone
}

// LineEditor handles single-line text input for the add form and the edit
// modal.
type LineEditor struct {
	buffer []rune
	cursor int
}

// NewLineEditor creates an empty LineEditor.
func NewLineEditor() *LineEditor {
	return &LineEditor{
		buffer: make([]rune, 0, 256),
	}
}

// HandleKey processes a key event and updates the line buffer.
// Returns true if Enter was pressed (line complete), false otherwise.
func (e *LineEditor) HandleKey(ev KeyEvent) bool {
	switch ev.Key {
	case KeyEnter:
		return true
	case KeyBackspace:
		if e.cursor > 0 {
			copy(e.buffer[e.cursor-1:], e.buffer[e.cursor:])
			e.buffer = e.buffer[:len(e.buffer)-1]
			e.cursor--
		}
	case KeyLeft:
		if e.cursor > 0 {
			e.cursor--
		}
	case KeyRight:
		if e.cursor < len(e.buffer) {
			e.cursor++
		}
	case KeyRune:
		e.buffer = append(e.buffer, 0)
		copy(e.buffer[e.cursor+1:], e.buffer[e.cursor:])
		e.buffer[e.cursor] = ev.Rune
		e.cursor++
	}
	return false
}

// SetText replaces the buffer and puts the cursor at the end.
func (e *LineEditor) SetText(s string) {
	e.buffer = append(e.buffer[:0], []rune(s)...)
	e.cursor = len(e.buffer)
}

// Text returns the current line content.
func (e *LineEditor) Text() string {
	return string(e.buffer)
}

// Clear resets the line editor.
func (e *LineEditor) Clear() {
	e.buffer = e.buffer[:0]
	e.cursor = 0
}

// Cursor returns the current cursor position.
func (e *LineEditor) Cursor() int {
	return e.cursor
}

// Len returns the length of the current buffer.
func (e *LineEditor) Len() int {
	return len(e.buffer)
}
