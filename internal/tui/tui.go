// Package tui implements the interactive profile picker.
package tui

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/displaysnap/internal/engine"
	"github.com/1broseidon/displaysnap/internal/profile"
)

type uiMode int

const (
	modeList uiMode = iota
	modeSaveName      // typing a profile name for save
	modeConfirmDelete // awaiting y/n
)

// TUI represents the terminal user interface state.
type TUI struct {
	eng  *engine.Engine
	opts engine.ApplyOptions

	// UI state
	profiles      []string
	selected      *profile.Profile // loaded copy of the highlighted profile
	selectedIndex int
	mode          uiMode
	nameBuf       []byte // save-name input buffer
	statusMsg     string
	lastError     string
	fatalErr      error

	// Terminal state
	oldState *term.State
	width    int
	height   int
}

// New creates a new TUI instance.
func New(eng *engine.Engine, opts engine.ApplyOptions) *TUI {
	return &TUI{eng: eng, opts: opts}
}

// Run starts the TUI main loop.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	// Enter raw mode
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t.oldState = oldState
	defer t.restore()

	t.updateSize()

	// Initial profile list (non-fatal; shown inline)
	_ = t.reload()

	t.render()

	// Main event loop
	buf := make([]byte, 32)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}

		if t.handleInput(buf[:n]) {
			break
		}

		t.render()
	}

	if t.fatalErr != nil {
		return t.fatalErr
	}
	return nil
}

func (t *TUI) restore() {
	if t.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), t.oldState)
	}
	// Clear screen and show cursor on exit
	fmt.Print("\x1b[0m")   // reset
	fmt.Print("\x1b[?25h") // show cursor
	fmt.Print("\x1b[2J")   // clear screen
	fmt.Print("\x1b[H")    // home cursor
}

func (t *TUI) updateSize() {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		t.width = 80
		t.height = 24
		return
	}
	t.width = w
	t.height = h
}

// reload refreshes the profile list and reloads the highlighted profile,
// preserving the selection by name when it survives.
func (t *TUI) reload() error {
	prev := t.selectedName()

	names, err := t.eng.ProfileNames()
	if err != nil {
		t.lastError = err.Error()
		return err
	}
	t.profiles = names
	t.lastError = ""

	t.selectedIndex = 0
	if prev != "" {
		for i, name := range names {
			if name == prev {
				t.selectedIndex = i
				break
			}
		}
	}
	t.loadSelected()
	return nil
}

func (t *TUI) loadSelected() {
	t.selected = nil
	name := t.selectedName()
	if name == "" {
		return
	}
	p, err := t.eng.Store().Load(name)
	if err != nil {
		t.lastError = err.Error()
		return
	}
	t.selected = p
}

func (t *TUI) selectedName() string {
	if len(t.profiles) == 0 || t.selectedIndex >= len(t.profiles) {
		return ""
	}
	return t.profiles[t.selectedIndex]
}

func (t *TUI) handleInput(input []byte) bool {
	if len(input) == 0 {
		return false
	}

	for len(input) > 0 {
		switch t.mode {
		case modeSaveName:
			input = t.handleNameInput(input)
			continue
		case modeConfirmDelete:
			switch input[0] {
			case 'y', 'Y':
				t.deleteSelected()
			}
			t.mode = modeList
			input = input[1:]
			continue
		}

		// Check for escape sequences
		if len(input) >= 3 && input[0] == 0x1b && input[1] == '[' {
			switch input[2] {
			case 'A': // Up arrow
				t.moveSelection(-1)
			case 'B': // Down arrow
				t.moveSelection(1)
			}
			input = input[3:]
			continue
		}

		// Single character commands
		switch input[0] {
		case 'q', 0x1b: // q or Escape
			return true
		case 0x03: // Ctrl+C
			return true
		case 'j': // vim down
			t.moveSelection(1)
		case 'k': // vim up
			t.moveSelection(-1)
		case '\r', '\n', 'a': // apply
			t.applySelected()
		case 's': // save current layout under a new name
			t.mode = modeSaveName
			t.nameBuf = t.nameBuf[:0]
			t.statusMsg = ""
		case 'd': // delete
			if t.selectedName() != "" {
				t.mode = modeConfirmDelete
			}
		case 'r': // reload
			_ = t.reload()
			t.statusMsg = "reloaded"
		}

		input = input[1:]
	}

	return false
}

// handleNameInput consumes bytes while typing a save-profile name.
func (t *TUI) handleNameInput(input []byte) []byte {
	switch input[0] {
	case 0x1b: // Escape cancels
		t.mode = modeList
		t.nameBuf = t.nameBuf[:0]
	case '\r', '\n':
		t.mode = modeList
		name := string(t.nameBuf)
		t.nameBuf = t.nameBuf[:0]
		if name != "" {
			t.saveCurrent(name)
		}
	case 0x7f, 0x08: // backspace
		if len(t.nameBuf) > 0 {
			t.nameBuf = t.nameBuf[:len(t.nameBuf)-1]
		}
	default:
		if input[0] >= 0x20 && input[0] < 0x7f {
			t.nameBuf = append(t.nameBuf, input[0])
		}
	}
	return input[1:]
}

func (t *TUI) moveSelection(delta int) {
	if len(t.profiles) == 0 {
		return
	}
	t.selectedIndex += delta
	if t.selectedIndex < 0 {
		t.selectedIndex = len(t.profiles) - 1
	} else if t.selectedIndex >= len(t.profiles) {
		t.selectedIndex = 0
	}
	t.loadSelected()
}

func (t *TUI) applySelected() {
	name := t.selectedName()
	if name == "" {
		return
	}
	report, err := t.eng.Apply(context.Background(), name, t.opts)
	if err != nil {
		t.lastError = err.Error()
		return
	}
	t.lastError = ""
	if report.Succeeded() {
		t.statusMsg = fmt.Sprintf("applied %q", name)
	} else {
		t.statusMsg = fmt.Sprintf("applied %q with failures", name)
	}
}

func (t *TUI) saveCurrent(name string) {
	if _, err := t.eng.SaveCurrent(name); err != nil {
		t.lastError = err.Error()
		return
	}
	t.lastError = ""
	t.statusMsg = fmt.Sprintf("saved %q", name)
	_ = t.reload()
	for i, n := range t.profiles {
		if n == name {
			t.selectedIndex = i
			t.loadSelected()
			break
		}
	}
}

func (t *TUI) deleteSelected() {
	name := t.selectedName()
	if name == "" {
		return
	}
	if err := t.eng.Store().Delete(name); err != nil {
		t.lastError = err.Error()
		return
	}
	t.lastError = ""
	t.statusMsg = fmt.Sprintf("deleted %q", name)
	_ = t.reload()
}
