package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/displaysnap/internal/display"
)

// ANSI escape codes
const (
	escClear      = "\x1b[2J"
	escHome       = "\x1b[H"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escBold       = "\x1b[1m"
	escDim        = "\x1b[2m"
	escReset      = "\x1b[0m"
	escReverse    = "\x1b[7m"
	escCyan       = "\x1b[36m"
	escYellow     = "\x1b[33m"
	escRed        = "\x1b[31m"
	escGreen      = "\x1b[32m"
)

func (t *TUI) render() {
	t.updateSize()

	var sb strings.Builder

	// Hide cursor during render
	sb.WriteString(escHideCursor)
	sb.WriteString(escReset)
	sb.WriteString(escClear)
	sb.WriteString(escHome)

	const (
		sepWidth        = 3 // " │ "
		maxListWidth    = 30
		minListWidth    = 10
		minPreviewWidth = 20
		headerLines     = 2 // title + divider
		footerLines     = 3 // divider + status + footer
	)

	width := t.width
	height := t.height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	listWidth := width / 3
	if listWidth > maxListWidth {
		listWidth = maxListWidth
	}
	if listWidth < minListWidth {
		listWidth = minListWidth
	}

	previewWidth := width - listWidth - sepWidth
	if previewWidth < minPreviewWidth {
		previewWidth = minPreviewWidth
		listWidth = width - sepWidth - previewWidth
		if listWidth < minListWidth {
			listWidth = minListWidth
			previewWidth = width - listWidth - sepWidth
			if previewWidth < 1 {
				previewWidth = 1
			}
		}
	}

	contentHeight := height - headerLines - footerLines
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Header
	sb.WriteString(escBold)
	sb.WriteString(escCyan)
	sb.WriteString(centerText("displaysnap", width))
	sb.WriteString(escReset)
	sb.WriteString("\r\n")

	// Divider
	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\r\n")

	// Main content area
	listLines := t.renderProfileList(listWidth, contentHeight)
	previewLines := t.renderPreview(previewWidth, contentHeight)

	for i := 0; i < contentHeight; i++ {
		if i < len(listLines) {
			sb.WriteString(listLines[i])
		} else {
			sb.WriteString(strings.Repeat(" ", listWidth))
		}

		sb.WriteString(" │ ")

		if i < len(previewLines) {
			sb.WriteString(previewLines[i])
		}

		sb.WriteString("\r\n")
	}

	// Divider
	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\r\n")

	// Status line
	sb.WriteString(truncateANSI(t.renderStatus(), width))
	sb.WriteString("\r\n")

	// Footer with keybindings
	sb.WriteString(truncateANSI(t.renderFooter(), width))

	fmt.Print(sb.String())
}

func (t *TUI) renderProfileList(width, height int) []string {
	lines := make([]string, 0, height)

	title := escBold + "Profiles" + escReset
	lines = append(lines, padRight(title, width))

	if len(t.profiles) == 0 {
		lines = append(lines, padRight(escDim+"(no profiles)"+escReset, width))
		return lines
	}

	for i, name := range t.profiles {
		if len(lines) >= height {
			break
		}

		displayName := name
		if len(displayName) > width-4 {
			displayName = displayName[:width-7] + "..."
		}

		var line string
		if i == t.selectedIndex {
			line = escReverse + "  " + displayName + escReset
		} else {
			line = "  " + displayName
		}

		lines = append(lines, padRight(line, width))
	}

	return lines
}

func (t *TUI) renderPreview(width, height int) []string {
	lines := make([]string, 0, height)

	if t.selected != nil {
		title := fmt.Sprintf("%sProfile: %s%s", escBold, t.selected.Name, escReset)
		lines = append(lines, padRight(truncateANSI(title, width), width))
		for _, s := range t.selected.Displays {
			lines = append(lines, padRight(truncateANSI(displayLine(s), width), width))
		}
		lines = append(lines, strings.Repeat(" ", width))
	}

	lines = append(lines, padRight(escBold+"Connected"+escReset, width))
	live, err := t.eng.Displays()
	if err != nil {
		lines = append(lines, padRight(truncateANSI(escRed+err.Error()+escReset, width), width))
	} else {
		for _, s := range live {
			lines = append(lines, padRight(truncateANSI(displayLine(s), width), width))
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return lines
}

func displayLine(s display.State) string {
	if !s.Enabled {
		return fmt.Sprintf("  %s %s(off)%s", s.Identity.DevicePath, escDim, escReset)
	}
	marker := " "
	if s.Primary {
		marker = escGreen + "*" + escReset
	}
	return fmt.Sprintf(" %s%s %dx%d@%dHz +%d+%d",
		marker, s.Identity.DevicePath,
		s.Mode.Width, s.Mode.Height, s.Mode.RefreshHz, s.X, s.Y)
}

func (t *TUI) renderStatus() string {
	if t.mode == modeSaveName {
		return fmt.Sprintf("%sSave as:%s %s_", escYellow, escReset, string(t.nameBuf))
	}
	if t.mode == modeConfirmDelete {
		return fmt.Sprintf("%sDelete %q? (y/n)%s", escYellow, t.selectedName(), escReset)
	}
	if t.lastError != "" {
		return fmt.Sprintf("%sError: %s%s", escRed, t.lastError, escReset)
	}
	if t.statusMsg != "" {
		return escGreen + t.statusMsg + escReset
	}
	return ""
}

func (t *TUI) renderFooter() string {
	keys := []string{
		"j/k/↑/↓:nav", "enter/a:apply", "s:save", "d:delete", "r:reload", "q/esc/^C:quit",
	}
	return escDim + strings.Join(keys, "  ") + escReset
}

func centerText(text string, width int) string {
	visibleLen := visibleLength(text)
	if visibleLen >= width {
		return text
	}
	padding := (width - visibleLen) / 2
	return strings.Repeat(" ", padding) + text
}

func padRight(text string, width int) string {
	visibleLen := visibleLength(text)
	if visibleLen >= width {
		return text
	}
	return text + strings.Repeat(" ", width-visibleLen)
}

// visibleLength returns the visible length of a string, ignoring ANSI codes.
func visibleLength(s string) int {
	inEscape := false
	length := 0
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		length++
	}
	return length
}

func truncateANSI(text string, width int) string {
	if width < 1 {
		return ""
	}
	if visibleLength(text) <= width {
		return text
	}

	var sb strings.Builder
	inEscape := false
	visible := 0
	for _, r := range text {
		if r == '\x1b' {
			inEscape = true
			sb.WriteRune(r)
			continue
		}
		if inEscape {
			sb.WriteRune(r)
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}

		if visible >= width-1 {
			break
		}
		sb.WriteRune(r)
		visible++
	}

	sb.WriteString("…")
	sb.WriteString(escReset)
	return sb.String()
}
