// Package format holds the pure text-formatting primitives for task display:
// badges, symbols, identity strings, summaries, and ANSI-aware width helpers.
// Every function is total; unknown input renders as a literal placeholder
// instead of failing.
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/tix/internal/domain"
)

// sgrReset terminates every colored fragment emitted by this package.
const sgrReset = "\x1b[0m"

// priorityColors maps priority 0-4 to its fixed 256-color SGR code.
var priorityColors = map[int]string{
	0: "38;5;196", // red
	1: "38;5;208", // orange
	2: "38;5;40",  // green
	3: "38;5;75",  // blue
	4: "38;5;245", // gray
}

// mutedColor styles secondary text such as the identity id.
const mutedColor = "38;5;241"

// statusSymbols maps each lifecycle state to its single-cell glyph.
var statusSymbols = map[domain.Status]string{
	domain.StatusOpen:       "○",
	domain.StatusInProgress: "◑",
	domain.StatusBlocked:    "✖",
	domain.StatusDeferred:   "⏸",
	domain.StatusClosed:     "✓",
}

// colorize wraps s in one SGR color sequence plus reset.
func colorize(code, s string) string {
	return "\x1b[" + code + "m" + s + sgrReset
}

// PriorityBadge renders a two-character priority badge. Priorities 0-4 get
// their fixed color; anything else renders as plain "P?".
func PriorityBadge(priority int) string {
	code, ok := priorityColors[priority]
	if !ok {
		return "P?"
	}
	return colorize(code, fmt.Sprintf("P%d", priority))
}

// StatusSymbol renders the single glyph for a lifecycle state, "?" when the
// state is outside the enumeration.
func StatusSymbol(status domain.Status) string {
	if symbol, ok := statusSymbols[status]; ok {
		return symbol
	}
	return "?"
}

// TypeCode renders the task type as exactly four columns: the first four
// characters of the type, right-padded with spaces.
func TypeCode(taskType string) string {
	if strings.TrimSpace(taskType) == "" {
		taskType = domain.DefaultTaskType
	}
	runes := []rune(taskType)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes) + strings.Repeat(" ", 4-len(runes))
}

// ShortID strips any "prefix-" portion before the first dash of a tracker id.
func ShortID(id string) string {
	if idx := strings.Index(id, "-"); idx >= 0 && idx+1 < len(id) {
		return id[idx+1:]
	}
	return id
}

// Identity renders the priority badge followed by the muted short id.
func Identity(task domain.Task) string {
	return PriorityBadge(task.Priority) + " " + colorize(mutedColor, ShortID(task.ID))
}

// Summary returns the trimmed first line of a description. The second result
// is false when the description is empty or its first line is blank.
func Summary(description string) (string, bool) {
	if description == "" {
		return "", false
	}
	first, _, _ := strings.Cut(description, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", false
	}
	return first, true
}

// VisibleWidth measures a string with all ANSI escape sequences stripped.
// Every component that aligns or wraps text must go through this helper so
// width handling cannot drift between them.
func VisibleWidth(s string) int {
	return ansi.StringWidth(s)
}

// StripANSI removes all escape sequences, leaving printable text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// PadVisible right-pads s with spaces until its visible width reaches width.
func PadVisible(s string, width int) string {
	if gap := width - VisibleWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
