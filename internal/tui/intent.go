package tui

import "unicode"

// intentKind tags the closed set of list actions.
type intentKind int

// intent kinds produced by the resolver. Anything it cannot place maps to
// intentDelegate so the list widget keeps its own paging keys.
const (
	intentDelegate intentKind = iota
	intentCancel
	intentMove
	intentEdit
	intentWork
	intentReference
	intentToggleStatus
	intentToggleType
	intentSetPriority
	intentCreate
	intentScroll
	intentView
	intentRefresh
	intentSearchStart
	intentSearchApply
	intentSearchCancel
	intentSearchBackspace
	intentSearchAppend
)

// intent is the resolver's tagged result. delta carries move/scroll direction,
// digit the priority value, ch the appended search rune, token the raw key for
// delegation.
type intent struct {
	kind  intentKind
	delta int
	digit int
	ch    rune
	token string
}

// listMode carries the flags that gate intent availability.
type listMode struct {
	Searching     bool
	Filtered      bool
	AllowSearch   bool
	AllowPriority bool
	CtrlQ         bool
	CtrlF         bool
	HasPreview    bool
}

// resolveListIntent maps one raw key token plus mode flags to an intent. It is
// a pure function keyed first on the searching sub-mode.
func resolveListIntent(token string, mode listMode) intent {
	if mode.Searching {
		return resolveSearchingIntent(token)
	}

	switch token {
	case "q", "esc", "ctrl+c":
		return intent{kind: intentCancel}
	case "ctrl+q":
		if mode.CtrlQ {
			return intent{kind: intentCancel}
		}
	case "ctrl+f":
		if mode.CtrlF && mode.AllowSearch {
			return intent{kind: intentSearchStart}
		}
	case "/":
		if mode.AllowSearch {
			return intent{kind: intentSearchStart}
		}
	case "w", "up", "k":
		return intent{kind: intentMove, delta: -1}
	case "s", "down", "j":
		return intent{kind: intentMove, delta: 1}
	case "e":
		return intent{kind: intentEdit}
	case "enter":
		return intent{kind: intentWork}
	case "tab":
		return intent{kind: intentReference}
	case "space", " ":
		return intent{kind: intentToggleStatus}
	case "t":
		return intent{kind: intentToggleType}
	case "n", "c":
		return intent{kind: intentCreate}
	case "v":
		return intent{kind: intentView}
	case "r":
		return intent{kind: intentRefresh}
	case "left":
		if mode.HasPreview {
			return intent{kind: intentScroll, delta: -1}
		}
	case "right":
		if mode.HasPreview {
			return intent{kind: intentScroll, delta: 1}
		}
	}

	if mode.AllowPriority && len(token) == 1 && token[0] >= '0' && token[0] <= '4' {
		return intent{kind: intentSetPriority, digit: int(token[0] - '0')}
	}

	return intent{kind: intentDelegate, token: token}
}

// resolveSearchingIntent handles the search-entry sub-mode.
func resolveSearchingIntent(token string) intent {
	switch token {
	case "enter":
		return intent{kind: intentSearchApply}
	case "esc", "ctrl+c":
		return intent{kind: intentSearchCancel}
	case "backspace":
		return intent{kind: intentSearchBackspace}
	case "space":
		return intent{kind: intentSearchAppend, ch: ' '}
	}
	runes := []rune(token)
	if len(runes) == 1 && unicode.IsPrint(runes[0]) {
		return intent{kind: intentSearchAppend, ch: runes[0]}
	}
	return intent{kind: intentDelegate, token: token}
}
