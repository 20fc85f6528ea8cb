package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
)

// formMode distinguishes editing an existing task from creating one.
type formMode int

const (
	formEdit formMode = iota
	formCreate
)

// formFocus tracks which part of the form receives keys.
type formFocus int

const (
	focusNav formFocus = iota
	focusTitle
	focusDesc
)

// formEventKind tags what the form reported back to the list.
type formEventKind int

const (
	formEventNone formEventKind = iota
	formEventSaved
	formEventClosed
)

// formEvent is the form's synchronous report to the list controller.
type formEvent struct {
	kind    formEventKind
	task    domain.Task
	created bool
}

// formSaveResultMsg delivers the outcome of one save round trip.
type formSaveResultMsg struct {
	task    domain.Task
	created bool
	err     error
}

// formFlashClearMsg clears the transient save flash.
type formFlashClearMsg struct{}

// flashDuration is how long "Saved" and failure notices stay visible.
const flashDuration = 2 * time.Second

// formModel is the edit/create form. A create form that has saved once keeps
// the assigned id and turns further saves into updates against it.
type formModel struct {
	svc  Service
	mode formMode

	// base is the record drafts are diffed against. In create mode it holds
	// the seed defaults until the first save assigns a real id.
	base      domain.Task
	createdID string

	focus      formFocus
	titleInput textinput.Model
	descInput  textinput.Model
	status     domain.Status
	priority   int
	taskType   string

	flash  string
	saving bool

	width  int
	height int
}

// newFormModel constructs a new value for this package.
func newFormModel(svc Service, mode formMode, base domain.Task) formModel {
	titleInput := textinput.New()
	titleInput.Prompt = ""
	titleInput.Placeholder = "task title"
	titleInput.CharLimit = 200
	titleInput.SetValue(base.Title)
	titleInput.CursorEnd()

	descInput := textinput.New()
	descInput.Prompt = ""
	descInput.Placeholder = "description (markdown)"
	descInput.CharLimit = 4000
	descInput.SetValue(base.Description)
	descInput.CursorEnd()

	focus := focusNav
	if mode == formCreate {
		focus = focusTitle
	}

	return formModel{
		svc:        svc,
		mode:       mode,
		base:       base,
		focus:      focus,
		titleInput: titleInput,
		descInput:  descInput,
		status:     base.Status,
		priority:   base.Priority,
		taskType:   base.Type,
	}
}

// setSize records the window size for view layout.
func (f *formModel) setSize(width, height int) {
	f.width = width
	f.height = height
	inputWidth := max(20, width-12)
	f.titleInput.SetWidth(inputWidth)
	f.descInput.SetWidth(inputWidth)
}

// focusCmd focuses the initial input when the form opens.
func (f *formModel) focusCmd() tea.Cmd {
	if f.focus == focusTitle {
		return f.titleInput.Focus()
	}
	return nil
}

// draft assembles the current editable field values.
func (f formModel) draft() app.Draft {
	return app.Draft{
		Title:       f.titleInput.Value(),
		Description: f.descInput.Value(),
		Status:      f.status,
		Priority:    f.priority,
		Type:        f.taskType,
	}
}

// update routes one message through the form and reports any event.
func (f formModel) update(msg tea.Msg) (formModel, tea.Cmd, formEvent) {
	switch msg := msg.(type) {
	case formSaveResultMsg:
		f.saving = false
		if msg.err != nil {
			f.flash = "Save failed: " + msg.err.Error()
			return f, f.flashClearCmd(), formEvent{}
		}
		f.base = msg.task
		if msg.created {
			f.createdID = msg.task.ID
		}
		f.flash = "Saved"
		return f, f.flashClearCmd(), formEvent{kind: formEventSaved, task: msg.task, created: msg.created}

	case formFlashClearMsg:
		f.flash = ""
		return f, nil, formEvent{}

	case tea.KeyPressMsg:
		return f.handleKey(msg)
	}
	return f, nil, formEvent{}
}

// handleKey dispatches a key press according to the focused part.
func (f formModel) handleKey(msg tea.KeyPressMsg) (formModel, tea.Cmd, formEvent) {
	token := msg.String()

	switch f.focus {
	case focusTitle:
		switch token {
		case "enter":
			return f.save()
		case "tab":
			f.focus = focusDesc
			f.titleInput.Blur()
			return f, f.descInput.Focus(), formEvent{}
		case "esc":
			f.focus = focusNav
			f.titleInput.Blur()
			return f, nil, formEvent{}
		default:
			var cmd tea.Cmd
			f.titleInput, cmd = f.titleInput.Update(msg)
			return f, cmd, formEvent{}
		}

	case focusDesc:
		switch token {
		case "enter":
			return f.save()
		case "tab":
			f.focus = focusNav
			f.descInput.Blur()
			return f, nil, formEvent{}
		case "esc":
			f.focus = focusNav
			f.descInput.Blur()
			return f, nil, formEvent{}
		default:
			var cmd tea.Cmd
			f.descInput, cmd = f.descInput.Update(msg)
			return f, cmd, formEvent{}
		}
	}

	// focusNav
	switch token {
	case "q", "esc", "ctrl+c":
		return f, nil, formEvent{kind: formEventClosed}
	case "tab":
		f.focus = focusTitle
		return f, f.titleInput.Focus(), formEvent{}
	case "enter":
		return f.save()
	case "space", " ":
		f.status = f.svc.NextStatus(f.status)
		return f, nil, formEvent{}
	case "t":
		f.taskType = f.svc.NextType(f.taskType)
		return f, nil, formEvent{}
	}
	if len(token) == 1 && token[0] >= '0' && token[0] <= '4' {
		f.priority = int(token[0] - '0')
		return f, nil, formEvent{}
	}
	return f, nil, formEvent{}
}

// save validates locally and issues the create or update round trip. An
// unchanged edit draft is suppressed without touching the backend.
func (f formModel) save() (formModel, tea.Cmd, formEvent) {
	if f.saving {
		return f, nil, formEvent{}
	}
	draft := f.draft()

	if strings.TrimSpace(draft.Title) == "" {
		f.flash = "Save failed: title required"
		return f, f.flashClearCmd(), formEvent{}
	}

	if f.mode == formCreate && f.createdID == "" {
		f.saving = true
		return f, f.createCmd(draft), formEvent{}
	}

	patch := app.BuildUpdate(f.base, draft)
	if patch.IsEmpty() {
		return f, nil, formEvent{}
	}
	f.saving = true
	return f, f.updateCmd(f.base.ID, patch, draft), formEvent{}
}

// createCmd stores a new task.
func (f formModel) createCmd(draft app.Draft) tea.Cmd {
	return func() tea.Msg {
		task, err := f.svc.CreateTask(context.Background(), app.CreateTaskInput{
			Title:       draft.Title,
			Description: draft.Description,
			Status:      draft.Status,
			Priority:    draft.Priority,
			Type:        draft.Type,
		})
		return formSaveResultMsg{task: task, created: true, err: err}
	}
}

// updateCmd applies the diff patch and reconstructs the saved record locally.
func (f formModel) updateCmd(id string, patch app.Patch, draft app.Draft) tea.Cmd {
	saved := f.base
	saved.Title = strings.TrimSpace(draft.Title)
	saved.Description = draft.Description
	saved.Status = draft.Status
	saved.Priority = draft.Priority
	saved.Type = draft.Type
	return func() tea.Msg {
		err := f.svc.UpdateTask(context.Background(), id, patch)
		return formSaveResultMsg{task: saved, err: err}
	}
}

// flashClearCmd schedules the flash wipe.
func (f formModel) flashClearCmd() tea.Cmd {
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return formFlashClearMsg{}
	})
}

// priorityLegend compresses the declared priority labels for the help line. A
// contiguous P<digit> run renders as a range, mixed digit labels join with
// slashes, anything else falls back to the word priority.
func priorityLegend(labels []string) string {
	digits := make([]int, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if len(label) == 2 && (label[0] == 'P' || label[0] == 'p') && label[1] >= '0' && label[1] <= '9' {
			digits = append(digits, int(label[1]-'0'))
			continue
		}
		if len(label) == 1 && label[0] >= '0' && label[0] <= '9' {
			digits = append(digits, int(label[0]-'0'))
			continue
		}
		return "priority"
	}
	if len(digits) == 0 {
		return "priority"
	}
	contiguous := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous && len(digits) > 1 {
		return fmt.Sprintf("%d-%d priority", digits[0], digits[len(digits)-1])
	}
	parts := make([]string, len(digits))
	for i, d := range digits {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "/") + " priority"
}

// view renders the form.
func (f formModel) view() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flashStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

	header := titleStyle.Render("edit task")
	if f.mode == formCreate && f.createdID == "" {
		header = titleStyle.Render("new task")
	} else if f.mode == formCreate {
		header = titleStyle.Render("new task " + f.createdID)
	} else if f.base.ID != "" {
		header = titleStyle.Render("edit " + f.base.ID)
	}
	if f.flash != "" {
		style := flashStyle
		if strings.HasPrefix(f.flash, "Save failed") {
			style = failStyle
		}
		header += "  " + style.Render(f.flash)
	}

	mark := func(focused bool, label string) string {
		if focused {
			return activeStyle.Render("> " + label)
		}
		return labelStyle.Render("  " + label)
	}

	priorityLabel := "none"
	if f.priority != domain.PriorityUnknown {
		priorityLabel = "P" + strconv.Itoa(f.priority)
	}
	fields := fmt.Sprintf("status: %s   priority: %s   type: %s",
		f.status.Label(), priorityLabel, f.taskType)

	var hint string
	switch f.focus {
	case focusTitle:
		hint = "enter save • tab description • esc fields"
	case focusDesc:
		hint = "enter save • tab fields • esc fields"
	default:
		hint = fmt.Sprintf("tab edit text • space status • t type • 0-4 %s • enter save • esc close",
			priorityLegend(f.svc.Priorities()))
	}

	sections := []string{
		header,
		"",
		mark(f.focus == focusTitle, "title") + "  " + f.titleInput.View(),
		mark(f.focus == focusDesc, "description") + "  " + f.descInput.View(),
		"",
		mark(f.focus == focusNav, fields),
		"",
		mutedStyle.Render(hint),
	}
	content := strings.Join(sections, "\n")
	if f.height > 0 {
		content = fitLines(content, f.height)
	}
	return content
}
