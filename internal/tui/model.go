package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
	"github.com/evanschultz/tix/internal/format"
)

// Service represents the task operations the TUI depends on.
type Service interface {
	ListTasks(context.Context) ([]domain.Task, error)
	ShowTask(context.Context, string) (domain.Task, error)
	UpdateTask(context.Context, string, app.Patch) error
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	StatusCycle() []domain.Status
	TaskTypes() []string
	Priorities() []string
	NextStatus(domain.Status) domain.Status
	NextType(string) string
}

// maxPreviewSourceLines caps how much raw description feeds the preview pane.
const maxPreviewSourceLines = 100

// defaultPreviewLines is the fixed preview viewport height.
const defaultPreviewLines = 7

// HandoffKind distinguishes what the list produced on exit.
type HandoffKind int

// handoff kinds surfaced to the caller after the program exits.
const (
	HandoffNone HandoffKind = iota
	HandoffWork
	HandoffReference
)

// Handoff carries the text produced by a work or reference exit.
type Handoff struct {
	Kind HandoffKind
	Text string
}

// tasksLoadedMsg delivers the list call result.
type tasksLoadedMsg struct {
	tasks []domain.Task
	err   error
}

// taskShownMsg delivers one full record, fetched before opening the edit form.
type taskShownMsg struct {
	task domain.Task
	err  error
}

// taskUpdatedMsg reports completion of one optimistic update.
type taskUpdatedMsg struct {
	id  string
	err error
}

// Model is the list controller. It owns the in-memory task copy, the filter
// and search state, the preview scroll window, and the embedded form.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	tasks      []domain.Task
	rows       []format.Row
	selected   int
	selectedID string

	filterTerm   string
	searching    bool
	searchBuffer string

	descScroll   int
	previewLines int
	showPreview  bool
	altScreen    bool

	// pending marks task ids with an update in flight.
	pending map[string]struct{}

	overlayOpen bool
	markdown    markdownRenderer

	form *formModel

	handoff   Handoff
	copyText  func(string) error
	delegated string
}

// Option configures a Model.
type Option func(*Model)

// WithPreviewLines overrides the preview viewport height.
func WithPreviewLines(lines int) Option {
	return func(m *Model) {
		if lines > 0 {
			m.previewLines = lines
		}
	}
}

// WithPreview toggles the description pane.
func WithPreview(show bool) Option {
	return func(m *Model) {
		m.showPreview = show
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(alt bool) Option {
	return func(m *Model) {
		m.altScreen = alt
	}
}

// WithClipboard substitutes the reference copy sink, used by tests.
func WithClipboard(copyText func(string) error) Option {
	return func(m *Model) {
		if copyText != nil {
			m.copyText = copyText
		}
	}
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:          svc,
		status:       "loading...",
		help:         h,
		keys:         newKeyMap(),
		previewLines: defaultPreviewLines,
		showPreview:  true,
		altScreen:    true,
		pending:      map[string]struct{}{},
		copyText:     clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Handoff returns what the finished session produced, if anything.
func (m Model) Handoff() Handoff {
	return m.handoff
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadTasks
}

// listHandlers dispatches resolved intents to their handlers.
var listHandlers = map[intentKind]func(Model, intent) (tea.Model, tea.Cmd){
	intentCancel:          Model.applyCancel,
	intentMove:            Model.applyMove,
	intentEdit:            Model.applyEdit,
	intentWork:            Model.applyWork,
	intentReference:       Model.applyReference,
	intentToggleStatus:    Model.applyToggleStatus,
	intentToggleType:      Model.applyToggleType,
	intentSetPriority:     Model.applySetPriority,
	intentCreate:          Model.applyCreate,
	intentScroll:          Model.applyScroll,
	intentView:            Model.applyView,
	intentRefresh:         Model.applyRefresh,
	intentSearchStart:     Model.applySearchStart,
	intentSearchApply:     Model.applySearchApply,
	intentSearchCancel:    Model.applySearchCancel,
	intentSearchBackspace: Model.applySearchBackspace,
	intentSearchAppend:    Model.applySearchAppend,
	intentDelegate:        Model.applyDelegate,
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		if m.form != nil {
			m.form.setSize(msg.Width, msg.Height)
		}
		return m, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tasks = msg.tasks
		m.rebuildRows()
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case taskShownMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.mergeTask(msg.task)
		m.rebuildRows()
		form := newFormModel(m.svc, formEdit, msg.task)
		form.setSize(m.width, m.height)
		m.form = &form
		return m, form.focusCmd()

	case taskUpdatedMsg:
		delete(m.pending, msg.id)
		if msg.err != nil {
			m.status = "update failed: " + msg.err.Error()
		}
		m.rebuildRows()
		return m, nil

	case tea.KeyPressMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.overlayOpen {
			switch msg.String() {
			case "v", "esc", "q", "ctrl+c":
				m.overlayOpen = false
			}
			return m, nil
		}
		in := resolveListIntent(msg.String(), m.mode())
		if handler, ok := listHandlers[in.kind]; ok {
			return handler(m, in)
		}
		return m, nil

	default:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m, nil
	}
}

// updateForm routes one message to the embedded form and reacts to its events.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd, event := m.form.update(msg)
	m.form = &form
	switch event.kind {
	case formEventNone:
		return m, cmd
	case formEventSaved:
		if event.created {
			m.tasks = append([]domain.Task{event.task}, m.tasks...)
			m.selectedID = event.task.ID
		} else {
			m.mergeTask(event.task)
		}
		m.rebuildRows()
		return m, cmd
	case formEventClosed:
		m.form = nil
		m.status = "ready"
		m.rebuildRows()
		return m, cmd
	default:
		return m, cmd
	}
}

// mode snapshots the resolver flags for the current state.
func (m Model) mode() listMode {
	return listMode{
		Searching:     m.searching,
		Filtered:      m.filterTerm != "",
		AllowSearch:   true,
		AllowPriority: true,
		CtrlQ:         true,
		CtrlF:         true,
		HasPreview:    m.showPreview,
	}
}

// loadTasks fetches the candidate set once per list session.
func (m Model) loadTasks() tea.Msg {
	tasks, err := m.svc.ListTasks(context.Background())
	if err != nil {
		return tasksLoadedMsg{err: err}
	}
	return tasksLoadedMsg{tasks: tasks}
}

// showTaskCmd fetches one full record before the edit form opens.
func (m Model) showTaskCmd(id string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.svc.ShowTask(context.Background(), id)
		return taskShownMsg{task: task, err: err}
	}
}

// updateTaskCmd issues one asynchronous backend update.
func (m Model) updateTaskCmd(id string, patch app.Patch) tea.Cmd {
	return func() tea.Msg {
		return taskUpdatedMsg{id: id, err: m.svc.UpdateTask(context.Background(), id, patch)}
	}
}

// applyCancel clears the active filter first; with nothing to clear it quits.
func (m Model) applyCancel(intent) (tea.Model, tea.Cmd) {
	if m.filterTerm != "" {
		m.filterTerm = ""
		m.status = "filter cleared"
		m.rebuildRows()
		return m, nil
	}
	return m, tea.Quit
}

func (m Model) applyMove(in intent) (tea.Model, tea.Cmd) {
	if len(m.rows) == 0 {
		return m, nil
	}
	m.selected = clamp(m.selected+in.delta, 0, len(m.rows)-1)
	m.selectedID = m.rows[m.selected].ID
	m.descScroll = 0
	return m, nil
}

func (m Model) applyEdit(intent) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	m.status = "loading " + task.ID + "..."
	return m, m.showTaskCmd(task.ID)
}

func (m Model) applyWork(intent) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	m.handoff = Handoff{Kind: HandoffWork, Text: format.WorkPrompt(task)}
	return m, tea.Quit
}

func (m Model) applyReference(intent) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	text := format.Reference(task)
	m.handoff = Handoff{Kind: HandoffReference, Text: text}
	if err := m.copyText(text); err != nil {
		// The handoff still reaches stdout after exit; only the copy failed.
		m.status = "clipboard copy failed: " + err.Error()
	}
	return m, tea.Quit
}

func (m Model) applyToggleStatus(intent) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	next := m.svc.NextStatus(task.Status)
	status := next
	return m.applyOptimistic(task.ID, app.Patch{Status: &status}, func(t *domain.Task) {
		t.Status = next
	})
}

func (m Model) applyToggleType(intent) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	next := m.svc.NextType(task.Type)
	taskType := next
	return m.applyOptimistic(task.ID, app.Patch{Type: &taskType}, func(t *domain.Task) {
		t.Type = next
	})
}

func (m Model) applySetPriority(in intent) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	priority := in.digit
	return m.applyOptimistic(task.ID, app.Patch{Priority: &priority}, func(t *domain.Task) {
		t.Priority = priority
	})
}

// applyOptimistic mutates the local copy immediately, marks the task pending,
// and fires the backend update in the background.
func (m Model) applyOptimistic(id string, patch app.Patch, mutate func(*domain.Task)) (tea.Model, tea.Cmd) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			mutate(&m.tasks[i])
			break
		}
	}
	m.pending[id] = struct{}{}
	m.rebuildRows()
	return m, m.updateTaskCmd(id, patch)
}

func (m Model) applyCreate(intent) (tea.Model, tea.Cmd) {
	form := newFormModel(m.svc, formCreate, domain.Task{
		Status:   domain.StatusOpen,
		Priority: domain.PriorityUnknown,
		Type:     domain.DefaultTaskType,
	})
	form.setSize(m.width, m.height)
	m.form = &form
	return m, form.focusCmd()
}

func (m Model) applyScroll(in intent) (tea.Model, tea.Cmd) {
	total := len(m.previewSource())
	maxScroll := max(0, total-m.previewLines)
	m.descScroll = clamp(m.descScroll+in.delta, 0, maxScroll)
	return m, nil
}

func (m Model) applyView(intent) (tea.Model, tea.Cmd) {
	if _, ok := m.selectedTask(); !ok {
		m.status = "no task selected"
		return m, nil
	}
	m.overlayOpen = true
	return m, nil
}

func (m Model) applyRefresh(intent) (tea.Model, tea.Cmd) {
	m.status = "reloading..."
	return m, m.loadTasks
}

func (m Model) applySearchStart(intent) (tea.Model, tea.Cmd) {
	m.searching = true
	m.searchBuffer = m.filterTerm
	m.status = "search"
	return m, nil
}

func (m Model) applySearchApply(intent) (tea.Model, tea.Cmd) {
	m.searching = false
	term := strings.TrimSpace(m.searchBuffer)
	m.searchBuffer = ""
	if term == "" {
		m.filterTerm = ""
		m.status = "ready"
		m.rebuildRows()
		return m, nil
	}
	if len(app.FilterTasks(m.tasks, term)) == 0 {
		m.filterTerm = ""
		m.status = fmt.Sprintf("no matches for %q", term)
		m.rebuildRows()
		return m, nil
	}
	m.filterTerm = term
	m.status = fmt.Sprintf("filter: %s", term)
	m.rebuildRows()
	return m, nil
}

func (m Model) applySearchCancel(intent) (tea.Model, tea.Cmd) {
	m.searching = false
	m.searchBuffer = ""
	m.status = "ready"
	return m, nil
}

func (m Model) applySearchBackspace(intent) (tea.Model, tea.Cmd) {
	if m.searchBuffer != "" {
		runes := []rune(m.searchBuffer)
		m.searchBuffer = string(runes[:len(runes)-1])
	}
	return m, nil
}

func (m Model) applySearchAppend(in intent) (tea.Model, tea.Cmd) {
	m.searchBuffer += string(in.ch)
	return m, nil
}

// applyDelegate records the unresolved token; the plain list has no inner
// widget to forward to, so delegation is a no-op beyond bookkeeping.
func (m Model) applyDelegate(in intent) (tea.Model, tea.Cmd) {
	m.delegated = in.token
	return m, nil
}

// visibleTasks applies the current filter term.
func (m Model) visibleTasks() []domain.Task {
	return app.FilterTasks(m.tasks, m.filterTerm)
}

// rebuildRows recomputes the row set and restores selection by id.
func (m *Model) rebuildRows() {
	previousID := m.selectedID
	visible := m.visibleTasks()
	m.rows = format.BuildRows(visible)
	m.selected = 0
	if m.selectedID != "" {
		for idx, row := range m.rows {
			if row.ID == m.selectedID {
				m.selected = idx
				break
			}
		}
	}
	if len(m.rows) > 0 {
		m.selected = clamp(m.selected, 0, len(m.rows)-1)
		m.selectedID = m.rows[m.selected].ID
	} else {
		m.selectedID = ""
	}
	if m.selectedID != previousID {
		m.descScroll = 0
	}
	maxScroll := max(0, len(m.previewSource())-m.previewLines)
	m.descScroll = clamp(m.descScroll, 0, maxScroll)
}

// selectedTask returns the task under the cursor.
func (m Model) selectedTask() (domain.Task, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return domain.Task{}, false
	}
	id := m.rows[m.selected].ID
	for _, task := range m.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

// mergeTask replaces the stored copy of one task, keeping its position.
func (m *Model) mergeTask(task domain.Task) {
	for i := range m.tasks {
		if m.tasks[i].ID == task.ID {
			m.tasks[i] = task
			return
		}
	}
	m.tasks = append(m.tasks, task)
}

// previewSource returns the wrapped preview lines for the selected task.
func (m Model) previewSource() []string {
	task, ok := m.selectedTask()
	if !ok {
		return nil
	}
	width := max(20, m.width-4)
	desc := strings.TrimSpace(task.Description)
	if desc == "" {
		return []string{"(no description)"}
	}
	capped := strings.Join(format.TruncateLines(desc, maxPreviewSourceLines), "\n")
	return format.Wrap(capped, width, maxPreviewSourceLines*4)
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.AltScreen = m.altScreen
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = m.altScreen
		return v
	}
	if m.form != nil {
		v := tea.NewView(m.form.view())
		v.AltScreen = m.altScreen
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle := lipgloss.NewStyle().Foreground(muted)
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

	header := titleStyle.Render("tix")
	if m.searching {
		header += statusStyle.Render("  search: " + m.searchBuffer + "█")
	} else if m.filterTerm != "" {
		header += statusStyle.Render("  filter: " + m.filterTerm)
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		header += statusStyle.Render("  " + m.status)
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := mutedStyle.Render(helpBubble.View(m.keys))

	preview := ""
	if m.showPreview {
		preview = m.renderPreview(mutedStyle, statusStyle)
	}

	chrome := 2 // header + blank
	listHeight := m.height - chrome - lipgloss.Height(helpLine)
	if preview != "" {
		listHeight -= lipgloss.Height(preview) + 1
	}
	listHeight = max(1, listHeight)

	body := m.renderList(listHeight, cursorStyle, mutedStyle)

	sections := []string{header, "", body}
	if preview != "" {
		sections = append(sections, "", preview)
	}
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	if m.overlayOpen {
		if overlay := m.renderOverlay(); overlay != "" {
			height := lipgloss.Height(full)
			if m.height > 0 {
				height = m.height
			}
			full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
		}
	}

	v := tea.NewView(full)
	v.AltScreen = m.altScreen
	return v
}

// renderList renders the visible row window with cursor and pending markers.
func (m Model) renderList(height int, cursorStyle, mutedStyle lipgloss.Style) string {
	if len(m.rows) == 0 {
		if m.filterTerm != "" {
			return mutedStyle.Render("no matching tasks")
		}
		return mutedStyle.Render("no tasks — press n to create one")
	}
	start, end := windowBounds(len(m.rows), m.selected, height)
	lines := make([]string, 0, end-start)
	for idx := start; idx < end; idx++ {
		row := m.rows[idx]
		cursor := "  "
		if idx == m.selected {
			cursor = cursorStyle.Render("> ")
		}
		marker := " "
		if _, ok := m.pending[row.ID]; ok {
			marker = "*"
		}
		meta, summary, hasSummary := format.DecodeDescription(row.Description)
		line := cursor + marker + row.Label + "  " + meta
		if hasSummary {
			budget := m.width - format.VisibleWidth(line) - 3
			if budget > 0 {
				line += "  " + mutedStyle.Render(truncate(summary, budget))
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderPreview renders the fixed-height description window.
func (m Model) renderPreview(mutedStyle, statusStyle lipgloss.Style) string {
	source := m.previewSource()
	if len(source) == 0 {
		return ""
	}
	start := clamp(m.descScroll, 0, max(0, len(source)-m.previewLines))
	end := min(len(source), start+m.previewLines)
	window := make([]string, 0, m.previewLines)
	window = append(window, source[start:end]...)
	for len(window) < m.previewLines {
		window = append(window, "")
	}
	title := statusStyle.Render(fmt.Sprintf("description %d-%d/%d", start+1, end, len(source)))
	return title + "\n" + mutedStyle.Render(strings.Join(window, "\n"))
}

// renderOverlay renders the full description through the markdown renderer.
func (m Model) renderOverlay() string {
	task, ok := m.selectedTask()
	if !ok {
		return ""
	}
	width := max(24, m.width-8)
	body := strings.TrimSpace(task.Description)
	if body == "" {
		body = "(no description)"
	}
	rendered := m.markdown.render(body, width)
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(width)
	header := lipgloss.NewStyle().Bold(true).Render(strings.TrimSpace(task.Title))
	return frame.Render(header + "\n\n" + rendered)
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// windowBounds returns the [start, end) slice of a scroll window keeping the
// selection visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if windowSize <= 0 || total <= windowSize {
		return 0, total
	}
	start := selected - windowSize/2
	start = clamp(start, 0, total-windowSize)
	return start, start + windowSize
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
