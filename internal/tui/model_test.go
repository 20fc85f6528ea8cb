package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
	"github.com/evanschultz/tix/internal/format"
)

// recordedUpdate captures one UpdateTask call.
type recordedUpdate struct {
	id    string
	patch app.Patch
}

// fakeService implements Service in memory for controller tests.
type fakeService struct {
	tasks []domain.Task

	updates   []recordedUpdate
	created   []app.CreateTaskInput
	updateErr error
	listErr   error
	showErr   error
	createErr error
	nextID    string
}

func newFakeService(tasks ...domain.Task) *fakeService {
	return &fakeService{tasks: tasks, nextID: "tix-new"}
}

func (f *fakeService) ListTasks(context.Context) ([]domain.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeService) ShowTask(_ context.Context, id string) (domain.Task, error) {
	if f.showErr != nil {
		return domain.Task{}, f.showErr
	}
	for _, task := range f.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return domain.Task{}, app.NotFoundError{ID: id}
}

func (f *fakeService) UpdateTask(_ context.Context, id string, patch app.Patch) error {
	f.updates = append(f.updates, recordedUpdate{id: id, patch: patch})
	return f.updateErr
}

func (f *fakeService) CreateTask(_ context.Context, in app.CreateTaskInput) (domain.Task, error) {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return domain.Task{}, f.createErr
	}
	return domain.Task{
		ID:          f.nextID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Type:        in.Type,
	}, nil
}

func (f *fakeService) StatusCycle() []domain.Status {
	return []domain.Status{domain.StatusOpen, domain.StatusInProgress, domain.StatusClosed}
}

func (f *fakeService) TaskTypes() []string {
	return []string{"task", "bug", "feature", "chore"}
}

func (f *fakeService) Priorities() []string {
	return []string{"P0", "P1", "P2", "P3", "P4"}
}

func (f *fakeService) NextStatus(current domain.Status) domain.Status {
	cycle := f.StatusCycle()
	for idx, status := range cycle {
		if status == current {
			return cycle[(idx+1)%len(cycle)]
		}
	}
	return cycle[0]
}

func (f *fakeService) NextType(current string) string {
	types := f.TaskTypes()
	for idx, taskType := range types {
		if taskType == current {
			return types[(idx+1)%len(types)]
		}
	}
	return types[0]
}

// keyPress builds the key message for one resolver token.
func keyPress(token string) tea.KeyPressMsg {
	switch token {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	case "backspace":
		return tea.KeyPressMsg{Code: tea.KeyBackspace}
	case "ctrl+f":
		return tea.KeyPressMsg{Code: 'f', Mod: tea.ModCtrl}
	case "ctrl+c":
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	default:
		runes := []rune(token)
		return tea.KeyPressMsg{Code: runes[0], Text: token}
	}
}

// press drives one key through the model.
func press(t *testing.T, m Model, token string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyPress(token))
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next, cmd
}

// loadedModel builds a ready model with tasks already delivered.
func loadedModel(t *testing.T, svc Service, tasks []domain.Task) Model {
	t.Helper()
	m := NewModel(svc, WithAltScreen(false))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	m = updated.(Model)
	updated, _ = m.Update(tasksLoadedMsg{tasks: tasks})
	return updated.(Model)
}

func sampleTasks() []domain.Task {
	return []domain.Task{
		{ID: "tix-1", Title: "Fix login redirect", Status: domain.StatusOpen, Priority: 1, Type: "bug", Description: "Redirect loops on expired sessions."},
		{ID: "tix-2", Title: "Write onboarding doc", Status: domain.StatusInProgress, Priority: 2, Type: "task", Description: "Cover setup and first deploy."},
		{ID: "tix-3", Title: "Cache profile lookups", Status: domain.StatusOpen, Priority: domain.PriorityUnknown, Type: "feature"},
	}
}

func TestModelBuildsRowsOnLoad(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.rows))
	}
	if m.selected != 0 || m.selectedID != "tix-1" {
		t.Fatalf("selection = %d/%q, want 0/tix-1", m.selected, m.selectedID)
	}
}

func TestMoveSelectionClampsAtEnds(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, _ = press(t, m, "w")
	if m.selected != 0 {
		t.Fatalf("selected = %d after moving up from top", m.selected)
	}
	m, _ = press(t, m, "s")
	m, _ = press(t, m, "s")
	m, _ = press(t, m, "s")
	if m.selected != 2 || m.selectedID != "tix-3" {
		t.Fatalf("selection = %d/%q, want 2/tix-3", m.selected, m.selectedID)
	}
}

func TestToggleStatusIsOptimistic(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, cmd := press(t, m, "space")
	if cmd == nil {
		t.Fatal("expected update command")
	}
	if m.tasks[0].Status != domain.StatusInProgress {
		t.Fatalf("local status = %q, want in_progress before the backend call", m.tasks[0].Status)
	}
	if _, ok := m.pending["tix-1"]; !ok {
		t.Fatal("expected tix-1 marked pending")
	}

	msg := cmd()
	updatedMsg, ok := msg.(taskUpdatedMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want taskUpdatedMsg", msg)
	}
	updated, _ := m.Update(updatedMsg)
	m = updated.(Model)
	if _, ok := m.pending["tix-1"]; ok {
		t.Fatal("expected pending marker cleared after completion")
	}

	if len(svc.updates) != 1 || svc.updates[0].id != "tix-1" {
		t.Fatalf("updates = %#v", svc.updates)
	}
	if svc.updates[0].patch.Status == nil || *svc.updates[0].patch.Status != domain.StatusInProgress {
		t.Fatalf("patch = %#v", svc.updates[0].patch)
	}
}

func TestSetPrioritySendsDigit(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, cmd := press(t, m, "3")
	if m.tasks[0].Priority != 3 {
		t.Fatalf("local priority = %d, want 3", m.tasks[0].Priority)
	}
	cmd()
	if len(svc.updates) != 1 || svc.updates[0].patch.Priority == nil || *svc.updates[0].patch.Priority != 3 {
		t.Fatalf("updates = %#v", svc.updates)
	}
}

func TestSearchFiltersAndEscapeClears(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, _ = press(t, m, "ctrl+f")
	if !m.searching {
		t.Fatal("expected searching sub-mode")
	}
	for _, token := range []string{"b", "u", "g"} {
		m, _ = press(t, m, token)
	}
	m, _ = press(t, m, "enter")
	if m.filterTerm != "bug" {
		t.Fatalf("filterTerm = %q, want bug", m.filterTerm)
	}
	if len(m.rows) != 1 || m.rows[0].ID != "tix-1" {
		t.Fatalf("filtered rows = %#v", m.rows)
	}

	m, cmd := press(t, m, "esc")
	if cmd != nil {
		t.Fatal("escape with an active filter must clear it, not quit")
	}
	if m.filterTerm != "" || len(m.rows) != 3 {
		t.Fatalf("filterTerm = %q rows = %d after clear", m.filterTerm, len(m.rows))
	}
}

func TestSearchWithNoMatchesNotifiesAndResets(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, _ = press(t, m, "ctrl+f")
	for _, token := range []string{"z", "z", "z"} {
		m, _ = press(t, m, token)
	}
	m, _ = press(t, m, "enter")
	if m.filterTerm != "" {
		t.Fatalf("filterTerm = %q, want cleared", m.filterTerm)
	}
	if !strings.Contains(m.status, "no matches") {
		t.Fatalf("status = %q, want a no-matches notice", m.status)
	}
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want full list restored", len(m.rows))
	}
}

func TestSearchBackspaceEditsBuffer(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, _ = press(t, m, "ctrl+f")
	for _, token := range []string{"d", "o", "c"} {
		m, _ = press(t, m, token)
	}
	m, _ = press(t, m, "backspace")
	if m.searchBuffer != "do" {
		t.Fatalf("searchBuffer = %q, want do", m.searchBuffer)
	}
	m, _ = press(t, m, "esc")
	if m.searching || m.searchBuffer != "" {
		t.Fatalf("searching = %v buffer = %q after cancel", m.searching, m.searchBuffer)
	}
}

func TestSelectionSurvivesReload(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, _ = press(t, m, "s")
	if m.selectedID != "tix-2" {
		t.Fatalf("selectedID = %q, want tix-2", m.selectedID)
	}

	reordered := []domain.Task{sampleTasks()[2], sampleTasks()[1], sampleTasks()[0]}
	updated, _ := m.Update(tasksLoadedMsg{tasks: reordered})
	m = updated.(Model)
	if m.selectedID != "tix-2" || m.selected != 1 {
		t.Fatalf("selection = %d/%q after reload, want 1/tix-2", m.selected, m.selectedID)
	}
}

func TestWorkHandoff(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	handoff := m.Handoff()
	if handoff.Kind != HandoffWork {
		t.Fatalf("handoff kind = %v, want work", handoff.Kind)
	}
	if !strings.Contains(handoff.Text, "tix-1") {
		t.Fatalf("handoff text = %q, want the task id", handoff.Text)
	}
}

func TestReferenceCopiesToClipboard(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	var copied string
	m := NewModel(svc, WithAltScreen(false), WithClipboard(func(text string) error {
		copied = text
		return nil
	}))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	m = updated.(Model)
	updated, _ = m.Update(tasksLoadedMsg{tasks: sampleTasks()})
	m = updated.(Model)

	m, _ = press(t, m, "tab")
	want := format.Reference(sampleTasks()[0])
	if copied != want {
		t.Fatalf("copied %q, want %q", copied, want)
	}
	if m.Handoff().Kind != HandoffReference {
		t.Fatalf("handoff kind = %v, want reference", m.Handoff().Kind)
	}
}

func TestReferenceSurfacesClipboardFailure(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := NewModel(svc, WithAltScreen(false), WithClipboard(func(string) error {
		return errors.New("no display")
	}))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	m = updated.(Model)
	updated, _ = m.Update(tasksLoadedMsg{tasks: sampleTasks()})
	m = updated.(Model)

	m, cmd := press(t, m, "tab")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(m.status, "clipboard copy failed") {
		t.Fatalf("status = %q, want a clipboard failure notice", m.status)
	}
	handoff := m.Handoff()
	if handoff.Kind != HandoffReference || handoff.Text != format.Reference(sampleTasks()[0]) {
		t.Fatalf("handoff = %#v, want the reference text despite the copy failure", handoff)
	}
}

func TestEditFetchesFullRecordThenOpensForm(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	m := loadedModel(t, svc, sampleTasks())

	m, cmd := press(t, m, "e")
	if cmd == nil {
		t.Fatal("expected show command")
	}
	msg := cmd()
	shown, ok := msg.(taskShownMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want taskShownMsg", msg)
	}
	updated, _ := m.Update(shown)
	m = updated.(Model)
	if m.form == nil {
		t.Fatal("expected the edit form to open")
	}
	if m.form.mode != formEdit || m.form.base.ID != "tix-1" {
		t.Fatalf("form = mode %v base %q", m.form.mode, m.form.base.ID)
	}
	if m.form.titleInput.Value() != "Fix login redirect" {
		t.Fatalf("title seed = %q", m.form.titleInput.Value())
	}
}

func TestUpdateFailureKeepsListUsable(t *testing.T) {
	svc := newFakeService(sampleTasks()...)
	svc.updateErr = app.NotFoundError{ID: "tix-1"}
	m := loadedModel(t, svc, sampleTasks())

	m, cmd := press(t, m, "space")
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if !strings.Contains(m.status, "update failed") {
		t.Fatalf("status = %q, want an update failure notice", m.status)
	}
	if _, ok := m.pending["tix-1"]; ok {
		t.Fatal("expected pending marker cleared on failure")
	}
}

func TestPreviewScrollClamps(t *testing.T) {
	long := strings.Repeat("A line of prose that will wrap somewhere sensible. ", 40)
	tasks := []domain.Task{{ID: "tix-9", Title: "Long", Status: domain.StatusOpen, Priority: 0, Type: "task", Description: long}}
	svc := newFakeService(tasks...)
	m := loadedModel(t, svc, tasks)

	total := len(m.previewSource())
	if total <= m.previewLines {
		t.Fatalf("previewSource lines = %d, want more than %d", total, m.previewLines)
	}
	for range total * 2 {
		m, _ = press(t, m, "right")
	}
	if m.descScroll != total-m.previewLines {
		t.Fatalf("descScroll = %d, want %d", m.descScroll, total-m.previewLines)
	}
	for range total * 2 {
		m, _ = press(t, m, "left")
	}
	if m.descScroll != 0 {
		t.Fatalf("descScroll = %d, want 0", m.descScroll)
	}
}

func TestPreviewPlaceholderForEmptyDescription(t *testing.T) {
	tasks := []domain.Task{{ID: "tix-8", Title: "Bare", Status: domain.StatusOpen, Priority: 0, Type: "task"}}
	svc := newFakeService(tasks...)
	m := loadedModel(t, svc, tasks)

	source := m.previewSource()
	if len(source) != 1 || source[0] != "(no description)" {
		t.Fatalf("previewSource = %#v", source)
	}
}

func TestMoveResetsPreviewScroll(t *testing.T) {
	long := strings.Repeat("wrap me over and over until the window scrolls. ", 30)
	tasks := sampleTasks()
	tasks[0].Description = long
	svc := newFakeService(tasks...)
	m := loadedModel(t, svc, tasks)

	m, _ = press(t, m, "right")
	m, _ = press(t, m, "right")
	if m.descScroll == 0 {
		t.Fatal("expected a scrolled preview before moving")
	}
	m, _ = press(t, m, "s")
	if m.descScroll != 0 {
		t.Fatalf("descScroll = %d after moving, want 0", m.descScroll)
	}
}

func TestFilterMovingSelectionResetsPreviewScroll(t *testing.T) {
	long := strings.Repeat("wrap me over and over until the window scrolls. ", 30)
	tasks := sampleTasks()
	tasks[0].Description = long
	svc := newFakeService(tasks...)
	m := loadedModel(t, svc, tasks)

	m, _ = press(t, m, "right")
	m, _ = press(t, m, "right")
	if m.descScroll == 0 {
		t.Fatal("expected a scrolled preview before filtering")
	}

	m, _ = press(t, m, "ctrl+f")
	for _, token := range []string{"d", "o", "c"} {
		m, _ = press(t, m, token)
	}
	m, _ = press(t, m, "enter")
	if m.selectedID != "tix-2" {
		t.Fatalf("selectedID = %q, want tix-2", m.selectedID)
	}
	if m.descScroll != 0 {
		t.Fatalf("descScroll = %d after selection moved, want 0", m.descScroll)
	}
}

func TestWindowBounds(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		selected  int
		window    int
		wantStart int
		wantEnd   int
	}{
		{"fits entirely", 5, 2, 10, 0, 5},
		{"top", 20, 0, 5, 0, 5},
		{"middle keeps selection centered", 20, 10, 5, 8, 13},
		{"bottom clamps", 20, 19, 5, 15, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := windowBounds(tc.total, tc.selected, tc.window)
			if start != tc.wantStart || end != tc.wantEnd {
				t.Fatalf("windowBounds(%d, %d, %d) = %d, %d want %d, %d",
					tc.total, tc.selected, tc.window, start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}
