package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/taskmaster/internal/controlplane"
	"github.com/fentz26/taskmaster/internal/task"
)

type fakeSource struct {
	tasks    []controlplane.TaskView
	deleted  []string
	searched string
	passes   int
	err      error
}

func (f *fakeSource) ListTasks() ([]controlplane.TaskView, error) { return f.tasks, f.err }

func (f *fakeSource) SearchTasks(q string) ([]controlplane.TaskView, error) {
	f.searched = q
	var out []controlplane.TaskView
	for _, t := range f.tasks {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(q)) {
			out = append(out, t)
		}
	}
	return out, f.err
}

func (f *fakeSource) DeleteTask(id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSource) Process(context.Context) (*controlplane.PassReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.passes++
	return &controlplane.PassReport{
		RunID: "0123456789abcdef",
		Fired: []controlplane.FiringView{{TaskID: "t2", Name: "Water plants", Frequency: "weekly"}},
	}, nil
}

func view(id, name, schedule string) controlplane.TaskView {
	return controlplane.TaskView{Input: task.Input{ID: id, Name: name, Recurring: true}, Schedule: schedule}
}

func newLoadedApp(t *testing.T) (*App, *fakeSource) {
	t.Helper()
	src := &fakeSource{tasks: []controlplane.TaskView{
		view("t1", "Standup", "Every Mon-Fri at 09:45"),
		view("t2", "Water plants", "Every Sat"),
		{Input: task.Input{ID: "t3", Name: "Broken"}, Invalid: "task Broken: bad"},
	}}
	a := New(src, "sqlite: test.db")
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	apply(t, a, a.fetchTasks())
	return a, src
}

// apply runs cmd and feeds its message back into the model, following any
// refresh it triggers.
func apply(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 5; i++ {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return
		}
		_, cmd = a.Update(msg)
	}
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestApp_LoadAndRender(t *testing.T) {
	a, _ := newLoadedApp(t)

	require.Len(t, a.tasks, 3)
	out := a.View()
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "Every Sat")
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "Tasks: 3")
}

func TestApp_NavigateAndOpen(t *testing.T) {
	a, _ := newLoadedApp(t)

	a.Update(key(tea.KeyDown))
	a.Update(key(tea.KeyDown))
	a.Update(key(tea.KeyDown))
	assert.Equal(t, 2, a.selectedIdx, "selection stops at the last task")

	a.Update(key(tea.KeyUp))
	a.Update(key(tea.KeyEnter))
	assert.Equal(t, modeDetail, a.mode)
	assert.Contains(t, a.View(), "Every Sat")
	assert.Contains(t, a.View(), "never")

	a.Update(key(tea.KeyEsc))
	assert.Equal(t, modeList, a.mode)
}

func TestApp_Search(t *testing.T) {
	a, src := newLoadedApp(t)

	apply(t, a, a.executeCommand("/search water"))
	assert.Equal(t, "water", src.searched)
	require.Len(t, a.tasks, 1)
	assert.Equal(t, "Water plants", a.tasks[0].Name)
	assert.Contains(t, a.View(), "[search: water]")

	apply(t, a, a.executeCommand("clear"))
	assert.Len(t, a.tasks, 3)

	apply(t, a, a.executeCommand("search"))
	assert.Contains(t, a.message, "Usage")
}

func TestApp_Delete(t *testing.T) {
	a, src := newLoadedApp(t)
	a.selectedIdx = 1

	apply(t, a, a.executeCommand("/delete Standup"))
	assert.Empty(t, src.deleted, "name must match the selection")
	assert.Contains(t, a.message, "not")

	apply(t, a, a.executeCommand("/delete"))
	assert.Equal(t, []string{"t2"}, src.deleted)
	assert.Contains(t, a.message, "Deleted Water plants")
}

func TestApp_ProcessAndJump(t *testing.T) {
	a, src := newLoadedApp(t)

	apply(t, a, a.executeCommand("process"))
	assert.Equal(t, 1, src.passes)
	assert.Contains(t, a.message, "01234567")
	assert.Contains(t, a.message, "1 fired")

	apply(t, a, a.executeCommand("@water"))
	assert.Equal(t, 1, a.selectedIdx)
	assert.Equal(t, modeDetail, a.mode)
	assert.Contains(t, a.View(), "Fired in last pass (weekly)")

	apply(t, a, a.executeCommand("@nothing"))
	assert.Contains(t, a.message, "No task named")
}

func TestApp_Errors(t *testing.T) {
	a, src := newLoadedApp(t)
	src.err = errors.New("database is locked")

	apply(t, a, a.executeCommand("process"))
	assert.Equal(t, "Error: database is locked", a.message)

	apply(t, a, a.executeCommand("frobnicate"))
	assert.Contains(t, a.message, "Unknown: frobnicate")
}

func TestSuggestions(t *testing.T) {
	s := NewSuggestions()

	s.Update("/de")
	require.True(t, s.IsVisible())
	assert.Equal(t, "delete", s.Selected().Text)

	s.Update("@")
	s.SetTasks([]string{"Standup", "Water plants"})
	s.Update("@wat")
	require.True(t, s.IsVisible())
	assert.Equal(t, "Water plants", s.Selected().Text)

	s.Update("plain text")
	assert.False(t, s.IsVisible())
}
