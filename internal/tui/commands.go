package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fentz26/taskmaster/internal/controlplane"
)

type tasksLoadedMsg struct {
	tasks []controlplane.TaskView
}

type commandResultMsg struct {
	message string
	refresh bool
}

type passDoneMsg struct {
	report *controlplane.PassReport
}

type errMsg struct {
	err error
}

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	query := a.query
	return func() tea.Msg {
		var (
			tasks []controlplane.TaskView
			err   error
		)
		if query != "" {
			tasks, err = a.source.SearchTasks(query)
		} else {
			tasks, err = a.source.ListTasks()
		}
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

// executeCommand handles one line typed into the input box. A leading "/"
// is optional for commands; "@name" jumps to a task.
func (a *App) executeCommand(line string) tea.Cmd {
	if strings.HasPrefix(line, "@") {
		return a.jumpTo(strings.TrimSpace(line[1:]))
	}

	line = strings.TrimPrefix(line, "/")
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "search", "find":
		if arg == "" {
			return result("Usage: search <name>", false)
		}
		a.query = arg
		a.selectedIdx = 0
		a.mode = modeList
		return a.fetchTasks()

	case "clear":
		a.query = ""
		a.mode = modeList
		return a.fetchTasks()

	case "refresh":
		return a.fetchTasks()

	case "show", "open":
		if a.selected() == nil {
			return result("No task selected", false)
		}
		a.mode = modeDetail
		return nil

	case "delete", "rm":
		t := a.selected()
		if t == nil {
			return result("No task selected", false)
		}
		if arg != "" && arg != t.Name && arg != t.ID {
			return result(fmt.Sprintf("Selected task is %q, not %q", t.Name, arg), false)
		}
		id, name := t.ID, t.Name
		a.mode = modeList
		return func() tea.Msg {
			if err := a.source.DeleteTask(id); err != nil {
				return errMsg{err}
			}
			return commandResultMsg{message: fmt.Sprintf("✓ Deleted %s", name), refresh: true}
		}

	case "process", "run":
		return func() tea.Msg {
			report, err := a.source.Process(context.Background())
			if err != nil {
				return errMsg{err}
			}
			return passDoneMsg{report}
		}

	case "quit", "exit", "q":
		return tea.Quit

	default:
		return result(fmt.Sprintf("Unknown: %s (try: search, clear, show, delete, process)", cmd), false)
	}
}

func (a *App) jumpTo(name string) tea.Cmd {
	lower := strings.ToLower(name)
	for i, t := range a.tasks {
		if strings.ToLower(t.Name) == lower {
			a.selectedIdx = i
			a.mode = modeDetail
			return nil
		}
	}
	for i, t := range a.tasks {
		if strings.Contains(strings.ToLower(t.Name), lower) {
			a.selectedIdx = i
			a.mode = modeDetail
			return nil
		}
	}
	return result(fmt.Sprintf("No task named %q", name), false)
}

func result(message string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{message: message, refresh: refresh}
	}
}
