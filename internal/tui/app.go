// Package tui provides the interactive terminal browser for the task catalog.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/taskmaster/internal/controlplane"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	scheduleStyle = lipgloss.NewStyle().Foreground(cyanColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	invalidStyle  = lipgloss.NewStyle().Foreground(errorColor)
)

// Source is where the browser reads and changes tasks. controlplane.Service
// (in-process) and Client (a running daemon) both satisfy it.
type Source interface {
	ListTasks() ([]controlplane.TaskView, error)
	SearchTasks(q string) ([]controlplane.TaskView, error)
	DeleteTask(id string) error
	Process(ctx context.Context) (*controlplane.PassReport, error)
}

const (
	modeList   = "list"
	modeDetail = "detail"
)

// App is the main TUI application model.
type App struct {
	source      Source
	origin      string
	tasks       []controlplane.TaskView
	selectedIdx int
	input       textinput.Model
	width       int
	height      int
	mode        string
	query       string
	message     string
	loading     bool
	suggestions *Suggestions
	lastPass    *controlplane.PassReport
}

// New creates a new TUI application. origin names where tasks come from
// and is shown in the header.
func New(source Source, origin string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: /search <name> | /delete | /process | @<task>"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	return &App{
		source:      source,
		origin:      origin,
		input:       ti,
		mode:        modeList,
		suggestions: NewSuggestions(),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == modeDetail {
				a.mode = modeList
				return a, nil
			}
			if a.input.Value() != "" {
				a.input.SetValue("")
				a.suggestions.Update("")
				return a, nil
			}
			if a.query != "" {
				a.query = ""
				return a, a.fetchTasks()
			}

		case "up", "ctrl+p":
			if a.suggestions.IsVisible() {
				a.suggestions.Prev()
			} else if a.selectedIdx > 0 {
				a.selectedIdx--
			}
			return a, nil

		case "down", "ctrl+n":
			if a.suggestions.IsVisible() {
				a.suggestions.Next()
			} else if a.selectedIdx < len(a.tasks)-1 {
				a.selectedIdx++
			}
			return a, nil

		case "tab":
			if a.suggestions.IsVisible() {
				a.acceptSuggestion()
			}
			return a, nil

		case "enter":
			if a.suggestions.IsVisible() {
				a.acceptSuggestion()
				if !strings.HasPrefix(a.input.Value(), "@") {
					return a, nil
				}
			}
			line := strings.TrimSpace(a.input.Value())
			if line != "" {
				a.input.SetValue("")
				a.suggestions.Update("")
				return a, a.executeCommand(line)
			}
			if a.mode == modeList && len(a.tasks) > 0 {
				a.mode = modeDetail
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}
		if len(a.tasks) == 0 && a.mode == modeDetail {
			a.mode = modeList
		}
		return a, nil

	case passDoneMsg:
		a.lastPass = msg.report
		a.message = fmt.Sprintf("✓ Pass %s: %d fired", shortID(msg.report.RunID), len(msg.report.Fired))
		return a, a.fetchTasks()

	case commandResultMsg:
		a.message = msg.message
		if msg.refresh {
			return a, a.fetchTasks()
		}
		return a, nil

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	a.suggestions.Update(a.input.Value())
	if strings.HasPrefix(a.input.Value(), "@") {
		names := make([]string, len(a.tasks))
		for i, t := range a.tasks {
			names[i] = t.Name
		}
		a.suggestions.SetTasks(names)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) acceptSuggestion() {
	selected := a.suggestions.Selected()
	if selected == nil {
		return
	}
	if selected.Type == "task" {
		a.input.SetValue("@" + selected.Text)
	} else {
		a.input.SetValue("/" + selected.Text + " ")
	}
	a.input.CursorEnd()
	a.suggestions.Update("")
}

// selected returns the highlighted task, or nil.
func (a *App) selected() *controlplane.TaskView {
	if a.selectedIdx < 0 || a.selectedIdx >= len(a.tasks) {
		return nil
	}
	return &a.tasks[a.selectedIdx]
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	header := titleStyle.Render("⏰ TaskMaster")
	header += "  " + mutedStyle.Render(a.origin)
	if a.query != "" {
		header += "  " + lipgloss.NewStyle().Foreground(warningColor).Render(fmt.Sprintf("[search: %s]", a.query))
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case modeDetail:
		b.WriteString(a.renderTaskDetail())
	default:
		b.WriteString(a.renderTaskList(contentHeight))
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))

	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeDetail:
		status = " Esc:back | /delete | /process | Ctrl+C:quit"
	default:
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Enter:open | /:commands | @:jump | Esc:clear | Ctrl+C:quit", len(a.tasks))
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))

	return b.String()
}

func (a *App) renderTaskList(height int) string {
	if a.loading && len(a.tasks) == 0 {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		if a.query != "" {
			return fmt.Sprintf("\n  No task name contains %q.\n", a.query)
		}
		return "\n  No tasks yet. Add one with: taskmaster task add\n"
	}

	var lines []string
	for i, t := range a.tasks {
		schedule := t.Schedule
		if t.Invalid != "" {
			schedule = "invalid"
		}
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %s  %s", t.Name, schedule)))
			continue
		}
		desc := scheduleStyle.Render(schedule)
		if t.Invalid != "" {
			desc = invalidStyle.Render(schedule)
		}
		lines = append(lines, taskItemStyle.Render(fmt.Sprintf("  %s  %s", t.Name, desc)))
	}

	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderTaskDetail() string {
	t := a.selected()
	if t == nil {
		return "\n  No task selected.\n"
	}

	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", mutedStyle.Render(label+":"), value))
	}

	b.WriteString(fmt.Sprintf("\n  📋 %s\n", lipgloss.NewStyle().Bold(true).Render(t.Name)))
	field("ID", t.ID)
	field("URL", t.URL)
	if t.Invalid != "" {
		b.WriteString("  " + invalidStyle.Render("✗ "+t.Invalid) + "\n")
	} else {
		field("Schedule", scheduleStyle.Render(t.Schedule))
	}
	kind := "one-off"
	if t.Recurring {
		kind = "recurring"
	}
	field("Kind", kind)
	field("Active from", t.ActiveFrom)
	field("Active until", t.ActiveUntil)
	field("Days of year", t.DaysOfYear)
	field("Days of month", t.DaysOfMonth)
	field("Days of week", t.DaysOfWeek)
	field("Times of day", t.TimesOfDay)
	field("Last reminded", formatLastReminded(t.LastReminded))

	if a.lastPass != nil {
		for _, f := range a.lastPass.Fired {
			if f.TaskID != "" && f.TaskID != t.ID {
				continue
			}
			if f.TaskID == "" && f.Name != t.Name {
				continue
			}
			line := fmt.Sprintf("  Fired in last pass (%s)", f.Frequency)
			if f.Error != "" {
				b.WriteString(invalidStyle.Render(line+": "+f.Error) + "\n")
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(secondaryColor).Render(line) + "\n")
			}
		}
	}

	return b.String()
}

func formatLastReminded(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
