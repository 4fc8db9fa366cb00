package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskdeck/internal/cache"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// statusCycle is the set of status filters 'f' rotates through.
var statusCycle = []models.TaskStatus{
	"", // all
	models.StatusTodo,
	models.StatusInProgress,
	models.StatusCompleted,
}

type boardModel struct {
	cursor      int
	width       int
	height      int
	statusIdx   int
	tasks       []models.Task
	stats       models.TaskStats
	loading     bool
	errMsg      string
	events      <-chan cache.Event
	unsubscribe func()
}

// refreshMsg asks the model to re-read the cache's presented state.
type refreshMsg struct{}

// cacheEventMsg carries one cache state-transition event.
type cacheEventMsg struct {
	ev cache.Event
	ok bool
}

// Style definitions.
var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)

	priHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	priUrgent = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	priLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	boardErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boardHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newBoardModel() boardModel {
	events, unsubscribe := Tasks.Subscribe()
	return boardModel{
		loading:     true,
		events:      events,
		unsubscribe: unsubscribe,
	}
}

func (m boardModel) currentFilter() models.TaskFilter {
	f := models.TaskFilter{Status: statusCycle[m.statusIdx]}
	if Config != nil {
		f.SortBy = Config.DefaultSortBy
		f.Order = Config.DefaultOrder
	}
	return f
}

func loadTasks(f models.TaskFilter) tea.Cmd {
	return func() tea.Msg {
		_, _ = Tasks.SetFilter(context.Background(), f)
		return refreshMsg{}
	}
}

func reloadTasks(f models.TaskFilter) tea.Cmd {
	return func() tea.Msg {
		_ = Tasks.Load(context.Background(), f)
		return refreshMsg{}
	}
}

func toggleTask(id string) tea.Cmd {
	return func() tea.Msg {
		_, _ = Tasks.ToggleComplete(context.Background(), id)
		return refreshMsg{}
	}
}

func deleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		_ = Tasks.Delete(context.Background(), id)
		return refreshMsg{}
	}
}

func waitForEvent(events <-chan cache.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return cacheEventMsg{ev: ev, ok: ok}
	}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(loadTasks(m.currentFilter()), waitForEvent(m.events))
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.unsubscribe()
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
			return m, nil
		case " ", "enter":
			if m.cursor < len(m.tasks) {
				return m, toggleTask(m.tasks[m.cursor].ID)
			}
			return m, nil
		case "d":
			if m.cursor < len(m.tasks) {
				return m, deleteTask(m.tasks[m.cursor].ID)
			}
			return m, nil
		case "f":
			m.statusIdx = (m.statusIdx + 1) % len(statusCycle)
			m.loading = true
			return m, loadTasks(m.currentFilter())
		case "r":
			m.loading = true
			return m, reloadTasks(m.currentFilter())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		return m.resync(), nil

	case cacheEventMsg:
		if !msg.ok {
			return m, nil
		}
		return m.resync(), waitForEvent(m.events)
	}

	return m, nil
}

// resync re-reads the cache's presented state into the model.
func (m boardModel) resync() boardModel {
	m.tasks = Tasks.Snapshot()
	m.stats = Tasks.Stats()
	m.loading = Tasks.Loading()
	m.errMsg = ""
	if err := Tasks.LastErr(); err != nil {
		m.errMsg = err.Error()
	}
	if m.cursor >= len(m.tasks) && len(m.tasks) > 0 {
		m.cursor = len(m.tasks) - 1
	}
	return m
}

func (m boardModel) View() string {
	title := "taskdeck"
	if s := statusCycle[m.statusIdx]; s != "" {
		title += "  ·  " + string(s)
	}
	out := boardTitleStyle.Render(title) + "\n\n"

	switch {
	case m.loading:
		out += "  Loading tasks...\n"
	case len(m.tasks) == 0:
		out += "  No tasks. Press 'f' to change the filter or add one with 'taskdeck task add'.\n"
	default:
		for i, t := range m.tasks {
			prefix := "  "
			if i == m.cursor {
				prefix = cursorStyle.Render("> ")
			}
			mark := statusMark(t.Status)
			if Tasks.Pending(t.ID) {
				mark = pendingStyle.Render("[…]")
			}
			line := fmt.Sprintf("%s %s %s", mark, priStyle(t.Priority).Render(string(t.Priority)), t.Title)
			if t.Status == models.StatusCompleted {
				line = doneStyle.Render(line)
			}
			out += prefix + line + "\n"
		}
	}

	out += "\n" + fmt.Sprintf("  %d tasks · %d completed · %d pending · %d high priority\n",
		m.stats.Total, m.stats.Completed, m.stats.Pending, m.stats.HighPriority)
	if m.errMsg != "" {
		out += boardErrStyle.Render("  "+m.errMsg) + "\n"
	}
	out += boardHelpStyle.Render("  space toggle · d delete · f filter · r reload · q quit")
	return out
}

func priStyle(p models.TaskPriority) lipgloss.Style {
	switch p {
	case models.PriorityUrgent:
		return priUrgent
	case models.PriorityHigh:
		return priHigh
	case models.PriorityMedium:
		return priMedium
	default:
		return priLow
	}
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive task board",
	Long: `Open an interactive task board.

Toggling or deleting a task updates the view immediately; if the
server rejects the change, the row snaps back and the error is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("client not initialized")
		}
		if Sessions == nil || Sessions.Token() == "" {
			return fmt.Errorf("not signed in (use 'taskdeck auth login')")
		}

		p := tea.NewProgram(newBoardModel(), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running board: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
