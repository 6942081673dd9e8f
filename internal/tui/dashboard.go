// Package tui renders the live dashboard: stats, upcoming tasks, and
// the daily quote, fed by the view coordinator.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/auth"
	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/stats"
	"github.com/tasktide/tasktide/internal/tasktide"
)

// ViewMsg carries a fresh coordinator view into the program.
type ViewMsg tasktide.View

// NotificationMsg carries a transient toast into the program.
type NotificationMsg eventbus.NotificationPublishedPayload

type clearNotificationMsg struct{}

// Model is the dashboard bubbletea model.
type Model struct {
	user        auth.User
	coordinator *tasktide.Coordinator
	spinner     spinner.Model

	view         tasktide.View
	notification string
	width        int
}

// NewModel creates the dashboard model.
func NewModel(user auth.User, coordinator *tasktide.Coordinator) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		user:        user,
		coordinator: coordinator,
		spinner:     sp,
		view:        coordinator.Snapshot(),
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles program messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.coordinator.Stop()
			return m, tea.Quit
		case "r":
			if m.view.Quote.State == tasktide.StateError {
				c := m.coordinator
				return m, func() tea.Msg {
					c.RetryQuote(context.Background())
					return nil
				}
			}
		}
		return m, nil

	case ViewMsg:
		m.view = tasktide.View(msg)
		return m, nil

	case NotificationMsg:
		m.notification = msg.Message
		return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
			return clearNotificationMsg{}
		})

	case clearNotificationMsg:
		m.notification = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.user.Greeting()))
	b.WriteString("\n\n")

	if m.notification != "" {
		b.WriteString(notifyStyle.Render(m.notification))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(m.renderUpcoming())
	b.WriteString("\n")
	b.WriteString(m.renderQuote())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("q: quit  r: retry quote"))

	return b.String()
}

func (m Model) renderStats() string {
	switch {
	case m.view.Tasks.State == tasktide.StateError:
		return panelStyle.Render(errorStyle.Render("tasks unavailable: " + m.view.Tasks.Err.Error()))
	case m.view.Tasks.State != tasktide.StateReady:
		return panelStyle.Render(m.spinner.View() + " loading tasks...")
	}

	s := m.view.Stats

	var focus string
	switch {
	case m.view.Sessions.State == tasktide.StateError:
		focus = errorStyle.Render("unavailable")
	case m.view.Sessions.State != tasktide.StateReady:
		focus = m.spinner.View()
	default:
		focus = valueStyle.Render(fmt.Sprintf("%d min", s.FocusMinutes))
	}

	lines := []string{
		fmt.Sprintf("%s %s",
			labelStyle.Render("Today:"),
			valueStyle.Render(fmt.Sprintf("%d/%d done (%d%%)", s.TodayCompleted, s.TodayTotal, s.ProgressPercentage))),
		fmt.Sprintf("%s %s",
			labelStyle.Render("Overall:"),
			valueStyle.Render(fmt.Sprintf("%d%% complete", s.CompletionRate))),
		fmt.Sprintf("%s %s", labelStyle.Render("Focus:"), focus),
		fmt.Sprintf("%s %s", labelStyle.Render("Week:"), sparkline(s.Weekly)),
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderUpcoming() string {
	if m.view.Tasks.State != tasktide.StateReady {
		return ""
	}

	header := labelStyle.Render("Upcoming")
	if len(m.view.Stats.Upcoming) == 0 {
		return panelStyle.Render(header + "\n" + mutedStyle.Render("nothing due - nice"))
	}

	lines := []string{header}
	for _, t := range m.view.Stats.Upcoming {
		due := ""
		if t.Deadline != nil {
			due = deadlineStyle.Render(" due " + t.Deadline.Local().Format("Mon Jan 02"))
		}
		subject := ""
		if t.Subject != "" {
			subject = mutedStyle.Render(" [" + t.Subject + "]")
		}
		lines = append(lines, fmt.Sprintf("• %s%s%s", t.Title, subject, due))
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderQuote() string {
	switch m.view.Quote.State {
	case tasktide.StateError:
		return errorStyle.Render("quote unavailable") + helpStyle.Render("  (r to retry)")
	case tasktide.StateReady:
		return quoteStyle.Render("“" + m.view.QuoteText + "”")
	default:
		return mutedStyle.Render(m.spinner.View() + " fetching quote...")
	}
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the 7-day completed counts as a mini bar chart,
// oldest day on the left.
func sparkline(week []stats.DayCount) string {
	if len(week) == 0 {
		return ""
	}

	maxCount := 1
	for _, d := range week {
		if d.Completed > maxCount {
			maxCount = d.Completed
		}
	}

	var b strings.Builder
	for _, d := range week {
		idx := d.Completed * (len(sparkRunes) - 1) / maxCount
		b.WriteRune(sparkRunes[idx])
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Render(b.String())
}

// Run starts the dashboard program, wiring the coordinator and bus
// notifications into it, and blocks until the user quits.
func Run(ctx context.Context, app *tasktide.App, user auth.User, log zerolog.Logger) error {
	coordinator := app.NewCoordinator(log)

	m := NewModel(user, coordinator)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	app.Bus.SubscribeNotificationPublished(func(payload eventbus.NotificationPublishedPayload) {
		p.Send(NotificationMsg(payload))
	})

	coordinator.Start(ctx, user.ID, func(v tasktide.View) {
		p.Send(ViewMsg(v))
	})
	defer coordinator.Stop()

	_, err := p.Run()
	return err
}
