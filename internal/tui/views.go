package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.tabs) == 0 {
		return m.theme.StatusError.Render("no channels available")
	}

	t := m.tabs[m.active]
	sections := []string{
		m.theme.Title.Render("🛡️  Sakhi fraud check"),
		m.renderTabs(),
		"",
		m.theme.Bold.Render(t.channel.Title()),
		t.input.View(),
		"",
		m.renderStatus(t),
		"",
	}
	if m.showHelp {
		sections = append(sections, m.help.FullHelpView(m.keymap.FullHelp()))
	} else {
		sections = append(sections, m.help.ShortHelpView(m.keymap.ShortHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTabs() string {
	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		label := t.channel.Title()
		if t.state.Busy() {
			label += " …"
		}
		if i == m.active {
			parts[i] = m.theme.TabActive.Render(label)
		} else {
			parts[i] = m.theme.TabInactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderStatus(t tab) string {
	if t.notice != "" {
		return m.theme.StatusWarning.Render(t.notice)
	}

	s := t.state
	switch s.Phase {
	case lifecycle.PhaseIdle:
		if s.Message != "" {
			return m.theme.StatusWarning.Render(s.Message)
		}
		return m.theme.Subtitle.Render("Press Enter to verify.")
	case lifecycle.PhaseValidating:
		return m.spinner.View() + " " + m.theme.StatusPending.Render("Checking input...")
	case lifecycle.PhaseSubmitting:
		return m.spinner.View() + " " + m.theme.StatusPending.Render("Verifying...")
	case lifecycle.PhaseError:
		return m.theme.StatusError.Render("✗ " + s.Message)
	case lifecycle.PhaseResult:
		if s.Verdict == nil {
			return ""
		}
		return m.renderVerdict(*s.Verdict)
	default:
		return ""
	}
}

func (m Model) renderVerdict(v model.Verdict) string {
	style := m.theme.StatusSafe
	icon := "✓"
	if v.IsSuspicious() {
		style = m.theme.StatusDanger
		icon = "🚨"
	}

	lines := []string{
		style.Render(icon + " " + v.Display),
		m.theme.Normal.Render(v.SubjectEcho),
	}
	if v.Confidence != nil {
		lines = append(lines, m.theme.Subtitle.Render(fmt.Sprintf("Confidence: %s", v.Confidence)))
	}
	return m.theme.RoundedBox.Render(strings.Join(lines, "\n"))
}
