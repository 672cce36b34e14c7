package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// RenderState renders a controller state for the terminal.
func RenderState(channel model.Channel, s lifecycle.State) string {
	switch s.Phase {
	case lifecycle.PhaseIdle:
		if s.Message != "" {
			return FormatWarning(s.Message)
		}
		return SubtleStyle.Render("Enter a " + channel.Title() + " to verify.")
	case lifecycle.PhaseValidating:
		return SubtleStyle.Render(ClockIcon + " Checking input...")
	case lifecycle.PhaseSubmitting:
		return SubtleStyle.Render(ClockIcon + " Verifying with the classification service...")
	case lifecycle.PhaseError:
		return FormatError(s.Message)
	case lifecycle.PhaseResult:
		if s.Verdict == nil {
			return FormatError("unexpected response from API")
		}
		return RenderVerdict(*s.Verdict)
	default:
		return ""
	}
}

// RenderVerdict renders a verdict as a boxed summary.
func RenderVerdict(v model.Verdict) string {
	var b strings.Builder

	label := SafeStyle.Render(SuccessIcon + " " + v.Display)
	if v.IsSuspicious() {
		label = SuspiciousStyle.Render(AlertIcon + " " + v.Display)
	}
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Result:"), label)
	fmt.Fprintf(&b, "%s %s", BoldStyle.Render(subjectLabel(v.Channel)+":"), v.SubjectEcho)
	if v.Confidence != nil {
		fmt.Fprintf(&b, "\n%s %s", BoldStyle.Render("Confidence:"), v.Confidence.String())
	}

	return RenderBox(v.Channel.Title()+" verification", b.String())
}

// RenderHistory renders stored checks as a table, newest first.
func RenderHistory(checks []model.Check) string {
	if len(checks) == 0 {
		return SubtleStyle.Render("No checks recorded yet.")
	}

	headers := []string{"When", "Channel", "Subject", "Result", "Confidence"}
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		conf := "-"
		if c.Confidence != nil {
			conf = c.Confidence.String()
		}
		display := c.Display
		if display == "" {
			display = string(c.Label)
		}
		rows = append(rows, []string{
			c.CheckedAt.Local().Format(time.DateTime),
			c.Channel.Title(),
			truncate(c.Subject, 40),
			display,
			conf,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = TableCellStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...)))
	for ri, r := range rows {
		b.WriteByte('\n')
		for i, cell := range r {
			style := TableCellStyle.Width(widths[i] + 2)
			if i == 3 {
				if checks[ri].Label == model.LabelSuspicious {
					style = style.Inherit(SuspiciousStyle)
				} else {
					style = style.Inherit(SafeStyle)
				}
			}
			cells[i] = style.Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}

// Summary counts batch outcomes.
type Summary struct {
	Suspicious int
	Safe       int
	Invalid    int
	Failed     int
}

// Add counts a final controller state.
func (s *Summary) Add(st lifecycle.State) {
	switch st.Phase {
	case lifecycle.PhaseResult:
		if st.Verdict != nil && st.Verdict.IsSuspicious() {
			s.Suspicious++
		} else {
			s.Safe++
		}
	case lifecycle.PhaseError:
		s.Failed++
	default:
		s.Invalid++
	}
}

// Total returns the number of counted states.
func (s Summary) Total() int {
	return s.Suspicious + s.Safe + s.Invalid + s.Failed
}

// Render formats the summary.
func (s Summary) Render() string {
	lines := []string{
		fmt.Sprintf("Checked:    %d", s.Total()),
		SuspiciousStyle.Render(fmt.Sprintf("Suspicious: %d", s.Suspicious)),
		SafeStyle.Render(fmt.Sprintf("Safe:       %d", s.Safe)),
	}
	if s.Invalid > 0 {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("Invalid:    %d", s.Invalid)))
	}
	if s.Failed > 0 {
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("Errors:     %d", s.Failed)))
	}
	return RenderBox("Batch summary", strings.Join(lines, "\n"))
}

// FormatLine renders a state as a single line for batch output.
func FormatLine(subject string, s lifecycle.State) string {
	switch s.Phase {
	case lifecycle.PhaseResult:
		if s.Verdict == nil {
			return FormatError(subject + ": unexpected response from API")
		}
		text := subject + ": " + s.Verdict.Display
		if s.Verdict.Confidence != nil {
			text += " (" + s.Verdict.Confidence.String() + ")"
		}
		if s.Verdict.IsSuspicious() {
			return SuspiciousStyle.Render(AlertIcon + " " + text)
		}
		return FormatSuccess(text)
	case lifecycle.PhaseError:
		return FormatError(subject + ": " + s.Message)
	default:
		return FormatWarning(subject + ": " + s.Message)
	}
}

func subjectLabel(c model.Channel) string {
	switch c {
	case model.ChannelPhone:
		return "Phone number"
	case model.ChannelSMS:
		return "Message"
	case model.ChannelURL:
		return "URL"
	case model.ChannelUPI:
		return "UPI ID"
	case model.ChannelQR:
		return "File"
	default:
		return "Input"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
