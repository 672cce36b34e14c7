package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRenderState(t *testing.T) {
	upi := &model.Verdict{
		Channel:     model.ChannelUPI,
		Label:       model.LabelSuspicious,
		Display:     "Spam / Fraudulent",
		SubjectEcho: "john@upi",
		Confidence:  &model.Confidence{Value: 0.8, Scale: model.ScaleFraction},
	}
	sms := &model.Verdict{
		Channel:     model.ChannelSMS,
		Label:       model.LabelSuspicious,
		Display:     "Spam / Unsafe",
		SubjectEcho: "WIN FREE CASH",
		Confidence:  &model.Confidence{Value: 97.3, Scale: model.ScalePercent},
	}
	url := &model.Verdict{
		Channel:     model.ChannelURL,
		Label:       model.LabelSafe,
		Display:     "Safe",
		SubjectEcho: "example.com",
	}

	tests := []struct {
		name     string
		channel  model.Channel
		state    lifecycle.State
		contains []string
		absent   []string
	}{
		{
			name:     "idle prompt",
			channel:  model.ChannelPhone,
			state:    lifecycle.State{Phase: lifecycle.PhaseIdle},
			contains: []string{"Enter a Phone"},
		},
		{
			name:     "validation notice",
			channel:  model.ChannelUPI,
			state:    lifecycle.State{Phase: lifecycle.PhaseIdle, Message: "invalid UPI ID format"},
			contains: []string{"invalid UPI ID format"},
		},
		{
			name:     "submitting",
			channel:  model.ChannelSMS,
			state:    lifecycle.State{Phase: lifecycle.PhaseSubmitting},
			contains: []string{"Verifying"},
		},
		{
			name:     "error passthrough",
			channel:  model.ChannelQR,
			state:    lifecycle.State{Phase: lifecycle.PhaseError, Message: "Uploaded file is not an image"},
			contains: []string{"Uploaded file is not an image"},
		},
		{
			name:     "fraction confidence renders as percent",
			channel:  model.ChannelUPI,
			state:    lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: upi},
			contains: []string{"Spam / Fraudulent", "john@upi", "80.00%", "UPI ID"},
		},
		{
			name:     "percent confidence is not rescaled",
			channel:  model.ChannelSMS,
			state:    lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: sms},
			contains: []string{"97.30%"},
			absent:   []string{"9730"},
		},
		{
			name:     "no confidence",
			channel:  model.ChannelURL,
			state:    lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: url},
			contains: []string{"Safe", "example.com"},
			absent:   []string{"Confidence"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderState(tt.channel, tt.state)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, no := range tt.absent {
				assert.NotContains(t, out, no)
			}
		})
	}
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil), "No checks recorded")

	checks := []model.Check{
		{
			ID: "1", Channel: model.ChannelPhone, Subject: "+911234567890",
			Label: model.LabelSuspicious, Display: "Spam / Unsafe",
			Confidence: &model.Confidence{Value: 0.42, Scale: model.ScaleFraction},
			CheckedAt:  time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "2", Channel: model.ChannelURL, Subject: strings.Repeat("a", 80),
			Label: model.LabelSafe, CheckedAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	out := RenderHistory(checks)

	assert.Contains(t, out, "Channel")
	assert.Contains(t, out, "+911234567890")
	assert.Contains(t, out, "Spam / Unsafe")
	assert.Contains(t, out, "42.00%")
	assert.Contains(t, out, "SAFE")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("a", 80))
}

func TestSummary(t *testing.T) {
	var s Summary
	s.Add(lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: &model.Verdict{Label: model.LabelSuspicious}})
	s.Add(lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: &model.Verdict{Label: model.LabelSafe}})
	s.Add(lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: &model.Verdict{Label: model.LabelSafe}})
	s.Add(lifecycle.State{Phase: lifecycle.PhaseError, Message: "error connecting to API"})
	s.Add(lifecycle.State{Phase: lifecycle.PhaseIdle, Message: "invalid UPI ID format"})

	assert.Equal(t, Summary{Suspicious: 1, Safe: 2, Failed: 1, Invalid: 1}, s)
	assert.Equal(t, 5, s.Total())

	out := s.Render()
	assert.Contains(t, out, "Suspicious: 1")
	assert.Contains(t, out, "Safe:       2")
	assert.Contains(t, out, "Errors:     1")
	assert.Contains(t, out, "Invalid:    1")
}

func TestFormatLine(t *testing.T) {
	v := &model.Verdict{
		Label: model.LabelSuspicious, Display: "Malicious",
		Confidence: &model.Confidence{Value: 0.991, Scale: model.ScaleFraction},
	}
	assert.Contains(t, FormatLine("qr.png", lifecycle.State{Phase: lifecycle.PhaseResult, Verdict: v}), "qr.png: Malicious (99.10%)")
	assert.Contains(t, FormatLine("x", lifecycle.State{Phase: lifecycle.PhaseError, Message: "boom"}), "x: boom")
	assert.Contains(t, FormatLine("y", lifecycle.State{Phase: lifecycle.PhaseIdle, Message: "UPI ID required"}), "y: UPI ID required")
}
