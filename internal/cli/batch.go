package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/schollz/progressbar/v3"
)

// Checker runs one verification to completion.
type Checker interface {
	Check(ctx context.Context, in model.RawInput) lifecycle.State
}

// BatchRunner submits inputs one at a time through a single controller.
type BatchRunner struct {
	checker      Checker
	writer       io.Writer
	progressBar  *progressbar.ProgressBar
	showProgress bool
}

// NewBatchRunner creates a batch runner writing results to writer.
func NewBatchRunner(checker Checker, writer io.Writer, showProgress bool) *BatchRunner {
	if writer == nil {
		writer = os.Stdout
	}
	return &BatchRunner{
		checker:      checker,
		writer:       writer,
		showProgress: showProgress,
	}
}

// Run checks every input in order. With progress enabled, the per-input lines
// are printed once the bar completes. A canceled ctx stops the run and
// returns the summary so far.
func (b *BatchRunner) Run(ctx context.Context, inputs []model.RawInput) (Summary, error) {
	var summary Summary
	lines := make([]string, 0, len(inputs))

	if b.showProgress {
		b.initProgressBar(len(inputs))
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			b.flush(lines)
			return summary, err
		}

		st := b.checker.Check(ctx, in)
		summary.Add(st)

		line := FormatLine(in.Subject(), st)
		if b.progressBar != nil {
			lines = append(lines, line)
			if err := b.progressBar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		} else if _, err := fmt.Fprintln(b.writer, line); err != nil {
			return summary, fmt.Errorf("failed to write result: %w", err)
		}
	}

	b.flush(lines)
	return summary, nil
}

func (b *BatchRunner) flush(lines []string) {
	for _, line := range lines {
		if _, err := fmt.Fprintln(b.writer, line); err != nil {
			slog.Warn("Failed to write result", "error", err)
			return
		}
	}
}

func (b *BatchRunner) initProgressBar(total int) {
	b.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Verifying...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(b.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// ReadInputs reads one input per line. Blank lines and lines starting with
// '#' are skipped. For the QR channel each line is an image path; an
// unreadable file is submitted without data so the pre-screen rejects it.
func ReadInputs(r io.Reader, channel model.Channel) ([]model.RawInput, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var inputs []model.RawInput
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if channel != model.ChannelQR {
			inputs = append(inputs, model.TextInput(line))
			continue
		}

		data, err := os.ReadFile(filepath.Clean(trimmed))
		if err != nil {
			slog.Warn("Failed to read image", "path", trimmed, "error", err)
			data = nil
		}
		inputs = append(inputs, model.FileInput(filepath.Base(trimmed), data))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	return inputs, nil
}
