package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/sakhi/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// stateChangedMsg reports that a channel's controller changed state.
type stateChangedMsg struct {
	channel model.Channel
}

// fileLoadedMsg carries a QR image read from disk along with the input
// value it was read for.
type fileLoadedMsg struct {
	err   error
	input string
	path  string
	data  []byte
}

// waitForState blocks until the channel's controller signals a transition.
func waitForState(ch model.Channel, notify <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-notify; !ok {
			return nil
		}
		return stateChangedMsg{channel: ch}
	}
}

// loadFile reads the QR image named by input. An empty path yields an empty
// selection.
func loadFile(input string) tea.Cmd {
	return func() tea.Msg {
		path := strings.TrimSpace(input)
		if path == "" {
			return fileLoadedMsg{input: input}
		}
		data, err := os.ReadFile(filepath.Clean(path))
		return fileLoadedMsg{input: input, path: path, data: data, err: err}
	}
}
