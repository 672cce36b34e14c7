package tui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// tab is one channel page.
type tab struct {
	ctrl   *lifecycle.Controller
	notify chan struct{}
	input  textinput.Model
	// notice is a local message not owned by the controller, such as an
	// unreadable file path.
	notice  string
	state   lifecycle.State
	channel model.Channel
}

// Model holds the main TUI state.
type Model struct {
	ctx      context.Context
	theme    themes.Theme
	help     help.Model
	spinner  spinner.Model
	keymap   KeyMap
	tabs     []tab
	active   int
	width    int
	height   int
	showHelp bool
	quitting bool
}

// newModel creates a model with one tab per page controller.
func newModel(ctx context.Context, cfg Config, pages *lifecycle.Pages) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.StatusPending

	m := Model{
		ctx:      ctx,
		theme:    cfg.Theme,
		help:     help.New(),
		spinner:  sp,
		keymap:   DefaultKeyMap(),
		width:    cfg.Width,
		height:   cfg.Height,
		showHelp: cfg.ShowHelp,
	}

	for i, ch := range model.AllChannels {
		ctrl, ok := pages.Get(ch)
		if !ok {
			continue
		}

		in := textinput.New()
		in.Placeholder = placeholder(ch)
		in.CharLimit = 2048
		in.Width = max(20, cfg.Width-10)

		notify := make(chan struct{}, 1)
		ctrl.Observe(func(lifecycle.State) {
			select {
			case notify <- struct{}{}:
			default:
			}
		})

		m.tabs = append(m.tabs, tab{
			channel: ch,
			ctrl:    ctrl,
			input:   in,
			notify:  notify,
			state:   ctrl.State(),
		})
		if ch == cfg.Initial {
			m.active = i
		}
	}
	if len(m.tabs) > 0 {
		m.tabs[m.active].input.Focus()
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	for _, t := range m.tabs {
		cmds = append(cmds, waitForState(t.channel, t.notify))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.tabs {
			m.tabs[i].input.Width = max(20, msg.Width-10)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateChangedMsg:
		i := m.indexOf(msg.channel)
		if i < 0 {
			return m, nil
		}
		m.tabs[i].state = m.tabs[i].ctrl.State()
		return m, waitForState(m.tabs[i].channel, m.tabs[i].notify)

	case fileLoadedMsg:
		i := m.indexOf(model.ChannelQR)
		if i < 0 {
			return m, nil
		}
		// The path was edited while the file was being read.
		if m.tabs[i].input.Value() != msg.input {
			return m, nil
		}
		if msg.err != nil {
			m.tabs[i].notice = fmt.Sprintf("could not read %s: %v", msg.path, msg.err)
			return m, nil
		}
		in := model.RawInput{}
		if msg.path != "" {
			in = model.FileInput(filepath.Base(msg.path), msg.data)
		}
		m.submit(i, in)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keymap.NextTab):
		return m.switchTab(1), nil

	case key.Matches(msg, m.keymap.PrevTab):
		return m.switchTab(-1), nil

	case key.Matches(msg, m.keymap.Clear):
		if len(m.tabs) == 0 {
			return m, nil
		}
		t := &m.tabs[m.active]
		t.input.Reset()
		t.notice = ""
		t.ctrl.Edit()
		t.state = t.ctrl.State()
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		if len(m.tabs) == 0 {
			return m, nil
		}
		t := &m.tabs[m.active]
		// The submit affordance is disabled while an attempt runs.
		if t.ctrl.State().Busy() {
			return m, nil
		}
		if t.channel == model.ChannelQR {
			return m, loadFile(t.input.Value())
		}
		m.submit(m.active, model.TextInput(t.input.Value()))
		return m, nil
	}

	return m.updateInput(msg)
}

// updateInput forwards msg to the active input and treats any change of its
// value as an edit.
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.tabs) == 0 {
		return m, nil
	}
	t := &m.tabs[m.active]
	before := t.input.Value()

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)

	if t.input.Value() != before {
		t.notice = ""
		t.ctrl.Edit()
		t.state = t.ctrl.State()
	}
	return m, cmd
}

func (m *Model) submit(i int, in model.RawInput) {
	t := &m.tabs[i]
	t.notice = ""
	t.ctrl.Submit(m.ctx, in)
	t.state = t.ctrl.State()
}

func (m Model) switchTab(delta int) Model {
	if len(m.tabs) == 0 {
		return m
	}
	m.tabs[m.active].input.Blur()
	m.active = (m.active + delta + len(m.tabs)) % len(m.tabs)
	m.tabs[m.active].input.Focus()
	return m
}

func (m Model) indexOf(ch model.Channel) int {
	for i, t := range m.tabs {
		if t.channel == ch {
			return i
		}
	}
	return -1
}

// Active returns the channel of the selected tab.
func (m Model) Active() model.Channel {
	if len(m.tabs) == 0 {
		return ""
	}
	return m.tabs[m.active].channel
}

func placeholder(ch model.Channel) string {
	switch ch {
	case model.ChannelPhone:
		return "+91 98765 43210"
	case model.ChannelSMS:
		return "Paste the message text"
	case model.ChannelURL:
		return "https://example.com/login"
	case model.ChannelUPI:
		return "name@bank"
	case model.ChannelQR:
		return "Path to a QR code image"
	default:
		return ""
	}
}
