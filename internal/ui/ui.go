package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	pipeline     *tasks.Pipeline
	imagePath    string
	width        int
	height       int
	input        textinput.Model
	spinner      spinner.Model
	trackList    list.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan cycleOutcome
	progress     tasks.ProgressUpdate
	result       *tasks.Result
	err          error
	showParams   bool
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over an authorized pipeline.
//
// When imagePath is set the first cycle starts immediately, otherwise the model prompts for a photo.
func NewModel(ctx context.Context, pipeline *tasks.Pipeline, imagePath string) *Model {
	input := textinput.New()
	input.Placeholder = "path/to/photo.jpg"
	input.CharLimit = 512
	input.Width = 60
	input.SetValue(imagePath)
	input.Focus()

	trackList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = "Recommendations"

	return &Model{
		ctx:       ctx,
		view:      PromptView,
		pipeline:  pipeline,
		imagePath: imagePath,
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		trackList: trackList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the first cycle when a photo was given on the command line.
func (m *Model) Init() tea.Cmd {
	if m.imagePath != "" {
		return m.run(m.imagePath)
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case RunView:
			if key.Matches(msg, m.keys.cancel) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgCycleComplete:
			outcome := msg.data.(cycleOutcome)
			m.finish(outcome.result, outcome.err)
			return m, nil
		}
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.result != nil || m.err != nil {
			m.view = ResultView
			m.input.Blur()
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			return m, nil
		}
		m.input.Blur()
		return m, m.run(path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.photo):
		m.view = PromptView
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.rerun):
		if m.imagePath == "" {
			return m, nil
		}
		return m, m.run(m.imagePath)
	case key.Matches(msg, m.keys.params):
		m.showParams = !m.showParams
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PromptView:
		m.input, cmd = m.input.Update(msg)
	case ResultView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// run switches to the progress view and starts a cycle for path.
func (m *Model) run(path string) tea.Cmd {
	m.view = RunView
	m.imagePath = path
	m.err = nil
	m.progress = tasks.ProgressUpdate{Message: "Starting..."}
	return tea.Batch(m.spinner.Tick, m.startCycle(path))
}

// startCycle runs the pipeline on a goroutine and returns the command that relays its progress.
func (m *Model) startCycle(path string) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan cycleOutcome, 1)
	m.progressChan = progress
	m.doneChan = done

	go func() {
		result, err := m.pipeline.Run(m.ctx, progress, path)
		done <- cycleOutcome{result: result, err: err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return cycleCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			outcome := <-done
			return cycleCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) finish(result *tasks.Result, err error) {
	m.progressChan = nil
	m.doneChan = nil
	m.err = err
	m.view = ResultView

	// A failed recommendation call still returns the analysis.
	if result != nil {
		m.result = result
		m.trackList.SetItems(trackItems(result.Recommendations))
	} else if err != nil {
		m.trackList.SetItems(nil)
	}
	m.showParams = err != nil && result != nil && result.Analysis != nil
}

func (m *Model) renderPrompt() string {
	title := styles.title.Render("snapmix: photo → playlist")
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.cancel}
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderRun() string {
	title := styles.title.Render(fmt.Sprintf("Analyzing %s", m.imagePath))

	var step string
	if m.progress.Total > 0 {
		step = styles.help.Render(fmt.Sprintf("[%d/%d] %s", m.progress.Step, m.progress.Total, m.progress.Phase))
	}

	return fmt.Sprintf("%s\n%s %s\n%s", title, m.spinner.View(), m.progress.Message, step)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.photo, m.keys.rerun, m.keys.params, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.result == nil {
		b.WriteString(styles.warn.Render("No recommendations yet"))
		fmt.Fprintf(&b, "\n\n%s", helpView)
		return b.String()
	}

	if m.result.Profile != nil {
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %s", m.result.Profile.Name())))
		b.WriteString("\n")
	}

	if m.showParams && m.result.Analysis != nil {
		b.WriteString(renderParams(m.result.Analysis.Params))
		fmt.Fprintf(&b, "\n%s", helpView)
		return b.String()
	}

	fmt.Fprintf(&b, "%s\n\n%s", m.trackList.View(), helpView)
	return b.String()
}

func renderParams(set params.Set) string {
	if set.Len() == 0 {
		return styles.warn.Render("The analysis produced no usable parameters") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Parameters"))
	b.WriteString("\n")
	for _, k := range set.Keys() {
		v, _ := set.Get(k)
		fmt.Fprintf(&b, "%s %s\n", styles.key.Render(k), v)
	}
	return b.String()
}
