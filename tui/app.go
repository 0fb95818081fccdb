package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"logomotion/credential"
	"logomotion/gemini"
	"logomotion/media"
	"logomotion/workflow"
)

// AppStep is the screen currently shown
type AppStep int

const (
	StepGate AppStep = iota
	StepLogo
	StepUpload
	StepAnimate
	StepResult
)

type logoResultMsg struct {
	err      error
	uploaded bool
}

type videoResultMsg struct {
	err error
}

// statusMsg carries one progress message from the render loop
type statusMsg string

type savedMsg struct {
	path string
	err  error
}

type credentialResultMsg struct {
	err error
}

// Model is the Bubble Tea model for the logo to video workflow
type Model struct {
	ctrl *workflow.Controller
	gate *credential.Gate

	step AppStep

	// UI Components
	descInput   textinput.Model
	promptInput textinput.Model
	filepicker  filepicker.Model
	spinner     spinner.Model
	feed        *StatusFeed

	aspect  gemini.AspectRatio
	state   workflow.State
	working bool
	events  chan tea.Msg
	gateErr string
	saveDir string
	saved   string
	saveErr error

	startTime time.Time
	elapsed   time.Duration

	width  int
	height int

	quitting bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates the workflow model. The gate decides whether the key
// screen is shown first.
func NewModel(ctx context.Context, ctrl *workflow.Controller, gate *credential.Gate) Model {
	desc := textinput.New()
	desc.Placeholder = "A minimalist fox icon for a coffee roastery"
	desc.CharLimit = 500
	desc.Width = 60
	desc.Focus()

	prompt := textinput.New()
	prompt.Placeholder = "The fox winks and the steam curls upward"
	prompt.CharLimit = 500
	prompt.Width = 60

	fp := filepicker.New()
	fp.AllowedTypes = media.SupportedImageTypes
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.Height = 12

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorBrand)

	ctx, cancel := context.WithCancel(ctx)

	m := Model{
		ctrl:        ctrl,
		gate:        gate,
		descInput:   desc,
		promptInput: prompt,
		filepicker:  fp,
		spinner:     s,
		feed:        NewStatusFeed(76, 8),
		aspect:      gemini.AspectLandscape,
		saveDir:     ".",
		width:       80,
		height:      24,
		ctx:         ctx,
		cancel:      cancel,
	}
	m.state = ctrl.Snapshot()
	if m.state.CredentialSelected {
		m.step = StepLogo
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.feed.SetSize(max(m.width-4, 20), 8)
		m.filepicker.Height = max(m.height-20, 5)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		m = next

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case credentialResultMsg:
		m.gateErr = ""
		if msg.err != nil && !errors.Is(msg.err, huh.ErrUserAborted) {
			m.gateErr = msg.err.Error()
		}
		if m.gate.Selected() {
			m.ctrl.ClearError()
			m.feed.Add(FeedComplete, "API key selected")
		}
		m.refresh()
		if m.step == StepGate && m.state.CredentialSelected {
			m = m.enterStep(m.stepAfterGate())
		}
		return m, nil

	case logoResultMsg:
		m.working = false
		m.refresh()
		if msg.err != nil {
			m.feed.Add(FeedError, "Logo failed", truncateString(msg.err.Error(), 80))
			return m, nil
		}
		if msg.uploaded {
			m.feed.Add(FeedComplete, "Logo uploaded")
		} else {
			m.feed.Add(FeedComplete, "Logo generated")
		}
		m = m.enterStep(StepAnimate)
		return m, textinput.Blink

	case statusMsg:
		m.feed.Add(FeedStatus, string(msg))
		m.refresh()
		return m, waitForEvent(m.events)

	case savedMsg:
		m.saved, m.saveErr = msg.path, msg.err
		if msg.err == nil {
			m.feed.Add(FeedComplete, "Video saved", msg.path)
		}
		return m, nil

	case videoResultMsg:
		m.working = false
		m.events = nil
		m.saved, m.saveErr = "", nil
		m.elapsed = time.Since(m.startTime)
		m.refresh()
		if msg.err != nil {
			m.feed.Add(FeedError, "Video failed", truncateString(msg.err.Error(), 80))
			return m, nil
		}
		m.feed.Add(FeedComplete, "Video ready", formatDuration(m.elapsed))
		m = m.enterStep(StepResult)
		return m, nil
	}

	// Update sub-components based on step
	switch m.step {
	case StepLogo:
		var cmd tea.Cmd
		m.descInput, cmd = m.descInput.Update(msg)
		return m, cmd

	case StepAnimate:
		var cmd tea.Cmd
		m.promptInput, cmd = m.promptInput.Update(msg)
		return m, cmd

	case StepUpload:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.working = true
			m.feed.Add(FeedRequest, "Uploading logo", filepath.Base(path))
			return m, m.uploadLogo(path)
		}
		return m, cmd
	}

	return m, nil
}

// handleKey handles step keys. Keys it does not handle go to the focused
// component.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if m.working {
		return m, nil, true
	}

	switch m.step {
	case StepGate:
		switch msg.String() {
		case "enter":
			return m, m.requestCredential(), true
		case "q", "esc":
			m.quitting = true
			m.cancel()
			return m, tea.Quit, true
		}
		return m, nil, true

	case StepLogo:
		switch msg.String() {
		case "enter":
			description := m.descInput.Value()
			m.working = true
			m.feed.Add(FeedRequest, "Generating logo", truncateString(description, 40))
			return m, m.generateLogo(description), true
		case "ctrl+o":
			m = m.enterStep(StepUpload)
			return m, m.filepicker.Init(), true
		case "tab":
			if m.state.Logo != nil {
				m = m.enterStep(StepAnimate)
				return m, textinput.Blink, true
			}
			return m, nil, true
		}

	case StepUpload:
		if msg.String() == "esc" {
			m = m.enterStep(StepLogo)
			return m, textinput.Blink, true
		}

	case StepAnimate:
		switch msg.String() {
		case "enter":
			return m.startAnimation(m.promptInput.Value())
		case "tab":
			m.aspect = m.aspect.Toggle()
			return m, nil, true
		case "esc":
			m = m.enterStep(StepLogo)
			return m, textinput.Blink, true
		}

	case StepResult:
		switch msg.String() {
		case "s":
			return m, m.saveVideo(), true
		case "a", "esc":
			m = m.enterStep(StepAnimate)
			return m, textinput.Blink, true
		case "n":
			m.descInput.SetValue("")
			m = m.enterStep(StepLogo)
			return m, textinput.Blink, true
		case "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit, true
		}
		return m, nil, true
	}

	return m, nil, false
}

// enterStep switches screens and moves focus.
func (m Model) enterStep(step AppStep) Model {
	m.step = step
	m.descInput.Blur()
	m.promptInput.Blur()
	switch step {
	case StepLogo:
		m.descInput.Focus()
	case StepAnimate:
		m.promptInput.Focus()
	}
	return m
}

func (m Model) stepAfterGate() AppStep {
	switch {
	case m.state.Video != nil:
		return StepResult
	case m.state.Logo != nil:
		return StepAnimate
	default:
		return StepLogo
	}
}

// refresh pulls controller state. A closed gate takes over the screen.
func (m *Model) refresh() {
	m.state = m.ctrl.Snapshot()
	if !m.state.CredentialSelected {
		m.step = StepGate
	}
}

// credentialExec runs the key selection flow with the terminal released.
type credentialExec struct {
	ctx  context.Context
	gate *credential.Gate
}

func (c *credentialExec) Run() error          { return c.gate.RequestCredential(c.ctx) }
func (c *credentialExec) SetStdin(io.Reader)  {}
func (c *credentialExec) SetStdout(io.Writer) {}
func (c *credentialExec) SetStderr(io.Writer) {}

func (m Model) requestCredential() tea.Cmd {
	return tea.Exec(&credentialExec{ctx: m.ctx, gate: m.gate}, func(err error) tea.Msg {
		return credentialResultMsg{err: err}
	})
}

func (m Model) generateLogo(description string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return logoResultMsg{err: ctrl.GenerateLogo(ctx, description)}
	}
}

// saveVideo copies the current video out of the object store.
func (m Model) saveVideo() tea.Cmd {
	ctrl, dir := m.ctrl, m.saveDir
	return func() tea.Msg {
		path, err := ctrl.SaveVideo(dir)
		return savedMsg{path: path, err: err}
	}
}

func (m Model) uploadLogo(path string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return logoResultMsg{err: ctrl.UploadLogo(ctx, path), uploaded: true}
	}
}

// startAnimation runs Animate and streams its status messages. Status and
// the final result share one channel so they arrive in order.
func (m Model) startAnimation(prompt string) (Model, tea.Cmd, bool) {
	events := make(chan tea.Msg, 16)
	ctrl, ctx, aspect := m.ctrl, m.ctx, m.aspect

	m.working = true
	m.events = events
	m.startTime = time.Now()
	m.feed.Add(FeedRequest, "Animating logo", aspect.Ratio())

	run := func() tea.Msg {
		err := ctrl.Animate(ctx, prompt, aspect, func(status string) {
			send(ctx, events, statusMsg(status))
		})
		send(ctx, events, videoResultMsg{err: err})
		return nil
	}
	return m, tea.Batch(run, waitForEvent(events)), true
}

func send(ctx context.Context, ch chan<- tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	case <-ctx.Done():
	}
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return MutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	b.WriteString(GetHeader())
	b.WriteString("\n")

	if m.step != StepGate {
		b.WriteString(m.renderStepIndicator())
		b.WriteString("\n")
	}

	switch m.step {
	case StepGate:
		b.WriteString(m.renderGate())
	case StepLogo:
		b.WriteString(m.renderLogo())
	case StepUpload:
		b.WriteString(m.renderUpload())
	case StepAnimate:
		b.WriteString(m.renderAnimate())
	case StepResult:
		b.WriteString(m.renderResult())
	}

	if e := m.renderError(); e != "" {
		b.WriteString("\n")
		b.WriteString(e)
	}

	if m.step != StepGate && len(m.feed.Entries) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Activity"))
		b.WriteString("\n")
		b.WriteString(m.feed.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderStepIndicator() string {
	logo := WizardStep{Title: "Logo", Status: StepActive}
	animate := WizardStep{Title: "Animate", Status: StepPending}
	done := WizardStep{Title: "Video", Status: StepPending}

	if m.state.Logo != nil && m.step != StepLogo && m.step != StepUpload {
		logo.Status = StepCompleted
		animate.Status = StepActive
	}
	if m.step == StepResult {
		animate.Status = StepCompleted
		done.Status = StepCompleted
	}
	if m.state.Err != nil && !m.working {
		switch m.step {
		case StepLogo, StepUpload:
			logo.Status = StepError
		case StepAnimate:
			animate.Status = StepError
		}
	}

	return StepIndicator([]WizardStep{logo, animate, done})
}

func (m Model) renderGate() string {
	title := TitleStyle.Render("Select a Gemini API key")
	desc := BodyStyle.Render("A key with access to Imagen and Veo is required before you can generate anything.")
	help := MutedStyle.Render(credential.GetAPIKeyHelp())
	prompt := InfoStyle.Render("Press enter to paste a key.")

	content := title + "\n" + desc + "\n\n" + help + "\n\n" + prompt
	if m.gateErr != "" {
		content += "\n\n" + ErrorStyle.Render(m.gateErr)
	}
	return BoxStyle.Render(content)
}

func (m Model) renderLogo() string {
	title := TitleStyle.Render("Step 1: Describe your logo")
	desc := MutedStyle.Render("Describe the brand and style, or press ctrl+o to upload an image.")

	content := title + "\n" + desc + "\n\n" + m.descInput.View()

	if m.working {
		content += "\n\n" + m.spinner.View() + " " + BodyStyle.Render("Generating logo...")
	} else if m.state.Logo != nil {
		content += "\n\n" + m.renderLogoSummary() + "\n" + MutedStyle.Render("tab to keep this logo and animate it")
	}

	return BoxStyle.Render(content)
}

func (m Model) renderUpload() string {
	title := TitleStyle.Render("Upload a logo")
	desc := MutedStyle.Render("PNG, JPG, GIF or WebP up to " + media.FormatSize(media.MaxFileSize))

	content := title + "\n" + desc + "\n\n" + m.filepicker.View()
	if m.working {
		content += "\n" + m.spinner.View() + " " + BodyStyle.Render("Reading file...")
	}
	return BoxStyle.Render(content)
}

func (m Model) renderAnimate() string {
	title := TitleStyle.Render("Step 2: Animate your logo")

	content := title + "\n" + m.renderLogoSummary() + "\n\n" +
		BodyStyle.Render("How should it move?") + "\n" +
		m.promptInput.View() + "\n\n" +
		m.renderAspect()

	if m.working {
		status := m.state.Status
		if status == "" {
			status = "Submitting..."
		}
		content += "\n\n" + m.spinner.View() + " " + BodyStyle.Render(status) + "\n" +
			MutedStyle.Render(fmt.Sprintf("Elapsed: %s", formatDuration(time.Since(m.startTime))))
	} else {
		content += "\n\n" + WarningStyle.Render(videoNotice)
	}

	return BoxStyle.Render(content)
}

// videoNotice is shown before an animation starts.
const videoNotice = "Videos take a few minutes to render and need a key with billing enabled."

func (m Model) renderAspect() string {
	selected := BadgeStyle
	other := MutedStyle.Padding(0, 1)

	landscape := other.Render("16:9 landscape")
	portrait := other.Render("9:16 portrait")
	if m.aspect == gemini.AspectPortrait {
		portrait = selected.Render("9:16 portrait")
	} else {
		landscape = selected.Render("16:9 landscape")
	}
	return BodyStyle.Render("Aspect: ") + landscape + " " + portrait
}

func (m Model) renderLogoSummary() string {
	logo := m.state.Logo
	if logo == nil {
		return MutedStyle.Render("No logo yet")
	}

	size := media.FormatSize(int64(len(logo.Base64) * 3 / 4))
	label := logo.Prompt
	if logo.Source == workflow.SourceUploaded {
		label = filepath.Base(logo.Path)
	}
	if label == "" || label == "." {
		label = logo.MIMEType
	}
	return BadgeSuccessStyle.Render("logo") + " " +
		BodyStyle.Render(truncateString(label, 50)) + " " +
		MutedStyle.Render(fmt.Sprintf("(%s, %s, %s)", logo.Source, logo.MIMEType, size))
}

func (m Model) renderResult() string {
	title := SuccessStyle.Render("Your animated logo is ready!")

	video := m.state.Video
	if video == nil {
		return BoxStyle.Render(title)
	}

	summary := fmt.Sprintf(`Video:   %s
File:    %s
Size:    %s
Aspect:  %s
Prompt:  %s
Time:    %s`,
		video.URL,
		video.Path,
		media.FormatSize(video.Size),
		video.AspectRatio.Ratio(),
		truncateString(video.Prompt, 50),
		formatDuration(m.elapsed),
	)

	summaryBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(1, 2).
		Render(summary)

	hint := MutedStyle.Render("\n[s] Save  [a] Animate again  [n] New logo  [q] Quit")

	return BoxStyle.Render(title + "\n\n" + summaryBox + m.renderSaved() + hint)
}

func (m Model) renderSaved() string {
	if m.saveErr != nil {
		return "\n" + ErrorStyle.Render("Save failed: "+m.saveErr.Error())
	}
	if m.saved != "" {
		return "\n" + SuccessStyle.Render("Saved to "+m.saved)
	}
	return ""
}

func (m Model) renderError() string {
	if m.state.Err == nil || m.working {
		return ""
	}
	return ErrorBoxStyle.Render(m.state.Err.Error())
}

func (m Model) renderHelp() string {
	if m.working {
		return KeyHelp("ctrl+c", "Quit")
	}
	switch m.step {
	case StepGate:
		return KeyHelp("enter", "Select key", "q", "Quit")
	case StepLogo:
		if m.state.Logo != nil {
			return KeyHelp("enter", "Generate", "ctrl+o", "Upload", "tab", "Animate", "ctrl+c", "Quit")
		}
		return KeyHelp("enter", "Generate", "ctrl+o", "Upload", "ctrl+c", "Quit")
	case StepUpload:
		return KeyHelp("j/k", "Navigate", "enter", "Select", "h/l", "Go up/down", "esc", "Back")
	case StepAnimate:
		return KeyHelp("enter", "Animate", "tab", "Aspect", "esc", "Change logo", "ctrl+c", "Quit")
	case StepResult:
		return KeyHelp("s", "Save", "a", "Again", "n", "New logo", "q", "Quit")
	}
	return ""
}

// Getter methods for external access
func (m Model) Step() AppStep         { return m.step }
func (m Model) IsQuitting() bool      { return m.quitting }
func (m Model) State() workflow.State { return m.state }

// Run starts the full screen UI and blocks until the user quits.
func Run(ctx context.Context, ctrl *workflow.Controller, gate *credential.Gate) error {
	model := NewModel(ctx, ctrl, gate)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
