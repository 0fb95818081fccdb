package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"logomotion/credential"
	"logomotion/gemini"
	"logomotion/workflow"
)

type hostStub struct {
	selected bool
}

func (h *hostStub) HasSelectedAPIKey(ctx context.Context) (bool, error) { return h.selected, nil }
func (h *hostStub) OpenSelectKey(ctx context.Context) error             { return nil }

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

type fakeGenerator struct {
	mu       sync.Mutex
	requests []gemini.VideoRequest
	videoErr error
}

func (g *fakeGenerator) GenerateLogoImage(ctx context.Context, description string) (string, error) {
	return "bG9nbw==", nil
}

func (g *fakeGenerator) GenerateAnimatedVideo(ctx context.Context, req gemini.VideoRequest, onStatus gemini.StatusFunc) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	onStatus("first")
	onStatus("second")
	if g.videoErr != nil {
		return "", g.videoErr
	}
	onStatus(gemini.FetchingStatus)
	return "file:///tmp/logo.mp4", nil
}

func newTestModel(t *testing.T, selected bool) (Model, *fakeGenerator, *credential.Gate) {
	t.Helper()
	gen := &fakeGenerator{}
	gate := credential.NewGate(&hostStub{selected: selected}, zap.NewNop())
	gate.HasCredential(context.Background())

	factory := func(string) (workflow.Generator, error) { return gen, nil }
	ctrl := workflow.NewController(gate, staticKey("k"), factory, nil, zap.NewNop())
	return NewModel(context.Background(), ctrl, gate), gen, gate
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// generateLogo drives the logo step to completion.
func generateLogo(t *testing.T, m Model) Model {
	t.Helper()
	m.descInput.SetValue("A minimalist fox icon")
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.working)

	msg := cmd()
	_, ok := msg.(logoResultMsg)
	require.True(t, ok)
	m, _ = update(t, m, msg)
	return m
}

// runAnimation executes the batched animation command and feeds every event
// back into the model until the result arrives.
func runAnimation(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)

	go batch[0]()
	wait := batch[1]
	for i := 0; i < 20; i++ {
		msg := wait()
		var next tea.Cmd
		m, next = update(t, m, msg)
		if _, done := msg.(videoResultMsg); done {
			return m
		}
		wait = next
	}
	t.Fatal("animation did not finish")
	return m
}

func TestNewModel(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	assert.Equal(t, StepLogo, m.Step())
	assert.Equal(t, gemini.AspectLandscape, m.aspect)
	assert.NotNil(t, m.Init())

	m, _, _ = newTestModel(t, false)
	assert.Equal(t, StepGate, m.Step())
}

func TestGateSelection(t *testing.T) {
	m, _, gate := newTestModel(t, false)

	m, cmd := update(t, m, key("enter"))
	assert.NotNil(t, cmd)
	assert.Equal(t, StepGate, m.Step())

	// the exec command runs the selection flow; simulate it returning
	require.NoError(t, gate.RequestCredential(context.Background()))
	m, _ = update(t, m, credentialResultMsg{})
	assert.Equal(t, StepLogo, m.Step())
	assert.True(t, m.State().CredentialSelected)
}

func TestGateAbortStaysOnGate(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	m, _ = update(t, m, credentialResultMsg{err: credential.ErrEmptyKey})
	assert.Equal(t, StepGate, m.Step())
	assert.Contains(t, m.View(), credential.ErrEmptyKey.Error())
}

func TestGenerateLogoMovesToAnimate(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m = generateLogo(t, m)

	assert.Equal(t, StepAnimate, m.Step())
	assert.False(t, m.working)
	require.NotNil(t, m.State().Logo)
	assert.Equal(t, "bG9nbw==", m.State().Logo.Base64)
	assert.Equal(t, "Logo generated", m.feed.Last())
}

func TestEmptyDescriptionShowsValidationError(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m, cmd := update(t, m, key("enter"))
	m, _ = update(t, m, cmd())

	assert.Equal(t, StepLogo, m.Step())
	require.Error(t, m.State().Err)
	assert.Contains(t, m.View(), "Please enter a description")
}

func TestAnimateFlow(t *testing.T) {
	m, gen, _ := newTestModel(t, true)
	m = generateLogo(t, m)

	m, _ = update(t, m, key("tab"))
	assert.Equal(t, gemini.AspectPortrait, m.aspect)

	assert.Contains(t, m.View(), videoNotice)

	m.promptInput.SetValue("fox winks")
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.working)

	m = runAnimation(t, m, cmd)

	assert.Equal(t, StepResult, m.Step())
	require.NotNil(t, m.State().Video)
	assert.Equal(t, "file:///tmp/logo.mp4", m.State().Video.URL)

	var statuses []string
	for _, e := range m.feed.Entries {
		if e.Kind == FeedStatus {
			statuses = append(statuses, e.Text)
		}
	}
	assert.Equal(t, []string{"first", "second", gemini.FetchingStatus}, statuses)
	assert.Equal(t, "Video ready", m.feed.Last())

	require.Len(t, gen.requests, 1)
	assert.Equal(t, gemini.AspectPortrait, gen.requests[0].AspectRatio)
	assert.Equal(t, "fox winks", gen.requests[0].Prompt)

	view := m.View()
	assert.Contains(t, view, "Your animated logo is ready!")
	assert.Contains(t, view, "file:///tmp/logo.mp4")
	assert.Contains(t, view, "9:16")

	m, cmd = update(t, m, key("s"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.ErrorIs(t, m.saveErr, workflow.ErrNoStore)
	assert.Contains(t, m.View(), "Save failed")

	m, _ = update(t, m, key("a"))
	assert.Equal(t, StepAnimate, m.Step())
}

func TestAnimateCredentialRejectedShowsGate(t *testing.T) {
	m, gen, gate := newTestModel(t, true)
	gen.videoErr = &gemini.APIError{StatusCode: 404, Status: "NOT_FOUND", Message: "Requested entity was not found."}
	m = generateLogo(t, m)

	m.promptInput.SetValue("spin")
	m, cmd := update(t, m, key("enter"))
	m = runAnimation(t, m, cmd)

	assert.False(t, gate.Selected())
	assert.Equal(t, StepGate, m.Step())
	assert.Nil(t, m.State().Video)

	view := m.View()
	assert.Contains(t, view, "Select a Gemini API key")
	assert.Contains(t, view, workflow.CredentialRejectedMessage)

	// selecting again returns to the animation step with the logo kept
	require.NoError(t, gate.RequestCredential(context.Background()))
	m, _ = update(t, m, credentialResultMsg{})
	assert.Equal(t, StepAnimate, m.Step())
	assert.NoError(t, m.State().Err)
	assert.NotNil(t, m.State().Logo)
}

func TestAnimateFailureStaysOnAnimate(t *testing.T) {
	m, gen, _ := newTestModel(t, true)
	gen.videoErr = &gemini.GenerationError{Stage: "video", Reason: "operation completed but no result"}
	m = generateLogo(t, m)

	m.promptInput.SetValue("spin")
	m, cmd := update(t, m, key("enter"))
	m = runAnimation(t, m, cmd)

	assert.Equal(t, StepAnimate, m.Step())
	assert.Equal(t, workflow.StageLogoReady, m.State().Stage)
	assert.Contains(t, m.View(), "Video generation failed")
	assert.Equal(t, "Video failed", m.feed.Last())
}

func TestKeysIgnoredWhileWorking(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m.working = true

	next, cmd := update(t, m, key("ctrl+o"))
	assert.Nil(t, cmd)
	assert.Equal(t, StepLogo, next.Step())

	next, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
	assert.True(t, next.IsQuitting())
	assert.True(t, strings.HasPrefix(next.View(), "Goodbye!"))
}

func TestUploadStepNavigation(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	m, cmd := update(t, m, key("ctrl+o"))
	assert.Equal(t, StepUpload, m.Step())
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Upload a logo")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, StepLogo, m.Step())
}

func TestTabWithoutLogoStays(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m, _ = update(t, m, key("tab"))
	assert.Equal(t, StepLogo, m.Step())
}

func TestWindowSize(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
	assert.Equal(t, 116, m.feed.Viewport.Width)
}

func TestStatusFeed(t *testing.T) {
	f := NewStatusFeed(60, 5)
	f.now = func() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) }
	f.MaxEntries = 2

	assert.Contains(t, f.Render(), "Nothing yet")
	assert.Equal(t, "", f.Last())

	f.Add(FeedRequest, "one")
	f.Add(FeedStatus, "two")
	f.Add(FeedError, "three", "boom")

	require.Len(t, f.Entries, 2)
	assert.Equal(t, "two", f.Entries[0].Text)
	assert.Equal(t, "three", f.Last())

	out := f.Render()
	assert.Contains(t, out, "15:04:05")
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "one")

	f.Clear()
	assert.Empty(t, f.Entries)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", formatDuration(500*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
}

func TestKeyHelp(t *testing.T) {
	out := KeyHelp("enter", "Generate", "q", "Quit")
	assert.Contains(t, out, "enter")
	assert.Contains(t, out, "Quit")
	assert.Equal(t, "", KeyHelp())
}
