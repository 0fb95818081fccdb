package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// FeedKind is the type of a feed entry
type FeedKind string

const (
	// FeedRequest is an outgoing generation request
	FeedRequest FeedKind = "request"
	// FeedStatus is a progress message from the render loop
	FeedStatus FeedKind = "status"
	// FeedComplete is a finished task
	FeedComplete FeedKind = "complete"
	// FeedError is a failed task
	FeedError FeedKind = "error"
)

// FeedEntry is one line of the status feed
type FeedEntry struct {
	Timestamp time.Time
	Kind      FeedKind
	Text      string
	Detail    string
}

// StatusFeed is a scrolling log of what the generation tasks are doing
type StatusFeed struct {
	Entries  []FeedEntry
	Viewport viewport.Model

	// MaxEntries limits the number of entries kept (0 = unlimited)
	MaxEntries int

	now func() time.Time
}

// NewStatusFeed creates a feed with the given dimensions
func NewStatusFeed(width, height int) *StatusFeed {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	f := &StatusFeed{
		Viewport:   vp,
		MaxEntries: 100,
		now:        time.Now,
	}
	f.Viewport.SetContent(f.Render())
	return f
}

// Add appends an entry and scrolls to it
func (f *StatusFeed) Add(kind FeedKind, text string, detail ...string) {
	entry := FeedEntry{
		Timestamp: f.now(),
		Kind:      kind,
		Text:      text,
		Detail:    strings.Join(detail, ", "),
	}
	f.Entries = append(f.Entries, entry)

	if f.MaxEntries > 0 && len(f.Entries) > f.MaxEntries {
		f.Entries = f.Entries[len(f.Entries)-f.MaxEntries:]
	}

	f.Viewport.SetContent(f.Render())
	f.Viewport.GotoBottom()
}

// Last returns the newest entry text, or ""
func (f *StatusFeed) Last() string {
	if len(f.Entries) == 0 {
		return ""
	}
	return f.Entries[len(f.Entries)-1].Text
}

// SetSize updates the feed dimensions
func (f *StatusFeed) SetSize(width, height int) {
	f.Viewport.Width = width
	f.Viewport.Height = height
	f.Viewport.SetContent(f.Render())
}

// Clear removes all entries
func (f *StatusFeed) Clear() {
	f.Entries = nil
	f.Viewport.SetContent(f.Render())
}

// View returns the viewport view for Bubble Tea
func (f *StatusFeed) View() string {
	return f.Viewport.View()
}

// Render renders all entries to a string
func (f *StatusFeed) Render() string {
	if len(f.Entries) == 0 {
		return MutedStyle.Render("  Nothing yet...")
	}

	lines := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		lines = append(lines, renderEntry(e))
	}
	return strings.Join(lines, "\n")
}

func renderEntry(e FeedEntry) string {
	icon, style := entryStyle(e.Kind)
	timestamp := lipgloss.NewStyle().Foreground(ColorMuted).Render(e.Timestamp.Format("15:04:05"))

	var suffix string
	if e.Detail != "" {
		if e.Kind == FeedError {
			suffix = " " + lipgloss.NewStyle().Foreground(ColorError).Render("- "+e.Detail)
		} else {
			suffix = " " + MutedStyle.Render("("+e.Detail+")")
		}
	}

	return fmt.Sprintf("%s %s %s%s", timestamp, style.Render(icon), style.Render(e.Text), suffix)
}

func entryStyle(kind FeedKind) (string, lipgloss.Style) {
	switch kind {
	case FeedRequest:
		return "[>]", lipgloss.NewStyle().Foreground(ColorSecondary)
	case FeedComplete:
		return "[x]", lipgloss.NewStyle().Foreground(ColorSuccess)
	case FeedError:
		return "[!]", lipgloss.NewStyle().Foreground(ColorError)
	default:
		return "[.]", lipgloss.NewStyle().Foreground(ColorAccent)
	}
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
