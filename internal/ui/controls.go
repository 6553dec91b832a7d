package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/grillon/internal/bindings"
	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/theme"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

// MainControls is the top-level control surface. It shares the window
// capability with request windows but is never registered.
type MainControls struct {
	id     windowid.ID
	poster Poster
	closed bool
}

func NewMainControls(id windowid.ID, poster Poster) *MainControls {
	return &MainControls{id: id, poster: poster}
}

func (c *MainControls) ID() windowid.ID {
	return c.id
}

func (c *MainControls) Close() {
	c.closed = true
}

func (c *MainControls) Closed() bool {
	return c.closed
}

func (c *MainControls) NewWindow() bool {
	if c.closed || c.poster == nil {
		return false
	}
	return c.poster.Post(bus.OpenEmpty{})
}

func (c *MainControls) Quit() bool {
	if c.closed || c.poster == nil {
		return false
	}
	return c.poster.Post(bus.CloseApp{})
}

var commandHints = []struct {
	action bindings.ActionID
	label  string
}{
	{bindings.ActionNewWindow, "New"},
	{bindings.ActionRunRequest, "Send"},
	{bindings.ActionCloseWindow, "Close"},
	{bindings.ActionCycleVerb, "Verb"},
	{bindings.ActionToggleParams, "Body/Headers"},
	{bindings.ActionNextField, "Focus"},
	{bindings.ActionToggleHelp, "Help"},
	{bindings.ActionQuit, "Quit"},
}

func (c *MainControls) View(th theme.Theme, keys *bindings.Map, width int) string {
	var parts []string
	for _, h := range commandHints {
		b, ok := keys.First(h.action)
		if !ok {
			continue
		}
		parts = append(parts, th.CommandBarKey.Render(b.String())+" "+th.CommandBarHint.Render(h.label))
	}
	line := strings.Join(parts, th.CommandDivider.Render(" │ "))
	return th.CommandBar.Render(truncateToWidth(line, width))
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansiTruncate(s, width)
}
