package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/grillon/internal/bindings"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initialising..."
	}

	var body string
	if m.showHelp {
		body = m.renderHelp()
	} else if w := m.activeWindow(); w != nil {
		body = m.renderWindow(w)
	} else {
		body = m.renderEmpty()
	}

	sections := []string{
		m.renderTabs(),
		body,
		m.controls.View(m.theme, m.keys, m.width),
		m.renderMessage(),
	}
	return m.theme.AppFrame.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderTabs() string {
	ids := m.reg.IDs()
	if len(ids) == 0 {
		return m.theme.Tabs.Render(m.theme.Placeholder.Render("no windows"))
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		w, ok := m.Window(id)
		if !ok {
			continue
		}
		label := fmt.Sprintf(" %s #%s ", w.Verb(), id)
		style := m.theme.TabInactive
		switch {
		case id == m.active:
			style = m.theme.TabActive
		case w.Running():
			style = m.theme.TabRunning
		}
		switch {
		case w.Running():
			label = " " + m.spinner.View() + label[1:]
		case w.Failed():
			label = " !" + label[1:]
		}
		parts = append(parts, style.Render(label))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return m.theme.Tabs.Render(truncateToWidth(line, m.width))
}

func (m Model) renderWindow(w *RequestWindow) string {
	th := m.theme
	inner := maxInt(m.width-2, 0)

	verb := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.MethodColors.For(w.Verb())).
		Render(fmt.Sprintf("%-7s", w.Verb()))
	uriLine := verb + " " + w.uri.View()

	bodyTitle, headerTitle := th.PaneTitle, th.PaneTitle
	if w.tab == paramsBody {
		bodyTitle = th.PaneTitleFocused
	} else {
		headerTitle = th.PaneTitleFocused
	}
	tabs := bodyTitle.Render("Body") + "  " + headerTitle.Render("Headers")

	editor := w.body.View()
	if w.tab == paramsHeaders {
		editor = w.headers.View()
	}
	editorStyle := th.EditorBorder
	if w.focus == fieldParams || w.focus == fieldURI {
		editorStyle = th.EditorBorderFocused
	}
	editorPane := editorStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, uriLine, tabs, editor))

	status := w.Status()
	statusStyle := th.StatusBarValue
	switch {
	case w.Running():
		status = m.spinner.View() + " " + status
	case w.Failed():
		// the error text is in the response pane
		status = ""
	case status == "":
		statusStyle = th.Placeholder
		status = "no response yet"
	}
	statusLine := th.StatusBar.Render(truncateToWidth(statusStyle.Render(status), inner))

	responseStyle := th.ResponseBorder
	if w.focus == fieldResponse {
		responseStyle = th.EditorBorderFocused
	}
	responsePane := responseStyle.Width(inner).Render(w.response.View())

	return lipgloss.JoinVertical(lipgloss.Left, editorPane, statusLine, responsePane)
}

func (m Model) renderEmpty() string {
	hint := "no open windows"
	if b, ok := m.keys.First(bindings.ActionNewWindow); ok {
		hint = fmt.Sprintf("no open windows, press %s to open one", b)
	}
	return lipgloss.Place(m.width, maxInt(m.height-3, 1), lipgloss.Center, lipgloss.Center,
		m.theme.Placeholder.Render(hint))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	title := "Key bindings"
	if m.cfg.Version != "" {
		title = fmt.Sprintf("grillon %s · key bindings", m.cfg.Version)
	}
	b.WriteString(m.theme.PaneTitleFocused.Render(title))
	b.WriteString("\n\n")
	for _, action := range bindings.KnownActions() {
		list := m.keys.Bindings(action)
		if len(list) == 0 {
			continue
		}
		keys := make([]string, 0, len(list))
		for _, binding := range list {
			keys = append(keys, binding.String())
		}
		fmt.Fprintf(&b, "%s  %s\n",
			m.theme.HelpKey.Render(fmt.Sprintf("%-18s", strings.Join(keys, ", "))),
			m.theme.HelpText.Render(bindings.Describe(action)))
	}
	return b.String()
}

func (m Model) renderMessage() string {
	if m.chord != "" && m.status.text == "" {
		return m.theme.Notification.Render(m.chord + " …")
	}
	if m.status.text == "" {
		return ""
	}
	style := m.theme.Notification
	switch m.status.level {
	case statusWarn, statusError:
		style = m.theme.Error
	case statusSuccess:
		style = m.theme.Success
	}
	return style.Render(truncateToWidth(m.status.text, m.width))
}

func ansiTruncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
