package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/grillon/internal/bindings"
	"github.com/unkn0wn-root/grillon/internal/bus"
)

func canonicalShortcutKey(msg tea.KeyMsg) string {
	key := msg.String()
	if key == "" {
		return ""
	}
	return bindings.NormalizeKeyString(key)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := canonicalShortcutKey(msg)

	if prefix := m.chord; prefix != "" {
		m.chord = ""
		m.status = statusMsg{}
		if binding, ok := m.keys.ResolveChord(prefix, key); ok {
			return m.runBinding(binding)
		}
		m.setStatus("no binding for "+prefix+" "+key, statusWarn)
		return nil
	}
	if key != "" && m.keys.HasChordPrefix(key) {
		m.chord = key
		m.setStatus(key+" …", statusInfo)
		return nil
	}
	if binding, ok := m.keys.MatchSingle(key); ok {
		return m.runBinding(binding)
	}

	if w := m.activeWindow(); w != nil {
		return w.update(msg)
	}
	return nil
}

func (m *Model) runBinding(binding bindings.Binding) tea.Cmd {
	w := m.activeWindow()

	switch binding.Action {
	case bindings.ActionNewWindow:
		m.controls.NewWindow()
	case bindings.ActionQuit:
		m.controls.Quit()
	case bindings.ActionToggleHelp:
		m.showHelp = !m.showHelp
	case bindings.ActionNextWindow:
		m.cycleWindow(1)
	case bindings.ActionPrevWindow:
		m.cycleWindow(-1)
	case bindings.ActionCloseWindow:
		if w != nil {
			m.bus.Post(bus.CloseWindow{ID: w.ID()})
		}
	case bindings.ActionRunRequest:
		if w == nil {
			m.setStatus("open a window first", statusWarn)
			return nil
		}
		cmd := w.Run(m.exec, m.bus)
		if cmd == nil {
			return nil
		}
		return tea.Batch(cmd, m.spinner.Tick)
	case bindings.ActionNextField:
		if w != nil {
			w.cycleFocus(true)
		}
	case bindings.ActionPrevField:
		if w != nil {
			w.cycleFocus(false)
		}
	case bindings.ActionCycleVerb:
		if w != nil {
			w.cycleVerb(1)
		}
	case bindings.ActionToggleParams:
		if w != nil {
			w.toggleTab()
		}
	case bindings.ActionCopyResponse:
		return m.copyResponse(w)
	case bindings.ActionCycleTheme:
		return m.cycleTheme()
	}
	return nil
}

func (m *Model) copyResponse(w *RequestWindow) tea.Cmd {
	if w == nil || len(w.lastBody) == 0 {
		m.setStatus("nothing to copy", statusWarn)
		return nil
	}
	text := prettyBody(w.lastBody, w.lastType)
	copyFn := m.copy
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return statusMsg{text: "copy failed: " + err.Error(), level: statusError}
		}
		return statusMsg{text: "response copied", level: statusSuccess}
	}
}
