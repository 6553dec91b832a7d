package bus

import (
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

// Event is one lifecycle or persistence message. The set is closed.
type Event interface {
	event()
	Kind() string
}

type OpenEmpty struct{}

type Restore struct {
	Row reqstate.State
}

type CloseWindow struct {
	ID windowid.ID
}

type SaveWindowState struct {
	State reqstate.State
}

// CloseApp is terminal: nothing posted after it is processed.
type CloseApp struct{}

func (OpenEmpty) event()       {}
func (Restore) event()         {}
func (CloseWindow) event()     {}
func (SaveWindowState) event() {}
func (CloseApp) event()        {}

func (OpenEmpty) Kind() string       { return "open_empty" }
func (Restore) Kind() string         { return "restore" }
func (CloseWindow) Kind() string     { return "close_window" }
func (SaveWindowState) Kind() string { return "save_window_state" }
func (CloseApp) Kind() string        { return "close_app" }
