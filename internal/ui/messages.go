package ui

import (
	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/httpclient"
)

type busEventMsg struct {
	event bus.Event
}

// busClosedMsg ends the pump once the bus is closed and drained.
type busClosedMsg struct{}

// responseMsg carries its own window handle so a completion for a window
// that was closed meanwhile still lands somewhere harmless.
type responseMsg struct {
	window  *RequestWindow
	seq     int
	summary *httpclient.Summary
	err     error
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

type statusMsg struct {
	text  string
	level statusLevel
}
