package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/headers"
	"github.com/unkn0wn-root/grillon/internal/httpclient"
	"github.com/unkn0wn-root/grillon/internal/registry"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/theme"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

// Executor performs one HTTP exchange. *httpclient.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, req httpclient.Request) (*httpclient.Summary, error)
}

// Poster accepts events for the registry loop. *bus.Bus satisfies it.
type Poster interface {
	Post(ev bus.Event) bool
}

type paramsTab int

const (
	paramsBody paramsTab = iota
	paramsHeaders
)

type field int

const (
	fieldURI field = iota
	fieldParams
	fieldResponse
	fieldCount
)

// RequestWindow is one request pane. It is Idle or Running; the run
// action is ignored while Running.
type RequestWindow struct {
	id       windowid.ID
	verbIdx  int
	uri      textinput.Model
	body     textarea.Model
	headers  textarea.Model
	tab      paramsTab
	focus    field
	response viewport.Model
	status   string
	failed   bool
	running  bool
	closed   bool
	content  string
	lastBody []byte
	lastType string
	seq      int
	theme    *theme.Theme
}

func newRequestWindow(id windowid.ID, row *reqstate.State, defaultVerb string, th *theme.Theme) *RequestWindow {
	uri := textinput.New()
	uri.Placeholder = "https://example.com/api"
	uri.Prompt = ""
	uri.CharLimit = 0

	body := textarea.New()
	body.Placeholder = "request body"
	body.ShowLineNumbers = false

	hdrs := textarea.New()
	hdrs.Placeholder = "application/json: Content-Type"
	hdrs.ShowLineNumbers = false

	w := &RequestWindow{
		id:       id,
		verbIdx:  reqstate.VerbIndex(defaultVerb),
		uri:      uri,
		body:     body,
		headers:  hdrs,
		response: viewport.New(0, 0),
		theme:    th,
	}
	if row != nil {
		w.verbIdx = reqstate.VerbIndex(row.Method)
		w.uri.SetValue(row.URI)
		w.body.SetValue(row.Body)
		w.headers.SetValue(headers.Format(row.Headers))
	}
	w.applyFocus()
	return w
}

func (w *RequestWindow) ID() windowid.ID {
	return w.id
}

// Close detaches the window from input. A request still in flight may
// complete afterwards; its result is applied to the detached window.
func (w *RequestWindow) Close() {
	w.closed = true
	w.uri.Blur()
	w.body.Blur()
	w.headers.Blur()
}

func (w *RequestWindow) Closed() bool {
	return w.closed
}

func (w *RequestWindow) Running() bool {
	return w.running
}

func (w *RequestWindow) Verb() string {
	return reqstate.Verbs[w.verbIdx]
}

func (w *RequestWindow) Status() string {
	return w.status
}

func (w *RequestWindow) Failed() bool {
	return w.failed
}

// ResponseText is the unstyled-width content of the response area.
func (w *RequestWindow) ResponseText() string {
	return w.content
}

func (w *RequestWindow) setContent(text string) {
	w.content = text
	w.response.SetContent(text)
	w.response.GotoTop()
}

// Capture snapshots the editable fields.
func (w *RequestWindow) Capture() reqstate.State {
	return reqstate.Capture(w.id, w.Verb(), w.uri.Value(), w.headers.Value(), w.body.Value())
}

func (w *RequestWindow) cycleVerb(step int) {
	n := len(reqstate.Verbs)
	w.verbIdx = ((w.verbIdx+step)%n + n) % n
}

func (w *RequestWindow) toggleTab() {
	if w.tab == paramsBody {
		w.tab = paramsHeaders
	} else {
		w.tab = paramsBody
	}
	w.applyFocus()
}

func (w *RequestWindow) cycleFocus(forward bool) {
	step := 1
	if !forward {
		step = -1
	}
	w.focus = field((int(w.focus) + step + int(fieldCount)) % int(fieldCount))
	w.applyFocus()
}

func (w *RequestWindow) applyFocus() {
	w.uri.Blur()
	w.body.Blur()
	w.headers.Blur()
	if w.closed {
		return
	}
	switch w.focus {
	case fieldURI:
		w.uri.Focus()
	case fieldParams:
		if w.tab == paramsBody {
			w.body.Focus()
		} else {
			w.headers.Focus()
		}
	}
}

// Run saves the snapshot, then starts the exchange off the UI loop. The
// save is posted before dispatch so the parameters survive an exit while
// the request is in flight.
func (w *RequestWindow) Run(exec Executor, poster Poster) tea.Cmd {
	if w.running || w.closed || exec == nil {
		return nil
	}
	st := w.Capture()
	if poster != nil {
		poster.Post(bus.SaveWindowState{State: st})
	}
	w.running = true
	w.failed = false
	w.seq++
	seq := w.seq
	w.status = fmt.Sprintf("Sending %s request...", st.Method)

	req := httpclient.RequestFromState(st)
	return func() tea.Msg {
		sum, err := exec.Execute(context.Background(), req)
		return responseMsg{window: w, seq: seq, summary: sum, err: err}
	}
}

func (w *RequestWindow) applyResponse(msg responseMsg) {
	if msg.seq != w.seq {
		return
	}
	w.running = false
	if msg.err != nil {
		w.status = ""
		w.failed = true
		w.lastBody = nil
		w.lastType = ""
		w.setContent(msg.err.Error())
		return
	}
	w.failed = false
	w.status = msg.summary.StatusLine()
	w.lastBody = msg.summary.Body
	w.lastType = msg.summary.ContentType
	syntax := ""
	if w.theme != nil {
		syntax = w.theme.SyntaxStyle
	}
	w.setContent(renderBody(msg.summary.Body, msg.summary.ContentType, syntax))
}

func (w *RequestWindow) update(msg tea.Msg) tea.Cmd {
	if w.closed {
		return nil
	}
	var cmd tea.Cmd
	switch w.focus {
	case fieldURI:
		w.uri, cmd = w.uri.Update(msg)
	case fieldParams:
		if w.tab == paramsBody {
			w.body, cmd = w.body.Update(msg)
		} else {
			w.headers, cmd = w.headers.Update(msg)
		}
	case fieldResponse:
		w.response, cmd = w.response.Update(msg)
	}
	return cmd
}

func (w *RequestWindow) setSize(width, height int, editorSplit float64) {
	if width < 10 {
		width = 10
	}
	if height < 8 {
		height = 8
	}
	// verb/uri row, tab row, status row and two pane borders
	avail := height - 7
	if avail < 2 {
		avail = 2
	}
	edH := int(float64(avail) * editorSplit)
	if edH < 1 {
		edH = 1
	}
	respH := avail - edH
	if respH < 1 {
		respH = 1
	}
	inner := width - 4
	w.uri.Width = inner - 10
	w.body.SetWidth(inner)
	w.body.SetHeight(edH)
	w.headers.SetWidth(inner)
	w.headers.SetHeight(edH)
	w.response.Width = inner
	w.response.Height = respH
}

// WindowFactory builds request windows for the registry.
type WindowFactory struct {
	DefaultVerb string
	Theme       *theme.Theme
}

func (f *WindowFactory) Open(id windowid.ID, row *reqstate.State) registry.Window {
	return newRequestWindow(id, row, f.DefaultVerb, f.Theme)
}
