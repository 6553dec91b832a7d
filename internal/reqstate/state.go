package reqstate

import (
	"net/url"
	"strings"

	"github.com/unkn0wn-root/grillon/internal/headers"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

// Verbs is the verb selector's option list; the first entry is the default.
var Verbs = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

func DefaultVerb() string {
	return Verbs[0]
}

// VerbIndex returns the selector position for method, falling back to the
// default option for anything unknown.
func VerbIndex(method string) int {
	m := strings.ToUpper(strings.TrimSpace(method))
	for i, v := range Verbs {
		if v == m {
			return i
		}
	}
	return 0
}

// State is the editable content of one request window. The persisted
// open-window row has the same shape.
type State struct {
	ID      windowid.ID
	Method  string
	URI     string
	Path    string
	Query   string
	Headers headers.Pairs
	Body    string
}

// Capture builds a snapshot from raw editor contents. Path and query are
// derived from the URI and stay empty when it does not parse.
func Capture(id windowid.ID, method, uri, headerText, body string) State {
	uri = strings.TrimSpace(uri)
	st := State{
		ID:      id,
		Method:  Verbs[VerbIndex(method)],
		URI:     uri,
		Headers: headers.Parse(headerText),
		Body:    body,
	}
	if u, err := url.Parse(uri); err == nil {
		st.Path = u.Path
		st.Query = u.RawQuery
	}
	return st
}

func (s State) Clone() State {
	s.Headers = s.Headers.Clone()
	return s
}
