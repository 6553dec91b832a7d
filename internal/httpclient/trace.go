package httpclient

import (
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

type firstByteTrace struct {
	mu    sync.Mutex
	now   func() time.Time
	at    time.Time
	trace *httptrace.ClientTrace
}

func newFirstByteTrace(now func() time.Time) *firstByteTrace {
	t := &firstByteTrace{now: now}
	t.trace = &httptrace.ClientTrace{
		GotFirstResponseByte: t.onGotFirstResponseByte,
	}
	return t
}

func (t *firstByteTrace) bind(req *http.Request) *http.Request {
	if req == nil {
		return nil
	}
	ctx := httptrace.WithClientTrace(req.Context(), t.trace)
	return req.WithContext(ctx)
}

func (t *firstByteTrace) onGotFirstResponseByte() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.at.IsZero() {
		t.at = t.now()
	}
}

func (t *firstByteTrace) firstByte() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.at, !t.at.IsZero()
}
