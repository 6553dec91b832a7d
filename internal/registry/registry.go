package registry

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

// Window is what the registry needs from any window variant.
type Window interface {
	ID() windowid.ID
	Close()
}

// Factory builds request windows. row is nil for a fresh, empty window.
type Factory interface {
	Open(id windowid.ID, row *reqstate.State) Window
}

type FactoryFunc func(id windowid.ID, row *reqstate.State) Window

func (f FactoryFunc) Open(id windowid.ID, row *reqstate.State) Window {
	return f(id, row)
}

// Persister observes every event after the registry has acted on it.
type Persister interface {
	Handle(ev bus.Event)
}

type Fetcher interface {
	FetchAll(ctx context.Context) []reqstate.State
}

// Result tells the event loop what changed.
type Result struct {
	Opened windowid.ID
	Closed windowid.ID
	Quit   bool
}

// Registry owns the id to window mapping. It is not safe for concurrent
// use; only the event loop calls it.
type Registry struct {
	alloc   *windowid.Allocator
	factory Factory
	persist Persister
	windows map[windowid.ID]Window
	closing bool
	log     zerolog.Logger
}

func New(alloc *windowid.Allocator, factory Factory, persist Persister, log zerolog.Logger) *Registry {
	if alloc == nil {
		alloc = windowid.New()
	}
	return &Registry{
		alloc:   alloc,
		factory: factory,
		persist: persist,
		windows: make(map[windowid.ID]Window),
		log:     log,
	}
}

// Handle processes one event. Persistence sees the event only after the
// registry is done with it.
func (r *Registry) Handle(ev bus.Event) Result {
	var res Result
	switch e := ev.(type) {
	case bus.OpenEmpty:
		id := r.alloc.Next()
		r.insert(r.factory.Open(id, nil))
		res.Opened = id
		r.log.Debug().Stringer("window", id).Msg("opened empty window")
	case bus.Restore:
		row := e.Row
		r.insert(r.factory.Open(row.ID, &row))
		res.Opened = row.ID
		r.log.Debug().Stringer("window", row.ID).Str("method", row.Method).Msg("restored window")
	case bus.CloseWindow:
		if w, ok := r.windows[e.ID]; ok {
			delete(r.windows, e.ID)
			w.Close()
			res.Closed = e.ID
			r.log.Debug().Stringer("window", e.ID).Msg("closed window")
		}
	case bus.SaveWindowState:
	case bus.CloseApp:
		r.closing = true
		for _, w := range r.windows {
			w.Close()
		}
		res.Quit = true
		r.log.Info().Int("windows", len(r.windows)).Msg("closing application")
	}
	if r.persist != nil {
		r.persist.Handle(ev)
	}
	return res
}

// RestoreAll rebuilds one window per stored row and moves the allocator
// past the highest restored id. It returns the number of windows restored.
func (r *Registry) RestoreAll(ctx context.Context, src Fetcher) int {
	rows := src.FetchAll(ctx)
	var (
		highest  windowid.ID
		restored int
	)
	for _, row := range rows {
		if _, dup := r.windows[row.ID]; dup {
			r.log.Warn().Stringer("window", row.ID).Msg("skipping duplicate restored id")
			continue
		}
		r.Handle(bus.Restore{Row: row})
		restored++
		if row.ID > highest {
			highest = row.ID
		}
	}
	r.alloc.AdvancePast(highest)
	r.log.Info().Int("windows", restored).Stringer("next_after", highest).Msg("restore complete")
	return restored
}

func (r *Registry) insert(w Window) {
	if w == nil {
		return
	}
	r.windows[w.ID()] = w
}

func (r *Registry) Get(id windowid.ID) (Window, bool) {
	w, ok := r.windows[id]
	return w, ok
}

func (r *Registry) Len() int {
	return len(r.windows)
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []windowid.ID {
	ids := make([]windowid.ID, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Closing reports whether CloseApp has been processed.
func (r *Registry) Closing() bool {
	return r.closing
}

func (r *Registry) Allocator() *windowid.Allocator {
	return r.alloc
}
