package persist

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

const defaultOpTimeout = 5 * time.Second

// Store is the durable row set. *store.Store satisfies it.
type Store interface {
	Upsert(ctx context.Context, st reqstate.State) error
	Delete(ctx context.Context, id windowid.ID) error
	LogSent(ctx context.Context, st reqstate.State) error
	FetchAll(ctx context.Context) []reqstate.State
}

// Handler applies persistence events off the UI loop. A single worker
// drains the queue, so writes land in the order they were handed in.
type Handler struct {
	store     Store
	log       zerolog.Logger
	opTimeout time.Duration
	queue     *bus.Bus
	done      chan struct{}
	closeOnce sync.Once
	onApply   func(bus.Event, error)
}

type Option func(*Handler)

func WithLogger(log zerolog.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

func WithOpTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.opTimeout = d
		}
	}
}

// WithApplyHook is called by the worker after each event it acted on.
func WithApplyHook(fn func(bus.Event, error)) Option {
	return func(h *Handler) {
		h.onApply = fn
	}
}

func New(st Store, opts ...Option) *Handler {
	h := &Handler{
		store:     st,
		log:       zerolog.Nop(),
		opTimeout: defaultOpTimeout,
		queue:     bus.New(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

// Handle queues ev when it carries a durable effect. It never blocks.
func (h *Handler) Handle(ev bus.Event) {
	switch ev.(type) {
	case bus.SaveWindowState, bus.CloseWindow:
	default:
		return
	}
	if !h.queue.Post(ev) {
		h.log.Warn().Str("event", ev.Kind()).Msg("persistence closed; dropping event")
	}
}

// FetchAll reads the stored rows synchronously. It is meant for startup,
// before the event loop runs.
func (h *Handler) FetchAll(ctx context.Context) []reqstate.State {
	return h.store.FetchAll(ctx)
}

// Close stops accepting events and waits for queued writes until ctx
// is done.
func (h *Handler) Close(ctx context.Context) error {
	h.closeOnce.Do(h.queue.Close)
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		h.log.Warn().Int("pending", h.queue.Len()).Msg("persistence drain interrupted")
		return ctx.Err()
	}
}

func (h *Handler) run() {
	defer close(h.done)
	for {
		ev, ok := h.queue.Recv(context.Background())
		if !ok {
			return
		}
		err := h.apply(ev)
		if h.onApply != nil {
			h.onApply(ev, err)
		}
	}
}

func (h *Handler) apply(ev bus.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()

	switch e := ev.(type) {
	case bus.SaveWindowState:
		if err := h.store.Upsert(ctx, e.State); err != nil {
			h.log.Error().Err(err).Stringer("window", e.State.ID).Msg("save window state")
			return err
		}
		if err := h.store.LogSent(ctx, e.State); err != nil {
			h.log.Warn().Err(err).Stringer("window", e.State.ID).Msg("log sent request")
		}
		h.log.Debug().Stringer("window", e.State.ID).Str("method", e.State.Method).Msg("window state saved")
	case bus.CloseWindow:
		if err := h.store.Delete(ctx, e.ID); err != nil {
			h.log.Error().Err(err).Stringer("window", e.ID).Msg("delete window row")
			return err
		}
		h.log.Debug().Stringer("window", e.ID).Msg("window row deleted")
	}
	return nil
}
