package ui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/grillon/internal/bindings"
	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/config"
	"github.com/unkn0wn-root/grillon/internal/registry"
	"github.com/unkn0wn-root/grillon/internal/theme"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

type Config struct {
	Bus         *bus.Bus
	Allocator   *windowid.Allocator
	Executor    Executor
	Persister   registry.Persister
	Source      registry.Fetcher
	Theme       *theme.Theme
	Bindings    *bindings.Map
	Layout      config.LayoutSettings
	DefaultVerb string
	Version     string
	Logger      zerolog.Logger
	// Clipboard overrides the system clipboard writer.
	Clipboard func(string) error

	// ThemeKey names Theme; theme switches start from it.
	ThemeKey       string
	Settings       config.Settings
	SettingsHandle config.SettingsHandle
	// SaveSettings persists a theme switch. Nil keeps switches in memory.
	SaveSettings func(config.Settings, config.SettingsHandle) error
}

// Model is the root bubbletea model. It is the single consumer of the
// bus and the only code that touches the registry.
type Model struct {
	cfg      Config
	bus      *bus.Bus
	reg      *registry.Registry
	controls *MainControls
	exec     Executor
	theme    theme.Theme
	keys     *bindings.Map
	layout   config.LayoutSettings
	log      zerolog.Logger
	copy     func(string) error
	factory  *WindowFactory
	themeKey string
	settings config.Settings

	active   windowid.ID
	chord    string
	showHelp bool
	spinner  spinner.Model
	status   statusMsg

	width       int
	height      int
	frameWidth  int
	frameHeight int
	ready       bool
	quitting    bool
}

// New builds the registry, restores stored windows from cfg.Source and
// then creates the main controls, so restored ids are never reissued.
func New(cfg Config) Model {
	if cfg.Bus == nil {
		cfg.Bus = bus.New()
	}
	if cfg.Allocator == nil {
		cfg.Allocator = windowid.New()
	}
	th := theme.DefaultTheme()
	if cfg.Theme != nil {
		th = *cfg.Theme
	}
	keys := cfg.Bindings
	if keys == nil {
		keys = bindings.DefaultMap()
	}
	copyFn := cfg.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	themeKey := strings.ToLower(strings.TrimSpace(cfg.ThemeKey))
	if themeKey == "" {
		themeKey = "default"
	}

	factory := &WindowFactory{DefaultVerb: cfg.DefaultVerb, Theme: &th}
	reg := registry.New(cfg.Allocator, factory, cfg.Persister, cfg.Logger)
	if cfg.Source != nil {
		reg.RestoreAll(context.Background(), cfg.Source)
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		cfg:      cfg,
		bus:      cfg.Bus,
		reg:      reg,
		controls: NewMainControls(cfg.Allocator.Next(), cfg.Bus),
		exec:     cfg.Executor,
		theme:    th,
		keys:     keys,
		layout:   config.NormaliseLayoutSettings(cfg.Layout),
		log:      cfg.Logger,
		copy:     copyFn,
		factory:  factory,
		themeKey: themeKey,
		settings: cfg.Settings,
		spinner:  sp,
	}
	if ids := reg.IDs(); len(ids) > 0 {
		m.active = ids[0]
	}
	return m
}

func (m Model) Registry() *registry.Registry {
	return m.reg
}

func (m Model) Controls() *MainControls {
	return m.controls
}

func (m Model) ActiveID() windowid.ID {
	return m.active
}

// Window returns the open request window for id.
func (m Model) Window(id windowid.ID) (*RequestWindow, bool) {
	w, ok := m.reg.Get(id)
	if !ok {
		return nil, false
	}
	rw, ok := w.(*RequestWindow)
	return rw, ok
}

func (m Model) activeWindow() *RequestWindow {
	w, _ := m.Window(m.active)
	return w
}

func (m Model) Init() tea.Cmd {
	return m.nextBusMsgCmd()
}

func (m Model) nextBusMsgCmd() tea.Cmd {
	if m.bus == nil {
		return nil
	}
	b := m.bus
	return func() tea.Msg {
		ev, ok := b.Recv(context.Background())
		if !ok {
			return busClosedMsg{}
		}
		return busEventMsg{event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.frameWidth = typed.Width
		m.frameHeight = typed.Height
		m.width = maxInt(typed.Width-2, 0)
		m.height = maxInt(typed.Height-2, 0)
		m.ready = true
		m.resizeAll()
	case busEventMsg:
		if cmd := m.handleBusEvent(typed.event); cmd != nil {
			return m, cmd
		}
		cmds = append(cmds, m.nextBusMsgCmd())
	case busClosedMsg:
		m.log.Debug().Msg("event bus closed")
	case responseMsg:
		m.handleResponse(typed)
	case statusMsg:
		m.status = typed
	case spinner.TickMsg:
		// ticking stops once nothing is in flight; Run restarts it
		if m.anyRunning() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(typed)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		if cmd := m.handleKey(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	default:
		if w := m.activeWindow(); w != nil {
			if cmd := w.update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, batchCommands(cmds...)
}

// handleBusEvent runs one event through the registry. A non-nil command
// replaces the pump, which only happens on quit.
func (m *Model) handleBusEvent(ev bus.Event) tea.Cmd {
	res := m.reg.Handle(ev)
	if res.Opened != 0 {
		if w, ok := m.Window(res.Opened); ok {
			m.sizeWindow(w)
		}
		m.active = res.Opened
	}
	if res.Closed != 0 && res.Closed == m.active {
		m.active = m.neighbour(res.Closed)
	}
	if res.Quit {
		m.quitting = true
		m.controls.Close()
		return tea.Quit
	}
	return nil
}

func (m *Model) handleResponse(msg responseMsg) {
	w := msg.window
	if w == nil {
		return
	}
	w.applyResponse(msg)
	if msg.err != nil {
		m.log.Warn().
			Err(msg.err).
			Stringer("window", w.ID()).
			Bool("closed", w.Closed()).
			Msg("request failed")
		return
	}
	if msg.summary != nil {
		m.log.Debug().
			Stringer("window", w.ID()).
			Bool("closed", w.Closed()).
			Int("status", msg.summary.StatusCode).
			Int64("bytes", msg.summary.Bytes).
			Msg("response applied")
	}
}

// neighbour picks the window to activate after closed goes away: the
// closest lower id, else the lowest remaining.
func (m Model) neighbour(closed windowid.ID) windowid.ID {
	ids := m.reg.IDs()
	if len(ids) == 0 {
		return 0
	}
	pick := ids[0]
	for _, id := range ids {
		if id < closed {
			pick = id
		}
	}
	return pick
}

func (m *Model) cycleWindow(step int) {
	ids := m.reg.IDs()
	if len(ids) == 0 {
		m.active = 0
		return
	}
	idx := 0
	for i, id := range ids {
		if id == m.active {
			idx = i
			break
		}
	}
	idx = ((idx+step)%len(ids) + len(ids)) % len(ids)
	m.active = ids[idx]
}

func (m Model) anyRunning() bool {
	for _, id := range m.reg.IDs() {
		if w, ok := m.Window(id); ok && w.Running() {
			return true
		}
	}
	return false
}

func (m *Model) resizeAll() {
	for _, id := range m.reg.IDs() {
		if w, ok := m.Window(id); ok {
			m.sizeWindow(w)
		}
	}
}

func (m *Model) sizeWindow(w *RequestWindow) {
	if !m.ready {
		return
	}
	// tabs, command bar and message line
	w.setSize(m.width, m.height-3, m.layout.EditorSplit)
}

// cycleTheme switches to the next built-in theme. Open windows share the
// factory's theme, so their next response is highlighted with it too.
func (m *Model) cycleTheme() tea.Cmd {
	keys := theme.Keys()
	if len(keys) == 0 {
		return nil
	}
	next := keys[0]
	for i, key := range keys {
		if key == m.themeKey {
			next = keys[(i+1)%len(keys)]
			break
		}
	}
	th, _ := theme.Lookup(next)
	m.theme = th
	if m.factory != nil && m.factory.Theme != nil {
		*m.factory.Theme = th
	}
	m.themeKey = next
	m.settings.DefaultTheme = next

	save := m.cfg.SaveSettings
	if save == nil {
		m.setStatus("theme "+next, statusInfo)
		return nil
	}
	settings, handle := m.settings, m.cfg.SettingsHandle
	log := m.log
	return func() tea.Msg {
		if err := save(settings, handle); err != nil {
			log.Warn().Err(err).Str("theme", next).Msg("save theme")
			return statusMsg{text: "theme " + next + " (not saved: " + err.Error() + ")", level: statusWarn}
		}
		return statusMsg{text: "theme " + next + " saved", level: statusSuccess}
	}
}

func (m *Model) setStatus(text string, level statusLevel) {
	m.status = statusMsg{text: text, level: level}
}

func batchCommands(cmds ...tea.Cmd) tea.Cmd {
	var filtered []tea.Cmd
	for _, cmd := range cmds {
		if cmd != nil {
			filtered = append(filtered, cmd)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return tea.Batch(filtered...)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
