package bindings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Source is the file the bindings came from. Path points at the TOML
// candidate when only defaults were used.
type Source struct {
	Path   string
	Format Format
}

type ActionID string

// Binding is one key sequence of one or two steps.
type Binding struct {
	Action ActionID
	Steps  []string
}

// String renders the key sequence the way it is written in bindings files.
func (b Binding) String() string {
	return strings.Join(b.Steps, " ")
}

// Map resolves key presses to actions. A key is either a standalone
// shortcut or a chord prefix, never both.
type Map struct {
	single  map[string]Binding
	chords  map[string]map[string]Binding
	actions map[ActionID][]Binding
}

type configFile struct {
	Bindings map[string][]string `json:"bindings" toml:"bindings" yaml:"bindings"`
}

var decoders = []struct {
	format Format
	decode func([]byte, any) error
}{
	{FormatTOML, toml.Unmarshal},
	{FormatJSON, json.Unmarshal},
	{FormatYAML, yaml.Unmarshal},
}

// Load reads the first of bindings.toml, bindings.json and bindings.yaml
// found in dir. Listed actions replace their default sequences.
func Load(dir string) (*Map, Source, error) {
	for _, d := range decoders {
		src := Source{Path: filepath.Join(dir, "bindings."+string(d.format)), Format: d.format}
		data, err := os.ReadFile(src.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, Source{}, fmt.Errorf("read bindings %q: %w", src.Path, err)
		}
		var payload configFile
		if len(data) > 0 {
			if err := d.decode(data, &payload); err != nil {
				return nil, Source{}, fmt.Errorf("parse bindings %q: %w", src.Path, err)
			}
		}
		m, err := build(payload.Bindings)
		if err != nil {
			return nil, Source{}, fmt.Errorf("apply bindings %q: %w", src.Path, err)
		}
		return m, src, nil
	}

	m, err := build(nil)
	if err != nil {
		return nil, Source{}, err
	}
	return m, Source{Path: filepath.Join(dir, "bindings.toml"), Format: FormatTOML}, nil
}

// DefaultMap builds the built-in bindings without consulting disk.
func DefaultMap() *Map {
	m, err := build(nil)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) MatchSingle(key string) (Binding, bool) {
	if m == nil {
		return Binding{}, false
	}
	b, ok := m.single[key]
	return b, ok
}

func (m *Map) HasChordPrefix(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.chords[key]
	return ok
}

func (m *Map) ResolveChord(prefix, next string) (Binding, bool) {
	if m == nil {
		return Binding{}, false
	}
	b, ok := m.chords[prefix][next]
	return b, ok
}

// Bindings returns every sequence bound to action, primary first.
func (m *Map) Bindings(action ActionID) []Binding {
	if m == nil {
		return nil
	}
	return append([]Binding(nil), m.actions[action]...)
}

// First returns the primary binding for action, used in help and hints.
func (m *Map) First(action ActionID) (Binding, bool) {
	if m == nil || len(m.actions[action]) == 0 {
		return Binding{}, false
	}
	return m.actions[action][0], true
}

func build(overrides map[string][]string) (*Map, error) {
	sequences := make(map[ActionID][]string, len(definitions))
	for _, def := range definitions {
		sequences[def.id] = def.defaults
	}
	for key, specs := range overrides {
		id := ActionID(key)
		if _, ok := definitionLookup[id]; !ok {
			return nil, fmt.Errorf("unknown action %q", key)
		}
		sequences[id] = specs
	}

	m := &Map{
		single:  make(map[string]Binding),
		chords:  make(map[string]map[string]Binding),
		actions: make(map[ActionID][]Binding, len(definitions)),
	}
	// sorted so conflict errors are stable
	for _, id := range KnownActions() {
		seen := make(map[string]struct{})
		for _, spec := range sequences[id] {
			steps, err := parseSequence(spec)
			if err != nil {
				return nil, fmt.Errorf("action %s: %w", id, err)
			}
			if len(steps) > 2 {
				return nil, fmt.Errorf("action %s: bindings may not exceed two steps", id)
			}
			if definitionLookup[id].singleStep && len(steps) != 1 {
				return nil, fmt.Errorf("action %s only supports single-step bindings", id)
			}
			b := Binding{Action: id, Steps: steps}
			if _, dup := seen[b.String()]; dup {
				return nil, fmt.Errorf("action %s: duplicate binding %q", id, b)
			}
			seen[b.String()] = struct{}{}
			if err := m.add(b); err != nil {
				return nil, err
			}
		}
	}
	for prefix := range m.chords {
		if existing, ok := m.single[prefix]; ok {
			return nil, fmt.Errorf(
				"key %q cannot be both a chord prefix and standalone shortcut (conflicts with %s)",
				prefix,
				existing.Action,
			)
		}
	}
	return m, nil
}

func (m *Map) add(b Binding) error {
	m.actions[b.Action] = append(m.actions[b.Action], b)
	if len(b.Steps) == 1 {
		if existing, ok := m.single[b.Steps[0]]; ok {
			return fmt.Errorf("binding %q assigned to both %s and %s", b, existing.Action, b.Action)
		}
		m.single[b.Steps[0]] = b
		return nil
	}
	prefix, next := b.Steps[0], b.Steps[1]
	bucket := m.chords[prefix]
	if bucket == nil {
		bucket = make(map[string]Binding)
		m.chords[prefix] = bucket
	}
	if existing, ok := bucket[next]; ok {
		return fmt.Errorf("binding %q assigned to both %s and %s", b, existing.Action, b.Action)
	}
	bucket[next] = b
	return nil
}

func parseSequence(spec string) ([]string, error) {
	parts := strings.Fields(spec)
	if len(parts) == 0 {
		return nil, errors.New("empty binding")
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		step, err := normalizeStep(part)
		if err != nil {
			return nil, err
		}
		out[i] = step
	}
	return out, nil
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
}

var modifierOrder = []string{"ctrl", "alt", "shift"}

// normalizeStep lower-cases a key, maps modifier aliases and orders them
// ctrl, alt, shift. A lone upper-case letter becomes shift+letter.
func normalizeStep(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return "", errors.New("empty key step")
	case "?":
		return "shift+/", nil
	}
	if r := []rune(raw); len(r) == 1 {
		if unicode.IsUpper(r[0]) {
			return "shift+" + strings.ToLower(raw), nil
		}
		return raw, nil
	}

	mods := make(map[string]bool)
	var key []string
	for _, part := range strings.Split(strings.ToLower(raw), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if mod, ok := modifierAliases[part]; ok {
			mods[mod] = true
			continue
		}
		key = append(key, part)
	}
	if len(key) == 0 {
		return "", fmt.Errorf("binding %q missing key", raw)
	}
	var out []string
	for _, mod := range modifierOrder {
		if mods[mod] {
			out = append(out, mod)
		}
	}
	return strings.Join(append(out, strings.Join(key, "+")), "+"), nil
}

// NormalizeKeyString converts a runtime key string into the form used
// for lookup. Unusable input yields "".
func NormalizeKeyString(raw string) string {
	step, err := normalizeStep(raw)
	if err != nil {
		return ""
	}
	return step
}

// KnownActions returns the sorted list of action identifiers.
func KnownActions() []ActionID {
	ids := make([]ActionID, 0, len(definitions))
	for _, def := range definitions {
		ids = append(ids, def.id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
