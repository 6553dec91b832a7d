package bindings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMapContainsExpectedBindings(t *testing.T) {
	m := DefaultMap()

	if binding, ok := m.MatchSingle("ctrl+n"); !ok || binding.Action != ActionNewWindow {
		t.Fatalf("expected ctrl+n -> ActionNewWindow, got %+v (ok=%v)", binding, ok)
	}
	if binding, ok := m.MatchSingle("ctrl+r"); !ok || binding.Action != ActionRunRequest {
		t.Fatalf("expected ctrl+r -> ActionRunRequest, got %+v (ok=%v)", binding, ok)
	}
	if binding, ok := m.MatchSingle("ctrl+q"); !ok || binding.Action != ActionQuit {
		t.Fatalf("expected ctrl+q -> ActionQuit, got %+v (ok=%v)", binding, ok)
	}
	if binding, ok := m.ResolveChord("ctrl+x", "k"); !ok || binding.Action != ActionCloseWindow {
		t.Fatalf("expected ctrl+x k -> ActionCloseWindow, got %+v (ok=%v)", binding, ok)
	}
	if !m.HasChordPrefix("ctrl+x") {
		t.Fatalf("expected HasChordPrefix('ctrl+x') to be true")
	}
	if first, ok := m.First(ActionCloseWindow); !ok || first.String() != "ctrl+w" {
		t.Fatalf("expected primary close binding ctrl+w, got %+v", first)
	}
	if Describe(ActionRunRequest) == "" {
		t.Fatalf("expected description for run_request")
	}
}

func TestLoadOverridesBindings(t *testing.T) {
	dir := t.TempDir()
	payload := `
[bindings]
run_request = ["ctrl+shift+r"]
toggle_help = ["?"]
`
	path := filepath.Join(dir, "bindings.toml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}

	m, src, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if src.Format != FormatTOML || src.Path != path {
		t.Fatalf("unexpected source %+v", src)
	}
	if binding, ok := m.MatchSingle("ctrl+r"); ok {
		t.Fatalf("expected ctrl+r to be unbound, got %v", binding.Action)
	}
	if binding, ok := m.MatchSingle("ctrl+shift+r"); !ok || binding.Action != ActionRunRequest {
		t.Fatalf("expected ctrl+shift+r -> run_request, got %+v (ok=%v)", binding, ok)
	}
	if binding, ok := m.MatchSingle("shift+/"); !ok || binding.Action != ActionToggleHelp {
		t.Fatalf("expected ? -> toggle_help, got %+v (ok=%v)", binding, ok)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	payload := "bindings:\n  cycle_verb: [\"Control+Alt+V\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "bindings.yaml"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	m, src, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if src.Format != FormatYAML {
		t.Fatalf("expected yaml source, got %q", src.Format)
	}
	if binding, ok := m.MatchSingle("ctrl+alt+v"); !ok || binding.Action != ActionCycleVerb {
		t.Fatalf("expected ctrl+alt+v -> cycle_verb, got %+v (ok=%v)", binding, ok)
	}
}

func TestLoadRejectsConflictingBindings(t *testing.T) {
	dir := t.TempDir()
	payload := `
[bindings]
new_window = ["ctrl+s"]
copy_response = ["ctrl+s"]
`
	path := filepath.Join(dir, "bindings.toml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}

	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected conflict error, got nil")
	}
}

func TestLoadRejectsChordForRun(t *testing.T) {
	dir := t.TempDir()
	payload := `{"bindings": {"run_request": ["ctrl+x r"]}}`
	if err := os.WriteFile(filepath.Join(dir, "bindings.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected error for chorded run binding")
	}
}

func TestLoadRejectsUnknownAction(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bindings.toml"), []byte("[bindings]\nlaunch = [\"x\"]\n"), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected unknown action error")
	}
}

func TestNormalizeKeyString(t *testing.T) {
	cases := map[string]string{
		"A":            "shift+a",
		"Ctrl+Shift+R": "ctrl+shift+r",
		"option+v":     "alt+v",
		"?":            "shift+/",
		"F5":           "f5",
	}
	for in, want := range cases {
		if got := NormalizeKeyString(in); got != want {
			t.Fatalf("NormalizeKeyString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadRejectsPrefixUsedAsShortcut(t *testing.T) {
	dir := t.TempDir()
	payload := "[bindings]\ncopy_response = [\"ctrl+x\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "bindings.toml"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected prefix conflict error")
	}
}

func TestBindingsReturnsCopy(t *testing.T) {
	m := DefaultMap()
	list := m.Bindings(ActionNewWindow)
	if len(list) != 2 || list[1].String() != "ctrl+x n" {
		t.Fatalf("unexpected new_window bindings %+v", list)
	}
	list[0].Action = ActionQuit
	if first, _ := m.First(ActionNewWindow); first.Action != ActionNewWindow {
		t.Fatalf("expected map to be unaffected by caller edits")
	}
	if b, ok := m.MatchSingle("alt+t"); !ok || b.Action != ActionCycleTheme {
		t.Fatalf("expected alt+t -> cycle_theme, got %+v (ok=%v)", b, ok)
	}
}
