package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadSettingsReturnsDefaultHandleWhenMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	expectedPath := filepath.Join(dir, "settings.toml")
	if handle.Path != expectedPath {
		t.Fatalf("expected handle path %q, got %q", expectedPath, handle.Path)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("expected format %q, got %q", SettingsFormatTOML, handle.Format)
	}
	if settings.DBPath != filepath.Join(dir, "grillon.db") {
		t.Fatalf("unexpected default db path %q", settings.DBPath)
	}
	if time.Duration(settings.HTTP.Timeout) != DefaultHTTPTimeout {
		t.Fatalf("expected default timeout, got %s", time.Duration(settings.HTTP.Timeout))
	}
	if !settings.Follow() {
		t.Fatalf("expected redirects followed by default")
	}
	if settings.Log.Level != DefaultLogLevel || settings.Log.File != filepath.Join(dir, "grillon.log") {
		t.Fatalf("unexpected log defaults %#v", settings.Log)
	}
}

func TestSaveAndLoadSettingsTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)

	follow := false
	want := Settings{
		DefaultVerb: "post",
		HTTP:        HTTPSettings{Timeout: Duration(5 * time.Second), FollowRedirects: &follow},
	}
	if err := SaveSettings(want, SettingsHandle{}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.DefaultVerb != "POST" {
		t.Fatalf("expected verb POST, got %q", got.DefaultVerb)
	}
	if time.Duration(got.HTTP.Timeout) != 5*time.Second {
		t.Fatalf("expected timeout 5s, got %s", time.Duration(got.HTTP.Timeout))
	}
	if got.Follow() {
		t.Fatalf("expected redirects disabled")
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("expected format %q after save, got %q", SettingsFormatTOML, handle.Format)
	}
}

func TestLoadSettingsJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)

	payload := map[string]any{
		"db_path": "/tmp/other.db",
		"http":    map[string]any{"timeout": "2s", "proxy": "http://localhost:8080"},
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write json settings: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.DBPath != "/tmp/other.db" || got.HTTP.Proxy != "http://localhost:8080" {
		t.Fatalf("unexpected settings %#v", got)
	}
	if time.Duration(got.HTTP.Timeout) != 2*time.Second {
		t.Fatalf("expected 2s timeout, got %s", time.Duration(got.HTTP.Timeout))
	}
	if handle.Format != SettingsFormatJSON || handle.Path != path {
		t.Fatalf("unexpected handle %#v", handle)
	}
}

func TestLoadSettingsYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)

	content := strings.Join([]string{
		"default_verb: put",
		"http:",
		"  insecure: true",
		"log:",
		"  level: debug",
		"  stderr: true",
		"layout:",
		"  orientation: horizontal",
		"",
	}, "\n")
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml settings: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if handle.Format != SettingsFormatYAML {
		t.Fatalf("expected yaml format, got %q", handle.Format)
	}
	if got.DefaultVerb != "PUT" || !got.HTTP.Insecure || got.Log.Level != "debug" || !got.Log.Stderr {
		t.Fatalf("unexpected settings %#v", got)
	}
	if got.Layout.Orientation != LayoutOrientationHorizontal {
		t.Fatalf("expected horizontal layout, got %q", got.Layout.Orientation)
	}
}

func TestLoadSettingsRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"nope": 1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadSettings(); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestLoadSettingsRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("[http]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadSettings(); err == nil {
		t.Fatalf("expected bad duration to fail")
	}
}

func TestSaveSettingsYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRILLON_CONFIG_DIR", dir)
	handle := SettingsHandle{Path: filepath.Join(dir, "settings.yaml"), Format: SettingsFormatYAML}
	if err := SaveSettings(Settings{DefaultTheme: "dusk", HTTP: HTTPSettings{Timeout: Duration(time.Minute)}}, handle); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, gotHandle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotHandle.Format != SettingsFormatYAML || got.DefaultTheme != "dusk" || time.Duration(got.HTTP.Timeout) != time.Minute {
		t.Fatalf("unexpected round trip %#v %#v", got, gotHandle)
	}
}
