package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
	SettingsFormatYAML SettingsFormat = "yaml"
)

// Duration reads and writes "30s" style strings in every settings format.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type HTTPSettings struct {
	Timeout         Duration `json:"timeout"          toml:"timeout"          yaml:"timeout"`
	FollowRedirects *bool    `json:"follow_redirects" toml:"follow_redirects" yaml:"follow_redirects"`
	Insecure        bool     `json:"insecure"         toml:"insecure"         yaml:"insecure"`
	Proxy           string   `json:"proxy"            toml:"proxy"            yaml:"proxy"`
}

type LogSettings struct {
	Level      string `json:"level"       toml:"level"       yaml:"level"`
	File       string `json:"file"        toml:"file"        yaml:"file"`
	Stderr     bool   `json:"stderr"      toml:"stderr"      yaml:"stderr"`
	MaxSizeMB  int    `json:"max_size_mb" toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" toml:"max_age_days" yaml:"max_age_days"`
}

type Settings struct {
	DBPath       string         `json:"db_path"       toml:"db_path"       yaml:"db_path"`
	DefaultVerb  string         `json:"default_verb"  toml:"default_verb"  yaml:"default_verb"`
	DefaultTheme string         `json:"default_theme" toml:"default_theme" yaml:"default_theme"`
	HTTP         HTTPSettings   `json:"http"          toml:"http"          yaml:"http"`
	Log          LogSettings    `json:"log"           toml:"log"           yaml:"log"`
	Layout       LayoutSettings `json:"layout"        toml:"layout"        yaml:"layout"`
}

const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultLogLevel    = "info"
)

// Normalise fills defaults for anything left unset.
func (s Settings) Normalise() Settings {
	if strings.TrimSpace(s.DBPath) == "" {
		s.DBPath = DefaultDBPath()
	}
	s.DefaultVerb = strings.ToUpper(strings.TrimSpace(s.DefaultVerb))
	if s.HTTP.Timeout <= 0 {
		s.HTTP.Timeout = Duration(DefaultHTTPTimeout)
	}
	if s.HTTP.FollowRedirects == nil {
		follow := true
		s.HTTP.FollowRedirects = &follow
	}
	if strings.TrimSpace(s.Log.Level) == "" {
		s.Log.Level = DefaultLogLevel
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = DefaultLogPath()
	}
	if s.Log.MaxSizeMB <= 0 {
		s.Log.MaxSizeMB = 10
	}
	if s.Log.MaxBackups <= 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAgeDays <= 0 {
		s.Log.MaxAgeDays = 28
	}
	s.Layout = NormaliseLayoutSettings(s.Layout)
	return s
}

func (s Settings) Follow() bool {
	return s.HTTP.FollowRedirects == nil || *s.HTTP.FollowRedirects
}

type SettingsFormat string
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

// tries TOML, then JSON, then YAML, then returns defaults if none exists.
// parse errors fail immediately but missing files just skip to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
		{Path: filepath.Join(dir, "settings.yaml"), Format: SettingsFormatYAML},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return settings.Normalise(), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return Settings{}.Normalise(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings.Layout = NormaliseLayoutSettings(settings.Layout)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	case SettingsFormatYAML:
		data, err = yaml.Marshal(settings)
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial data.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".grillon-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
