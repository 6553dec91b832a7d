package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "grillon.log")
	log, closer, err := New(Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clog := Component(log, "registry")
	clog.Debug().Str("window", "7").Msg("opened")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if rec["component"] != "registry" || rec["window"] != "7" || rec["message"] != "opened" {
		t.Fatalf("unexpected record %#v", rec)
	}
	if s, _ := rec["session"].(string); len(s) != 36 {
		t.Fatalf("expected uuid session id, got %#v", rec["session"])
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grillon.log")
	log, closer, err := New(Config{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	_ = closer.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	log, _, err := New(Config{Level: "chatty", File: filepath.Join(t.TempDir(), "g.log")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %v", log.GetLevel())
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log, closer, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled logger, got %v", log.GetLevel())
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()).GetLevel() != zerolog.Disabled {
		t.Fatalf("expected nop logger from empty context")
	}
	log := zerolog.New(nil).Level(zerolog.ErrorLevel)
	ctx := WithContext(context.Background(), log)
	if FromContext(ctx).GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("expected stored logger")
	}
}
