package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/grillon/internal/headers"
	"github.com/unkn0wn-root/grillon/internal/logging"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "grillon-test.db"), opts...)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, ctx
}

func sampleRow(id windowid.ID) reqstate.State {
	return reqstate.State{
		ID:     id,
		Method: "POST",
		URI:    "http://example.test/a?b=1",
		Path:   "/a",
		Query:  "b=1",
		Headers: headers.Pairs{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "X-Id", Value: "42"},
		},
		Body: `{"x":1}`,
	}
}

func TestUpsertThenFetchAll(t *testing.T) {
	s, ctx := newTestStore(t)
	row := sampleRow(7)
	if err := s.Upsert(ctx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := s.FetchAll(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0], row) {
		t.Fatalf("row mismatch:\n got %#v\nwant %#v", got[0], row)
	}
}

func TestUpsertIsIdempotentAndReplaces(t *testing.T) {
	s, ctx := newTestStore(t)
	row := sampleRow(7)
	for i := 0; i < 2; i++ {
		if err := s.Upsert(ctx, row); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	if got := s.FetchAll(ctx); len(got) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(got))
	}

	row.Method = "DELETE"
	row.Headers = nil
	row.Body = ""
	if err := s.Upsert(ctx, row); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got := s.FetchAll(ctx)
	if len(got) != 1 || !reflect.DeepEqual(got[0], row) {
		t.Fatalf("expected replaced row, got %#v", got)
	}
}

func TestDelete(t *testing.T) {
	s, ctx := newTestStore(t)
	a := sampleRow(1)
	b := sampleRow(2)
	for _, r := range []reqstate.State{a, b} {
		if err := s.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert %d: %v", r.ID, err)
		}
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := s.FetchAll(ctx)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only row 2, got %#v", got)
	}

	if err := s.Delete(ctx, 99); err != nil {
		t.Fatalf("deleting an absent id should not error: %v", err)
	}
}

func TestFetchAllOrderedByID(t *testing.T) {
	s, ctx := newTestStore(t)
	for _, id := range []windowid.ID{5, 2, 9} {
		if err := s.Upsert(ctx, sampleRow(id)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	got := s.FetchAll(ctx)
	if len(got) != 3 || got[0].ID != 2 || got[1].ID != 5 || got[2].ID != 9 {
		t.Fatalf("unexpected order %#v", got)
	}
}

func TestFetchAllFailsSoft(t *testing.T) {
	s, ctx := newTestStore(t)
	if err := s.Upsert(ctx, sampleRow(7)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = s.Close()

	if got := s.FetchAll(ctx); got != nil {
		t.Fatalf("expected empty result after failure, got %#v", got)
	}
	if _, err := s.LoadAll(ctx); err == nil {
		t.Fatalf("expected LoadAll to report the failure")
	}
}

func TestUnreadableHeadersKeepRow(t *testing.T) {
	s, ctx := newTestStore(t)
	if _, err := s.DB().ExecContext(ctx,
		`INSERT INTO OpenWindows (id, method, uri, headers) VALUES (3, 'GET', 'http://h/', 'not json')`,
	); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got := s.FetchAll(ctx)
	if len(got) != 1 || got[0].ID != 3 || got[0].Headers != nil {
		t.Fatalf("expected row without headers, got %#v", got)
	}
}

func TestLogSentAppends(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s, ctx := newTestStore(t, WithClock(func() time.Time { return fixed }))
	row := sampleRow(7)
	for i := 0; i < 2; i++ {
		if err := s.LogSent(ctx, row); err != nil {
			t.Fatalf("log sent: %v", err)
		}
	}

	var (
		count  int
		sentAt string
	)
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*), MAX(sent_at) FROM SentRequest`).Scan(&count, &sentAt); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 log rows, got %d", count)
	}
	if sentAt != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected sent_at %q", sentAt)
	}
	if got := s.FetchAll(ctx); len(got) != 0 {
		t.Fatalf("log must not create open-window rows, got %#v", got)
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grillon.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Upsert(ctx, sampleRow(7)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = s.Close()

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close() //nolint:errcheck
	if got := s2.FetchAll(ctx); len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("expected persisted row after reopen, got %#v", got)
	}
}

func TestOpenKeepsURIMetacharactersInPath(t *testing.T) {
	for _, dirName := range []string{"a#b", "q?x", "100%25done", "with space"} {
		t.Run(dirName, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), dirName, "grillon.db")
			s, err := Open(ctx, path)
			if err != nil {
				t.Fatalf("open %q: %v", path, err)
			}
			if err := s.Upsert(ctx, sampleRow(3)); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected database at %q: %v", path, err)
			}

			again, err := Open(ctx, path)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer func() { _ = again.Close() }()
			rows, err := again.LoadAll(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(rows) != 1 || rows[0].ID != 3 {
				t.Fatalf("expected the stored row back, got %+v", rows)
			}
		})
	}
}

func TestOpenLogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithContext(context.Background(), zerolog.New(&buf))
	s, err := Open(ctx, filepath.Join(t.TempDir(), "grillon.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()

	out := buf.String()
	if !strings.Contains(out, "creating database") || !strings.Contains(out, `"component":"store"`) {
		t.Fatalf("expected store records in context logger, got %q", out)
	}
}
