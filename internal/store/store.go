package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/grillon/internal/errdef"
	"github.com/unkn0wn-root/grillon/internal/headers"
	"github.com/unkn0wn-root/grillon/internal/logging"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

// Store keeps one row per open window plus an append-only log of sent
// requests. A single connection serializes every write.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates the database file when missing and applies migrations.
// It logs through the logger carried by ctx unless WithLogger is given.
// Any failure here is a startup precondition failure.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{log: logging.Component(*logging.FromContext(ctx), "store"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create db dir")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		s.log.Info().Str("path", path).Msg("creating database")
	} else {
		s.log.Debug().Str("path", path).Msg("database already exists")
	}

	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "resolve db path")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errdef.Wrap(errdef.CodeStorage, err, "ping sqlite")
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, errdef.Wrap(errdef.CodeStorage, err, "migrate")
	}
	s.db = db
	return s, nil
}

// sqliteDSN builds a file: URI for path. The path is made absolute and
// escaped so '#', '?' and '%' stay part of the file name.
func sqliteDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
	}
	return u.String(), nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Upsert inserts the row for st.ID or replaces every column of it.
func (s *Store) Upsert(ctx context.Context, st reqstate.State) error {
	hdrs, err := encodeHeaders(st.Headers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO OpenWindows (id, method, uri, path, query, headers, body)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	method = excluded.method,
	uri = excluded.uri,
	path = excluded.path,
	query = excluded.query,
	headers = excluded.headers,
	body = excluded.body
`, int64(st.ID), st.Method, st.URI, st.Path, st.Query, hdrs, st.Body)
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "upsert window %d", st.ID)
	}
	return nil
}

// Delete removes the row for id. A missing row is not an error.
func (s *Store) Delete(ctx context.Context, id windowid.ID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM OpenWindows WHERE id = ?`, int64(id)); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "delete window %d", id)
	}
	return nil
}

// LogSent appends st to the sent-request log.
func (s *Store) LogSent(ctx context.Context, st reqstate.State) error {
	hdrs, err := encodeHeaders(st.Headers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO SentRequest (sent_at, method, uri, path, query, headers, body)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, ts(s.now()), st.Method, st.URI, st.Path, st.Query, hdrs, st.Body)
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "log sent request")
	}
	return nil
}

// LoadAll returns every open-window row ordered by id.
func (s *Store) LoadAll(ctx context.Context) ([]reqstate.State, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, method, uri, COALESCE(path, ''), COALESCE(query, ''), COALESCE(headers, ''), COALESCE(body, '')
FROM OpenWindows
ORDER BY id
`)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "query open windows")
	}
	defer rows.Close() //nolint:errcheck

	var out []reqstate.State
	for rows.Next() {
		var (
			id   int64
			st   reqstate.State
			hdrs string
		)
		if err := rows.Scan(&id, &st.Method, &st.URI, &st.Path, &st.Query, &hdrs, &st.Body); err != nil {
			return nil, errdef.Wrap(errdef.CodeStorage, err, "scan open window")
		}
		if id < 0 {
			s.log.Warn().Int64("id", id).Msg("skipping row with negative id")
			continue
		}
		st.ID = windowid.ID(id)
		st.Headers, err = decodeHeaders(hdrs)
		if err != nil {
			s.log.Warn().Err(err).Uint64("id", uint64(st.ID)).Msg("dropping unreadable headers")
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "iterate open windows")
	}
	return out, nil
}

// FetchAll is LoadAll that degrades to an empty result: restore starts
// with no windows instead of aborting.
func (s *Store) FetchAll(ctx context.Context) []reqstate.State {
	rows, err := s.LoadAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("fetch open windows")
		return nil
	}
	return rows
}

func encodeHeaders(h headers.Pairs) (string, error) {
	if h == nil {
		h = headers.Pairs{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeStorage, err, "encode headers")
	}
	return string(data), nil
}

func decodeHeaders(raw string) (headers.Pairs, error) {
	if raw == "" {
		return nil, nil
	}
	var out headers.Pairs
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "decode headers")
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
