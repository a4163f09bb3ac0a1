// Package httpcache stores successful GET responses in SQLite so repeated
// runs against the same site can be answered without network requests.
// Store failures never fail a fetch; the cache is bypassed instead.
package httpcache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const (
	indexCapacity = 100000
	indexFPRate   = 0.001
)

// Entry is a stored response.
type Entry struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Store is a SQLite-backed response cache with a bloom-filter key index.
type Store struct {
	db     *sql.DB
	index  *KeyIndex
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the cache database at path. Entries older than ttl
// are treated as missing; a ttl of zero keeps entries forever.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	index, loaded, err := OpenKeyIndex(path+".bloom", indexCapacity, indexFPRate)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:     db,
		index:  index,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}

	if !loaded {
		if err := s.rebuildIndex(context.Background()); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}
	return s, nil
}

func (s *Store) rebuildIndex(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "select key from responses")
	if err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("scan cache key: %w", err)
		}
		s.index.Add(key)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}

	s.logger.Debug("cache index rebuilt", "keys", count)
	return s.index.Sync()
}

// Get returns the entry for key. A missing or expired entry returns
// (nil, false, nil).
func (s *Store) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if !s.index.MayContain(key) {
		return nil, false, nil
	}

	var (
		entry    Entry
		header   string
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"select status, header, body, stored_at from responses where key = ?", key,
	).Scan(&entry.Status, &header, &entry.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	entry.StoredAt = time.Unix(storedAt, 0)
	if s.ttl > 0 && s.now().Sub(entry.StoredAt) > s.ttl {
		return nil, false, nil
	}

	if err := json.Unmarshal([]byte(header), &entry.Header); err != nil {
		return nil, false, fmt.Errorf("decode cached header: %w", err)
	}
	return &entry, true, nil
}

// Put stores entry under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, entry Entry) error {
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	storedAt := entry.StoredAt
	if storedAt.IsZero() {
		storedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		insert into responses (key, status, header, body, stored_at)
		values (?, ?, ?, ?, ?)
		on conflict (key) do update set
			status = excluded.status,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at`,
		key, entry.Status, string(header), entry.Body, storedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	s.index.Add(key)
	return nil
}

// Clear removes every stored response.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "delete from responses"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	if err := s.index.Reset(); err != nil {
		return fmt.Errorf("reset cache index: %w", err)
	}
	return nil
}

// Len returns the number of stored responses, expired ones included.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "select count(*) from responses").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

// Close flushes the key index and closes the database.
func (s *Store) Close() error {
	return errors.Join(s.index.Close(), s.db.Close())
}
