package history

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"

	"github.com/ferro-labs/routegen/internal/metrics"
)

type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

// SQLStore persists snapshots in SQL backends (SQLite or Postgres).
// Timestamps are stored as unix nanoseconds so recency ordering is a
// plain numeric sort on both backends.
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteStore creates a SQLite-backed snapshot store.
// dsn can be a file path (e.g. /var/lib/routegen/history.db) or SQLite DSN.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "routegen-history.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectSQLite}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore creates a Postgres-backed snapshot store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectPostgres}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Open picks the backend from the DSN: anything starting with postgres://
// or postgresql:// opens Postgres, everything else is treated as a SQLite
// path.
func Open(dsn string) (*SQLStore, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgresStore(dsn)
	}
	return NewSQLiteStore(dsn)
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s store: %w", s.dialect, err)
	}

	var ddl string
	switch s.dialect {
	case dialectPostgres:
		ddl = `
CREATE TABLE IF NOT EXISTS config_snapshots (
	id TEXT PRIMARY KEY,
	created_at BIGINT NOT NULL,
	source TEXT NOT NULL,
	checksum TEXT NOT NULL,
	entry_count INTEGER NOT NULL,
	document TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_config_snapshots_created_at ON config_snapshots(created_at);`
	default:
		ddl = `
CREATE TABLE IF NOT EXISTS config_snapshots (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	source TEXT NOT NULL,
	checksum TEXT NOT NULL,
	entry_count INTEGER NOT NULL,
	document TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_config_snapshots_created_at ON config_snapshots(created_at);`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize %s store schema: %w", s.dialect, err)
	}
	return nil
}

// Save archives a rendered document.
func (s *SQLStore) Save(source string, entryCount int, document []byte) (*Snapshot, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sum := sha256.Sum256(document)
	checksum := hex.EncodeToString(sum[:])

	q := s.bind(`
INSERT INTO config_snapshots(id, created_at, source, checksum, entry_count, document)
VALUES(?, ?, ?, ?, ?, ?)`)

	if _, err := s.db.Exec(q, id, now.UnixNano(), source, checksum, entryCount, string(document)); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	metrics.Snapshots.WithLabelValues(string(s.dialect)).Inc()

	return &Snapshot{
		ID:         id,
		CreatedAt:  now,
		Source:     source,
		Checksum:   checksum,
		EntryCount: entryCount,
		Document:   append([]byte(nil), document...),
	}, nil
}

// List returns snapshot metadata, most recent first. Documents are not
// loaded; fetch one with Get when the payload is needed.
func (s *SQLStore) List(limit int) ([]*Snapshot, error) {
	q := `
SELECT id, created_at, source, checksum, entry_count
FROM config_snapshots
ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(s.bind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	snapshots := make([]*Snapshot, 0)
	for rows.Next() {
		var (
			snap         Snapshot
			createdNanos int64
		)
		if err := rows.Scan(&snap.ID, &createdNanos, &snap.Source, &snap.Checksum, &snap.EntryCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt = time.Unix(0, createdNanos).UTC()
		snapshots = append(snapshots, &snap)
	}
	return snapshots, rows.Err()
}

// Get returns a full snapshot by ID.
func (s *SQLStore) Get(id string) (*Snapshot, bool) {
	q := s.bind(`
SELECT id, created_at, source, checksum, entry_count, document
FROM config_snapshots
WHERE id = ?`)
	return s.scanOne(q, id)
}

// Latest returns the most recent snapshot including its document.
func (s *SQLStore) Latest() (*Snapshot, bool) {
	q := `
SELECT id, created_at, source, checksum, entry_count, document
FROM config_snapshots
ORDER BY created_at DESC
LIMIT 1`
	return s.scanOne(q)
}

// Prune deletes all but the most recent keep snapshots.
func (s *SQLStore) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	q := s.bind(`
DELETE FROM config_snapshots
WHERE id NOT IN (
	SELECT id FROM config_snapshots ORDER BY created_at DESC LIMIT ?
)`)
	res, err := s.db.Exec(q, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) scanOne(query string, args ...interface{}) (*Snapshot, bool) {
	var (
		snap         Snapshot
		createdNanos int64
		doc          string
	)
	err := s.db.QueryRow(query, args...).Scan(
		&snap.ID,
		&createdNanos,
		&snap.Source,
		&snap.Checksum,
		&snap.EntryCount,
		&doc,
	)
	if err != nil {
		return nil, false
	}
	snap.CreatedAt = time.Unix(0, createdNanos).UTC()
	snap.Document = []byte(doc)
	return &snap, true
}

func (s *SQLStore) bind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var (
		b      strings.Builder
		argNum = 1
	)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", argNum))
			argNum++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func generateID() (string, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x",
		idBytes[0:4], idBytes[4:6], idBytes[6:8], idBytes[8:10], idBytes[10:16]), nil
}
