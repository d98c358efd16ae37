package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

const defaultSearchLimit = 10

// SQLiteStore implements Opener using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Opener = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !memory {
		dsn = withFileDefaults(dsn)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// fileDefaults are applied to file databases unless the DSN sets them, so
// concurrent writers wait on the lock instead of failing.
var fileDefaults = []struct{ key, value string }{
	{"_busy_timeout", "5000"},
	{"_journal_mode", "WAL"},
	{"_txlock", "immediate"},
}

func withFileDefaults(dsn string) string {
	for _, p := range fileDefaults {
		if strings.Contains(dsn, p.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS store_items (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_store_items_namespace ON store_items(namespace, updated_at)`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			checkpoint_id TEXT NOT NULL UNIQUE,
			thread_id TEXT NOT NULL,
			messages TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON checkpoints(thread_id, seq)`,
		`CREATE TABLE IF NOT EXISTS items (
			item_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Open acquires a dedicated connection for the lifetime of one request.
func (s *SQLiteStore) Open(ctx context.Context) (Handle, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqliteHandle{sqliteQueries: sqliteQueries{db: conn}, conn: conn}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteQueries implements the stores on top of a connection or a transaction.
type sqliteQueries struct {
	db querier
}

// sqliteHandle is the request-scoped Handle returned by Open.
type sqliteHandle struct {
	sqliteQueries
	conn *sql.Conn
}

// Close releases the connection back to the pool.
func (h *sqliteHandle) Close() error {
	return h.conn.Close()
}

// WithTx runs fn inside one transaction on the handle's connection. The
// transaction commits when fn returns nil and rolls back otherwise.
func (h *sqliteHandle) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := h.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&sqliteQueries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PutItem upserts a value under (namespace, key).
func (q *sqliteQueries) PutItem(ctx context.Context, ns domain.Namespace, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	now := time.Now().UTC()
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO store_items (namespace, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		ns.String(), key, string(data), now, now)
	return err
}

// GetItem retrieves a single item. It returns nil when the key does not exist.
func (q *sqliteQueries) GetItem(ctx context.Context, ns domain.Namespace, key string) (*domain.StoreItem, error) {
	var item domain.StoreItem
	var value string
	err := q.db.QueryRowContext(ctx,
		`SELECT key, value, created_at, updated_at FROM store_items WHERE namespace = ? AND key = ?`,
		ns.String(), key).Scan(&item.Key, &value, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.Namespace = ns
	item.Value = json.RawMessage(value)
	return &item, nil
}

// SearchItems returns items of one namespace ranked by how many query terms
// their string fields contain; ties and empty queries order newest first.
func (q *sqliteQueries) SearchItems(ctx context.Context, ns domain.Namespace, opts domain.SearchOptions) ([]domain.StoreItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT key, value, created_at, updated_at FROM store_items WHERE namespace = ?`,
		ns.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := queryTerms(opts.Query)
	var items []domain.StoreItem
	for rows.Next() {
		var item domain.StoreItem
		var value string
		if err := rows.Scan(&item.Key, &value, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Namespace = ns
		item.Value = json.RawMessage(value)

		var fields map[string]interface{}
		if err := json.Unmarshal(item.Value, &fields); err != nil {
			fields = nil
		}
		if !matchesFilter(fields, opts.Filter) {
			continue
		}
		item.Score = scoreItem(fields, value, terms)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if opts.Offset >= len(items) {
		return []domain.StoreItem{}, nil
	}
	items = items[opts.Offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// DeleteItem removes a single item. Deleting a missing key is not an error.
func (q *sqliteQueries) DeleteItem(ctx context.Context, ns domain.Namespace, key string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM store_items WHERE namespace = ? AND key = ?`,
		ns.String(), key)
	return err
}

// PutCheckpoint appends a checkpoint holding the full thread.
func (q *sqliteQueries) PutCheckpoint(ctx context.Context, threadID string, messages []domain.Message) (*domain.Checkpoint, error) {
	if messages == nil {
		messages = []domain.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	cp := &domain.Checkpoint{
		CheckpointID: "cp_" + uuid.New().String(),
		ThreadID:     threadID,
		Messages:     messages,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO checkpoints (checkpoint_id, thread_id, messages, created_at) VALUES (?, ?, ?, ?)`,
		cp.CheckpointID, cp.ThreadID, string(data), cp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// ListCheckpoints returns the thread's checkpoints, most recent first.
func (q *sqliteQueries) ListCheckpoints(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT checkpoint_id, thread_id, messages, created_at FROM checkpoints WHERE thread_id = ? ORDER BY seq DESC`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []domain.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, *cp)
	}
	return checkpoints, rows.Err()
}

// LatestCheckpoint returns the newest checkpoint of a thread, or nil.
func (q *sqliteQueries) LatestCheckpoint(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT checkpoint_id, thread_id, messages, created_at FROM checkpoints WHERE thread_id = ? ORDER BY seq DESC LIMIT 1`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanCheckpoint(rows)
}

// DeleteThread removes every checkpoint of a thread.
func (q *sqliteQueries) DeleteThread(ctx context.Context, threadID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = ?`, threadID)
	return err
}

// CreateItem creates a new item.
func (q *sqliteQueries) CreateItem(ctx context.Context, item *domain.Item) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO items (item_id, data, created_at) VALUES (?, ?, ?)`,
		item.ItemID, string(item.Data), item.CreatedAt)
	return err
}

// ListItems lists items, oldest first.
func (q *sqliteQueries) ListItems(ctx context.Context, limit int) ([]domain.Item, error) {
	query := `SELECT item_id, data, created_at FROM items ORDER BY created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		var item domain.Item
		var data string
		if err := rows.Scan(&item.ItemID, &data, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Data = json.RawMessage(data)
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanCheckpoint(rows *sql.Rows) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	var messages string
	if err := rows.Scan(&cp.CheckpointID, &cp.ThreadID, &messages, &cp.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &cp.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", cp.CheckpointID, err)
	}
	return &cp, nil
}

// queryTerms splits a query into distinct lower-cased words.
func queryTerms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			terms = append(terms, w)
		}
	}
	return terms
}

func scoreItem(fields map[string]interface{}, raw string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	text := raw
	if fields != nil {
		var parts []string
		for _, v := range fields {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		text = strings.Join(parts, " ")
	}
	text = strings.ToLower(text)

	matched := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func matchesFilter(fields map[string]interface{}, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
