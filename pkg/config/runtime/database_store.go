package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const createTable = `CREATE TABLE IF NOT EXISTS runtime_config (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at BIGINT NOT NULL
)`

// DatabaseStore persists runtime values in the runtime_config table.
// Values are stored as JSON text.
type DatabaseStore struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

// NewDatabaseStore creates the runtime_config table if needed. driver selects
// the placeholder style; "postgres" uses $N, everything else uses ?.
// The store does not own db: Close leaves it open.
func NewDatabaseStore(ctx context.Context, db *sql.DB, driver string) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("runtime: database is required")
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("runtime: failed to create runtime_config table: %w", err)
	}
	return &DatabaseStore{
		db:       db,
		postgres: driver == "postgres",
		now:      time.Now,
	}, nil
}

// rebind rewrites ? placeholders for postgres.
func (s *DatabaseStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *DatabaseStore) Load(ctx context.Context, name string) (any, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM runtime_config WHERE name = ?`), name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("runtime: failed to load %s: %w", name, err)
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, fmt.Errorf("runtime: failed to decode %s: %w", name, err)
	}
	return v, true, nil
}

func (s *DatabaseStore) Save(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("runtime: failed to encode %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO runtime_config (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		name, string(raw), s.now().Unix())
	if err != nil {
		return fmt.Errorf("runtime: failed to save %s: %w", name, err)
	}
	return nil
}

func (s *DatabaseStore) All(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM runtime_config`)
	if err != nil {
		return nil, fmt.Errorf("runtime: failed to list values: %w", err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("runtime: failed to scan value: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("runtime: failed to decode %s: %w", name, err)
		}
		out[name] = v
	}
	return out, rows.Err()
}

func (s *DatabaseStore) Close() error { return nil }
