package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
)

// SQLiteConfig configures the SQLite sink.
type SQLiteConfig struct {
	Path string `json:"path"`
}

// SQLiteSink persists emissions to a SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens or creates the database at path and ensures the schema.
func NewSQLiteSink(cfg SQLiteConfig) (*SQLiteSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS emissions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        pass_id TEXT,
        channel TEXT NOT NULL,
        emitted_at INTEGER,
        payload TEXT
    );
    CREATE INDEX IF NOT EXISTS emissions_channel ON emissions(channel);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

// Emit inserts the event.
func (s *SQLiteSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	em, err := coresink.NewEmission(ctx, ch, values)
	if err != nil {
		return err
	}
	b, err := json.Marshal(em)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO emissions (pass_id, channel, emitted_at, payload) VALUES (?, ?, ?, ?)`,
		em.PassID, em.Channel, em.At.UnixNano(), string(b))
	return err
}

// Query returns the stored emissions in insertion order. An empty channel
// matches every channel.
func (s *SQLiteSink) Query(ctx context.Context, channel string) ([]coresink.Emission, error) {
	query := `SELECT payload FROM emissions`
	var args []any
	if channel != "" {
		query += ` WHERE channel = ?`
		args = append(args, channel)
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coresink.Emission
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e coresink.Emission
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("unmarshal emission: %w", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error { return s.db.Close() }
