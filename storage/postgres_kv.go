package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresKV keeps the durable cache in a single key/value table. Used when
// several back-office workstations share one cache host instead of local
// files.
type PostgresKV struct {
	db *sql.DB
}

// NewPostgresKV opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresKV.
func NewPostgresKV(dsn string) (*PostgresKV, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	kv := &PostgresKV{db: db}
	if err := kv.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return kv, nil
}

func (kv *PostgresKV) migrate() error {
	_, err := kv.db.Exec(`
		CREATE TABLE IF NOT EXISTS backoffice_cache (
			key        TEXT PRIMARY KEY,
			value      BYTEA       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (kv *PostgresKV) Load(key string) ([]byte, bool) {
	var value []byte
	err := kv.db.QueryRow(
		"SELECT value FROM backoffice_cache WHERE key = $1", key,
	).Scan(&value)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (kv *PostgresKV) Store(key string, value []byte) error {
	_, err := kv.db.Exec(`
		INSERT INTO backoffice_cache (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("postgres: store %q: %w", key, err)
	}
	return nil
}

func (kv *PostgresKV) Delete(key string) error {
	_, err := kv.db.Exec("DELETE FROM backoffice_cache WHERE key = $1", key)
	if err != nil {
		return fmt.Errorf("postgres: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (kv *PostgresKV) Close() error {
	return kv.db.Close()
}
