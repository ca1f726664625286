package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBlobStore keeps one row per snapshot key.
type SQLiteBlobStore struct {
	db *sql.DB
}

func NewSQLiteBlobStore(dbPath string) (*SQLiteBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite blob store ready", "path", dbPath, "schema_version", version)

	return &SQLiteBlobStore{db: db}, nil
}

func (r *SQLiteBlobStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements BlobStore.
func (r *SQLiteBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %s: %w", key, err)
	}
	return data, nil
}

// Save implements BlobStore. Each save bumps the row version.
func (r *SQLiteBlobStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blobs (key, data, version, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			version = blobs.version + 1,
			updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Blob saved to SQLite", "key", key, "bytes", len(data))
	return nil
}

// Delete removes a key; deleting a missing key is not an error.
func (r *SQLiteBlobStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// Version returns how many times key has been saved, or 0 if never.
func (r *SQLiteBlobStore) Version(ctx context.Context, key string) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM blobs WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("blob version %s: %w", key, err)
	}
	return v, nil
}

// HealthCheck pings the database.
func (r *SQLiteBlobStore) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
