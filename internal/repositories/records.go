package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stemhub/internal/shared"
)

// RecordRepository persists key/value records in the records table.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new [RecordRepository] with the given database connection
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Get returns the value stored under key, or [shared.ErrRecordNotFound].
func (r *RecordRepository) Get(key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return value, nil
}

// Set inserts or fully replaces the value stored under key.
func (r *RecordRepository) Set(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("%w: empty record key", shared.ErrInvalidInput)
	}

	if value == nil {
		value = []byte{}
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO records (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Remove deletes the record under key. Removing an absent key is not an error.
func (r *RecordRepository) Remove(key string) error {
	if _, err := r.db.Exec(`DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (r *RecordRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan record key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// UpdatedAt reports when the record under key was last written.
func (r *RecordRepository) UpdatedAt(key string) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRow(`SELECT updated_at FROM records WHERE key = ?`, key).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query record: %w", err)
	}
	return updatedAt, nil
}
