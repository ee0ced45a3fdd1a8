package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// SetProperty inserts or replaces a property value.
func (s *SQLiteStore) SetProperty(name, value string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if name == "" {
		return fmt.Errorf("property name is required")
	}

	s.logger.Debug("setting property", slog.String("name", name))

	_, err := s.db.Exec(
		`INSERT INTO properties (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set property %s: %w", name, err)
	}
	return nil
}

// GetProperty returns the value of a property and whether it exists.
func (s *SQLiteStore) GetProperty(name string) (string, bool, error) {
	if s.db == nil {
		return "", false, fmt.Errorf("database not opened")
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM properties WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get property %s: %w", name, err)
	}
	return value, true, nil
}

// ListProperties returns all properties ordered by name.
func (s *SQLiteStore) ListProperties() ([]*core.Property, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT name, value, updated_at FROM properties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var props []*core.Property
	for rows.Next() {
		p := &core.Property{}
		if err := rows.Scan(&p.Name, &p.Value, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}
	return props, nil
}
