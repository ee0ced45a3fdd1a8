package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// RecordQuery appends an entry to the query log. ID and ExecutedAt are
// filled in when empty.
func (s *SQLiteStore) RecordQuery(entry *core.QueryLogEntry) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if entry.ID == "" {
		entry.ID = generateID()
	}
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}

	var errMsg sql.NullString
	if entry.Error != "" {
		errMsg = sql.NullString{String: entry.Error, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO query_log
		   (id, persistence_unit, query, page_number, page_size, total, error, duration_ms, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.PersistenceUnit, entry.Query, entry.PageNumber, entry.PageSize,
		entry.Total, errMsg, entry.DurationMS, entry.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}

// RecentQueries returns the latest log entries, newest first.
// A limit <= 0 returns every entry.
func (s *SQLiteStore) RecentQueries(limit int) ([]*core.QueryLogEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT id, persistence_unit, query, page_number, page_size, total, error, duration_ms, executed_at
		 FROM query_log
		 ORDER BY executed_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*core.QueryLogEntry
	for rows.Next() {
		e := &core.QueryLogEntry{}
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &e.PersistenceUnit, &e.Query, &e.PageNumber, &e.PageSize,
			&e.Total, &errMsg, &e.DurationMS, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query log entry: %w", err)
		}
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query log: %w", err)
	}
	return entries, nil
}
