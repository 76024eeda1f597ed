package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveQuery records one completed lookup. A missing ID is generated.
func (db *DB) SaveQuery(ctx context.Context, rec *QueryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.QueriedAt.IsZero() {
		rec.QueriedAt = time.Now()
	}

	query := `
	INSERT INTO query_history (id, user_id, departure, arrival, travel_date, train_type, result_count, queried_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Departure, rec.Arrival,
		rec.TravelDate, rec.TrainType, rec.ResultCount, rec.QueriedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save query record: %w", err)
	}

	return nil
}

// GetRecentQueries returns the latest queries for a user, newest first.
func (db *DB) GetRecentQueries(ctx context.Context, userID string, limit int) ([]QueryRecord, error) {
	query := `
	SELECT id, user_id, departure, arrival, travel_date, train_type, result_count, queried_at
	FROM query_history
	WHERE user_id = ?
	ORDER BY queried_at DESC
	LIMIT ?
	`

	rows, err := db.conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanQueryRecords(rows)
}

// CountQueries returns the total number of stored query records.
func (db *DB) CountQueries(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count query records: %w", err)
	}
	return count, nil
}

// PruneOlderThan deletes records older than retention and returns how
// many rows were removed.
func (db *DB) PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()

	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM query_history WHERE queried_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune query history: %w", err)
	}

	return result.RowsAffected()
}

func scanQueryRecords(rows *sql.Rows) ([]QueryRecord, error) {
	var records []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		var queriedAt int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Departure, &rec.Arrival,
			&rec.TravelDate, &rec.TrainType, &rec.ResultCount, &queriedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}
		rec.QueriedAt = time.Unix(queriedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}
