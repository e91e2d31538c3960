package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/liurenlab/liuren/internal/plugins/divination"
)

// mariadbRepository implements Repository over a MariaDB table while
// keeping the blob contract: Load reads every row in insertion order and
// Save rewrites the whole set in one transaction.
type mariadbRepository struct {
	db *sql.DB
}

// NewMariaDBRepository creates a MariaDB-backed history repository.
func NewMariaDBRepository(db *sql.DB) Repository {
	return &mariadbRepository{db: db}
}

// Load implements Repository. The seq column preserves insertion order
// across full rewrites.
func (r *mariadbRepository) Load(ctx context.Context) ([]Record, error) {
	query := `SELECT id, recorded_at, timestamp_ms, question, number, emoji, notes, result
		FROM histories ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying histories: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var resultJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Time, &rec.Timestamp, &rec.Question,
			&rec.Number, &rec.Emoji, &rec.Notes, &resultJSON); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if len(resultJSON) > 0 {
			rec.Result = &divination.Result{}
			if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
				return nil, fmt.Errorf("decoding history result %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return records, nil
}

// Save implements Repository: delete-all + insert-all inside one
// transaction, so concurrent readers never observe a partial list.
func (r *mariadbRepository) Save(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM histories`); err != nil {
		return fmt.Errorf("clearing histories: %w", err)
	}

	insert := `INSERT INTO histories
		(id, recorded_at, timestamp_ms, question, number, emoji, notes, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	for _, rec := range records {
		var resultJSON []byte
		if rec.Result != nil {
			resultJSON, err = json.Marshal(rec.Result)
			if err != nil {
				return fmt.Errorf("encoding history result %s: %w", rec.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, insert,
			rec.ID, rec.Time, rec.Timestamp, rec.Question,
			rec.Number, rec.Emoji, rec.Notes, resultJSON); err != nil {
			return fmt.Errorf("inserting history %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history save: %w", err)
	}
	return nil
}
