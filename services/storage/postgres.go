package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS meeting_records (
	id           BIGSERIAL PRIMARY KEY,
	emails       JSONB NOT NULL,
	meeting_date TEXT NOT NULL,
	meeting_time TEXT NOT NULL,
	rsvp         JSONB NOT NULL,
	meet_link    TEXT NOT NULL DEFAULT ''
)`

// DB abstracts the database operations used by PgStore.
// Satisfied by *pgxpool.Pool in production and pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgStore keeps one row per MeetingRecord in PostgreSQL.
type PgStore struct {
	DB DB
}

// NewPgStore creates a PostgreSQL-backed Storage implementation.
func NewPgStore(db *pgxpool.Pool) (*PgStore, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: db connection cannot be nil")
	}
	return &PgStore{DB: db}, nil
}

// EnsureSchema creates the meeting_records table if it does not exist.
func (r *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return nil
}

func (r *PgStore) Load(ctx context.Context) ([]MeetingRecord, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	records, _, err := r.loadRows(timeoutCtx)
	return records, err
}

// Append inserts all records in one transaction so a failed append leaves
// the log as it was, like a failed whole-file write.
func (r *PgStore) Append(ctx context.Context, records []MeetingRecord) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.DB.Begin(timeoutCtx)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}

	for _, rec := range records {
		emails, rsvp, err := encodeRecord(rec)
		if err != nil {
			tx.Rollback(timeoutCtx)
			return err
		}
		_, err = tx.Exec(timeoutCtx, `
			INSERT INTO meeting_records (emails, meeting_date, meeting_time, rsvp, meet_link)
			VALUES ($1, $2, $3, $4, $5)`,
			emails, rec.Date, rec.Time, rsvp, rec.MeetLink)
		if err != nil {
			tx.Rollback(timeoutCtx)
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

func (r *PgStore) UpdateOne(ctx context.Context, match func(*MeetingRecord) bool, mutate func(*MeetingRecord)) (bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	records, ids, err := r.loadRows(timeoutCtx)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, ErrLogNotFound
	}

	i := firstMatch(records, match)
	if i < 0 {
		return false, nil
	}
	mutate(&records[i])

	emails, rsvp, err := encodeRecord(records[i])
	if err != nil {
		return false, err
	}
	_, err = r.DB.Exec(timeoutCtx, `
		UPDATE meeting_records SET emails = $1, rsvp = $2, meet_link = $3
		WHERE id = $4`,
		emails, rsvp, records[i].MeetLink, ids[i])
	if err != nil {
		return false, fmt.Errorf("failed to update record %d: %w", ids[i], err)
	}
	return true, nil
}

func (r *PgStore) loadRows(ctx context.Context) ([]MeetingRecord, []int64, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, emails, meeting_date, meeting_time, rsvp, meet_link
		FROM meeting_records
		ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := []MeetingRecord{}
	var ids []int64
	for rows.Next() {
		var row recordRow
		if err := rows.Scan(&row.ID, &row.Emails, &row.Date, &row.Time, &row.RSVP, &row.MeetLink); err != nil {
			return nil, nil, err
		}
		rec, err := row.decode()
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
		ids = append(ids, row.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return records, ids, nil
}
