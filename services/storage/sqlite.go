package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meeting_records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	emails       TEXT NOT NULL,
	meeting_date TEXT NOT NULL,
	meeting_time TEXT NOT NULL,
	rsvp         TEXT NOT NULL,
	meet_link    TEXT NOT NULL DEFAULT ''
);`

// SQLiteStore keeps one row per MeetingRecord in an embedded SQLite file.
// It has the same read/modify/write semantics as FileStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the schema if needed and returns the store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: sqlite db cannot be nil")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]MeetingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	records, _, err := s.loadRows(ctx)
	return records, err
}

func (s *SQLiteStore) Append(ctx context.Context, records []MeetingRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meeting_records (emails, meeting_date, meeting_time, rsvp, meet_link)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		emails, rsvp, err := encodeRecord(rec)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, emails, rec.Date, rec.Time, rsvp, rec.MeetLink); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateOne(ctx context.Context, match func(*MeetingRecord) bool, mutate func(*MeetingRecord)) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	records, ids, err := s.loadRows(ctx)
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
	_, err = s.db.ExecContext(ctx, `
		UPDATE meeting_records SET emails = ?, rsvp = ?, meet_link = ? WHERE id = ?`,
		emails, rsvp, records[i].MeetLink, ids[i])
	if err != nil {
		return false, fmt.Errorf("failed to update record %d: %w", ids[i], err)
	}
	return true, nil
}

func (s *SQLiteStore) loadRows(ctx context.Context) ([]MeetingRecord, []int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, emails, meeting_date, meeting_time, rsvp, meet_link
		FROM meeting_records
		ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query meeting records: %w", err)
	}
	defer rows.Close()

	records := []MeetingRecord{}
	var ids []int64
	for rows.Next() {
		var r recordRow
		if err := rows.Scan(&r.ID, &r.Emails, &r.Date, &r.Time, &r.RSVP, &r.MeetLink); err != nil {
			return nil, nil, err
		}
		rec, err := r.decode()
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return records, ids, nil
}
