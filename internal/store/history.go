package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// ":memory:" databases live per connection
	db.SetMaxOpenConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS updates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			chat_id TEXT,
			user_name TEXT,
			equipment TEXT,
			serial TEXT,
			frequency TEXT,
			date TEXT,
			success INTEGER NOT NULL DEFAULT 0,
			sheet TEXT,
			sheet_row INTEGER,
			message TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			equipment TEXT NOT NULL,
			serial TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL,
			due_date TEXT NOT NULL,
			sent_at DATETIME NOT NULL,
			PRIMARY KEY (equipment, serial, frequency, due_date)
		);`,
	}
	for _, q := range queries {
		if _, err = db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize history store: %w", err)
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

func (h *HistoryStore) RecordUpdate(ctx context.Context, r UpdateRecord) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	query := `INSERT INTO updates
		(request_id, chat_id, user_name, equipment, serial, frequency, date, success, sheet, sheet_row, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := h.DB.ExecContext(ctx, query,
		r.RequestID, r.ChatID, r.User, r.Equipment, r.Serial, r.Frequency, r.Date,
		r.Success, r.Sheet, r.Row, r.Message, r.CreatedAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentUpdates returns up to limit updates, newest first. An empty equipment
// matches every record; otherwise the name or serial must match exactly.
func (h *HistoryStore) RecentUpdates(ctx context.Context, equipment string, limit int) ([]UpdateRecord, error) {
	query := `SELECT id, request_id, chat_id, user_name, equipment, serial, frequency, date, success, sheet, sheet_row, message, created_at
		FROM updates
		WHERE ? = '' OR equipment = ? COLLATE NOCASE OR serial = ? COLLATE NOCASE
		ORDER BY id DESC LIMIT ?`
	rows, err := h.DB.QueryContext(ctx, query, equipment, equipment, equipment, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []UpdateRecord
	for rows.Next() {
		var r UpdateRecord
		var chatID, user, name, serial, freq, date, sheet, message sql.NullString
		var row sql.NullInt64
		if err := rows.Scan(&r.ID, &r.RequestID, &chatID, &user, &name, &serial, &freq, &date,
			&r.Success, &sheet, &row, &message, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ChatID, r.User, r.Equipment, r.Serial = chatID.String, user.String, name.String, serial.String
		r.Frequency, r.Date, r.Sheet, r.Message = freq.String, date.String, sheet.String, message.String
		r.Row = int(row.Int64)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (h *HistoryStore) WasNotified(ctx context.Context, n NotificationRecord) (bool, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE equipment = ? AND serial = ? AND frequency = ? AND due_date = ?`
	var count int
	if err := h.DB.QueryRowContext(ctx, query, n.Equipment, n.Serial, n.Frequency, n.DueDate).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h *HistoryStore) MarkNotified(ctx context.Context, n NotificationRecord) error {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now()
	}
	query := `INSERT OR IGNORE INTO notifications (equipment, serial, frequency, due_date, sent_at) VALUES (?, ?, ?, ?, ?)`
	_, err := h.DB.ExecContext(ctx, query, n.Equipment, n.Serial, n.Frequency, n.DueDate, n.SentAt.UTC())
	return err
}
