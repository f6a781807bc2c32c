package store

import "time"

// UpdateRecord is one maintenance update attempt, successful or not.
type UpdateRecord struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	ChatID    string    `json:"chat_id"`
	User      string    `json:"user"`
	Equipment string    `json:"equipment"`
	Serial    string    `json:"serial"`
	Frequency string    `json:"frequency"`
	Date      string    `json:"date"`
	Success   bool      `json:"success"`
	Sheet     string    `json:"sheet"`
	Row       int       `json:"row"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationRecord marks a due reminder as sent so it is not repeated.
type NotificationRecord struct {
	Equipment string    `json:"equipment"`
	Serial    string    `json:"serial"`
	Frequency string    `json:"frequency"`
	DueDate   string    `json:"due_date"`
	SentAt    time.Time `json:"sent_at"`
}
