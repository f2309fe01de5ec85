package models

import "time"

// DefaultNoteColor is used when a note is created without a color.
const DefaultNoteColor = "#FFFFFF"

// Note belongs to exactly one active account; every lookup is scoped by AccountID.
type Note struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"student_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
