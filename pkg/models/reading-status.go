package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusUnread    = "unread"
	StatusReading   = "reading"
	StatusCompleted = "completed"

	// StatusAll is only a list filter, never stored.
	StatusAll = "all"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ReadingStatus is the single status row of a book. OwnerUserID duplicates the
// book's owner so that every query can be scoped by owner.
type ReadingStatus struct {
	bun.BaseModel `bun:"table:reading_statuses,alias:rs"`

	ID          string     `bun:",pk" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	BookID      string     `bun:",nullzero" json:"book_id"`
	OwnerUserID string     `bun:",nullzero" json:"owner_user_id"`
	Status      string     `bun:",nullzero" json:"status"`
	Rating      *int       `json:"rating"`
	Review      *string    `json:"review"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Transition moves the status to next. StartedAt and CompletedAt record the
// first time the status was reached and are never cleared.
func (rs *ReadingStatus) Transition(next string, now time.Time) {
	rs.Status = next
	switch next {
	case StatusReading:
		if rs.StartedAt == nil {
			rs.StartedAt = &now
		}
	case StatusCompleted:
		if rs.CompletedAt == nil {
			rs.CompletedAt = &now
		}
	}
	rs.UpdatedAt = now
}

// IsValidStatus reports whether s can be stored as a reading status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusUnread, StatusReading, StatusCompleted:
		return true
	}
	return false
}
