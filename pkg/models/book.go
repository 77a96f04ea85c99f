package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID            string         `bun:",pk" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	OwnerUserID   string         `bun:",nullzero" json:"owner_user_id"`
	Title         string         `bun:",nullzero" json:"title"`
	Author        string         `bun:",nullzero" json:"author"`
	PublishedYear *int           `json:"published_year"`
	Genre         *string        `json:"genre"`
	ISBN          *string        `bun:"isbn" json:"isbn"`
	CoverURL      *string        `bun:"cover_url" json:"cover_url"`
	ReadingStatus *ReadingStatus `bun:"rel:has-one,join:id=book_id" json:"reading_status"`
}

// EffectiveStatus is the book's status, treating a missing status row as
// unread.
func (b *Book) EffectiveStatus() string {
	if b.ReadingStatus == nil {
		return StatusUnread
	}
	return b.ReadingStatus.Status
}
