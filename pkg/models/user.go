package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the local mirror of an identity-provider account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         string    `bun:",pk" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ExternalID string    `bun:",nullzero" json:"external_id"`
	Email      string    `bun:",nullzero" json:"email"`
	Username   string    `json:"username"`
}

// NewID returns a new random identifier for any of the tables.
func NewID() string {
	return uuid.NewString()
}

// DefaultUsername derives a username from the local part of an email.
func DefaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
