package identity

import (
	"github.com/segmentio/encoding/json"
)

// Event types sent by the identity provider. Any other type is acknowledged
// and ignored.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the envelope of a webhook delivery.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// IdentityData is the account record carried by user events.
type IdentityData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	Username       *string        `json:"username"`
}

// PrimaryEmail returns the first non-empty email address of the account.
func (d IdentityData) PrimaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.EmailAddress != "" {
			return e.EmailAddress
		}
	}
	return ""
}

func (d IdentityData) username() string {
	if d.Username == nil {
		return ""
	}
	return *d.Username
}
