package labnumber

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is an issued lab number. It is never mutated after issue.
type Ticket struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	Patient   string    `json:"patient"`
	CreatedAt time.Time `json:"createdAt"`
}

// IssueRequest asks for a lab number. A caller-supplied Number is persisted
// as-is; otherwise one is generated, from PassportNumber when the passport
// strategy is active.
type IssueRequest struct {
	Number         string `json:"number"`
	Patient        string `json:"patient"`
	PassportNumber string `json:"passportNumber"`
}
