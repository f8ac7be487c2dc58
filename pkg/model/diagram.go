package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type (
	// Diagram is a persisted share payload together with its metadata.
	// Payload holds the document exactly as it was accepted.
	Diagram struct {
		ID               uuid.UUID
		OwnerID          uuid.UUID
		Name             string
		Sport            string
		Version          int
		Payload          []byte
		Public           bool
		ClientMutationID string
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}
	User struct {
		ID        uuid.UUID
		Name      string
		APIKey    string // sha256 hex of the token
		Admin     bool
		Active    bool
		CreatedAt time.Time
	}
)
