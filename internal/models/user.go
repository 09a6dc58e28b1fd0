package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// UserSummary is a user together with the number of votes they have cast.
type UserSummary struct {
	User
	Comparisons int64
}

type Admin struct {
	ID            int64
	CapabilityKey []byte
	CreatedAt     time.Time
}
