package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Email        string
	FullName     string
	PasswordHash *string
	// MessageCount is maintained asynchronously by the exchange consumer.
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
