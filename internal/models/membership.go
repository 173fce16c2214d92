package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership links a user to a fanclub. At most one row exists per
// (fanclub, user) pair, and exactly one row per fanclub carries IsOwner.
// The owner row is created together with the fanclub and never removed.
type Membership struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	FanclubID       uuid.UUID  `json:"fanclubId" db:"fanclub_id"`
	UserID          uuid.UUID  `json:"userId" db:"user_id"`
	IsOwner         bool       `json:"isOwner" db:"is_owner"`
	JoinedAt        time.Time  `json:"joinedAt" db:"joined_at"`
	NextPaymentDate *time.Time `json:"nextPaymentDate,omitempty" db:"next_payment_date"`
}
