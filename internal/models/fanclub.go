package models

import (
	"time"

	"github.com/google/uuid"
)

// Fanclub is a creator-run club users can join for a monthly fee.
// MemberCount is derived from membership rows and must only be mutated
// inside the same storage transaction as the membership change causing it.
type Fanclub struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Purpose     string    `json:"purpose" db:"purpose"`
	MonthlyFee  int       `json:"monthlyFee" db:"monthly_fee"`
	CoverImage  string    `json:"coverImage" db:"cover_image"`
	OwnerID     uuid.UUID `json:"ownerId" db:"owner_id"`
	MemberCount int       `json:"memberCount" db:"member_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
