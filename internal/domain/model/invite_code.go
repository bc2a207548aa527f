package model

import (
	"time"
)

// InviteCode represents a single-use code that can be redeemed for membership
// in an organization.
type InviteCode struct {
	ID                   string
	Code                 string
	OrganizationID       string
	IsRedeemed           bool
	RedeemedByIdentityID *string    // Pointer to allow for NULL
	RedeemedAt           *time.Time // Pointer to allow for NULL
	CreatedAt            time.Time
}
