package model

import (
	"time"

	"invite-redemption/internal/domain"

	"github.com/google/uuid"
)

// Organization is the granting entity an invite code unlocks membership in.
// The Plan label is informational tiering (e.g. "school-basic"); this service
// does not interpret it beyond storing and returning it.
type Organization struct {
	ID        string
	Name      string
	Plan      string
	CreatedAt time.Time
}

// NewOrganization validates and constructs an organization.
func NewOrganization(id, name, plan string) (*Organization, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Organization{
		ID:        id,
		Name:      name,
		Plan:      plan,
		CreatedAt: time.Now(),
	}, nil
}

func (o *Organization) IsZero() bool { return o == nil || o.ID == "" }
