package model

import (
	"time"

	"invite-redemption/internal/domain"

	"github.com/google/uuid"
)

// Identity is the principal attempting a redemption. Registration happens in
// an external collaborator; this service only ever sets OrganizationID.
type Identity struct {
	ID             string
	Email          string
	OrganizationID *string // Pointer to allow for NULL; set once by redemption
	CreatedAt      time.Time
}

func NewIdentity(id, email string) (*Identity, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Identity{
		ID:        id,
		Email:     email,
		CreatedAt: time.Now(),
	}, nil
}

func (i *Identity) IsZero() bool { return i == nil || i.ID == "" }

// IsBound reports whether the identity already belongs to an organization.
func (i *Identity) IsBound() bool { return i != nil && i.OrganizationID != nil }
