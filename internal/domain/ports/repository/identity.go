package repository

import (
	"context"

	"invite-redemption/internal/domain/model"
)

// IdentityRepository is the port for principals.
type IdentityRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Identity, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Identity, error)
	// CreateIfAbsent registers an identity by its unique email. Idempotent:
	// a second call with the same email returns the existing row.
	CreateIfAbsent(ctx context.Context, tx Tx, identity *model.Identity) (*model.Identity, error)
	// BindOrganization sets the identity's organization reference. The update
	// is conditional on the reference being unset; a bound identity yields
	// domain.ErrIdentityAlreadyBound. Must run inside the redemption
	// transaction so the policy holds under races.
	BindOrganization(ctx context.Context, tx Tx, identityID, orgID string) error
}
