package repository

import (
	"context"

	"invite-redemption/internal/domain/model"
)

// OrganizationRepository is the port for granting entities.
type OrganizationRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Organization, error)
	FindByName(ctx context.Context, tx Tx, name string) (*model.Organization, error)
	// UpsertByName finds or creates an organization by its unique name and
	// updates the plan label when a non-empty one is given. Used only by
	// provisioning; safe to run repeatedly.
	UpsertByName(ctx context.Context, tx Tx, name, plan string) (*model.Organization, error)
}
