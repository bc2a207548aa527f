package usecase

import (
	"context"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

// Entitlement is the read-side answer every feature gate consults.
type Entitlement struct {
	HasEntitlement bool
	Organization   *model.Organization // nil when not entitled
}

// EntitlementUseCase evaluates access from stored state only. It never
// writes, and it reflects a just-committed redemption on the very next read
// because it queries the same backend the engine commits to.
type EntitlementUseCase interface {
	HasEntitlement(ctx context.Context, identityID string) (*Entitlement, error)
	// RequirePlan is the tiered variant: entitled only when the bound
	// organization carries the given plan label.
	RequirePlan(ctx context.Context, identityID, plan string) (bool, error)
}

var _ EntitlementUseCase = (*entitlementUC)(nil)

type entitlementUC struct {
	identities repository.IdentityRepository
	orgs       repository.OrganizationRepository
}

func NewEntitlementUseCase(identities repository.IdentityRepository, orgs repository.OrganizationRepository) EntitlementUseCase {
	return &entitlementUC{identities: identities, orgs: orgs}
}

func (uc *entitlementUC) HasEntitlement(ctx context.Context, identityID string) (*Entitlement, error) {
	if identityID == "" {
		return nil, domain.ErrInvalidArgument
	}
	ident, err := uc.identities.FindByID(ctx, repository.NoTX, identityID)
	if err != nil {
		return nil, err
	}
	if !ident.IsBound() {
		return &Entitlement{HasEntitlement: false}, nil
	}
	org, err := uc.orgs.FindByID(ctx, repository.NoTX, *ident.OrganizationID)
	if err != nil {
		return nil, err
	}
	return &Entitlement{HasEntitlement: true, Organization: org}, nil
}

func (uc *entitlementUC) RequirePlan(ctx context.Context, identityID, plan string) (bool, error) {
	ent, err := uc.HasEntitlement(ctx, identityID)
	if err != nil {
		return false, err
	}
	return ent.HasEntitlement && ent.Organization.Plan == plan, nil
}
