package usecase

import (
	"context"
	"strings"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

// IdentityUseCase is the surface the external registration collaborator
// calls. Redemption itself never creates identities.
type IdentityUseCase interface {
	// Register creates an identity by its unique email, or returns the
	// existing one. Idempotent.
	Register(ctx context.Context, email string) (*model.Identity, error)
	Get(ctx context.Context, id string) (*model.Identity, error)
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
}

var _ IdentityUseCase = (*identityUC)(nil)

type identityUC struct {
	identities repository.IdentityRepository
}

func NewIdentityUseCase(identities repository.IdentityRepository) IdentityUseCase {
	return &identityUC{identities: identities}
}

func (uc *identityUC) Register(ctx context.Context, email string) (*model.Identity, error) {
	ident, err := model.NewIdentity("", normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return uc.identities.CreateIfAbsent(ctx, repository.NoTX, ident)
}

func (uc *identityUC) Get(ctx context.Context, id string) (*model.Identity, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.identities.FindByID(ctx, repository.NoTX, id)
}

func (uc *identityUC) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.identities.FindByEmail(ctx, repository.NoTX, normalizeEmail(email))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
