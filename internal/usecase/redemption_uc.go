package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

// RedemptionResult is what a successful redemption hands back to the caller:
// the organization the identity just joined.
type RedemptionResult struct {
	Organization *model.Organization
	Identity     *model.Identity
}

// RedemptionUseCase exchanges a single-use invite code for organization
// membership exactly once, even under concurrent attempts on the same code
// or the same identity.
type RedemptionUseCase interface {
	// Redeem claims the code for the identity and binds the identity to the
	// code's organization, all inside one transaction. Expected failures:
	// domain.ErrCodeNotFound, domain.ErrCodeAlreadyRedeemed,
	// domain.ErrIdentityAlreadyBound, domain.ErrNotFound (unknown identity).
	Redeem(ctx context.Context, code, identityID string) (*RedemptionResult, error)
}

var _ RedemptionUseCase = (*redemptionUC)(nil)

type redemptionUC struct {
	codes      repository.InviteCodeRepository
	identities repository.IdentityRepository
	orgs       repository.OrganizationRepository
	tx         repository.TransactionManager
	log        *zerolog.Logger
	invalidate func(identityID string)
}

// NewRedemptionUseCase constructs the engine. invalidate, when non-nil, is
// called after a committed redemption so read-side caches drop the identity.
func NewRedemptionUseCase(
	codes repository.InviteCodeRepository,
	identities repository.IdentityRepository,
	orgs repository.OrganizationRepository,
	tx repository.TransactionManager,
	logger *zerolog.Logger,
	invalidate func(identityID string),
) RedemptionUseCase {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &redemptionUC{
		codes:      codes,
		identities: identities,
		orgs:       orgs,
		tx:         tx,
		log:        logger,
		invalidate: invalidate,
	}
}

// Redeem runs the whole claim-and-bind as one transaction. All mutual
// exclusion is delegated to the row-level guards inside Claim and
// BindOrganization; there is no in-process locking, so concurrent callers
// block only on storage I/O. Any error, including context cancellation,
// rolls back fully: a claimed code without an organization binding can never
// persist.
func (uc *redemptionUC) Redeem(ctx context.Context, code, identityID string) (*RedemptionResult, error) {
	if code == "" || identityID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var result RedemptionResult
	err := uc.tx.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		ic, err := uc.codes.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}

		// Atomic check-and-claim: exactly one concurrent caller wins the
		// conditional update, every loser sees ErrCodeAlreadyRedeemed.
		if err := uc.codes.Claim(ctx, tx, ic.ID, identityID); err != nil {
			return err
		}

		// Binding is conditional on the identity being unbound, inside the
		// same transaction as the claim. An identity that already belongs to
		// an organization rejects the redemption and releases the code via
		// rollback.
		if err := uc.identities.BindOrganization(ctx, tx, identityID, ic.OrganizationID); err != nil {
			return err
		}

		org, err := uc.orgs.FindByID(ctx, tx, ic.OrganizationID)
		if err != nil {
			return err
		}
		ident, err := uc.identities.FindByID(ctx, tx, identityID)
		if err != nil {
			return err
		}

		result.Organization = org
		result.Identity = ident
		return nil
	})
	if err != nil {
		if isExpectedRedemptionError(err) {
			uc.log.Info().Str("code", code).Str("identity_id", identityID).Err(err).Msg("redemption rejected")
		} else {
			uc.log.Error().Str("code", code).Str("identity_id", identityID).Err(err).Msg("redemption failed")
		}
		return nil, err
	}

	if uc.invalidate != nil {
		uc.invalidate(identityID)
	}
	uc.log.Info().
		Str("code", code).
		Str("identity_id", identityID).
		Str("org_id", result.Organization.ID).
		Msg("code redeemed")
	return &result, nil
}

func isExpectedRedemptionError(err error) bool {
	return errors.Is(err, domain.ErrCodeNotFound) ||
		errors.Is(err, domain.ErrCodeAlreadyRedeemed) ||
		errors.Is(err, domain.ErrIdentityAlreadyBound) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidArgument)
}
