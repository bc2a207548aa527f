package repository

import (
	"context"

	"invite-redemption/internal/domain/model"
)

// InviteCodeRepository is the port for managing invite codes.
//
// The redemption engine is the sole writer of the redeemed/redeemed-by
// fields; provisioning is the sole creator of rows. Codes are never deleted.
type InviteCodeRepository interface {
	// FindByCode looks a code up by its opaque string. Returns
	// domain.ErrCodeNotFound when no such code exists.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.InviteCode, error)
	// Claim atomically marks the code redeemed by the given identity.
	// It must be a single conditional UPDATE guarded on redeemed=false;
	// losing a race is reported as domain.ErrCodeAlreadyRedeemed, which the
	// engine treats as a normal outcome, not a storage failure.
	Claim(ctx context.Context, tx Tx, codeID, identityID string) error
	// Upsert inserts the code or re-points an existing row at the given
	// organization, leaving redemption state untouched. Reports whether a
	// new row was created.
	Upsert(ctx context.Context, tx Tx, code *model.InviteCode) (created bool, err error)
}
