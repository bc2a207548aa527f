package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.InviteCodeRepository = (*inviteCodeRepo)(nil)

type inviteCodeRepo struct {
	pool *pgxpool.Pool
}

func NewInviteCodeRepo(pool *pgxpool.Pool) repository.InviteCodeRepository {
	return &inviteCodeRepo{pool: pool}
}

// FindByCode looks a code up by its opaque string, redeemed or not.
func (r *inviteCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.InviteCode, error) {
	const q = `
SELECT id, code, org_id, is_redeemed, redeemed_by, redeemed_at, created_at
  FROM invite_codes
 WHERE code = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}

	var ic model.InviteCode
	err = row.Scan(
		&ic.ID, &ic.Code, &ic.OrganizationID, &ic.IsRedeemed, &ic.RedeemedByIdentityID, &ic.RedeemedAt, &ic.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return &ic, nil
}

// Claim is the atomic check-and-claim at the heart of redemption. The guard
// on is_redeemed makes concurrent claims mutually exclusive at the row level:
// exactly one UPDATE reports an affected row, every other one reports zero.
func (r *inviteCodeRepo) Claim(ctx context.Context, tx repository.Tx, codeID, identityID string) error {
	const q = `
UPDATE invite_codes
   SET is_redeemed = TRUE, redeemed_by = $2, redeemed_at = now()
 WHERE id = $1 AND is_redeemed = FALSE;
`
	tag, err := execSQL(ctx, r.pool, tx, q, codeID, identityID)
	if err != nil {
		// 23503 here can only be the redeemed_by foreign key: the claimant
		// does not exist. Same outcome as a failed identity lookup.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeAlreadyRedeemed
	}
	return nil
}

// Upsert inserts the code or re-points an existing row at its organization.
// Redemption fields are deliberately left out of the conflict update so a
// re-sync can never resurrect a claimed code.
func (r *inviteCodeRepo) Upsert(ctx context.Context, tx repository.Tx, code *model.InviteCode) (bool, error) {
	if code.ID == "" {
		code.ID = ulid.Make().String()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO invite_codes (id, code, org_id, is_redeemed, created_at)
VALUES ($1, $2, $3, FALSE, $4)
ON CONFLICT (code) DO UPDATE SET org_id = EXCLUDED.org_id
RETURNING (xmax = 0);
`
	row, err := pickRow(ctx, r.pool, tx, q, code.ID, code.Code, code.OrganizationID, code.CreatedAt)
	if err != nil {
		return false, err
	}
	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		return false, err
	}
	return inserted, nil
}
