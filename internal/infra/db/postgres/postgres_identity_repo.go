package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

var _ repository.IdentityRepository = (*identityRepo)(nil)

type identityRepo struct {
	pool *pgxpool.Pool
}

func NewIdentityRepo(pool *pgxpool.Pool) repository.IdentityRepository {
	return &identityRepo{pool: pool}
}

const identityColumns = `id, email, org_id, created_at`

func scanIdentity(row pgx.Row) (*model.Identity, error) {
	var id model.Identity
	err := row.Scan(&id.ID, &id.Email, &id.OrganizationID, &id.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &id, nil
}

func (r *identityRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Identity, error) {
	const q = `SELECT ` + identityColumns + ` FROM identities WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanIdentity(row)
}

func (r *identityRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Identity, error) {
	const q = `SELECT ` + identityColumns + ` FROM identities WHERE email = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, email)
	if err != nil {
		return nil, err
	}
	return scanIdentity(row)
}

// CreateIfAbsent registers the identity, or returns the existing row when the
// email is already taken. The no-op conflict update lets RETURNING yield the
// surviving row in a single round trip.
func (r *identityRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, identity *model.Identity) (*model.Identity, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO identities (id, email, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING ` + identityColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, q, identity.ID, identity.Email, identity.CreatedAt)
	if err != nil {
		return nil, err
	}
	return scanIdentity(row)
}

// BindOrganization sets org_id once. The IS NULL guard makes the
// reject-rebinding policy atomic: a concurrent redemption that bound the
// identity first leaves zero rows for this one to update.
func (r *identityRepo) BindOrganization(ctx context.Context, tx repository.Tx, identityID, orgID string) error {
	const q = `
UPDATE identities
   SET org_id = $2
 WHERE id = $1 AND org_id IS NULL;
`
	tag, err := execSQL(ctx, r.pool, tx, q, identityID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "missing identity" from "already bound".
		if _, ferr := r.FindByID(ctx, tx, identityID); ferr != nil {
			return ferr
		}
		return domain.ErrIdentityAlreadyBound
	}
	return nil
}
