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

var _ repository.OrganizationRepository = (*organizationRepo)(nil)

type organizationRepo struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) repository.OrganizationRepository {
	return &organizationRepo{pool: pool}
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	var o model.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Plan, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *organizationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	const q = `SELECT id, name, plan, created_at FROM organizations WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrganization(row)
}

func (r *organizationRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Organization, error) {
	const q = `SELECT id, name, plan, created_at FROM organizations WHERE name = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, name)
	if err != nil {
		return nil, err
	}
	return scanOrganization(row)
}

// UpsertByName finds or creates an organization by its unique name. An empty
// plan in the input keeps whatever plan the row already carries.
func (r *organizationRepo) UpsertByName(ctx context.Context, tx repository.Tx, name, plan string) (*model.Organization, error) {
	const q = `
INSERT INTO organizations (id, name, plan, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE
  SET plan = CASE WHEN EXCLUDED.plan <> '' THEN EXCLUDED.plan ELSE organizations.plan END
RETURNING id, name, plan, created_at;
`
	row, err := pickRow(ctx, r.pool, tx, q, uuid.NewString(), name, plan, time.Now())
	if err != nil {
		return nil, err
	}
	return scanOrganization(row)
}
