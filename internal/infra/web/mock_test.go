//go:build !integration

package web_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

// memBackend implements every repository port plus the transaction manager
// over plain maps. WithTx serializes callers and restores a snapshot on
// error, mirroring the all-or-nothing commits of the Postgres layer.
type memBackend struct {
	mu         sync.Mutex
	codes      map[string]*model.InviteCode
	identities map[string]*model.Identity
	orgs       map[string]*model.Organization
}

// memOrgs adapts memBackend to the organization port; the wrapper exists
// because FindByID returns a different type per port.
type memOrgs struct{ *memBackend }

func (m memOrgs) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	return m.memBackend.FindOrgByID(ctx, tx, id)
}

var (
	_ repository.InviteCodeRepository   = (*memBackend)(nil)
	_ repository.IdentityRepository     = (*memBackend)(nil)
	_ repository.OrganizationRepository = (memOrgs{})
	_ repository.TransactionManager     = (*memBackend)(nil)
)

func newMemBackend() *memBackend {
	return &memBackend{
		codes:      map[string]*model.InviteCode{},
		identities: map[string]*model.Identity{},
		orgs:       map[string]*model.Organization{},
	}
}

type memTx struct{}

func (b *memBackend) lockUnlessTx(tx repository.Tx) func() {
	if _, ok := tx.(memTx); ok {
		return func() {}
	}
	b.mu.Lock()
	return b.mu.Unlock
}

func (b *memBackend) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	codes := map[string]*model.InviteCode{}
	for k, v := range b.codes {
		cp := *v
		codes[k] = &cp
	}
	identities := map[string]*model.Identity{}
	for k, v := range b.identities {
		cp := *v
		identities[k] = &cp
	}
	orgs := map[string]*model.Organization{}
	for k, v := range b.orgs {
		cp := *v
		orgs[k] = &cp
	}

	if err := fn(ctx, memTx{}); err != nil {
		b.codes, b.identities, b.orgs = codes, identities, orgs
		return err
	}
	return nil
}

// ---- InviteCodeRepository ----

func (b *memBackend) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.InviteCode, error) {
	defer b.lockUnlessTx(tx)()
	for _, c := range b.codes {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (b *memBackend) Claim(ctx context.Context, tx repository.Tx, codeID, identityID string) error {
	defer b.lockUnlessTx(tx)()
	c, ok := b.codes[codeID]
	if !ok || c.IsRedeemed {
		return domain.ErrCodeAlreadyRedeemed
	}
	c.IsRedeemed = true
	c.RedeemedByIdentityID = &identityID
	t := time.Now()
	c.RedeemedAt = &t
	return nil
}

func (b *memBackend) Upsert(ctx context.Context, tx repository.Tx, code *model.InviteCode) (bool, error) {
	defer b.lockUnlessTx(tx)()
	for _, c := range b.codes {
		if c.Code == code.Code {
			c.OrganizationID = code.OrganizationID
			return false, nil
		}
	}
	cp := *code
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.CreatedAt = time.Now()
	b.codes[cp.ID] = &cp
	return true, nil
}

// ---- IdentityRepository ----

func (b *memBackend) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Identity, error) {
	defer b.lockUnlessTx(tx)()
	i, ok := b.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (b *memBackend) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Identity, error) {
	defer b.lockUnlessTx(tx)()
	for _, i := range b.identities {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (b *memBackend) CreateIfAbsent(ctx context.Context, tx repository.Tx, identity *model.Identity) (*model.Identity, error) {
	defer b.lockUnlessTx(tx)()
	for _, i := range b.identities {
		if i.Email == identity.Email {
			cp := *i
			return &cp, nil
		}
	}
	cp := *identity
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.CreatedAt = time.Now()
	b.identities[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (b *memBackend) BindOrganization(ctx context.Context, tx repository.Tx, identityID, orgID string) error {
	defer b.lockUnlessTx(tx)()
	i, ok := b.identities[identityID]
	if !ok {
		return domain.ErrNotFound
	}
	if i.OrganizationID != nil {
		return domain.ErrIdentityAlreadyBound
	}
	i.OrganizationID = &orgID
	return nil
}

// ---- OrganizationRepository ----

func (b *memBackend) FindOrgByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	defer b.lockUnlessTx(tx)()
	o, ok := b.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (b *memBackend) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Organization, error) {
	defer b.lockUnlessTx(tx)()
	for _, o := range b.orgs {
		if o.Name == name {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (b *memBackend) UpsertByName(ctx context.Context, tx repository.Tx, name, plan string) (*model.Organization, error) {
	defer b.lockUnlessTx(tx)()
	for _, o := range b.orgs {
		if o.Name == name {
			if plan != "" {
				o.Plan = plan
			}
			cp := *o
			return &cp, nil
		}
	}
	o := &model.Organization{ID: uuid.NewString(), Name: name, Plan: plan, CreatedAt: time.Now()}
	b.orgs[o.ID] = o
	cp := *o
	return &cp, nil
}
