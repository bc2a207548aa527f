//go:build !integration

package usecase

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

func now() time.Time { return time.Now().Truncate(time.Millisecond) }

// =============================
// In-memory transactional store
// =============================

// memStore backs the in-memory repositories. Its tx manager serializes
// transactions with a store-wide lock and restores a snapshot on error, which
// mirrors the row-locked conditional updates and full rollback the Postgres
// implementations provide.
type memStore struct {
	mu         sync.Mutex
	codes      map[string]*model.InviteCode   // by ID
	identities map[string]*model.Identity     // by ID
	orgs       map[string]*model.Organization // by ID

	// optional error hooks
	errClaim  error
	errUpsert error
	errFind   error
}

func newMemStore() *memStore {
	return &memStore{
		codes:      map[string]*model.InviteCode{},
		identities: map[string]*model.Identity{},
		orgs:       map[string]*model.Organization{},
	}
}

type snapshot struct {
	codes      map[string]*model.InviteCode
	identities map[string]*model.Identity
	orgs       map[string]*model.Organization
}

func (s *memStore) snapshot() snapshot {
	sn := snapshot{
		codes:      make(map[string]*model.InviteCode, len(s.codes)),
		identities: make(map[string]*model.Identity, len(s.identities)),
		orgs:       make(map[string]*model.Organization, len(s.orgs)),
	}
	for k, v := range s.codes {
		cp := *v
		sn.codes[k] = &cp
	}
	for k, v := range s.identities {
		cp := *v
		sn.identities[k] = &cp
	}
	for k, v := range s.orgs {
		cp := *v
		sn.orgs[k] = &cp
	}
	return sn
}

func (s *memStore) restore(sn snapshot) {
	s.codes = sn.codes
	s.identities = sn.identities
	s.orgs = sn.orgs
}

// memTx marks calls that run inside a transaction and already hold the lock.
type memTx struct{}

func (s *memStore) lockUnlessTx(tx repository.Tx) func() {
	if _, ok := tx.(memTx); ok {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ---- tx manager ----

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	sn := m.store.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		m.store.restore(sn)
		return err
	}
	return nil
}

// ---- invite code repo ----

type memCodeRepo struct{ store *memStore }

var _ repository.InviteCodeRepository = (*memCodeRepo)(nil)

func (r *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.InviteCode, error) {
	defer r.store.lockUnlessTx(tx)()
	if r.store.errFind != nil {
		return nil, r.store.errFind
	}
	for _, c := range r.store.codes {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (r *memCodeRepo) Claim(ctx context.Context, tx repository.Tx, codeID, identityID string) error {
	defer r.store.lockUnlessTx(tx)()
	if r.store.errClaim != nil {
		return r.store.errClaim
	}
	c, ok := r.store.codes[codeID]
	if !ok || c.IsRedeemed {
		return domain.ErrCodeAlreadyRedeemed
	}
	c.IsRedeemed = true
	c.RedeemedByIdentityID = &identityID
	t := now()
	c.RedeemedAt = &t
	return nil
}

func (r *memCodeRepo) Upsert(ctx context.Context, tx repository.Tx, code *model.InviteCode) (bool, error) {
	defer r.store.lockUnlessTx(tx)()
	if r.store.errUpsert != nil {
		return false, r.store.errUpsert
	}
	for _, c := range r.store.codes {
		if c.Code == code.Code {
			c.OrganizationID = code.OrganizationID
			return false, nil
		}
	}
	cp := *code
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now()
	}
	r.store.codes[cp.ID] = &cp
	return true, nil
}

// ---- identity repo ----

type memIdentityRepo struct{ store *memStore }

var _ repository.IdentityRepository = (*memIdentityRepo)(nil)

func (r *memIdentityRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Identity, error) {
	defer r.store.lockUnlessTx(tx)()
	i, ok := r.store.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *memIdentityRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Identity, error) {
	defer r.store.lockUnlessTx(tx)()
	for _, i := range r.store.identities {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memIdentityRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, identity *model.Identity) (*model.Identity, error) {
	defer r.store.lockUnlessTx(tx)()
	for _, i := range r.store.identities {
		if i.Email == identity.Email {
			cp := *i
			return &cp, nil
		}
	}
	cp := *identity
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now()
	}
	r.store.identities[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memIdentityRepo) BindOrganization(ctx context.Context, tx repository.Tx, identityID, orgID string) error {
	defer r.store.lockUnlessTx(tx)()
	i, ok := r.store.identities[identityID]
	if !ok {
		return domain.ErrNotFound
	}
	if i.OrganizationID != nil {
		return domain.ErrIdentityAlreadyBound
	}
	i.OrganizationID = &orgID
	return nil
}

// ---- organization repo ----

type memOrgRepo struct{ store *memStore }

var _ repository.OrganizationRepository = (*memOrgRepo)(nil)

func (r *memOrgRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	defer r.store.lockUnlessTx(tx)()
	o, ok := r.store.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrgRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Organization, error) {
	defer r.store.lockUnlessTx(tx)()
	for _, o := range r.store.orgs {
		if o.Name == name {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memOrgRepo) UpsertByName(ctx context.Context, tx repository.Tx, name, plan string) (*model.Organization, error) {
	defer r.store.lockUnlessTx(tx)()
	for _, o := range r.store.orgs {
		if o.Name == name {
			if plan != "" {
				o.Plan = plan
			}
			cp := *o
			return &cp, nil
		}
	}
	o := &model.Organization{ID: uuid.NewString(), Name: name, Plan: plan, CreatedAt: now()}
	r.store.orgs[o.ID] = o
	cp := *o
	return &cp, nil
}

// =============================
// Fixture helpers
// =============================

type fixture struct {
	store      *memStore
	codes      *memCodeRepo
	identities *memIdentityRepo
	orgs       *memOrgRepo
	tx         *memTxManager
}

func newFixture() *fixture {
	store := newMemStore()
	return &fixture{
		store:      store,
		codes:      &memCodeRepo{store: store},
		identities: &memIdentityRepo{store: store},
		orgs:       &memOrgRepo{store: store},
		tx:         &memTxManager{store: store},
	}
}

// seedOrgCode inserts an organization and one unredeemed code for it.
func (f *fixture) seedOrgCode(code, orgName, plan string) (*model.Organization, *model.InviteCode) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	org := &model.Organization{ID: uuid.NewString(), Name: orgName, Plan: plan, CreatedAt: now()}
	f.store.orgs[org.ID] = org

	ic := &model.InviteCode{ID: uuid.NewString(), Code: code, OrganizationID: org.ID, CreatedAt: now()}
	f.store.codes[ic.ID] = ic
	return org, ic
}

// seedIdentity inserts an unbound identity.
func (f *fixture) seedIdentity(email string) *model.Identity {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	i := &model.Identity{ID: uuid.NewString(), Email: email, CreatedAt: now()}
	f.store.identities[i.ID] = i
	return i
}
