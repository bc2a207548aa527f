package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"invite-redemption/internal/domain/model"
	"invite-redemption/internal/domain/ports/repository"
)

// CodeEntry is one record of the external source-of-truth list.
type CodeEntry struct {
	Code         string `yaml:"code" json:"code"`
	Organization string `yaml:"organization" json:"organization"`
	Plan         string `yaml:"plan,omitempty" json:"plan,omitempty"`
}

// SyncReport summarizes a provisioning run. Failed carries the offending code
// strings so partial failure of a batch is visible to the operator.
type SyncReport struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}

// ProvisionUseCase upserts invite codes from an external list into the store.
type ProvisionUseCase interface {
	// Sync processes entries in order, one transaction per entry, so a single
	// malformed record never aborts the rest of the batch. Running the same
	// input twice is a no-op (zero created on the second run).
	Sync(ctx context.Context, entries []CodeEntry) (*SyncReport, error)
}

var _ ProvisionUseCase = (*provisionUC)(nil)

type provisionUC struct {
	codes repository.InviteCodeRepository
	orgs  repository.OrganizationRepository
	tx    repository.TransactionManager
	log   *zerolog.Logger
}

func NewProvisionUseCase(
	codes repository.InviteCodeRepository,
	orgs repository.OrganizationRepository,
	tx repository.TransactionManager,
	logger *zerolog.Logger,
) ProvisionUseCase {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &provisionUC{codes: codes, orgs: orgs, tx: tx, log: logger}
}

func (uc *provisionUC) Sync(ctx context.Context, entries []CodeEntry) (*SyncReport, error) {
	report := &SyncReport{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if e.Code == "" || e.Organization == "" {
			report.Skipped++
			continue
		}

		err := uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			org, err := uc.orgs.UpsertByName(ctx, tx, e.Organization, e.Plan)
			if err != nil {
				return err
			}
			created, err := uc.codes.Upsert(ctx, tx, &model.InviteCode{
				Code:           e.Code,
				OrganizationID: org.ID,
			})
			if err != nil {
				return err
			}
			if created {
				report.Created++
			} else {
				report.Updated++
			}
			return nil
		})
		if err != nil {
			uc.log.Warn().Str("code", e.Code).Str("organization", e.Organization).Err(err).Msg("provision entry failed")
			report.Failed = append(report.Failed, e.Code)
		}
	}

	uc.log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Msg("code sync finished")
	return report, nil
}
