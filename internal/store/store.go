// Package store persists the disclosure ingestion entities: the
// corp-code directory, company profiles, disclosures, financial
// statement rows, and partner registrations.
package store

import (
	"context"

	"github.com/esg-suite/dart-sync/internal/model"
)

// PartnerFilter specifies criteria for listing partner registrations.
type PartnerFilter struct {
	Owner  model.Owner
	Status model.PartnerStatus // empty = ACTIVE
	Limit  int
	Offset int
}

// Store defines the persistence interface shared by the ingestion
// coordinator, the partner registry, and the risk evaluator.
//
// Lookup methods return (nil, nil) when the entity does not exist;
// write methods report idempotence through their return values.
type Store interface {
	// Company profiles. Duplicate rows per corp code can exist; the
	// coordinator consolidates them by completeness score.
	GetProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error)
	ListProfilesByCorpCode(ctx context.Context, corpCode string) ([]model.CompanyProfile, error)
	GetProfileByOwner(ctx context.Context, owner model.Owner, corpCode string) (*model.CompanyProfile, error)
	// UpsertProfile inserts or updates by (corp_code, owner columns) and
	// returns the stored row with its id populated.
	UpsertProfile(ctx context.Context, profile *model.CompanyProfile) (*model.CompanyProfile, error)

	// Disclosures. Inserts are strictly idempotent on receipt_no.
	DisclosureExists(ctx context.Context, receiptNo string) (bool, error)
	// InsertDisclosure reports whether a new row was written.
	InsertDisclosure(ctx context.Context, d model.Disclosure) (bool, error)
	// ListDisclosures returns the newest filings first.
	ListDisclosures(ctx context.Context, corpCode string, limit int) ([]model.Disclosure, error)

	// Financial statement rows. BulkInsert skips rows whose
	// (corp_code, year, report_code, sj_div, account_id) already exist;
	// rows are never deleted.
	ListStatementRows(ctx context.Context, corpCode, businessYear, reportCode string) ([]model.StatementRow, error)
	BulkInsertStatementRows(ctx context.Context, rows []model.StatementRow) (int64, error)
	// DistinctPeriods returns (year, report_code, count) tuples ordered
	// by year descending then report code descending.
	DistinctPeriods(ctx context.Context, corpCode string) ([]model.StatementPeriod, error)

	// Partner registrations.
	GetPartner(ctx context.Context, id string) (*model.PartnerCompany, error)
	ListPartners(ctx context.Context, filter PartnerFilter) ([]model.PartnerCompany, error)
	// FindPartnerByName matches the company name case-insensitively
	// within the owner scope, restricted to the given status.
	FindPartnerByName(ctx context.Context, owner model.Owner, name string, status model.PartnerStatus) (*model.PartnerCompany, error)
	// ActiveNameExists reports whether an ACTIVE registration with the
	// name exists in the owner scope, optionally excluding one id.
	ActiveNameExists(ctx context.Context, owner model.Owner, name, excludeID string) (bool, error)
	// SavePartner inserts or fully updates the row identified by its UUID.
	SavePartner(ctx context.Context, p *model.PartnerCompany) error
	SetAccountCreated(ctx context.Context, id string, created bool) error

	// Corp-code directory.
	GetCorpCode(ctx context.Context, corpCode string) (*model.CorpCode, error)
	SearchCorpCodesByName(ctx context.Context, query string, limit int) ([]model.CorpCode, error)
	// BulkUpsertCorpCodes refreshes directory entries idempotently.
	BulkUpsertCorpCodes(ctx context.Context, entries []model.CorpCode) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
