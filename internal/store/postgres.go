package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/esg-suite/dart-sync/internal/db"
	"github.com/esg-suite/dart-sync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest ingestion-path operations.
var preparedStatements = map[string]string{
	"disclosure_exists": `SELECT EXISTS(SELECT 1 FROM disclosures WHERE receipt_no = $1)`,
	"insert_disclosure": `INSERT INTO disclosures (receipt_no, corp_code, company_profile_id, corp_name, stock_code, corp_class, report_name, submitter_name, receipt_date, remark, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (receipt_no) DO NOTHING`,
	"get_corp_code": `SELECT corp_code, corp_name, corp_name_eng, stock_code, modify_date FROM corp_codes WHERE corp_code = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., sync-run bookkeeping).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS corp_codes (
	corp_code     VARCHAR(8) PRIMARY KEY,
	corp_name     TEXT NOT NULL,
	corp_name_eng TEXT NOT NULL DEFAULT '',
	stock_code    VARCHAR(6) NOT NULL DEFAULT '',
	modify_date   VARCHAR(8) NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_corp_codes_corp_name ON corp_codes(lower(corp_name));

CREATE TABLE IF NOT EXISTS company_profiles (
	id                            BIGSERIAL PRIMARY KEY,
	corp_code                     VARCHAR(8) NOT NULL,
	corp_name                     TEXT NOT NULL DEFAULT '',
	corp_name_eng                 TEXT NOT NULL DEFAULT '',
	stock_code                    VARCHAR(6) NOT NULL DEFAULT '',
	stock_name                    TEXT NOT NULL DEFAULT '',
	ceo_name                      TEXT NOT NULL DEFAULT '',
	corp_class                    VARCHAR(1) NOT NULL DEFAULT '',
	business_number               TEXT NOT NULL DEFAULT '',
	corporate_registration_number TEXT NOT NULL DEFAULT '',
	address                       TEXT NOT NULL DEFAULT '',
	homepage_url                  TEXT NOT NULL DEFAULT '',
	ir_url                        TEXT NOT NULL DEFAULT '',
	phone_number                  TEXT NOT NULL DEFAULT '',
	fax_number                    TEXT NOT NULL DEFAULT '',
	industry_code                 TEXT NOT NULL DEFAULT '',
	establishment_date            VARCHAR(8) NOT NULL DEFAULT '',
	accounting_month              VARCHAR(2) NOT NULL DEFAULT '',
	headquarters_id               BIGINT,
	partner_id                    BIGINT,
	user_type                     TEXT NOT NULL DEFAULT 'UNKNOWN',
	created_at                    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_company_profiles_corp_code ON company_profiles(corp_code);

CREATE TABLE IF NOT EXISTS disclosures (
	receipt_no         VARCHAR(20) PRIMARY KEY,
	corp_code          VARCHAR(8) NOT NULL,
	company_profile_id BIGINT REFERENCES company_profiles(id),
	corp_name          TEXT NOT NULL DEFAULT '',
	stock_code         VARCHAR(6) NOT NULL DEFAULT '',
	corp_class         VARCHAR(1) NOT NULL DEFAULT '',
	report_name        TEXT NOT NULL DEFAULT '',
	submitter_name     TEXT NOT NULL DEFAULT '',
	receipt_date       VARCHAR(8) NOT NULL DEFAULT '',
	remark             TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_disclosures_corp_code ON disclosures(corp_code);
CREATE INDEX IF NOT EXISTS idx_disclosures_receipt_date ON disclosures(receipt_date);

CREATE TABLE IF NOT EXISTS financial_statements (
	id                BIGSERIAL PRIMARY KEY,
	corp_code         VARCHAR(8) NOT NULL,
	bsns_year         VARCHAR(4) NOT NULL,
	reprt_code        VARCHAR(5) NOT NULL,
	sj_div            TEXT NOT NULL,
	sj_nm             TEXT NOT NULL DEFAULT '',
	account_id        TEXT NOT NULL,
	account_nm        TEXT NOT NULL DEFAULT '',
	account_detail    TEXT NOT NULL DEFAULT '',
	thstrm_nm         TEXT NOT NULL DEFAULT '',
	thstrm_amount     TEXT NOT NULL DEFAULT '',
	thstrm_add_amount TEXT NOT NULL DEFAULT '',
	frmtrm_nm         TEXT NOT NULL DEFAULT '',
	frmtrm_amount     TEXT NOT NULL DEFAULT '',
	frmtrm_q_amount   TEXT NOT NULL DEFAULT '',
	frmtrm_add_amount TEXT NOT NULL DEFAULT '',
	bfefrmtrm_nm      TEXT NOT NULL DEFAULT '',
	bfefrmtrm_amount  TEXT NOT NULL DEFAULT '',
	ord               TEXT NOT NULL DEFAULT '',
	currency          TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (corp_code, bsns_year, reprt_code, sj_div, account_id)
);

CREATE INDEX IF NOT EXISTS idx_financial_statements_tuple ON financial_statements(corp_code, bsns_year, reprt_code);

CREATE TABLE IF NOT EXISTS partner_companies (
	id                  VARCHAR(36) PRIMARY KEY,
	corp_code           VARCHAR(8) NOT NULL,
	company_profile_id  BIGINT REFERENCES company_profiles(id),
	company_name        TEXT NOT NULL,
	headquarters_id     BIGINT,
	partner_id          BIGINT,
	user_type           TEXT NOT NULL,
	contract_start_date DATE NOT NULL,
	status              TEXT NOT NULL DEFAULT 'ACTIVE',
	account_created     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_partner_companies_corp_code ON partner_companies(corp_code);
CREATE INDEX IF NOT EXISTS idx_partner_companies_owner ON partner_companies(user_type, headquarters_id, partner_id);
CREATE INDEX IF NOT EXISTS idx_partner_companies_name ON partner_companies(lower(company_name));

CREATE TABLE IF NOT EXISTS sync_log (
	id           BIGSERIAL PRIMARY KEY,
	corp_code    VARCHAR(8) NOT NULL,
	operation    TEXT NOT NULL,
	status       TEXT NOT NULL,
	rows_written BIGINT NOT NULL DEFAULT 0,
	error        TEXT,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sync_log_corp_code ON sync_log(corp_code, started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- company profiles ---

const profileColumns = `id, corp_code, corp_name, corp_name_eng, stock_code, stock_name, ceo_name, corp_class,
	business_number, corporate_registration_number, address, homepage_url, ir_url, phone_number, fax_number,
	industry_code, establishment_date, accounting_month, headquarters_id, partner_id, user_type, created_at, updated_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanProfile(row scannable) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	err := row.Scan(
		&p.ID, &p.CorpCode, &p.CorpName, &p.CorpNameEng, &p.StockCode, &p.StockName, &p.CEOName, &p.CorpClass,
		&p.BusinessNumber, &p.CorporateRegistrationNumber, &p.Address, &p.HomepageURL, &p.IRURL, &p.PhoneNumber,
		&p.FaxNumber, &p.IndustryCode, &p.EstablishmentDate, &p.AccountingMonth,
		&p.HeadquartersID, &p.PartnerID, &p.UserType, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM company_profiles WHERE corp_code = $1 ORDER BY id LIMIT 1`,
		corpCode,
	)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get profile %s", corpCode)
	}
	return p, nil
}

func (s *PostgresStore) ListProfilesByCorpCode(ctx context.Context, corpCode string) ([]model.CompanyProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM company_profiles WHERE corp_code = $1 ORDER BY id`,
		corpCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list profiles %s", corpCode)
	}
	defer rows.Close()

	var profiles []model.CompanyProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "postgres: list profiles iterate")
}

func (s *PostgresStore) GetProfileByOwner(ctx context.Context, owner model.Owner, corpCode string) (*model.CompanyProfile, error) {
	ownerCol := "headquarters_id"
	if owner.Kind == model.OwnerPartner {
		ownerCol = "partner_id"
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM company_profiles WHERE user_type = $1 AND `+ownerCol+` = $2 AND corp_code = $3 ORDER BY id LIMIT 1`,
		string(owner.UserType()), owner.ID, corpCode,
	)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get profile by owner %s", corpCode)
	}
	return p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, profile *model.CompanyProfile) (*model.CompanyProfile, error) {
	now := time.Now().UTC()
	profile.UpdatedAt = now

	if profile.ID == 0 {
		profile.CreatedAt = now
		err := s.pool.QueryRow(ctx,
			`INSERT INTO company_profiles (corp_code, corp_name, corp_name_eng, stock_code, stock_name, ceo_name, corp_class,
				business_number, corporate_registration_number, address, homepage_url, ir_url, phone_number, fax_number,
				industry_code, establishment_date, accounting_month, headquarters_id, partner_id, user_type, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			 RETURNING id`,
			profile.CorpCode, profile.CorpName, profile.CorpNameEng, profile.StockCode, profile.StockName,
			profile.CEOName, profile.CorpClass, profile.BusinessNumber, profile.CorporateRegistrationNumber,
			profile.Address, profile.HomepageURL, profile.IRURL, profile.PhoneNumber, profile.FaxNumber,
			profile.IndustryCode, profile.EstablishmentDate, profile.AccountingMonth,
			profile.HeadquartersID, profile.PartnerID, string(profile.UserType), profile.CreatedAt, profile.UpdatedAt,
		).Scan(&profile.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert profile %s", profile.CorpCode)
		}
		return profile, nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE company_profiles SET corp_name = $1, corp_name_eng = $2, stock_code = $3, stock_name = $4,
			ceo_name = $5, corp_class = $6, business_number = $7, corporate_registration_number = $8,
			address = $9, homepage_url = $10, ir_url = $11, phone_number = $12, fax_number = $13,
			industry_code = $14, establishment_date = $15, accounting_month = $16,
			headquarters_id = $17, partner_id = $18, user_type = $19, updated_at = $20
		 WHERE id = $21`,
		profile.CorpName, profile.CorpNameEng, profile.StockCode, profile.StockName,
		profile.CEOName, profile.CorpClass, profile.BusinessNumber, profile.CorporateRegistrationNumber,
		profile.Address, profile.HomepageURL, profile.IRURL, profile.PhoneNumber, profile.FaxNumber,
		profile.IndustryCode, profile.EstablishmentDate, profile.AccountingMonth,
		profile.HeadquartersID, profile.PartnerID, string(profile.UserType), profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update profile %d", profile.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: profile %d", profile.ID)
	}
	return profile, nil
}

// --- disclosures ---

func (s *PostgresStore) DisclosureExists(ctx context.Context, receiptNo string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM disclosures WHERE receipt_no = $1)`,
		receiptNo,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: disclosure exists %s", receiptNo)
	}
	return exists, nil
}

func (s *PostgresStore) InsertDisclosure(ctx context.Context, d model.Disclosure) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO disclosures (receipt_no, corp_code, company_profile_id, corp_name, stock_code, corp_class,
			report_name, submitter_name, receipt_date, remark, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (receipt_no) DO NOTHING`,
		d.ReceiptNo, d.CorpCode, nullableID(d.CompanyProfileID), d.CorpName, d.StockCode, d.CorpClass,
		d.ReportName, d.SubmitterName, d.ReceiptDate, d.Remark, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert disclosure %s", d.ReceiptNo)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListDisclosures(ctx context.Context, corpCode string, limit int) ([]model.Disclosure, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT receipt_no, corp_code, COALESCE(company_profile_id, 0), corp_name, stock_code, corp_class,
			report_name, submitter_name, receipt_date, remark, created_at
		 FROM disclosures WHERE corp_code = $1
		 ORDER BY receipt_date DESC, receipt_no DESC LIMIT $2`,
		corpCode, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list disclosures %s", corpCode)
	}
	defer rows.Close()

	var out []model.Disclosure
	for rows.Next() {
		var d model.Disclosure
		if err := rows.Scan(&d.ReceiptNo, &d.CorpCode, &d.CompanyProfileID, &d.CorpName, &d.StockCode, &d.CorpClass,
			&d.ReportName, &d.SubmitterName, &d.ReceiptDate, &d.Remark, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan disclosure")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// nullableID maps the zero id onto NULL for optional foreign keys.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// --- financial statements ---

const statementColumns = `id, corp_code, bsns_year, reprt_code, sj_div, sj_nm, account_id, account_nm, account_detail,
	thstrm_nm, thstrm_amount, thstrm_add_amount, frmtrm_nm, frmtrm_amount, frmtrm_q_amount, frmtrm_add_amount,
	bfefrmtrm_nm, bfefrmtrm_amount, ord, currency, created_at`

func scanStatementRow(row scannable) (*model.StatementRow, error) {
	var r model.StatementRow
	err := row.Scan(
		&r.ID, &r.CorpCode, &r.BusinessYear, &r.ReportCode, &r.StatementDiv, &r.StatementName,
		&r.AccountID, &r.AccountName, &r.AccountDetail,
		&r.ThstrmName, &r.ThstrmAmount, &r.ThstrmAddAmount,
		&r.FrmtrmName, &r.FrmtrmAmount, &r.FrmtrmQAmount, &r.FrmtrmAddAmount,
		&r.BfefrmtrmName, &r.BfefrmtrmAmount, &r.Ord, &r.Currency, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListStatementRows(ctx context.Context, corpCode, businessYear, reportCode string) ([]model.StatementRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+statementColumns+` FROM financial_statements
		 WHERE corp_code = $1 AND bsns_year = $2 AND reprt_code = $3 ORDER BY id`,
		corpCode, businessYear, reportCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list statement rows %s/%s/%s", corpCode, businessYear, reportCode)
	}
	defer rows.Close()

	var result []model.StatementRow
	for rows.Next() {
		r, err := scanStatementRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan statement row")
		}
		result = append(result, *r)
	}
	return result, eris.Wrap(rows.Err(), "postgres: list statement rows iterate")
}

func (s *PostgresStore) BulkInsertStatementRows(ctx context.Context, rows []model.StatementRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	var inserted int64
	for i := range rows {
		r := &rows[i]
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO financial_statements (corp_code, bsns_year, reprt_code, sj_div, sj_nm, account_id, account_nm,
				account_detail, thstrm_nm, thstrm_amount, thstrm_add_amount, frmtrm_nm, frmtrm_amount, frmtrm_q_amount,
				frmtrm_add_amount, bfefrmtrm_nm, bfefrmtrm_amount, ord, currency, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			 ON CONFLICT (corp_code, bsns_year, reprt_code, sj_div, account_id) DO NOTHING`,
			r.CorpCode, r.BusinessYear, r.ReportCode, r.StatementDiv, r.StatementName, r.AccountID, r.AccountName,
			r.AccountDetail, r.ThstrmName, r.ThstrmAmount, r.ThstrmAddAmount, r.FrmtrmName, r.FrmtrmAmount,
			r.FrmtrmQAmount, r.FrmtrmAddAmount, r.BfefrmtrmName, r.BfefrmtrmAmount, r.Ord, r.Currency, now,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert statement row %s/%s", r.CorpCode, r.AccountID)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (s *PostgresStore) DistinctPeriods(ctx context.Context, corpCode string) ([]model.StatementPeriod, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT bsns_year, reprt_code, COUNT(*) FROM financial_statements
		 WHERE corp_code = $1 GROUP BY bsns_year, reprt_code
		 ORDER BY bsns_year DESC, reprt_code DESC`,
		corpCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: distinct periods %s", corpCode)
	}
	defer rows.Close()

	var periods []model.StatementPeriod
	for rows.Next() {
		var p model.StatementPeriod
		if err := rows.Scan(&p.BusinessYear, &p.ReportCode, &p.RowCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan period")
		}
		periods = append(periods, p)
	}
	return periods, eris.Wrap(rows.Err(), "postgres: distinct periods iterate")
}

// --- partner companies ---

const partnerColumns = `id, corp_code, company_profile_id, company_name, headquarters_id, partner_id, user_type,
	contract_start_date, status, account_created, created_at, updated_at`

func scanPartner(row scannable) (*model.PartnerCompany, error) {
	var p model.PartnerCompany
	var profileID *int64
	err := row.Scan(
		&p.ID, &p.CorpCode, &profileID, &p.CompanyName, &p.HeadquartersID, &p.PartnerID, &p.UserType,
		&p.ContractStartDate, &p.Status, &p.AccountCreated, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if profileID != nil {
		p.CompanyProfileID = *profileID
	}
	return &p, nil
}

// ownerWhere builds the owner-scope predicate with placeholders starting
// at $base. It always binds exactly two arguments.
func ownerWhere(owner model.Owner, base int) (string, []any) {
	col := "headquarters_id"
	if owner.Kind == model.OwnerPartner {
		col = "partner_id"
	}
	clause := fmt.Sprintf("user_type = $%d AND %s = $%d", base, col, base+1)
	return clause, []any{string(owner.UserType()), owner.ID}
}

func (s *PostgresStore) GetPartner(ctx context.Context, id string) (*model.PartnerCompany, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partner_companies WHERE id = $1`,
		id,
	)
	p, err := scanPartner(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get partner %s", id)
	}
	return p, nil
}

func (s *PostgresStore) ListPartners(ctx context.Context, filter PartnerFilter) ([]model.PartnerCompany, error) {
	status := filter.Status
	if status == "" {
		status = model.PartnerActive
	}

	clause, args := ownerWhere(filter.Owner, 1)
	query := `SELECT ` + partnerColumns + ` FROM partner_companies WHERE ` + clause + ` AND status = $3 ORDER BY created_at DESC`
	args = append(args, string(status))

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT $4`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET $5`
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list partners")
	}
	defer rows.Close()

	var partners []model.PartnerCompany
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan partner")
		}
		partners = append(partners, *p)
	}
	return partners, eris.Wrap(rows.Err(), "postgres: list partners iterate")
}

func (s *PostgresStore) FindPartnerByName(ctx context.Context, owner model.Owner, name string, status model.PartnerStatus) (*model.PartnerCompany, error) {
	clause, args := ownerWhere(owner, 1)
	args = append(args, string(status), name)

	row := s.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partner_companies
		 WHERE `+clause+` AND status = $3 AND lower(company_name) = lower($4)
		 ORDER BY created_at LIMIT 1`,
		args...,
	)
	p, err := scanPartner(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find partner by name %q", name)
	}
	return p, nil
}

func (s *PostgresStore) ActiveNameExists(ctx context.Context, owner model.Owner, name, excludeID string) (bool, error) {
	clause, args := ownerWhere(owner, 1)
	query := `SELECT EXISTS(SELECT 1 FROM partner_companies
		 WHERE ` + clause + ` AND status = 'ACTIVE' AND lower(company_name) = lower($3)`
	args = append(args, name)
	if excludeID != "" {
		query += ` AND id <> $4`
		args = append(args, excludeID)
	}
	query += `)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "postgres: active name exists %q", name)
	}
	return exists, nil
}

func (s *PostgresStore) SavePartner(ctx context.Context, p *model.PartnerCompany) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO partner_companies (id, corp_code, company_profile_id, company_name, headquarters_id, partner_id,
			user_type, contract_start_date, status, account_created, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
			corp_code = EXCLUDED.corp_code,
			company_profile_id = EXCLUDED.company_profile_id,
			company_name = EXCLUDED.company_name,
			headquarters_id = EXCLUDED.headquarters_id,
			partner_id = EXCLUDED.partner_id,
			user_type = EXCLUDED.user_type,
			contract_start_date = EXCLUDED.contract_start_date,
			status = EXCLUDED.status,
			account_created = EXCLUDED.account_created,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.CorpCode, nullableID(p.CompanyProfileID), p.CompanyName, p.HeadquartersID, p.PartnerID,
		string(p.UserType), p.ContractStartDate, string(p.Status), p.AccountCreated, p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save partner %s", p.ID)
}

func (s *PostgresStore) SetAccountCreated(ctx context.Context, id string, created bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE partner_companies SET account_created = $1, updated_at = $2 WHERE id = $3`,
		created, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set account created %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "postgres: partner %s", id)
	}
	return nil
}

// --- corp-code directory ---

func (s *PostgresStore) GetCorpCode(ctx context.Context, corpCode string) (*model.CorpCode, error) {
	var c model.CorpCode
	err := s.pool.QueryRow(ctx,
		`SELECT corp_code, corp_name, corp_name_eng, stock_code, modify_date FROM corp_codes WHERE corp_code = $1`,
		corpCode,
	).Scan(&c.CorpCode, &c.CorpName, &c.CorpNameEng, &c.StockCode, &c.ModifyDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get corp code %s", corpCode)
	}
	return &c, nil
}

func (s *PostgresStore) SearchCorpCodesByName(ctx context.Context, query string, limit int) ([]model.CorpCode, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT corp_code, corp_name, corp_name_eng, stock_code, modify_date FROM corp_codes
		 WHERE corp_name ILIKE '%' || $1 || '%' ORDER BY corp_name LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: search corp codes %q", query)
	}
	defer rows.Close()

	var codes []model.CorpCode
	for rows.Next() {
		var c model.CorpCode
		if err := rows.Scan(&c.CorpCode, &c.CorpName, &c.CorpNameEng, &c.StockCode, &c.ModifyDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan corp code")
		}
		codes = append(codes, c)
	}
	return codes, eris.Wrap(rows.Err(), "postgres: search corp codes iterate")
}

func (s *PostgresStore) BulkUpsertCorpCodes(ctx context.Context, entries []model.CorpCode) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.CorpCode, e.CorpName, e.CorpNameEng, e.StockCode, e.ModifyDate, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "corp_codes",
		Columns:      []string{"corp_code", "corp_name", "corp_name_eng", "stock_code", "modify_date", "updated_at"},
		ConflictKeys: []string{"corp_code"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk upsert corp codes")
	}
	return n, nil
}
