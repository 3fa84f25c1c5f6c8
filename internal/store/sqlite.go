package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/esg-suite/dart-sync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for
// offline development and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS corp_codes (
	corp_code     TEXT PRIMARY KEY,
	corp_name     TEXT NOT NULL,
	corp_name_eng TEXT NOT NULL DEFAULT '',
	stock_code    TEXT NOT NULL DEFAULT '',
	modify_date   TEXT NOT NULL DEFAULT '',
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS company_profiles (
	id                            INTEGER PRIMARY KEY AUTOINCREMENT,
	corp_code                     TEXT NOT NULL,
	corp_name                     TEXT NOT NULL DEFAULT '',
	corp_name_eng                 TEXT NOT NULL DEFAULT '',
	stock_code                    TEXT NOT NULL DEFAULT '',
	stock_name                    TEXT NOT NULL DEFAULT '',
	ceo_name                      TEXT NOT NULL DEFAULT '',
	corp_class                    TEXT NOT NULL DEFAULT '',
	business_number               TEXT NOT NULL DEFAULT '',
	corporate_registration_number TEXT NOT NULL DEFAULT '',
	address                       TEXT NOT NULL DEFAULT '',
	homepage_url                  TEXT NOT NULL DEFAULT '',
	ir_url                        TEXT NOT NULL DEFAULT '',
	phone_number                  TEXT NOT NULL DEFAULT '',
	fax_number                    TEXT NOT NULL DEFAULT '',
	industry_code                 TEXT NOT NULL DEFAULT '',
	establishment_date            TEXT NOT NULL DEFAULT '',
	accounting_month              TEXT NOT NULL DEFAULT '',
	headquarters_id               INTEGER,
	partner_id                    INTEGER,
	user_type                     TEXT NOT NULL DEFAULT 'UNKNOWN',
	created_at                    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at                    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_company_profiles_corp_code ON company_profiles(corp_code);

CREATE TABLE IF NOT EXISTS disclosures (
	receipt_no         TEXT PRIMARY KEY,
	corp_code          TEXT NOT NULL,
	company_profile_id INTEGER REFERENCES company_profiles(id),
	corp_name          TEXT NOT NULL DEFAULT '',
	stock_code         TEXT NOT NULL DEFAULT '',
	corp_class         TEXT NOT NULL DEFAULT '',
	report_name        TEXT NOT NULL DEFAULT '',
	submitter_name     TEXT NOT NULL DEFAULT '',
	receipt_date       TEXT NOT NULL DEFAULT '',
	remark             TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_disclosures_corp_code ON disclosures(corp_code);

CREATE TABLE IF NOT EXISTS financial_statements (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	corp_code         TEXT NOT NULL,
	bsns_year         TEXT NOT NULL,
	reprt_code        TEXT NOT NULL,
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
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (corp_code, bsns_year, reprt_code, sj_div, account_id)
);

CREATE INDEX IF NOT EXISTS idx_financial_statements_tuple ON financial_statements(corp_code, bsns_year, reprt_code);

CREATE TABLE IF NOT EXISTS partner_companies (
	id                  TEXT PRIMARY KEY,
	corp_code           TEXT NOT NULL,
	company_profile_id  INTEGER REFERENCES company_profiles(id),
	company_name        TEXT NOT NULL,
	headquarters_id     INTEGER,
	partner_id          INTEGER,
	user_type           TEXT NOT NULL,
	contract_start_date DATETIME NOT NULL,
	status              TEXT NOT NULL DEFAULT 'ACTIVE',
	account_created     INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_partner_companies_corp_code ON partner_companies(corp_code);
CREATE INDEX IF NOT EXISTS idx_partner_companies_owner ON partner_companies(user_type, headquarters_id, partner_id);

CREATE TABLE IF NOT EXISTS sync_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	corp_code    TEXT NOT NULL,
	operation    TEXT NOT NULL,
	status       TEXT NOT NULL,
	rows_written INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at  DATETIME
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- company profiles ---

func scanProfileSQLite(row scannable) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	var hqID, partnerID sql.NullInt64
	err := row.Scan(
		&p.ID, &p.CorpCode, &p.CorpName, &p.CorpNameEng, &p.StockCode, &p.StockName, &p.CEOName, &p.CorpClass,
		&p.BusinessNumber, &p.CorporateRegistrationNumber, &p.Address, &p.HomepageURL, &p.IRURL, &p.PhoneNumber,
		&p.FaxNumber, &p.IndustryCode, &p.EstablishmentDate, &p.AccountingMonth,
		&hqID, &partnerID, &p.UserType, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hqID.Valid {
		p.HeadquartersID = &hqID.Int64
	}
	if partnerID.Valid {
		p.PartnerID = &partnerID.Int64
	}
	return &p, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM company_profiles WHERE corp_code = ? ORDER BY id LIMIT 1`,
		corpCode,
	)
	p, err := scanProfileSQLite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", corpCode)
	}
	return p, nil
}

func (s *SQLiteStore) ListProfilesByCorpCode(ctx context.Context, corpCode string) ([]model.CompanyProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM company_profiles WHERE corp_code = ? ORDER BY id`,
		corpCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list profiles %s", corpCode)
	}
	defer rows.Close()

	var profiles []model.CompanyProfile
	for rows.Next() {
		p, err := scanProfileSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: list profiles iterate")
}

func (s *SQLiteStore) GetProfileByOwner(ctx context.Context, owner model.Owner, corpCode string) (*model.CompanyProfile, error) {
	ownerCol := "headquarters_id"
	if owner.Kind == model.OwnerPartner {
		ownerCol = "partner_id"
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM company_profiles WHERE user_type = ? AND `+ownerCol+` = ? AND corp_code = ? ORDER BY id LIMIT 1`,
		string(owner.UserType()), owner.ID, corpCode,
	)
	p, err := scanProfileSQLite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile by owner %s", corpCode)
	}
	return p, nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *model.CompanyProfile) (*model.CompanyProfile, error) {
	now := time.Now().UTC()
	profile.UpdatedAt = now

	if profile.ID == 0 {
		profile.CreatedAt = now
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO company_profiles (corp_code, corp_name, corp_name_eng, stock_code, stock_name, ceo_name, corp_class,
				business_number, corporate_registration_number, address, homepage_url, ir_url, phone_number, fax_number,
				industry_code, establishment_date, accounting_month, headquarters_id, partner_id, user_type, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			profile.CorpCode, profile.CorpName, profile.CorpNameEng, profile.StockCode, profile.StockName,
			profile.CEOName, profile.CorpClass, profile.BusinessNumber, profile.CorporateRegistrationNumber,
			profile.Address, profile.HomepageURL, profile.IRURL, profile.PhoneNumber, profile.FaxNumber,
			profile.IndustryCode, profile.EstablishmentDate, profile.AccountingMonth,
			profile.HeadquartersID, profile.PartnerID, string(profile.UserType), profile.CreatedAt, profile.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert profile %s", profile.CorpCode)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: last insert id")
		}
		profile.ID = id
		return profile, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE company_profiles SET corp_name = ?, corp_name_eng = ?, stock_code = ?, stock_name = ?,
			ceo_name = ?, corp_class = ?, business_number = ?, corporate_registration_number = ?,
			address = ?, homepage_url = ?, ir_url = ?, phone_number = ?, fax_number = ?,
			industry_code = ?, establishment_date = ?, accounting_month = ?,
			headquarters_id = ?, partner_id = ?, user_type = ?, updated_at = ?
		 WHERE id = ?`,
		profile.CorpName, profile.CorpNameEng, profile.StockCode, profile.StockName,
		profile.CEOName, profile.CorpClass, profile.BusinessNumber, profile.CorporateRegistrationNumber,
		profile.Address, profile.HomepageURL, profile.IRURL, profile.PhoneNumber, profile.FaxNumber,
		profile.IndustryCode, profile.EstablishmentDate, profile.AccountingMonth,
		profile.HeadquartersID, profile.PartnerID, string(profile.UserType), profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update profile %d", profile.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: profile %d", profile.ID)
	}
	return profile, nil
}

// --- disclosures ---

func (s *SQLiteStore) DisclosureExists(ctx context.Context, receiptNo string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM disclosures WHERE receipt_no = ?)`,
		receiptNo,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: disclosure exists %s", receiptNo)
	}
	return exists, nil
}

func (s *SQLiteStore) InsertDisclosure(ctx context.Context, d model.Disclosure) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO disclosures (receipt_no, corp_code, company_profile_id, corp_name, stock_code, corp_class,
			report_name, submitter_name, receipt_date, remark, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (receipt_no) DO NOTHING`,
		d.ReceiptNo, d.CorpCode, nullableID(d.CompanyProfileID), d.CorpName, d.StockCode, d.CorpClass,
		d.ReportName, d.SubmitterName, d.ReceiptDate, d.Remark, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert disclosure %s", d.ReceiptNo)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) ListDisclosures(ctx context.Context, corpCode string, limit int) ([]model.Disclosure, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT receipt_no, corp_code, COALESCE(company_profile_id, 0), corp_name, stock_code, corp_class,
			report_name, submitter_name, receipt_date, remark, created_at
		 FROM disclosures WHERE corp_code = ?
		 ORDER BY receipt_date DESC, receipt_no DESC LIMIT ?`,
		corpCode, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list disclosures %s", corpCode)
	}
	defer rows.Close()

	var out []model.Disclosure
	for rows.Next() {
		var d model.Disclosure
		if err := rows.Scan(&d.ReceiptNo, &d.CorpCode, &d.CompanyProfileID, &d.CorpName, &d.StockCode, &d.CorpClass,
			&d.ReportName, &d.SubmitterName, &d.ReceiptDate, &d.Remark, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan disclosure")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- financial statements ---

func (s *SQLiteStore) ListStatementRows(ctx context.Context, corpCode, businessYear, reportCode string) ([]model.StatementRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+statementColumns+` FROM financial_statements
		 WHERE corp_code = ? AND bsns_year = ? AND reprt_code = ? ORDER BY id`,
		corpCode, businessYear, reportCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list statement rows %s/%s/%s", corpCode, businessYear, reportCode)
	}
	defer rows.Close()

	var result []model.StatementRow
	for rows.Next() {
		r, err := scanStatementRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan statement row")
		}
		result = append(result, *r)
	}
	return result, eris.Wrap(rows.Err(), "sqlite: list statement rows iterate")
}

func (s *SQLiteStore) BulkInsertStatementRows(ctx context.Context, rows []model.StatementRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	var inserted int64
	for i := range rows {
		r := &rows[i]
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO financial_statements (corp_code, bsns_year, reprt_code, sj_div, sj_nm, account_id, account_nm,
				account_detail, thstrm_nm, thstrm_amount, thstrm_add_amount, frmtrm_nm, frmtrm_amount, frmtrm_q_amount,
				frmtrm_add_amount, bfefrmtrm_nm, bfefrmtrm_amount, ord, currency, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (corp_code, bsns_year, reprt_code, sj_div, account_id) DO NOTHING`,
			r.CorpCode, r.BusinessYear, r.ReportCode, r.StatementDiv, r.StatementName, r.AccountID, r.AccountName,
			r.AccountDetail, r.ThstrmName, r.ThstrmAmount, r.ThstrmAddAmount, r.FrmtrmName, r.FrmtrmAmount,
			r.FrmtrmQAmount, r.FrmtrmAddAmount, r.BfefrmtrmName, r.BfefrmtrmAmount, r.Ord, r.Currency, now,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: insert statement row %s/%s", r.CorpCode, r.AccountID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += n
	}
	return inserted, nil
}

func (s *SQLiteStore) DistinctPeriods(ctx context.Context, corpCode string) ([]model.StatementPeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bsns_year, reprt_code, COUNT(*) FROM financial_statements
		 WHERE corp_code = ? GROUP BY bsns_year, reprt_code
		 ORDER BY bsns_year DESC, reprt_code DESC`,
		corpCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: distinct periods %s", corpCode)
	}
	defer rows.Close()

	var periods []model.StatementPeriod
	for rows.Next() {
		var p model.StatementPeriod
		if err := rows.Scan(&p.BusinessYear, &p.ReportCode, &p.RowCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan period")
		}
		periods = append(periods, p)
	}
	return periods, eris.Wrap(rows.Err(), "sqlite: distinct periods iterate")
}

// --- partner companies ---

func scanPartnerSQLite(row scannable) (*model.PartnerCompany, error) {
	var p model.PartnerCompany
	var profileID, hqID, partnerID sql.NullInt64
	err := row.Scan(
		&p.ID, &p.CorpCode, &profileID, &p.CompanyName, &hqID, &partnerID, &p.UserType,
		&p.ContractStartDate, &p.Status, &p.AccountCreated, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if profileID.Valid {
		p.CompanyProfileID = profileID.Int64
	}
	if hqID.Valid {
		p.HeadquartersID = &hqID.Int64
	}
	if partnerID.Valid {
		p.PartnerID = &partnerID.Int64
	}
	return &p, nil
}

func sqliteOwnerWhere(owner model.Owner) (string, []any) {
	col := "headquarters_id"
	if owner.Kind == model.OwnerPartner {
		col = "partner_id"
	}
	return "user_type = ? AND " + col + " = ?", []any{string(owner.UserType()), owner.ID}
}

func (s *SQLiteStore) GetPartner(ctx context.Context, id string) (*model.PartnerCompany, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+partnerColumns+` FROM partner_companies WHERE id = ?`,
		id,
	)
	p, err := scanPartnerSQLite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get partner %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) ListPartners(ctx context.Context, filter PartnerFilter) ([]model.PartnerCompany, error) {
	status := filter.Status
	if status == "" {
		status = model.PartnerActive
	}

	clause, args := sqliteOwnerWhere(filter.Owner)
	query := `SELECT ` + partnerColumns + ` FROM partner_companies WHERE ` + clause + ` AND status = ? ORDER BY created_at DESC`
	args = append(args, string(status))

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list partners")
	}
	defer rows.Close()

	var partners []model.PartnerCompany
	for rows.Next() {
		p, err := scanPartnerSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan partner")
		}
		partners = append(partners, *p)
	}
	return partners, eris.Wrap(rows.Err(), "sqlite: list partners iterate")
}

func (s *SQLiteStore) FindPartnerByName(ctx context.Context, owner model.Owner, name string, status model.PartnerStatus) (*model.PartnerCompany, error) {
	clause, args := sqliteOwnerWhere(owner)
	args = append(args, string(status), strings.ToLower(name))

	row := s.db.QueryRowContext(ctx,
		`SELECT `+partnerColumns+` FROM partner_companies
		 WHERE `+clause+` AND status = ? AND lower(company_name) = ?
		 ORDER BY created_at LIMIT 1`,
		args...,
	)
	p, err := scanPartnerSQLite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find partner by name %q", name)
	}
	return p, nil
}

func (s *SQLiteStore) ActiveNameExists(ctx context.Context, owner model.Owner, name, excludeID string) (bool, error) {
	clause, args := sqliteOwnerWhere(owner)
	query := `SELECT EXISTS(SELECT 1 FROM partner_companies
		 WHERE ` + clause + ` AND status = 'ACTIVE' AND lower(company_name) = ?`
	args = append(args, strings.ToLower(name))
	if excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += `)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "sqlite: active name exists %q", name)
	}
	return exists, nil
}

func (s *SQLiteStore) SavePartner(ctx context.Context, p *model.PartnerCompany) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO partner_companies (id, corp_code, company_profile_id, company_name, headquarters_id, partner_id,
			user_type, contract_start_date, status, account_created, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			corp_code = excluded.corp_code,
			company_profile_id = excluded.company_profile_id,
			company_name = excluded.company_name,
			headquarters_id = excluded.headquarters_id,
			partner_id = excluded.partner_id,
			user_type = excluded.user_type,
			contract_start_date = excluded.contract_start_date,
			status = excluded.status,
			account_created = excluded.account_created,
			updated_at = excluded.updated_at`,
		p.ID, p.CorpCode, nullableID(p.CompanyProfileID), p.CompanyName, p.HeadquartersID, p.PartnerID,
		string(p.UserType), p.ContractStartDate, string(p.Status), p.AccountCreated, p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save partner %s", p.ID)
}

func (s *SQLiteStore) SetAccountCreated(ctx context.Context, id string, created bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE partner_companies SET account_created = ?, updated_at = ? WHERE id = ?`,
		created, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set account created %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "sqlite: partner %s", id)
	}
	return nil
}

// --- corp-code directory ---

func (s *SQLiteStore) GetCorpCode(ctx context.Context, corpCode string) (*model.CorpCode, error) {
	var c model.CorpCode
	err := s.db.QueryRowContext(ctx,
		`SELECT corp_code, corp_name, corp_name_eng, stock_code, modify_date FROM corp_codes WHERE corp_code = ?`,
		corpCode,
	).Scan(&c.CorpCode, &c.CorpName, &c.CorpNameEng, &c.StockCode, &c.ModifyDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get corp code %s", corpCode)
	}
	return &c, nil
}

func (s *SQLiteStore) SearchCorpCodesByName(ctx context.Context, query string, limit int) ([]model.CorpCode, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT corp_code, corp_name, corp_name_eng, stock_code, modify_date FROM corp_codes
		 WHERE lower(corp_name) LIKE '%' || lower(?) || '%' ORDER BY corp_name LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: search corp codes %q", query)
	}
	defer rows.Close()

	var codes []model.CorpCode
	for rows.Next() {
		var c model.CorpCode
		if err := rows.Scan(&c.CorpCode, &c.CorpName, &c.CorpNameEng, &c.StockCode, &c.ModifyDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan corp code")
		}
		codes = append(codes, c)
	}
	return codes, eris.Wrap(rows.Err(), "sqlite: search corp codes iterate")
}

func (s *SQLiteStore) BulkUpsertCorpCodes(ctx context.Context, entries []model.CorpCode) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin corp code upsert")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var written int64
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO corp_codes (corp_code, corp_name, corp_name_eng, stock_code, modify_date, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (corp_code) DO UPDATE SET
				corp_name = excluded.corp_name,
				corp_name_eng = excluded.corp_name_eng,
				stock_code = excluded.stock_code,
				modify_date = excluded.modify_date,
				updated_at = excluded.updated_at`,
			e.CorpCode, e.CorpName, e.CorpNameEng, e.StockCode, e.ModifyDate, now,
		); err != nil {
			return written, eris.Wrapf(err, "sqlite: upsert corp code %s", e.CorpCode)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, eris.Wrap(err, "sqlite: commit corp code upsert")
	}
	return written, nil
}
