package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esg-suite/dart-sync/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// anyArgs returns n AnyArg matchers; pgxmock requires the expected
// argument count to match even when the values are unconstrained.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func profileMockRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "corp_code", "corp_name", "corp_name_eng", "stock_code", "stock_name", "ceo_name", "corp_class",
		"business_number", "corporate_registration_number", "address", "homepage_url", "ir_url", "phone_number",
		"fax_number", "industry_code", "establishment_date", "accounting_month",
		"headquarters_id", "partner_id", "user_type", "created_at", "updated_at",
	})
}

func TestPostgresStore_GetProfile_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM company_profiles WHERE corp_code = \$1`).
		WithArgs("99999999").
		WillReturnError(pgx.ErrNoRows)

	p, err := s.GetProfile(context.Background(), "99999999")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfile_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	hq := int64(7)
	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM company_profiles WHERE corp_code = \$1`).
		WithArgs("00126380").
		WillReturnRows(profileMockRows().AddRow(
			int64(1), "00126380", "삼성전자(주)", "SAMSUNG ELECTRONICS CO,.LTD", "005930", "삼성전자", "한종희", "Y",
			"124-81-00998", "130111-0006246", "경기도 수원시 영통구 삼성로 129 (매탄동)", "www.samsung.com", "", "031-200-1114",
			"", "264", "19690113", "12",
			&hq, (*int64)(nil), "HEADQUARTERS", now, now,
		))

	p, err := s.GetProfile(context.Background(), "00126380")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "삼성전자(주)", p.CorpName)
	assert.Equal(t, "005930", p.StockCode)
	require.NotNil(t, p.HeadquartersID)
	assert.Equal(t, int64(7), *p.HeadquartersID)
	assert.Nil(t, p.PartnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertProfile_InsertReturnsID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO company_profiles .+ RETURNING id`).
		WithArgs(anyArgs(22)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	p := &model.CompanyProfile{CorpCode: "00126380", CorpName: "삼성전자(주)"}
	got, err := s.UpsertProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertProfile_UpdateMissingRow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE company_profiles SET`).
		WithArgs(anyArgs(21)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	p := &model.CompanyProfile{ID: 99, CorpCode: "00126380"}
	_, err := s.UpsertProfile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertDisclosure_Idempotent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO disclosures .+ ON CONFLICT \(receipt_no\) DO NOTHING`).
		WithArgs("20240101000001", "00126380", nil, "삼성전자", "005930", "Y",
			"사업보고서 (2023.12)", "삼성전자", "20240101", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO disclosures .+ ON CONFLICT \(receipt_no\) DO NOTHING`).
		WithArgs("20240101000001", "00126380", nil, "삼성전자", "005930", "Y",
			"사업보고서 (2023.12)", "삼성전자", "20240101", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	d := model.Disclosure{
		ReceiptNo:     "20240101000001",
		CorpCode:      "00126380",
		CorpName:      "삼성전자",
		StockCode:     "005930",
		CorpClass:     "Y",
		ReportName:    "사업보고서 (2023.12)",
		SubmitterName: "삼성전자",
		ReceiptDate:   "20240101",
	}

	inserted, err := s.InsertDisclosure(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertDisclosure(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BulkInsertStatementRows_CountsNewRowsOnly(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO financial_statements .+ DO NOTHING`).
		WithArgs(anyArgs(20)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO financial_statements .+ DO NOTHING`).
		WithArgs(anyArgs(20)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	rows := []model.StatementRow{
		{CorpCode: "00126380", BusinessYear: "2023", ReportCode: model.ReportAnnual, StatementDiv: "BS", AccountID: "ifrs-full_Assets"},
		{CorpCode: "00126380", BusinessYear: "2023", ReportCode: model.ReportAnnual, StatementDiv: "BS", AccountID: "ifrs-full_Liabilities"},
	}

	n, err := s.BulkInsertStatementRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DistinctPeriods(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT bsns_year, reprt_code, COUNT\(\*\) FROM financial_statements`).
		WithArgs("00126380").
		WillReturnRows(pgxmock.NewRows([]string{"bsns_year", "reprt_code", "count"}).
			AddRow("2024", "11014", int64(120)).
			AddRow("2023", "11011", int64(250)))

	periods, err := s.DistinctPeriods(context.Background(), "00126380")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2024", periods[0].BusinessYear)
	assert.Equal(t, model.ReportQ3, periods[0].ReportCode)
	assert.Equal(t, int64(250), periods[1].RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindPartnerByName_OwnerScoped(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM partner_companies\s+WHERE user_type = \$1 AND headquarters_id = \$2 AND status = \$3 AND lower\(company_name\) = lower\(\$4\)`).
		WithArgs("HEADQUARTERS", int64(10), "ACTIVE", "협력사 A").
		WillReturnError(pgx.ErrNoRows)

	owner := model.Owner{Kind: model.OwnerHeadquarters, ID: 10}
	p, err := s.FindPartnerByName(context.Background(), owner, "협력사 A", model.PartnerActive)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ActiveNameExists_ExcludesID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM partner_companies`).
		WithArgs("PARTNER", int64(3), "협력사 B", "keep-me").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	owner := model.Owner{Kind: model.OwnerPartner, ID: 3}
	exists, err := s.ActiveNameExists(context.Background(), owner, "협력사 B", "keep-me")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetAccountCreated_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE partner_companies SET account_created`).
		WithArgs(true, pgxmock.AnyArg(), "missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetAccountCreated(context.Background(), "missing-id", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCorpCode_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT corp_code, corp_name, corp_name_eng, stock_code, modify_date FROM corp_codes`).
		WithArgs("00000000").
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetCorpCode(context.Background(), "00000000")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}
