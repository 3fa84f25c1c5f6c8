package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esg-suite/dart-sync/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_ProfileRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	hq := int64(10)
	p := &model.CompanyProfile{
		CorpCode:       "00126380",
		CorpName:       "삼성전자(주)",
		CorpNameEng:    "SAMSUNG ELECTRONICS CO,.LTD",
		StockCode:      "005930",
		CEOName:        "한종희",
		Address:        "경기도 수원시 영통구 삼성로 129 (매탄동)",
		PhoneNumber:    "031-200-1114",
		HeadquartersID: &hq,
		UserType:       model.UserTypeHeadquarters,
	}

	saved, err := s.UpsertProfile(ctx, p)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	got, err := s.GetProfile(ctx, "00126380")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "삼성전자(주)", got.CorpName)
	require.NotNil(t, got.HeadquartersID)
	assert.Equal(t, int64(10), *got.HeadquartersID)
	assert.Nil(t, got.PartnerID)

	got.CEOName = "변경된 대표"
	_, err = s.UpsertProfile(ctx, got)
	require.NoError(t, err)

	again, err := s.GetProfile(ctx, "00126380")
	require.NoError(t, err)
	assert.Equal(t, "변경된 대표", again.CEOName)

	missing, err := s.GetProfile(ctx, "99999999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_UpsertProfile_MissingRow(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.UpsertProfile(context.Background(), &model.CompanyProfile{ID: 123, CorpCode: "00126380"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSQLiteStore_GetProfileByOwner(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	hq := int64(1)
	partner := int64(2)
	p1 := &model.CompanyProfile{CorpCode: "00126380", CorpName: "본사 보유", HeadquartersID: &hq, UserType: model.UserTypeHeadquarters}
	p2 := &model.CompanyProfile{CorpCode: "00126380", CorpName: "협력사 보유", PartnerID: &partner, UserType: model.UserTypePartner}
	_, err := s.UpsertProfile(ctx, p1)
	require.NoError(t, err)
	_, err = s.UpsertProfile(ctx, p2)
	require.NoError(t, err)

	got, err := s.GetProfileByOwner(ctx, model.Owner{Kind: model.OwnerPartner, ID: 2}, "00126380")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "협력사 보유", got.CorpName)

	none, err := s.GetProfileByOwner(ctx, model.Owner{Kind: model.OwnerHeadquarters, ID: 999}, "00126380")
	require.NoError(t, err)
	assert.Nil(t, none)

	all, err := s.ListProfilesByCorpCode(ctx, "00126380")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStore_DisclosureIdempotence(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	d := model.Disclosure{
		ReceiptNo:  "20240101000001",
		CorpCode:   "00126380",
		CorpName:   "삼성전자",
		ReportName: "사업보고서 (2023.12)",
	}

	inserted, err := s.InsertDisclosure(ctx, d)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertDisclosure(ctx, d)
	require.NoError(t, err)
	assert.False(t, inserted)

	exists, err := s.DisclosureExists(ctx, "20240101000001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.DisclosureExists(ctx, "20249999999999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteStore_StatementRowsNeverDuplicated(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rows := []model.StatementRow{
		{CorpCode: "00126380", BusinessYear: "2023", ReportCode: model.ReportAnnual, StatementDiv: "BS",
			AccountID: "ifrs-full_Assets", AccountName: "자산총계", ThstrmAmount: "448,424,507,000,000"},
		{CorpCode: "00126380", BusinessYear: "2023", ReportCode: model.ReportAnnual, StatementDiv: "IS",
			AccountID: "ifrs-full_Revenue", AccountName: "매출액", ThstrmAmount: "258,935,494,000,000"},
	}

	n, err := s.BulkInsertStatementRows(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.BulkInsertStatementRows(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	stored, err := s.ListStatementRows(ctx, "00126380", "2023", model.ReportAnnual)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	periods, err := s.DistinctPeriods(ctx, "00126380")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "2023", periods[0].BusinessYear)
	assert.Equal(t, int64(2), periods[0].RowCount)
}

func TestSQLiteStore_PartnerLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	hq := int64(5)
	owner := model.Owner{Kind: model.OwnerHeadquarters, ID: 5}
	p := &model.PartnerCompany{
		ID:                uuid.NewString(),
		CorpCode:          "00126380",
		CompanyName:       "협력사 A",
		HeadquartersID:    &hq,
		UserType:          model.UserTypeHeadquarters,
		ContractStartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:            model.PartnerActive,
	}
	require.NoError(t, s.SavePartner(ctx, p))

	got, err := s.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "협력사 A", got.CompanyName)
	assert.Equal(t, model.PartnerActive, got.Status)

	// Name matching is case-insensitive within the owner scope.
	byName, err := s.FindPartnerByName(ctx, owner, "협력사 a", model.PartnerActive)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, p.ID, byName.ID)

	otherOwner := model.Owner{Kind: model.OwnerHeadquarters, ID: 6}
	byName, err = s.FindPartnerByName(ctx, otherOwner, "협력사 A", model.PartnerActive)
	require.NoError(t, err)
	assert.Nil(t, byName)

	exists, err := s.ActiveNameExists(ctx, owner, "협력사 A", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ActiveNameExists(ctx, owner, "협력사 A", p.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Soft delete.
	got.Status = model.PartnerInactive
	require.NoError(t, s.SavePartner(ctx, got))

	active, err := s.ListPartners(ctx, PartnerFilter{Owner: owner})
	require.NoError(t, err)
	assert.Empty(t, active)

	inactive, err := s.ListPartners(ctx, PartnerFilter{Owner: owner, Status: model.PartnerInactive})
	require.NoError(t, err)
	assert.Len(t, inactive, 1)

	require.NoError(t, s.SetAccountCreated(ctx, p.ID, true))
	got, err = s.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.AccountCreated)

	err = s.SetAccountCreated(ctx, "no-such-id", true)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSQLiteStore_CorpCodeDirectory(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	entries := []model.CorpCode{
		{CorpCode: "00126380", CorpName: "삼성전자", StockCode: "005930", ModifyDate: "20240101"},
		{CorpCode: "00164779", CorpName: "에스케이하이닉스", StockCode: "000660", ModifyDate: "20240101"},
	}

	n, err := s.BulkUpsertCorpCodes(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Re-running the directory sync refreshes rows in place.
	entries[0].ModifyDate = "20240301"
	n, err = s.BulkUpsertCorpCodes(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.GetCorpCode(ctx, "00126380")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "20240301", got.ModifyDate)

	found, err := s.SearchCorpCodesByName(ctx, "하이닉스", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "00164779", found[0].CorpCode)

	missing, err := s.GetCorpCode(ctx, "00000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
