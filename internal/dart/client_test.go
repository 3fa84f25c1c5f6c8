package dart

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("0123456789abcdef0123456789abcdef01234567",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}),
	)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "ab****", MaskKey("ab"))
	assert.Equal(t, "abcd****", MaskKey("abcdefgh"))
	assert.Equal(t, "abcd****7890", MaskKey("abcdef7890"))
}

func TestGetCompanyProfile_MockModeSentinel(t *testing.T) {
	c := NewClient("")

	profile, err := c.GetCompanyProfile(context.Background(), SentinelCorpCode)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "삼성전자(주)", profile.CorpName)
	assert.Equal(t, "005930", profile.StockCode)
	assert.Equal(t, "한종희", profile.CEOName)
	assert.Equal(t, "26410", profile.IndustryCode)
	assert.Equal(t, model.UserTypeUnknown, profile.UserType)
}

func TestGetCompanyProfile_MockModeMinimal(t *testing.T) {
	c := NewClient("your-dart-api-key")

	profile, err := c.GetCompanyProfile(context.Background(), "99999999")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "99999999", profile.CorpCode)
	assert.Equal(t, "테스트 회사명", profile.CorpName)
	assert.Equal(t, "12345", profile.IndustryCode)
	assert.Empty(t, profile.CEOName)
}

func TestGetCompanyProfile_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/company.json", r.URL.Path)
		assert.Equal(t, "00126380", r.URL.Query().Get("corp_code"))
		assert.NotEmpty(t, r.URL.Query().Get("crtfc_key"))
		w.Write([]byte(`{
			"status": "000", "message": "정상",
			"corp_code": "00126380", "corp_name": "삼성전자(주)",
			"ceo_nm": "한종희", "adres": "경기도 수원시",
			"phn_no": "031-200-1114", "bizr_no": "124-81-00998",
			"induty_code": "26410", "est_dt": "19690113", "acc_mt": "12"
		}`))
	})

	profile, err := c.GetCompanyProfile(context.Background(), "00126380")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "삼성전자(주)", profile.CorpName)
	assert.Equal(t, "한종희", profile.CEOName)
	assert.Equal(t, "경기도 수원시", profile.Address)
	assert.Equal(t, "124-81-00998", profile.BusinessNumber)
	assert.Equal(t, "12", profile.AccountingMonth)
}

func TestGetCompanyProfile_BusinessError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "013", "message": "조회된 데이타가 없습니다."}`))
	})

	profile, err := c.GetCompanyProfile(context.Background(), "00000000")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetCompanyProfile_ServerErrorDowngradesToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	profile, err := c.GetCompanyProfile(context.Background(), "00126380")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetCompanyProfile_UnparseableDowngradesToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	profile, err := c.GetCompanyProfile(context.Background(), "00126380")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetCompanyProfile_BlankCorpCode(t *testing.T) {
	c := NewClient("real-key-000000000000000000000000000000")

	_, err := c.GetCompanyProfile(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestSearchDisclosures_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/list.json", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("page_count"))
		assert.Equal(t, "20240101", r.URL.Query().Get("bgn_de"))
		assert.Equal(t, "20250101", r.URL.Query().Get("end_de"))
		w.Write([]byte(`{
			"status": "000", "message": "정상",
			"page_no": 1, "page_count": 100, "total_count": 2, "total_page": 1,
			"list": [
				{"corp_code": "00126380", "corp_name": "삼성전자(주)", "stock_code": "005930",
				 "corp_cls": "Y", "report_nm": "분기보고서 (2024.09)", "rcept_no": "20241114000001",
				 "flr_nm": "삼성전자", "rcept_dt": "20241114", "rm": ""},
				{"corp_code": "00126380", "corp_name": "삼성전자(주)", "stock_code": "005930",
				 "corp_cls": "Y", "report_nm": "주요사항보고서", "rcept_no": "20241001000002",
				 "flr_nm": "삼성전자", "rcept_dt": "20241001", "rm": "유"}
			]
		}`))
	})

	begin := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	disclosures, err := c.SearchDisclosures(context.Background(), "00126380", begin, end)
	require.NoError(t, err)
	require.Len(t, disclosures, 2)
	assert.Equal(t, "20241114000001", disclosures[0].ReceiptNo)
	assert.Equal(t, "분기보고서 (2024.09)", disclosures[0].ReportName)
	assert.Equal(t, "유", disclosures[1].Remark)
}

func TestSearchDisclosures_NoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "013", "message": "조회된 데이타가 없습니다."}`))
	})

	disclosures, err := c.SearchDisclosures(context.Background(), "00126380", time.Now().AddDate(-1, 0, 0), time.Now())
	require.NoError(t, err)
	assert.Empty(t, disclosures)
}

func TestSearchDisclosures_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SearchDisclosures(context.Background(), "00126380", time.Now().AddDate(-1, 0, 0), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrExternalSource))
}

func TestGetFinancialStatement_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/fnlttSinglAcntAll.json", r.URL.Path)
		assert.Equal(t, "2024", r.URL.Query().Get("bsns_year"))
		assert.Equal(t, "11011", r.URL.Query().Get("reprt_code"))
		assert.Equal(t, "OFS", r.URL.Query().Get("fs_div"))
		w.Write([]byte(`{
			"status": "000", "message": "정상",
			"list": [
				{"rcept_no": "20250311000001", "reprt_code": "11011", "bsns_year": "2024",
				 "corp_code": "00126380", "sj_div": "BS", "sj_nm": "재무상태표",
				 "account_id": "ifrs-full_Assets", "account_nm": "자산총계",
				 "thstrm_nm": "제 56 기", "thstrm_amount": "455,905,980,000,000",
				 "frmtrm_nm": "제 55 기", "frmtrm_amount": "448,424,507,000,000",
				 "ord": "1", "currency": "KRW"}
			]
		}`))
	})

	rows, err := c.GetFinancialStatement(context.Background(), "00126380", "2024", "11011", "OFS")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "자산총계", rows[0].AccountName)
	assert.Equal(t, "455,905,980,000,000", rows[0].ThstrmAmount)
	assert.Equal(t, "BS", rows[0].StatementDiv)
}

func TestGetFinancialStatement_NoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "013", "message": "조회된 데이타가 없습니다."}`))
	})

	rows, err := c.GetFinancialStatement(context.Background(), "00126380", "2024", "11013", "OFS")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetFinancialStatement_InvalidReportCode(t *testing.T) {
	c := NewClient("real-key-000000000000000000000000000000")

	_, err := c.GetFinancialStatement(context.Background(), "00126380", "2024", "99999", "OFS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestSearchDisclosures_RetriesTransientStatus(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status": "013", "message": "조회된 데이타가 없습니다."}`))
	})

	disclosures, err := c.SearchDisclosures(context.Background(), "00126380", time.Now().AddDate(-1, 0, 0), time.Now())
	require.NoError(t, err)
	assert.Empty(t, disclosures)
	assert.Equal(t, 2, calls)
}

func TestFetchCorpCodeArchive_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.FetchCorpCodeArchive(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrExternalSource))
}
