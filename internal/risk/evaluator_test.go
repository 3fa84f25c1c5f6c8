package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esg-suite/dart-sync/internal/model"
)

func row(accountName, thstrm, frmtrm string) model.StatementRow {
	return model.StatementRow{
		CorpCode:     "00126380",
		BusinessYear: "2023",
		ReportCode:   model.ReportAnnual,
		StatementDiv: "BS",
		AccountName:  accountName,
		ThstrmAmount: thstrm,
		FrmtrmAmount: frmtrm,
	}
}

func itemByNumber(t *testing.T, a *model.RiskAssessment, n int) model.RiskItem {
	t.Helper()
	for _, it := range a.Items {
		if it.ItemNumber == n {
			return it
		}
	}
	t.Fatalf("no item %d in assessment", n)
	return model.RiskItem{}
}

func TestEvaluate_RevenueDecrease(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{row("매출액", "1,000,000,000", "2,000,000,000")}

	a := e.Evaluate(rows, "00126380", "삼성전자", "2023", model.ReportAnnual)
	require.Len(t, a.Items, 12)

	item := itemByNumber(t, a, 1)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "-50.00%", item.ActualValue)
	assert.Equal(t, "<= -30%", item.Threshold)
	assert.Equal(t, "매출액 30% 이상 감소", item.Description)
}

func TestEvaluate_RevenueDecreaseNotAtRiskAboveThreshold(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{row("매출액", "800", "1000")}

	a := e.Evaluate(rows, "00126380", "", "2023", model.ReportAnnual)
	item := itemByNumber(t, a, 1)
	assert.False(t, item.IsAtRisk)
	assert.Equal(t, "-20.00%", item.ActualValue)
}

func TestEvaluate_CapitalImpairmentOnNegativeEquity(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("부채총계", "500", ""),
		row("자본총계", "-100", ""),
	}

	a := e.Evaluate(rows, "00126380", "", "2023", model.ReportAnnual)
	item := itemByNumber(t, a, 11)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "자본잠식 -100", item.ActualValue)
	assert.Equal(t, "자본총계가 음수(자본잠식)", item.Notes)
}

func TestEvaluate_DebtToEquityZeroEquity(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("부채총계", "500", ""),
		row("자본총계", "0", ""),
	}

	item := itemByNumber(t, e.Evaluate(rows, "c", "", "2023", model.ReportAnnual), 11)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "자본총계 0", item.ActualValue)
}

func TestEvaluate_NoDataYieldsSingleSyntheticItem(t *testing.T) {
	e := NewEvaluator(nil)

	a := e.Evaluate(nil, "00126380", "삼성전자", "2023", model.ReportAnnual)
	require.Len(t, a.Items, 1)
	item := a.Items[0]
	assert.Equal(t, 0, item.ItemNumber)
	assert.Equal(t, "재무 정보 조회", item.Description)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "데이터 없음", item.ActualValue)
	assert.Equal(t, "-", item.Threshold)
	assert.NotEmpty(t, item.Notes)
	assert.Equal(t, 1, a.AtRiskCount)
}

func TestEvaluate_MissingAccountsAreNotAtRisk(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{row("자산총계", "1000", "900")}

	a := e.Evaluate(rows, "00126380", "", "2023", model.ReportAnnual)
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7, 11, 12} {
		item := itemByNumber(t, a, n)
		assert.False(t, item.IsAtRisk, "item %d", n)
		assert.Equal(t, "데이터 부족", item.ActualValue, "item %d", n)
	}
}

func TestEvaluate_ReceivablesTurnover(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("매출액", "900", ""),
		row("매출채권", "300", ""),
	}

	item := itemByNumber(t, e.Evaluate(rows, "c", "", "2023", model.ReportAnnual), 3)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "3.00회", item.ActualValue)
}

func TestEvaluate_ReceivablesRatioZeroRevenue(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("매출액", "0", ""),
		row("매출채권", "100", ""),
	}

	item := itemByNumber(t, e.Evaluate(rows, "c", "", "2023", model.ReportAnnual), 4)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "매출액 0", item.ActualValue)
}

func TestEvaluate_OperatingIncomeSkippedWhenPriorNotPositive(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{row("영업이익", "500", "-1000")}

	item := itemByNumber(t, e.Evaluate(rows, "c", "", "2023", model.ReportAnnual), 2)
	assert.False(t, item.IsAtRisk)
	assert.Equal(t, "전기 영업이익: -1,000", item.ActualValue)
	assert.Equal(t, "전기 영업이익이 0 이하이므로 증감률 비교 무의미", item.Notes)
}

func TestEvaluate_BorrowingsIndicators(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("단기차입금", "950", "500"),
		row("장기차입금", "50", "500"),
		row("자산총계", "1000", ""),
	}

	a := e.Evaluate(rows, "c", "", "2023", model.ReportAnnual)

	// Total borrowings unchanged at 1000: no 30% increase.
	assert.False(t, itemByNumber(t, a, 8).IsAtRisk)
	assert.Equal(t, "0.00%", itemByNumber(t, a, 8).ActualValue)

	// 1000 / 1000 assets = 100%.
	assert.True(t, itemByNumber(t, a, 9).IsAtRisk)
	assert.Equal(t, "100.00%", itemByNumber(t, a, 9).ActualValue)

	// 950 / 1000 = 95% short-term share.
	assert.True(t, itemByNumber(t, a, 10).IsAtRisk)
	assert.Equal(t, "95.00%", itemByNumber(t, a, 10).ActualValue)
}

func TestEvaluate_CapitalImpairmentComparison(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("자본총계", "900", ""),
		row("자본금", "1,000", ""),
	}

	item := itemByNumber(t, e.Evaluate(rows, "c", "", "2023", model.ReportAnnual), 12)
	assert.True(t, item.IsAtRisk)
	assert.Equal(t, "자본총계: 900, 자본금: 1,000", item.ActualValue)
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("매출액", "1,000,000", "2,000,000"),
		row("영업이익", "-5,000", "10,000"),
		row("부채총계", "800,000", ""),
		row("자본총계", "400,000", ""),
	}

	first := e.Evaluate(rows, "00126380", "삼성전자", "2023", model.ReportAnnual)
	second := e.Evaluate(rows, "00126380", "삼성전자", "2023", model.ReportAnnual)
	assert.Equal(t, first, second)
}

func TestFindAmount_SkipsAbsentAndUnparseable(t *testing.T) {
	e := NewEvaluator(nil)
	rows := []model.StatementRow{
		row("매출액", "-", ""),
		row("매출액", "abc", ""),
		row("매출액", "1,234", ""),
	}

	got, ok := e.findAmount(rows, "매출액", fieldThstrm)
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(1234)))

	_, ok = e.findAmount(rows, "없는계정", fieldThstrm)
	assert.False(t, ok)
}

func TestGrouped(t *testing.T) {
	assert.Equal(t, "0", grouped(decimal.Zero))
	assert.Equal(t, "-100", grouped(decimal.NewFromInt(-100)))
	assert.Equal(t, "1,234,567", grouped(decimal.NewFromInt(1234567)))
	assert.Equal(t, "-1,000", grouped(decimal.NewFromInt(-1000)))
}

func TestAutoPeriod(t *testing.T) {
	cases := []struct {
		date     time.Time
		wantYear string
		wantCode string
	}{
		{time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), "2023", model.ReportQ3},
		{time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), "2023", model.ReportAnnual},
		{time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), "2024", model.ReportQ1},
		{time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), "2024", model.ReportHalf},
	}
	for _, c := range cases {
		year, code := AutoPeriod(c.date)
		assert.Equal(t, c.wantYear, year, c.date.String())
		assert.Equal(t, c.wantCode, code, c.date.String())
	}
}

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod("2023", model.ReportAnnual))
	assert.ErrorIs(t, ValidatePeriod("1999", model.ReportAnnual), model.ErrInvalidArgument)
	assert.ErrorIs(t, ValidatePeriod("2031", model.ReportAnnual), model.ErrInvalidArgument)
	assert.ErrorIs(t, ValidatePeriod("abcd", model.ReportAnnual), model.ErrInvalidArgument)
	assert.ErrorIs(t, ValidatePeriod("2023", "99999"), model.ErrInvalidArgument)
}
