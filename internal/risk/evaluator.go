// Package risk evaluates partner companies against a fixed twelve-item
// financial risk rubric computed from persisted statement rows.
package risk

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/store"
)

// Account names as they appear in statement rows. Matching is by exact
// account_nm, not XBRL account id, because the consolidated-filing rows
// carry localized names consistently.
const (
	accRevenue            = "매출액"
	accOperatingIncome    = "영업이익"
	accTradeReceivables   = "매출채권"
	accTradePayables      = "매입채무"
	accOperatingCashflow  = "영업활동으로인한현금흐름"
	accTotalAssets        = "자산총계"
	accTotalLiabilities   = "부채총계"
	accTotalEquity        = "자본총계"
	accPaidInCapital      = "자본금"
	accShortTermBorrowing = "단기차입금"
	accLongTermBorrowing  = "장기차입금"
)

// Period fields an amount can be read from.
const (
	fieldThstrm    = "thstrm_amount"
	fieldFrmtrm    = "frmtrm_amount"
	fieldThstrmAdd = "thstrm_add_amount"
	fieldFrmtrmAdd = "frmtrm_add_amount"
)

// Evaluator computes risk assessments from stored statement rows.
type Evaluator struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewEvaluator(st store.Store) *Evaluator {
	return &Evaluator{
		store: st,
		log:   zap.L().With(zap.String("component", "risk")),
		now:   time.Now,
	}
}

// AssessAuto evaluates the most recent period likely to be filed today.
func (e *Evaluator) AssessAuto(ctx context.Context, corpCode, corpName string) (*model.RiskAssessment, error) {
	year, code := AutoPeriod(e.now())
	return e.Assess(ctx, corpCode, corpName, year, code)
}

// Assess evaluates one (corp_code, business_year, report_code) tuple.
// A tuple with no stored rows yields a single synthetic "no data" item,
// not an error.
func (e *Evaluator) Assess(ctx context.Context, corpCode, corpName, businessYear, reportCode string) (*model.RiskAssessment, error) {
	if err := ValidatePeriod(businessYear, reportCode); err != nil {
		return nil, err
	}

	rows, err := e.store.ListStatementRows(ctx, corpCode, businessYear, reportCode)
	if err != nil {
		return nil, err
	}

	assessment := e.Evaluate(rows, corpCode, corpName, businessYear, reportCode)
	if len(rows) == 0 {
		e.log.Warn("no statement rows for assessment",
			zap.String("corp_code", corpCode),
			zap.String("bsns_year", businessYear),
			zap.String("reprt_code", reportCode))
	}
	return assessment, nil
}

// Evaluate is the pure rubric: identical rows produce identical output.
func (e *Evaluator) Evaluate(rows []model.StatementRow, corpCode, corpName, businessYear, reportCode string) *model.RiskAssessment {
	assessment := &model.RiskAssessment{
		CorpCode:     corpCode,
		CorpName:     corpName,
		BusinessYear: businessYear,
		ReportCode:   reportCode,
		ReportName:   model.ReportName(reportCode),
	}

	if len(rows) == 0 {
		assessment.Items = []model.RiskItem{{
			ItemNumber:  0,
			Description: "재무 정보 조회",
			IsAtRisk:    true,
			ActualValue: "데이터 없음",
			Threshold:   "-",
			Notes:       "요청된 조건의 재무제표 데이터가 내부 DB에 없습니다. 데이터 동기화 중이거나 아직 제공되지 않은 정보일 수 있습니다. 잠시 후 다시 시도해주세요.",
		}}
		assessment.AtRiskCount = 1
		return assessment
	}

	checks := []struct {
		number      int
		description string
		run         func([]model.StatementRow) model.RiskItem
	}{
		{1, "매출액 30% 이상 감소", e.checkRevenueDecrease},
		{2, "영업이익 30% 이상 감소", e.checkOperatingIncomeDecrease},
		{3, "매출채권회전율 3회 이하", e.checkReceivablesTurnover},
		{4, "매출채권 잔액이 매출액의 50% 이상", e.checkReceivablesToSalesRatio},
		{5, "매입채무회전율 2회 이하", e.checkPayablesTurnover},
		{6, "영업손실(적자) 발생", e.checkOperatingLoss},
		{7, "영업활동 현금흐름 적자", e.checkOperatingCashflowDeficit},
		{8, "차입금 30% 이상 증가", e.checkBorrowingsIncrease},
		{9, "차입금이 자산의 50% 이상", e.checkBorrowingsToAssetsRatio},
		{10, "단기차입금이 전체차입금의 90% 이상", e.checkShortTermBorrowingsRatio},
		{11, "부채비율 200% 이상", e.checkDebtToEquityRatio},
		{12, "납입자본금 잠식", e.checkCapitalImpairment},
	}

	items := make([]model.RiskItem, 0, len(checks))
	for _, c := range checks {
		item := c.run(rows)
		item.ItemNumber = c.number
		item.Description = c.description
		if item.IsAtRisk {
			assessment.AtRiskCount++
		}
		items = append(items, item)
	}
	assessment.Items = items
	return assessment
}

// findAmount returns the first parseable amount for the account in the
// given period field. Empty strings and "-" mean the filing omitted the
// value; parse failures are logged and treated the same way.
func (e *Evaluator) findAmount(rows []model.StatementRow, accountName, field string) (decimal.Decimal, bool) {
	for i := range rows {
		r := &rows[i]
		if r.AccountName != accountName {
			continue
		}
		var raw string
		switch field {
		case fieldThstrm:
			raw = r.ThstrmAmount
		case fieldFrmtrm:
			raw = r.FrmtrmAmount
		case fieldThstrmAdd:
			raw = r.ThstrmAddAmount
		case fieldFrmtrmAdd:
			raw = r.FrmtrmAddAmount
		default:
			return decimal.Zero, false
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || raw == "-" {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			e.log.Warn("unparseable statement amount",
				zap.String("account", accountName),
				zap.String("field", field),
				zap.String("raw", raw),
				zap.String("corp_code", r.CorpCode))
			continue
		}
		return d, true
	}
	return decimal.Zero, false
}

var (
	hundred      = decimal.NewFromInt(100)
	threshNeg30  = decimal.NewFromInt(-30)
	threshPos30  = decimal.NewFromInt(30)
	threshTurn3  = decimal.NewFromInt(3)
	threshTurn2  = decimal.NewFromInt(2)
	threshPct50  = decimal.NewFromInt(50)
	threshPct90  = decimal.NewFromInt(90)
	threshPct200 = decimal.NewFromInt(200)
)

// changePercent is (cur − prev) / |prev| × 100 at scale 4, half-up.
func changePercent(cur, prev decimal.Decimal) decimal.Decimal {
	return cur.Sub(prev).DivRound(prev.Abs(), 4).Mul(hundred)
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// grouped renders the value rounded to whole units with thousands
// separators, matching the upstream display format.
func grouped(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func result(threshold string, atRisk bool, actual, notes string) model.RiskItem {
	return model.RiskItem{Threshold: threshold, IsAtRisk: atRisk, ActualValue: actual, Notes: notes}
}

func (e *Evaluator) checkRevenueDecrease(rows []model.StatementRow) model.RiskItem {
	const threshold = "<= -30%"
	cur, curOK := e.findAmount(rows, accRevenue, fieldThstrm)
	prev, prevOK := e.findAmount(rows, accRevenue, fieldFrmtrm)
	if !curOK || !prevOK {
		return result(threshold, false, "데이터 부족", "매출액(당기 또는 전기) 정보 없음")
	}
	if prev.IsZero() {
		return result(threshold, false, "전기 매출액 0", "전기 매출액이 0이므로 증감률 계산 불가")
	}
	change := changePercent(cur, prev)
	return result(threshold, change.LessThanOrEqual(threshNeg30), pct(change), "")
}

func (e *Evaluator) checkOperatingIncomeDecrease(rows []model.StatementRow) model.RiskItem {
	const threshold = "<= -30% (단, 전기 영업이익 > 0)"
	cur, curOK := e.findAmount(rows, accOperatingIncome, fieldThstrm)
	prev, prevOK := e.findAmount(rows, accOperatingIncome, fieldFrmtrm)
	if !curOK || !prevOK {
		return result(threshold, false, "데이터 부족", "영업이익(당기 또는 전기) 정보 없음")
	}
	if prev.Sign() <= 0 {
		return result(threshold, false, "전기 영업이익: "+grouped(prev), "전기 영업이익이 0 이하이므로 증감률 비교 무의미")
	}
	change := changePercent(cur, prev)
	return result(threshold, change.LessThanOrEqual(threshNeg30), pct(change), "")
}

func (e *Evaluator) checkReceivablesTurnover(rows []model.StatementRow) model.RiskItem {
	const threshold = "<= 3회"
	revenue, revOK := e.findAmount(rows, accRevenue, fieldThstrm)
	receivables, recvOK := e.findAmount(rows, accTradeReceivables, fieldThstrm)
	if !revOK || !recvOK {
		return result(threshold, false, "데이터 부족", "매출액 또는 매출채권 정보 없음")
	}
	if receivables.IsZero() {
		return result(threshold, false, "매출채권 0", "매출채권이 0이므로 회전율 계산 불가 (또는 무한대)")
	}
	turnover := revenue.DivRound(receivables, 2)
	return result(threshold, turnover.LessThanOrEqual(threshTurn3), turnover.StringFixed(2)+"회", "")
}

func (e *Evaluator) checkReceivablesToSalesRatio(rows []model.StatementRow) model.RiskItem {
	const threshold = ">= 50%"
	revenue, revOK := e.findAmount(rows, accRevenue, fieldThstrm)
	receivables, recvOK := e.findAmount(rows, accTradeReceivables, fieldThstrm)
	if !revOK || !recvOK {
		return result(threshold, false, "데이터 부족", "매출액 또는 매출채권 정보 없음")
	}
	if revenue.IsZero() {
		return result(threshold, receivables.Sign() > 0, "매출액 0", "매출액이 0, 매출채권 존재시 100% 이상으로 간주")
	}
	ratio := receivables.DivRound(revenue, 4).Mul(hundred)
	return result(threshold, ratio.GreaterThanOrEqual(threshPct50), pct(ratio), "")
}

func (e *Evaluator) checkPayablesTurnover(rows []model.StatementRow) model.RiskItem {
	const threshold = "<= 2회"
	// Cost of sales is not reliably present, so revenue stands in.
	revenue, revOK := e.findAmount(rows, accRevenue, fieldThstrm)
	payables, payOK := e.findAmount(rows, accTradePayables, fieldThstrm)
	if !revOK || !payOK {
		return result(threshold, false, "데이터 부족", "매출액(또는 매출원가) 또는 매입채무 정보 없음")
	}
	if payables.IsZero() {
		return result(threshold, false, "매입채무 0", "매입채무가 0이므로 회전율 계산 불가 (또는 무한대)")
	}
	turnover := revenue.DivRound(payables, 2)
	return result(threshold, turnover.LessThanOrEqual(threshTurn2),
		turnover.StringFixed(2)+"회 (매출액 기준)", "매출원가 대신 매출액 사용으로 정확도 낮음")
}

func (e *Evaluator) checkOperatingLoss(rows []model.StatementRow) model.RiskItem {
	const threshold = "< 0"
	income, ok := e.findAmount(rows, accOperatingIncome, fieldThstrm)
	if !ok {
		return result(threshold, false, "데이터 부족", "영업이익 정보 없음")
	}
	return result(threshold, income.Sign() < 0, grouped(income), "")
}

func (e *Evaluator) checkOperatingCashflowDeficit(rows []model.StatementRow) model.RiskItem {
	const threshold = "< 0"
	cashflow, ok := e.findAmount(rows, accOperatingCashflow, fieldThstrm)
	if !ok {
		return result(threshold, false, "데이터 부족", "영업활동 현금흐름 정보 없음")
	}
	return result(threshold, cashflow.Sign() < 0, grouped(cashflow), "")
}

// borrowings sums short- and long-term borrowings, treating absent
// accounts as zero.
func (e *Evaluator) borrowings(rows []model.StatementRow, field string) decimal.Decimal {
	total := decimal.Zero
	if short, ok := e.findAmount(rows, accShortTermBorrowing, field); ok {
		total = total.Add(short)
	}
	if long, ok := e.findAmount(rows, accLongTermBorrowing, field); ok {
		total = total.Add(long)
	}
	return total
}

func (e *Evaluator) checkBorrowingsIncrease(rows []model.StatementRow) model.RiskItem {
	const threshold = ">= 30%"
	cur := e.borrowings(rows, fieldThstrm)
	prev := e.borrowings(rows, fieldFrmtrm)
	if cur.Sign() < 0 || prev.Sign() < 0 {
		return result(threshold, false, "데이터 부족", "차입금(당기 또는 전기) 정보 부족")
	}
	if prev.IsZero() {
		return result(threshold, cur.Sign() > 0, "당기: "+grouped(cur), "전기 총차입금 0")
	}
	change := changePercent(cur, prev)
	return result(threshold, change.GreaterThanOrEqual(threshPos30), pct(change), "")
}

func (e *Evaluator) checkBorrowingsToAssetsRatio(rows []model.StatementRow) model.RiskItem {
	const threshold = ">= 50%"
	borrowings := e.borrowings(rows, fieldThstrm)
	assets, ok := e.findAmount(rows, accTotalAssets, fieldThstrm)
	if borrowings.Sign() < 0 || !ok {
		return result(threshold, false, "데이터 부족", "총차입금 또는 자산총계 정보 없음")
	}
	if assets.IsZero() {
		return result(threshold, borrowings.Sign() > 0, "자산총계 0", "자산총계가 0, 차입금 존재시 100% 이상으로 간주")
	}
	ratio := borrowings.DivRound(assets, 4).Mul(hundred)
	return result(threshold, ratio.GreaterThanOrEqual(threshPct50), pct(ratio), "")
}

func (e *Evaluator) checkShortTermBorrowingsRatio(rows []model.StatementRow) model.RiskItem {
	const threshold = ">= 90%"
	short, shortOK := e.findAmount(rows, accShortTermBorrowing, fieldThstrm)
	total := e.borrowings(rows, fieldThstrm)
	switch {
	case shortOK && total.Sign() > 0:
		ratio := short.DivRound(total, 4).Mul(hundred)
		return result(threshold, ratio.GreaterThanOrEqual(threshPct90), pct(ratio), "")
	case shortOK && total.IsZero():
		return result(threshold, false, "총차입금 0", "단기차입금 존재하나 총차입금 0")
	default:
		return result(threshold, false, "데이터 부족", "단기차입금 또는 총차입금 정보 없음")
	}
}

func (e *Evaluator) checkDebtToEquityRatio(rows []model.StatementRow) model.RiskItem {
	const threshold = ">= 200%"
	liabilities, liaOK := e.findAmount(rows, accTotalLiabilities, fieldThstrm)
	equity, eqOK := e.findAmount(rows, accTotalEquity, fieldThstrm)
	if !liaOK || !eqOK {
		return result(threshold, false, "데이터 부족", "부채총계 또는 자본총계 정보 없음")
	}
	if equity.IsZero() {
		return result(threshold, liabilities.Sign() > 0, "자본총계 0", "자본총계 0, 부채 존재 시 무한대로 간주")
	}
	if equity.Sign() < 0 {
		return result(threshold, true, "자본잠식 "+grouped(equity), "자본총계가 음수(자본잠식)")
	}
	ratio := liabilities.DivRound(equity, 4).Mul(hundred)
	return result(threshold, ratio.GreaterThanOrEqual(threshPct200), pct(ratio), "")
}

func (e *Evaluator) checkCapitalImpairment(rows []model.StatementRow) model.RiskItem {
	const threshold = "자본총계 < 자본금"
	equity, eqOK := e.findAmount(rows, accTotalEquity, fieldThstrm)
	capital, capOK := e.findAmount(rows, accPaidInCapital, fieldThstrm)
	if !eqOK || !capOK {
		return result(threshold, false, "데이터 부족", "자본총계 또는 자본금 정보 없음")
	}
	return result(threshold, equity.LessThan(capital),
		"자본총계: "+grouped(equity)+", 자본금: "+grouped(capital), "")
}
