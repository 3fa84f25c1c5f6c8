package model

import "time"

// Report codes published by the disclosure system.
const (
	ReportAnnual = "11011"
	ReportHalf   = "11012"
	ReportQ1     = "11013"
	ReportQ3     = "11014"
)

// ValidReportCode reports whether code is one of the four known periods.
func ValidReportCode(code string) bool {
	switch code {
	case ReportAnnual, ReportHalf, ReportQ1, ReportQ3:
		return true
	}
	return false
}

// ReportName returns the Korean filing name for a report code.
func ReportName(code string) string {
	switch code {
	case ReportAnnual:
		return "사업보고서"
	case ReportHalf:
		return "반기보고서"
	case ReportQ1:
		return "1분기보고서"
	case ReportQ3:
		return "3분기보고서"
	}
	return "알 수 없음"
}

// PeriodLabel returns a human-readable Korean period description, e.g.
// "2024년 연간" for the 2024 annual report.
func PeriodLabel(year, code string) string {
	switch code {
	case ReportAnnual:
		return year + "년 연간"
	case ReportHalf:
		return year + "년 상반기"
	case ReportQ1:
		return year + "년 1분기"
	case ReportQ3:
		return year + "년 3분기"
	}
	return year + "년"
}

// Financial statement divisions: separate vs consolidated.
const (
	DivisionOFS = "OFS"
	DivisionCFS = "CFS"
)

// StatementRow is one line of a filed financial statement. Amounts stay
// as the exact signed, comma-formatted strings the source returns; "-"
// and "" denote absent values. The logical key is
// (corp_code, business_year, report_code, sj_div, account_id).
type StatementRow struct {
	ID               int64     `json:"id,omitempty"`
	CorpCode         string    `json:"corp_code"`
	BusinessYear     string    `json:"bsns_year"`
	ReportCode       string    `json:"reprt_code"`
	StatementDiv     string    `json:"sj_div"`
	StatementName    string    `json:"sj_nm,omitempty"`
	AccountID        string    `json:"account_id"`
	AccountName      string    `json:"account_nm"`
	AccountDetail    string    `json:"account_detail,omitempty"`
	ThstrmName       string    `json:"thstrm_nm,omitempty"`
	ThstrmAmount     string    `json:"thstrm_amount,omitempty"`
	ThstrmAddAmount  string    `json:"thstrm_add_amount,omitempty"`
	FrmtrmName       string    `json:"frmtrm_nm,omitempty"`
	FrmtrmAmount     string    `json:"frmtrm_amount,omitempty"`
	FrmtrmQAmount    string    `json:"frmtrm_q_amount,omitempty"`
	FrmtrmAddAmount  string    `json:"frmtrm_add_amount,omitempty"`
	BfefrmtrmName    string    `json:"bfefrmtrm_nm,omitempty"`
	BfefrmtrmAmount  string    `json:"bfefrmtrm_amount,omitempty"`
	Ord              string    `json:"ord,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Key returns the duplicate-detection key within one
// (corp_code, year, report_code) tuple.
func (r *StatementRow) Key() StatementKey {
	return StatementKey{AccountID: r.AccountID, StatementDiv: r.StatementDiv}
}

// StatementKey identifies a row within a statement tuple.
type StatementKey struct {
	AccountID    string
	StatementDiv string
}

// StatementPeriod is one distinct (year, report_code) tuple a company
// has rows for, with the stored row count.
type StatementPeriod struct {
	BusinessYear string `json:"bsns_year"`
	ReportCode   string `json:"reprt_code"`
	RowCount     int64  `json:"row_count"`
}
