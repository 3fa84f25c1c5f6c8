package model

import "time"

// Disclosure is one filing submission. ReceiptNo is globally unique and
// the only key; inserts are idempotent on it.
type Disclosure struct {
	ReceiptNo        string    `json:"rcept_no"`
	CorpCode         string    `json:"corp_code"`
	CompanyProfileID int64     `json:"company_profile_id,omitempty"`
	CorpName         string    `json:"corp_name"`
	StockCode        string    `json:"stock_code,omitempty"`
	CorpClass        string    `json:"corp_cls,omitempty"`
	ReportName       string    `json:"report_nm"`
	SubmitterName    string    `json:"flr_nm,omitempty"`
	ReceiptDate      string    `json:"rcept_dt"` // YYYYMMDD
	Remark           string    `json:"rm,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}
