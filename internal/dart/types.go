package dart

import "github.com/esg-suite/dart-sync/internal/model"

// Wire shapes of the DART open-API JSON responses. Every payload carries
// status/message; "000" means success, anything else is a business error
// ("013" = no data).
const (
	statusOK     = "000"
	statusNoData = "013"
)

type companyProfileResponse struct {
	Status                      string `json:"status"`
	Message                     string `json:"message"`
	CorpCode                    string `json:"corp_code"`
	CorpName                    string `json:"corp_name"`
	CorpNameEng                 string `json:"corp_name_eng"`
	StockName                   string `json:"stock_name"`
	StockCode                   string `json:"stock_code"`
	CEOName                     string `json:"ceo_nm"`
	CorpClass                   string `json:"corp_cls"`
	CorporateRegistrationNumber string `json:"jurir_no"`
	BusinessNumber              string `json:"bizr_no"`
	Address                     string `json:"adres"`
	HomepageURL                 string `json:"hm_url"`
	IRURL                       string `json:"ir_url"`
	PhoneNumber                 string `json:"phn_no"`
	FaxNumber                   string `json:"fax_no"`
	IndustryCode                string `json:"induty_code"`
	EstablishmentDate           string `json:"est_dt"`
	AccountingMonth             string `json:"acc_mt"`
}

func (r *companyProfileResponse) toModel() *model.CompanyProfile {
	return &model.CompanyProfile{
		CorpCode:                    r.CorpCode,
		CorpName:                    r.CorpName,
		CorpNameEng:                 r.CorpNameEng,
		StockName:                   r.StockName,
		StockCode:                   r.StockCode,
		CEOName:                     r.CEOName,
		CorpClass:                   r.CorpClass,
		CorporateRegistrationNumber: r.CorporateRegistrationNumber,
		BusinessNumber:              r.BusinessNumber,
		Address:                     r.Address,
		HomepageURL:                 r.HomepageURL,
		IRURL:                       r.IRURL,
		PhoneNumber:                 r.PhoneNumber,
		FaxNumber:                   r.FaxNumber,
		IndustryCode:                r.IndustryCode,
		EstablishmentDate:           r.EstablishmentDate,
		AccountingMonth:             r.AccountingMonth,
		UserType:                    model.UserTypeUnknown,
	}
}

type disclosureItem struct {
	CorpCode      string `json:"corp_code"`
	CorpName      string `json:"corp_name"`
	StockCode     string `json:"stock_code"`
	CorpClass     string `json:"corp_cls"`
	ReportName    string `json:"report_nm"`
	ReceiptNo     string `json:"rcept_no"`
	SubmitterName string `json:"flr_nm"`
	ReceiptDate   string `json:"rcept_dt"`
	Remark        string `json:"rm"`
}

func (d *disclosureItem) toModel() model.Disclosure {
	return model.Disclosure{
		ReceiptNo:     d.ReceiptNo,
		CorpCode:      d.CorpCode,
		CorpName:      d.CorpName,
		StockCode:     d.StockCode,
		CorpClass:     d.CorpClass,
		ReportName:    d.ReportName,
		SubmitterName: d.SubmitterName,
		ReceiptDate:   d.ReceiptDate,
		Remark:        d.Remark,
	}
}

type disclosureSearchResponse struct {
	Status     string           `json:"status"`
	Message    string           `json:"message"`
	PageNo     int              `json:"page_no"`
	PageCount  int              `json:"page_count"`
	TotalCount int              `json:"total_count"`
	TotalPage  int              `json:"total_page"`
	List       []disclosureItem `json:"list"`
}

type statementItem struct {
	ReceiptNo       string `json:"rcept_no"`
	ReportCode      string `json:"reprt_code"`
	BusinessYear    string `json:"bsns_year"`
	CorpCode        string `json:"corp_code"`
	StatementDiv    string `json:"sj_div"`
	StatementName   string `json:"sj_nm"`
	AccountID       string `json:"account_id"`
	AccountName     string `json:"account_nm"`
	AccountDetail   string `json:"account_detail"`
	ThstrmName      string `json:"thstrm_nm"`
	ThstrmAmount    string `json:"thstrm_amount"`
	ThstrmAddAmount string `json:"thstrm_add_amount"`
	FrmtrmName      string `json:"frmtrm_nm"`
	FrmtrmAmount    string `json:"frmtrm_amount"`
	FrmtrmQName     string `json:"frmtrm_q_nm"`
	FrmtrmQAmount   string `json:"frmtrm_q_amount"`
	FrmtrmAddAmount string `json:"frmtrm_add_amount"`
	BfefrmtrmName   string `json:"bfefrmtrm_nm"`
	BfefrmtrmAmount string `json:"bfefrmtrm_amount"`
	Ord             string `json:"ord"`
	Currency        string `json:"currency"`
}

func (s *statementItem) toModel() model.StatementRow {
	return model.StatementRow{
		CorpCode:        s.CorpCode,
		BusinessYear:    s.BusinessYear,
		ReportCode:      s.ReportCode,
		StatementDiv:    s.StatementDiv,
		StatementName:   s.StatementName,
		AccountID:       s.AccountID,
		AccountName:     s.AccountName,
		AccountDetail:   s.AccountDetail,
		ThstrmName:      s.ThstrmName,
		ThstrmAmount:    s.ThstrmAmount,
		ThstrmAddAmount: s.ThstrmAddAmount,
		FrmtrmName:      s.FrmtrmName,
		FrmtrmAmount:    s.FrmtrmAmount,
		FrmtrmQAmount:   s.FrmtrmQAmount,
		FrmtrmAddAmount: s.FrmtrmAddAmount,
		BfefrmtrmName:   s.BfefrmtrmName,
		BfefrmtrmAmount: s.BfefrmtrmAmount,
		Ord:             s.Ord,
		Currency:        s.Currency,
	}
}

type financialStatementResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	List    []statementItem `json:"list"`
}
