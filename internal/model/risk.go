package model

// RiskItem is one indicator of the twelve-item assessment rubric.
// ActualValue and Threshold are display strings; all arithmetic happens
// before formatting.
type RiskItem struct {
	ItemNumber  int    `json:"item_number"`
	Description string `json:"description"`
	IsAtRisk    bool   `json:"is_at_risk"`
	ActualValue string `json:"actual_value"`
	Threshold   string `json:"threshold"`
	Notes       string `json:"notes,omitempty"`
}

// RiskAssessment is the full evaluation result for one
// (corp_code, business_year, report_code) tuple.
type RiskAssessment struct {
	CorpCode     string     `json:"corp_code"`
	CorpName     string     `json:"corp_name,omitempty"`
	BusinessYear string     `json:"bsns_year"`
	ReportCode   string     `json:"reprt_code"`
	ReportName   string     `json:"report_name"`
	AtRiskCount  int        `json:"at_risk_count"`
	Items        []RiskItem `json:"items"`
}

// AvailablePeriod is one reporting period a company has statement rows
// for, annotated for display.
type AvailablePeriod struct {
	BusinessYear   string `json:"bsns_year"`
	ReportCode     string `json:"reprt_code"`
	ReportName     string `json:"report_name"`
	PeriodLabel    string `json:"period_label"`
	RowCount       int64  `json:"row_count"`
	IsAutoSelected bool   `json:"is_auto_selected"`
}
