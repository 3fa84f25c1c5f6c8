// Package model holds the domain entities shared across the ingestion
// pipeline, the partner registry, and the risk evaluator.
package model

import "time"

// UserType identifies which kind of owner a record belongs to.
type UserType string

const (
	UserTypeHeadquarters UserType = "HEADQUARTERS"
	UserTypePartner      UserType = "PARTNER"
	UserTypeUnknown      UserType = "UNKNOWN"
)

// OwnerKind is the tag of the Owner variant.
type OwnerKind string

const (
	OwnerHeadquarters OwnerKind = "HEADQUARTERS"
	OwnerPartner      OwnerKind = "PARTNER"
)

// Owner is the identity under which partner bookkeeping is scoped:
// either a headquarters id or a partner-user id, never both.
type Owner struct {
	Kind OwnerKind
	ID   int64
}

// UserType maps the owner kind onto the stored user_type column value.
func (o Owner) UserType() UserType {
	if o.Kind == OwnerPartner {
		return UserTypePartner
	}
	return UserTypeHeadquarters
}

// CorpCode is one entry of the bulk corp-code directory published by the
// disclosure system. corp_code is 8 ASCII digits; stock_code is 6 digits
// for listed companies and blank otherwise.
type CorpCode struct {
	CorpCode    string `json:"corp_code" xml:"corp_code"`
	CorpName    string `json:"corp_name" xml:"corp_name"`
	CorpNameEng string `json:"corp_eng_name,omitempty" xml:"corp_eng_name"`
	StockCode   string `json:"stock_code,omitempty" xml:"stock_code"`
	ModifyDate  string `json:"modify_date" xml:"modify_date"` // YYYYMMDD
}

// CompanyProfile is the authoritative per-corporation record. Natural
// identity is CorpCode; the numeric ID exists only for storage and for
// tie-breaking between duplicate rows.
type CompanyProfile struct {
	ID                          int64     `json:"id"`
	CorpCode                    string    `json:"corp_code"`
	CorpName                    string    `json:"corp_name"`
	CorpNameEng                 string    `json:"corp_name_eng,omitempty"`
	StockCode                   string    `json:"stock_code,omitempty"`
	StockName                   string    `json:"stock_name,omitempty"`
	CEOName                     string    `json:"ceo_name,omitempty"`
	CorpClass                   string    `json:"corp_class,omitempty"`
	BusinessNumber              string    `json:"business_number,omitempty"`
	CorporateRegistrationNumber string    `json:"corporate_registration_number,omitempty"`
	Address                     string    `json:"address,omitempty"`
	HomepageURL                 string    `json:"homepage_url,omitempty"`
	IRURL                       string    `json:"ir_url,omitempty"`
	PhoneNumber                 string    `json:"phone_number,omitempty"`
	FaxNumber                   string    `json:"fax_number,omitempty"`
	IndustryCode                string    `json:"industry_code,omitempty"`
	EstablishmentDate           string    `json:"establishment_date,omitempty"` // YYYYMMDD
	AccountingMonth             string    `json:"accounting_month,omitempty"`   // MM
	HeadquartersID              *int64    `json:"headquarters_id,omitempty"`
	PartnerID                   *int64    `json:"partner_id,omitempty"`
	UserType                    UserType  `json:"user_type"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// SetOwner writes the owner variant back into the two-column storage
// shape, clearing the other id.
func (p *CompanyProfile) SetOwner(o Owner) {
	p.UserType = o.UserType()
	if o.Kind == OwnerPartner {
		id := o.ID
		p.PartnerID = &id
		p.HeadquartersID = nil
		return
	}
	id := o.ID
	p.HeadquartersID = &id
	p.PartnerID = nil
}

// completenessFields lists the descriptive fields counted by
// CompletenessScore, in scoring order.
func (p *CompanyProfile) completenessFields() []string {
	return []string{
		p.CorpName,
		p.CEOName,
		p.Address,
		p.PhoneNumber,
		p.BusinessNumber,
		p.IndustryCode,
		p.EstablishmentDate,
		p.AccountingMonth,
		p.CorpNameEng,
		p.StockCode,
		p.HomepageURL,
		p.FaxNumber,
	}
}

// CompletenessScore counts non-empty descriptive fields. It is used to
// pick the canonical profile when duplicate rows exist for one corp code.
func (p *CompanyProfile) CompletenessScore() int {
	score := 0
	for _, f := range p.completenessFields() {
		if f != "" {
			score++
		}
	}
	return score
}

// NeedsDetail reports whether the profile is missing any of the fields
// whose absence triggers a refresh from the disclosure system.
func (p *CompanyProfile) NeedsDetail() bool {
	return p.CEOName == "" || p.Address == "" || p.PhoneNumber == "" ||
		p.BusinessNumber == "" || p.IndustryCode == ""
}

// MergeFrom copies every non-empty descriptive field of src over p,
// leaving ownership fields (headquarters/partner id, user type) intact.
func (p *CompanyProfile) MergeFrom(src *CompanyProfile) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.CorpName, src.CorpName)
	set(&p.CorpNameEng, src.CorpNameEng)
	set(&p.StockCode, src.StockCode)
	set(&p.StockName, src.StockName)
	set(&p.CEOName, src.CEOName)
	set(&p.CorpClass, src.CorpClass)
	set(&p.BusinessNumber, src.BusinessNumber)
	set(&p.CorporateRegistrationNumber, src.CorporateRegistrationNumber)
	set(&p.Address, src.Address)
	set(&p.HomepageURL, src.HomepageURL)
	set(&p.IRURL, src.IRURL)
	set(&p.PhoneNumber, src.PhoneNumber)
	set(&p.FaxNumber, src.FaxNumber)
	set(&p.IndustryCode, src.IndustryCode)
	set(&p.EstablishmentDate, src.EstablishmentDate)
	set(&p.AccountingMonth, src.AccountingMonth)
}
