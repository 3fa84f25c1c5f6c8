package model

import "time"

// PartnerStatus is the lifecycle state of a partner registration.
// Deletion is soft: rows flip to INACTIVE and can be restored.
type PartnerStatus string

const (
	PartnerActive   PartnerStatus = "ACTIVE"
	PartnerInactive PartnerStatus = "INACTIVE"
)

// PartnerCompany links an owner (headquarters or partner user) to a
// CompanyProfile. Within one owner scope at most one ACTIVE row may
// carry a given company name (case-insensitive).
type PartnerCompany struct {
	ID                string        `json:"id"` // UUID
	CorpCode          string        `json:"corp_code"`
	CompanyProfileID  int64         `json:"company_profile_id,omitempty"`
	CompanyName       string        `json:"company_name"`
	HeadquartersID    *int64        `json:"headquarters_id,omitempty"`
	PartnerID         *int64        `json:"partner_id,omitempty"`
	UserType          UserType      `json:"user_type"`
	ContractStartDate time.Time     `json:"contract_start_date"`
	Status            PartnerStatus `json:"status"`
	AccountCreated    bool          `json:"account_created"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Owner reconstructs the tagged owner variant from the stored columns.
func (p *PartnerCompany) Owner() Owner {
	if p.UserType == UserTypePartner && p.PartnerID != nil {
		return Owner{Kind: OwnerPartner, ID: *p.PartnerID}
	}
	if p.HeadquartersID != nil {
		return Owner{Kind: OwnerHeadquarters, ID: *p.HeadquartersID}
	}
	return Owner{}
}

// SetOwner writes the owner variant back into the two-column storage
// shape, clearing the other id.
func (p *PartnerCompany) SetOwner(o Owner) {
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
