package model

import "time"

// Partner event actions carried on the partner-company-events topic.
const (
	ActionPartnerRegistered = "partner_company_registered"
	ActionPartnerUpdated    = "partner_company_updated"
	ActionPartnerRestored   = "partner_company_restored"
)

// PartnerEvent is the message published when a partner registration is
// created, updated, or restored. The producer keys messages by CorpCode
// so that events for one corporation stay ordered.
type PartnerEvent struct {
	CorpCode         string `json:"corp_code,omitempty"`
	Action           string `json:"action"`
	PartnerCompanyID string `json:"partner_company_id,omitempty"`
	HeadquartersID   *int64 `json:"headquarters_id,omitempty"`
	Timestamp        string `json:"timestamp"` // ISO-8601
}

// NewPartnerEvent stamps an event with the current UTC time.
func NewPartnerEvent(action, corpCode, partnerID string, headquartersID *int64) PartnerEvent {
	return PartnerEvent{
		CorpCode:         corpCode,
		Action:           action,
		PartnerCompanyID: partnerID,
		HeadquartersID:   headquartersID,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
}
