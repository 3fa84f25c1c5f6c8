// Package partner implements owner-scoped bookkeeping of partner company
// registrations: create with duplicate-name and restore policies, update,
// soft delete, and the account-creation flag.
package partner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/bus"
	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/store"
)

// Topics names the bus topics the registry publishes to.
type Topics struct {
	Events   string // partner-company-events, keyed by corp code
	Restored string // partner-company-restored, keyed by partner UUID
}

// Registry manages partner company registrations for one deployment.
type Registry struct {
	store  store.Store
	bus    bus.Publisher
	topics Topics
	log    *zap.Logger
}

func NewRegistry(st store.Store, pub bus.Publisher, topics Topics) *Registry {
	return &Registry{
		store:  st,
		bus:    pub,
		topics: topics,
		log:    zap.L().With(zap.String("component", "partner")),
	}
}

// CreateResult reports the outcome of a registration request. Restored is
// true when an INACTIVE registration with the same name was reactivated
// instead of a new row being created.
type CreateResult struct {
	Partner  *model.PartnerCompany
	Restored bool
}

// Create registers a corp code under the owner scope.
//
// An ACTIVE registration with the same company name (case-insensitive)
// short-circuits and returns the existing record; this is not an error.
// An INACTIVE one is restored in place. Otherwise a fresh registration is
// created with a new UUID.
func (r *Registry) Create(ctx context.Context, owner model.Owner, corpCode string, contractStart time.Time) (*CreateResult, error) {
	if corpCode == "" {
		return nil, eris.Wrap(model.ErrInvalidArgument, "partner: corp code required")
	}

	profile, err := r.ensureProfile(ctx, owner, corpCode)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.FindPartnerByName(ctx, owner, profile.CorpName, model.PartnerActive)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		r.log.Info("registration matched an active partner by name",
			zap.String("partner_id", existing.ID),
			zap.String("corp_code", corpCode))
		return &CreateResult{Partner: existing, Restored: false}, nil
	}

	inactive, err := r.store.FindPartnerByName(ctx, owner, profile.CorpName, model.PartnerInactive)
	if err != nil {
		return nil, err
	}
	if inactive != nil {
		inactive.CorpCode = corpCode
		inactive.CompanyProfileID = profile.ID
		inactive.CompanyName = profile.CorpName
		inactive.SetOwner(owner)
		inactive.ContractStartDate = contractStart
		inactive.Status = model.PartnerActive
		if err := r.store.SavePartner(ctx, inactive); err != nil {
			return nil, err
		}
		r.publishEvent(ctx, model.ActionPartnerRegistered, inactive)
		r.publishRestored(ctx, inactive)
		return &CreateResult{Partner: inactive, Restored: true}, nil
	}

	p := &model.PartnerCompany{
		ID:                uuid.NewString(),
		CorpCode:          corpCode,
		CompanyProfileID:  profile.ID,
		CompanyName:       profile.CorpName,
		ContractStartDate: contractStart,
		Status:            model.PartnerActive,
		AccountCreated:    false,
	}
	p.SetOwner(owner)
	if err := r.store.SavePartner(ctx, p); err != nil {
		return nil, err
	}
	r.publishEvent(ctx, model.ActionPartnerRegistered, p)
	return &CreateResult{Partner: p, Restored: false}, nil
}

// ensureProfile finds the owner's profile for the corp code, synthesizing
// one from the corp-code directory when no profile exists yet.
func (r *Registry) ensureProfile(ctx context.Context, owner model.Owner, corpCode string) (*model.CompanyProfile, error) {
	profile, err := r.store.GetProfileByOwner(ctx, owner, corpCode)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	entry, err := r.store.GetCorpCode(ctx, corpCode)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "partner: corp code %s", corpCode)
	}

	profile = &model.CompanyProfile{
		CorpCode:    corpCode,
		CorpName:    entry.CorpName,
		CorpNameEng: entry.CorpNameEng,
		StockCode:   entry.StockCode,
	}
	profile.SetOwner(owner)
	return r.store.UpsertProfile(ctx, profile)
}

// UpdateRequest carries the mutable registration fields. Nil fields are
// left unchanged.
type UpdateRequest struct {
	CorpCode          *string
	ContractStartDate *time.Time
	Status            *model.PartnerStatus
}

// Update mutates a registration. Changing the corp code requires that a
// profile for the new code already exists in the owner scope.
func (r *Registry) Update(ctx context.Context, owner model.Owner, id string, req UpdateRequest) (*model.PartnerCompany, error) {
	p, err := r.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if req.CorpCode != nil && *req.CorpCode != p.CorpCode {
		profile, err := r.store.GetProfileByOwner(ctx, owner, *req.CorpCode)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, eris.Wrapf(model.ErrNotFound, "partner: no profile for corp code %s", *req.CorpCode)
		}
		p.CorpCode = *req.CorpCode
		p.CompanyProfileID = profile.ID
		p.CompanyName = profile.CorpName
	}
	if req.ContractStartDate != nil {
		p.ContractStartDate = *req.ContractStartDate
	}
	if req.Status != nil {
		p.Status = *req.Status
	}

	if err := r.store.SavePartner(ctx, p); err != nil {
		return nil, err
	}
	r.publishEvent(ctx, model.ActionPartnerUpdated, p)
	return p, nil
}

// Delete marks a registration INACTIVE. The row is kept so a later
// registration with the same name restores it.
func (r *Registry) Delete(ctx context.Context, owner model.Owner, id string) error {
	p, err := r.getOwned(ctx, owner, id)
	if err != nil {
		return err
	}
	if p.Status == model.PartnerInactive {
		return nil
	}
	p.Status = model.PartnerInactive
	return r.store.SavePartner(ctx, p)
}

// Get returns a registration visible to the owner.
func (r *Registry) Get(ctx context.Context, owner model.Owner, id string) (*model.PartnerCompany, error) {
	return r.getOwned(ctx, owner, id)
}

// List returns registrations in the owner scope, defaulting to ACTIVE.
func (r *Registry) List(ctx context.Context, filter store.PartnerFilter) ([]model.PartnerCompany, error) {
	return r.store.ListPartners(ctx, filter)
}

// CheckNameDuplicate reports whether an ACTIVE registration with the name
// exists in the owner scope, optionally excluding one id.
func (r *Registry) CheckNameDuplicate(ctx context.Context, owner model.Owner, name, excludeID string) (bool, error) {
	if name == "" {
		return false, eris.Wrap(model.ErrInvalidArgument, "partner: name required")
	}
	return r.store.ActiveNameExists(ctx, owner, name, excludeID)
}

// SetAccountCreated flips the account-creation flag once a login account
// has been provisioned for the partner.
func (r *Registry) SetAccountCreated(ctx context.Context, owner model.Owner, id string, created bool) error {
	if _, err := r.getOwned(ctx, owner, id); err != nil {
		return err
	}
	return r.store.SetAccountCreated(ctx, id, created)
}

func (r *Registry) getOwned(ctx context.Context, owner model.Owner, id string) (*model.PartnerCompany, error) {
	p, err := r.store.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Owner() != owner {
		return nil, eris.Wrapf(model.ErrNotFound, "partner: %s", id)
	}
	return p, nil
}

// publishEvent emits a partner event keyed by corp code. Publish failures
// are logged, never propagated: registration must not fail because the
// bus is down.
func (r *Registry) publishEvent(ctx context.Context, action string, p *model.PartnerCompany) {
	ev := model.NewPartnerEvent(action, p.CorpCode, p.ID, p.HeadquartersID)
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("marshal partner event", zap.Error(err))
		return
	}
	if err := r.bus.Publish(ctx, bus.Message{
		Topic: r.topics.Events,
		Key:   []byte(p.CorpCode),
		Value: payload,
	}); err != nil {
		r.log.Error("publish partner event",
			zap.String("action", action),
			zap.String("corp_code", p.CorpCode),
			zap.Error(err))
	}
}

// publishRestored emits the full restored record keyed by the partner
// UUID so downstream account provisioning can react.
func (r *Registry) publishRestored(ctx context.Context, p *model.PartnerCompany) {
	payload, err := json.Marshal(p)
	if err != nil {
		r.log.Error("marshal restored partner", zap.Error(err))
		return
	}
	if err := r.bus.Publish(ctx, bus.Message{
		Topic: r.topics.Restored,
		Key:   []byte(p.ID),
		Value: payload,
	}); err != nil {
		r.log.Error("publish restored partner",
			zap.String("partner_id", p.ID),
			zap.Error(err))
	}
}
