// Package ingest consumes partner events and pulls the referenced
// company's profile, disclosures, and financial statements into durable
// storage with idempotent writes.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/bus"
	"github.com/esg-suite/dart-sync/internal/dart"
	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/store"
)

// statementDivision selects the separate (non-consolidated) statements.
const statementDivision = model.DivisionOFS

// Coordinator orchestrates one sync per inbound partner event.
type Coordinator struct {
	client  dart.Client
	store   store.Store
	syncLog SyncLogger
	log     *zap.Logger
	now     func() time.Time
}

func NewCoordinator(client dart.Client, st store.Store, syncLog SyncLogger) *Coordinator {
	if syncLog == nil {
		syncLog = NewZapSyncLogger()
	}
	return &Coordinator{
		client:  client,
		store:   st,
		syncLog: syncLog,
		log:     zap.L().With(zap.String("component", "ingest")),
		now:     time.Now,
	}
}

// HandleMessage adapts the coordinator to the bus handler contract. All
// processing errors are logged and swallowed: the event is acknowledged
// either way, and replays rely on bus redelivery.
func (c *Coordinator) HandleMessage(ctx context.Context, msg bus.Message) error {
	var event model.PartnerEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Error("undecodable partner event", zap.ByteString("payload", msg.Value), zap.Error(err))
		return nil
	}
	if err := c.Handle(ctx, event); err != nil {
		c.log.Error("partner event processing failed",
			zap.String("corp_code", event.CorpCode),
			zap.String("action", event.Action),
			zap.Error(err))
	}
	return nil
}

// Handle processes one partner event. The profile step is mandatory:
// when it fails, the disclosure and statement refreshes are skipped.
// Those two are best-effort and independent of each other.
func (c *Coordinator) Handle(ctx context.Context, event model.PartnerEvent) error {
	if event.CorpCode == "" {
		c.log.Warn("partner event without corp code", zap.String("action", event.Action))
		return nil
	}

	c.log.Info("processing partner event",
		zap.String("corp_code", event.CorpCode),
		zap.String("action", event.Action))

	profile, err := c.reconcileProfile(ctx, event.CorpCode)
	if err != nil {
		return err
	}

	c.refreshDisclosures(ctx, event.CorpCode, profile)
	c.refreshStatements(ctx, event.CorpCode)
	return nil
}

// reconcileProfile establishes the canonical profile for a corp code:
// dedup by completeness score, enrich when detail fields are missing,
// create from the remote profile or the corp-code directory when no row
// exists yet.
func (c *Coordinator) reconcileProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error) {
	started := c.now()

	profiles, err := c.store.ListProfilesByCorpCode(ctx, corpCode)
	if err != nil {
		c.syncLog.Record(SyncRecord{CorpCode: corpCode, Operation: OpProfile, Status: "error", Err: err, StartedAt: started, FinishedAt: c.now()})
		return nil, err
	}

	var profile *model.CompanyProfile
	switch len(profiles) {
	case 0:
		profile, err = c.createProfile(ctx, corpCode)
		if err != nil {
			c.syncLog.Record(SyncRecord{CorpCode: corpCode, Operation: OpProfile, Status: "error", Err: err, StartedAt: started, FinishedAt: c.now()})
			return nil, err
		}
	case 1:
		profile = &profiles[0]
		if profile.NeedsDetail() {
			c.enrichProfile(ctx, profile)
		}
	default:
		profile = c.consolidate(profiles, corpCode)
		if profile.NeedsDetail() {
			c.enrichProfile(ctx, profile)
		}
	}

	c.syncLog.Record(SyncRecord{CorpCode: corpCode, Operation: OpProfile, Status: "ok", RowsWritten: 1, StartedAt: started, FinishedAt: c.now()})
	return profile, nil
}

// consolidate picks the most complete profile among duplicates. Rows are
// never deleted; the losers are logged and left unreferenced.
func (c *Coordinator) consolidate(profiles []model.CompanyProfile, corpCode string) *model.CompanyProfile {
	best := &profiles[0]
	bestScore := best.CompletenessScore()
	for i := 1; i < len(profiles); i++ {
		p := &profiles[i]
		if score := p.CompletenessScore(); score > bestScore || (score == bestScore && p.ID < best.ID) {
			best, bestScore = p, score
		}
	}

	for i := range profiles {
		if profiles[i].ID != best.ID {
			c.log.Info("ignoring duplicate profile",
				zap.String("corp_code", corpCode),
				zap.Int64("profile_id", profiles[i].ID),
				zap.Int("score", profiles[i].CompletenessScore()),
				zap.Int64("canonical_id", best.ID))
		}
	}
	return best
}

// enrichProfile merges remote detail fields over the existing row. A
// remote miss leaves the row untouched; enrichment never fails the sync.
func (c *Coordinator) enrichProfile(ctx context.Context, profile *model.CompanyProfile) {
	fetched, err := c.client.GetCompanyProfile(ctx, profile.CorpCode)
	if err != nil || fetched == nil {
		if err != nil {
			c.log.Warn("profile enrichment fetch failed", zap.String("corp_code", profile.CorpCode), zap.Error(err))
		}
		return
	}
	profile.MergeFrom(fetched)
	if _, err := c.store.UpsertProfile(ctx, profile); err != nil {
		c.log.Warn("profile enrichment save failed", zap.String("corp_code", profile.CorpCode), zap.Error(err))
	}
}

// createProfile builds the first row for a corp code: from the remote
// profile when available, otherwise a minimal unowned row named from the
// corp-code directory.
func (c *Coordinator) createProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error) {
	fetched, err := c.client.GetCompanyProfile(ctx, corpCode)
	if err != nil {
		return nil, err
	}
	if fetched != nil {
		fetched.UserType = model.UserTypeUnknown
		return c.store.UpsertProfile(ctx, fetched)
	}

	corpName := "정보 없음"
	if entry, err := c.store.GetCorpCode(ctx, corpCode); err == nil && entry != nil {
		corpName = entry.CorpName
	} else if err != nil {
		c.log.Warn("corp code directory lookup failed", zap.String("corp_code", corpCode), zap.Error(err))
	}

	minimal := &model.CompanyProfile{
		CorpCode: corpCode,
		CorpName: corpName,
		UserType: model.UserTypeUnknown,
	}
	return c.store.UpsertProfile(ctx, minimal)
}

// refreshDisclosures pulls the last year of filings and inserts the ones
// not seen before, linked to the canonical profile.
func (c *Coordinator) refreshDisclosures(ctx context.Context, corpCode string, profile *model.CompanyProfile) {
	started := c.now()
	end := started
	begin := end.AddDate(-1, 0, 0)

	items, err := c.client.SearchDisclosures(ctx, corpCode, begin, end)
	if err != nil {
		c.log.Warn("disclosure search failed", zap.String("corp_code", corpCode), zap.Error(err))
		c.syncLog.Record(SyncRecord{CorpCode: corpCode, Operation: OpDisclosures, Status: "error", Err: err, StartedAt: started, FinishedAt: c.now()})
		return
	}

	var inserted int64
	for _, d := range items {
		d.CompanyProfileID = profile.ID
		ok, err := c.store.InsertDisclosure(ctx, d)
		if err != nil {
			c.log.Warn("disclosure insert failed",
				zap.String("receipt_no", d.ReceiptNo),
				zap.String("corp_code", corpCode),
				zap.Error(err))
			continue
		}
		if ok {
			inserted++
		}
	}

	c.log.Info("disclosures refreshed",
		zap.String("corp_code", corpCode),
		zap.Int("fetched", len(items)),
		zap.Int64("inserted", inserted))
	c.syncLog.Record(SyncRecord{CorpCode: corpCode, Operation: OpDisclosures, Status: "ok", RowsWritten: inserted, StartedAt: started, FinishedAt: c.now()})
}

// statementTuples lists the (year, report code) pairs refreshed per
// event, most authoritative first.
func (c *Coordinator) statementTuples() [][2]string {
	today := c.now()
	thisYear := today.Format("2006")
	lastYear := today.AddDate(-1, 0, 0).Format("2006")
	return [][2]string{
		{lastYear, model.ReportAnnual},
		{thisYear, model.ReportQ3},
		{thisYear, model.ReportHalf},
		{thisYear, model.ReportQ1},
	}
}

// refreshStatements fetches each recent reporting period and inserts
// rows whose (account_id, sj_div) key is new for the tuple. Existing
// rows are never deleted.
func (c *Coordinator) refreshStatements(ctx context.Context, corpCode string) {
	started := c.now()
	var inserted int64
	var failed bool

	for _, tuple := range c.statementTuples() {
		year, code := tuple[0], tuple[1]
		n, err := c.refreshStatementTuple(ctx, corpCode, year, code)
		if err != nil {
			failed = true
			c.log.Warn("statement refresh failed",
				zap.String("corp_code", corpCode),
				zap.String("bsns_year", year),
				zap.String("reprt_code", code),
				zap.Error(err))
			continue
		}
		inserted += n
	}

	status := "ok"
	if failed {
		status = "error"
	}
	c.syncLog.Record(SyncRecord{CorpCode: corpCode, Operation: OpStatements, Status: status, RowsWritten: inserted, StartedAt: started, FinishedAt: c.now()})
}

func (c *Coordinator) refreshStatementTuple(ctx context.Context, corpCode, year, code string) (int64, error) {
	fetched, err := c.client.GetFinancialStatement(ctx, corpCode, year, code, statementDivision)
	if err != nil {
		return 0, err
	}
	if len(fetched) == 0 {
		return 0, nil
	}

	existing, err := c.store.ListStatementRows(ctx, corpCode, year, code)
	if err != nil {
		return 0, err
	}
	seen := make(map[model.StatementKey]bool, len(existing))
	for i := range existing {
		seen[existing[i].Key()] = true
	}

	fresh := fetched[:0]
	for i := range fetched {
		if key := fetched[i].Key(); !seen[key] {
			seen[key] = true
			fresh = append(fresh, fetched[i])
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	return c.store.BulkInsertStatementRows(ctx, fresh)
}
