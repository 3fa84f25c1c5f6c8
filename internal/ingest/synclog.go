package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/db"
)

// Sync log operations.
const (
	OpProfile     = "profile"
	OpDisclosures = "disclosures"
	OpStatements  = "statements"
	OpDirectory   = "directory"
)

// SyncRecord is one bookkeeping entry for a sync sub-step.
type SyncRecord struct {
	CorpCode    string
	Operation   string
	Status      string // ok | error
	RowsWritten int64
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// SyncLogger records sync outcomes. The store-backed implementation
// writes to the sync_log table; logging failures must never affect the
// sync itself.
type SyncLogger interface {
	Record(rec SyncRecord)
}

// zapSyncLogger is the fallback when no durable sync log is configured.
type zapSyncLogger struct {
	log *zap.Logger
}

// NewZapSyncLogger records sync outcomes to the process log only.
func NewZapSyncLogger() SyncLogger {
	return &zapSyncLogger{log: zap.L().With(zap.String("component", "synclog"))}
}

func (z *zapSyncLogger) Record(rec SyncRecord) {
	fields := []zap.Field{
		zap.String("corp_code", rec.CorpCode),
		zap.String("operation", rec.Operation),
		zap.String("status", rec.Status),
		zap.Int64("rows_written", rec.RowsWritten),
		zap.Duration("took", rec.FinishedAt.Sub(rec.StartedAt)),
	}
	if rec.Err != nil {
		fields = append(fields, zap.Error(rec.Err))
		z.log.Warn("sync step failed", fields...)
		return
	}
	z.log.Info("sync step done", fields...)
}

// dbSyncLogger appends to the sync_log table so operators can inspect
// ingestion history per corp code.
type dbSyncLogger struct {
	pool db.Pool
	log  *zap.Logger
}

// NewDBSyncLogger records sync outcomes durably.
func NewDBSyncLogger(pool db.Pool) SyncLogger {
	return &dbSyncLogger{pool: pool, log: zap.L().With(zap.String("component", "synclog"))}
}

func (d *dbSyncLogger) Record(rec SyncRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errText any
	if rec.Err != nil {
		errText = rec.Err.Error()
	}
	_, err := d.pool.Exec(ctx,
		`INSERT INTO sync_log (corp_code, operation, status, rows_written, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.CorpCode, rec.Operation, rec.Status, rec.RowsWritten, errText, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		d.log.Warn("sync log write failed",
			zap.String("corp_code", rec.CorpCode),
			zap.String("operation", rec.Operation),
			zap.Error(err))
	}
}
