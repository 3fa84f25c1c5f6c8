package ingest

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/dart"
	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/store"
)

// directoryBatchSize bounds one upsert transaction during a directory sync.
const directoryBatchSize = 1000

// DirectorySync refreshes the corp-code directory from the full ZIP dump.
type DirectorySync struct {
	client  dart.Client
	store   store.Store
	syncLog SyncLogger
	log     *zap.Logger
}

func NewDirectorySync(client dart.Client, st store.Store, syncLog SyncLogger) *DirectorySync {
	if syncLog == nil {
		syncLog = NewZapSyncLogger()
	}
	return &DirectorySync{
		client:  client,
		store:   st,
		syncLog: syncLog,
		log:     zap.L().With(zap.String("component", "dirsync")),
	}
}

// Run downloads the archive and upserts every entry.
func (s *DirectorySync) Run(ctx context.Context) (int64, error) {
	rc, err := s.client.FetchCorpCodeArchive(ctx)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return s.load(ctx, rc)
}

// RunFromFile loads a previously downloaded archive, for offline refreshes.
func (s *DirectorySync) RunFromFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open corp code archive %s", path)
	}
	defer f.Close()
	return s.load(ctx, f)
}

func (s *DirectorySync) load(ctx context.Context, r io.Reader) (int64, error) {
	started := time.Now()

	// Cancel the parser on early return so it never stays blocked sending
	// entries after a failed flush.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries, errCh := dart.ParseCorpCodeArchive(ctx, r)

	var written int64
	batch := make([]model.CorpCode, 0, directoryBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.store.BulkUpsertCorpCodes(ctx, batch)
		if err != nil {
			return err
		}
		written += n
		batch = batch[:0]
		return nil
	}

	for entry := range entries {
		batch = append(batch, entry)
		if len(batch) == directoryBatchSize {
			if err := flush(); err != nil {
				s.record(started, written, err)
				return written, err
			}
		}
	}
	if err := <-errCh; err != nil {
		s.record(started, written, err)
		return written, err
	}
	if err := flush(); err != nil {
		s.record(started, written, err)
		return written, err
	}

	s.log.Info("corp code directory refreshed", zap.Int64("entries", written))
	s.record(started, written, nil)
	return written, nil
}

func (s *DirectorySync) record(started time.Time, written int64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.syncLog.Record(SyncRecord{
		Operation:   OpDirectory,
		Status:      status,
		RowsWritten: written,
		Err:         err,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	})
}
