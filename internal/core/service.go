package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/navsync/internal/catalog"
	"github.com/JonMunkholm/navsync/internal/extract"
	"github.com/JonMunkholm/navsync/internal/logging"
	"github.com/JonMunkholm/navsync/internal/mailbox"
	"github.com/JonMunkholm/navsync/internal/sheet"
	"github.com/JonMunkholm/navsync/internal/store"
)

// DefaultMaxFileSize is the largest file accepted when none is configured.
const DefaultMaxFileSize = 50 << 20

// IngestTimeout bounds one file's extraction and persistence.
var IngestTimeout = 5 * time.Minute

// Config tunes the service. Zero fields take the defaults.
type Config struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service ties the extraction engine to storage and the mail source.
type Service struct {
	engine      *extract.Engine
	store       Store
	source      mailbox.Source
	limiter     *IngestLimiter
	maxFileSize int64
	syncing     atomic.Bool
	now         func() time.Time
}

// NewService builds a service. source may be nil when mail sync is off.
func NewService(engine *extract.Engine, st Store, source mailbox.Source, cfg Config) *Service {
	if engine == nil {
		engine = extract.New(nil)
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return &Service{
		engine:      engine,
		store:       st,
		source:      source,
		limiter:     NewIngestLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		maxFileSize: cfg.MaxFileSize,
		now:         time.Now,
	}
}

// Catalog returns the engine's field catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// Limiter returns the ingest limiter.
func (s *Service) Limiter() *IngestLimiter {
	return s.limiter
}

// MaxFileSize returns the largest file the service accepts, in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// MailEnabled reports whether a mail source is configured.
func (s *Service) MailEnabled() bool {
	return s.source != nil
}

func (s *Service) checkSize(name string, data []byte) error {
	if len(data) == 0 {
		return &FileError{FileName: name, Err: ErrEmptyFile}
	}
	if int64(len(data)) > s.maxFileSize {
		return &FileError{FileName: name, Err: fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.maxFileSize)}
	}
	return nil
}

// ExtractFile decodes a spreadsheet and runs the engine over every sheet
// concurrently. Results keep workbook order. Nothing is persisted.
func (s *Service) ExtractFile(ctx context.Context, name string, data []byte) ([]SheetResult, error) {
	if err := s.checkSize(name, data); err != nil {
		return nil, err
	}

	sheets, err := sheet.Load(name, data)
	if err != nil {
		return nil, &FileError{FileName: name, Err: err}
	}

	results := make([]SheetResult, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sh := range sheets {
		i, sh := i, sh
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = SheetResult{Sheet: sh.Name, Outcome: s.engine.Run(sh.Grid)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PreviewFile runs ExtractFile inside an ingest slot.
func (s *Service) PreviewFile(ctx context.Context, name string, data []byte) ([]SheetResult, error) {
	var sheets []SheetResult
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, IngestTimeout)
		defer cancel()

		var err error
		sheets, err = s.ExtractFile(ctx, name, data)
		return err
	})
	return sheets, err
}

// IngestFile extracts a file and stores its records and failures in one
// transaction. A file that cannot be decoded is logged as a failure and
// returned as a *FileError.
func (s *Service) IngestFile(ctx context.Context, meta IngestMeta, name string, data []byte) (IngestResult, error) {
	if meta.Source == "" {
		meta.Source = SourceUpload
	}

	runID, ok := runIDFrom(ctx)
	if !ok {
		runID = uuid.New()
		ctx = logging.ContextWithRunID(ctx, runID.String())
	}
	result := IngestResult{RunID: runID.String(), FileName: name}
	logger := logging.WithFields(ctx, "file", name, "source", meta.Source)

	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, IngestTimeout)
		defer cancel()

		sheets, err := s.ExtractFile(ctx, name, data)
		if err != nil {
			var fe *FileError
			if errors.As(err, &fe) {
				result.Failures = []store.Failure{newFailure(runID, meta, name, "", err)}
				if _, serr := s.store.SaveIngest(ctx, nil, result.Failures); serr != nil {
					return fmt.Errorf("log failure: %w", serr)
				}
			}
			return err
		}
		result.Sheets = sheets

		var rows []store.NavRow
		for _, sr := range sheets {
			logger.Debug("sheet extracted",
				"sheet", sr.Sheet,
				"layout", sr.Outcome.Layout.String(),
				"records", len(sr.Outcome.Records),
				"reason", string(sr.Outcome.Reason),
			)
			got, failures := s.rowsForSheet(runID, meta, name, sr)
			rows = append(rows, got...)
			result.Failures = append(result.Failures, failures...)
		}
		result.Records = len(rows)

		res, err := s.store.SaveIngest(ctx, rows, result.Failures)
		if err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		result.Inserted, result.Skipped = res.Inserted, res.Skipped
		return nil
	})
	if err != nil {
		logger.Warn("ingest failed", "error", err, "code", ErrorCode(err))
		return result, err
	}

	logger.Info("file ingested",
		"sheets", len(result.Sheets),
		"records", result.Records,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"failures", len(result.Failures),
	)
	return result, nil
}

// rowsForSheet converts one sheet's records. A sheet with no records yields
// a single layout failure; each unconvertible record yields its own.
func (s *Service) rowsForSheet(runID uuid.UUID, meta IngestMeta, name string, sr SheetResult) ([]store.NavRow, []store.Failure) {
	out := sr.Outcome
	if len(out.Records) == 0 {
		err := fmt.Errorf("unrecognized layout: %s", out.Reason)
		return nil, []store.Failure{newFailure(runID, meta, name, sr.Sheet, err)}
	}

	var (
		rows     []store.NavRow
		failures []store.Failure
	)
	for _, rec := range out.Records {
		row, err := ToNavRow(rec)
		if err != nil {
			failures = append(failures, newFailure(runID, meta, name, sr.Sheet, err))
			continue
		}
		row.Layout = out.Layout.String()
		row.Source = meta.Source
		row.FileName = name
		row.SheetName = sr.Sheet
		row.RunID = runID
		rows = append(rows, row)
	}
	return rows, failures
}

func newFailure(runID uuid.UUID, meta IngestMeta, name, sheetName string, err error) store.Failure {
	return store.Failure{
		RunID:     runID,
		Source:    meta.Source,
		Subject:   meta.Subject,
		Sender:    meta.Sender,
		MailDate:  meta.MailDate,
		FileName:  name,
		SheetName: sheetName,
		Reason:    err.Error(),
		Code:      ErrorCode(err),
	}
}

func runIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(logging.RunID(ctx))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ListNavs returns stored NAV rows.
func (s *Service) ListNavs(ctx context.Context, f store.NavFilter) ([]store.NavRow, error) {
	return s.store.ListNavs(ctx, f)
}

// ListFailures returns the most recent extraction failures.
func (s *Service) ListFailures(ctx context.Context, limit int) ([]store.Failure, error) {
	return s.store.ListFailures(ctx, limit)
}

// NavCodes returns the distinct product codes on file.
func (s *Service) NavCodes(ctx context.Context) ([]string, error) {
	return s.store.NavCodes(ctx)
}

// LastSync returns when the mailbox was last synced.
func (s *Service) LastSync(ctx context.Context) (time.Time, error) {
	return s.store.LastSync(ctx)
}
