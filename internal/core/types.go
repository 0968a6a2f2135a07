package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/navsync/internal/extract"
	"github.com/JonMunkholm/navsync/internal/store"
)

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	SaveIngest(ctx context.Context, rows []store.NavRow, failures []store.Failure) (store.InsertResult, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key, subject string, records, failures int) error
	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, t time.Time) error
	ListNavs(ctx context.Context, f store.NavFilter) ([]store.NavRow, error)
	ListFailures(ctx context.Context, limit int) ([]store.Failure, error)
	NavCodes(ctx context.Context) ([]string, error)
}

// Where a file came from.
const (
	SourceUpload = "upload"
	SourceMail   = "mail"
)

var (
	// ErrEmptyFile is returned for zero-length files.
	ErrEmptyFile = errors.New("empty file")
	// ErrFileTooLarge is returned for files over the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoMailSource is returned by SyncMailbox when mail is disabled.
	ErrNoMailSource = errors.New("mail source not configured")
	// ErrSyncRunning is returned when a sync is requested during another.
	ErrSyncRunning = errors.New("sync already running")
)

// FileError marks a problem with one file's content, as opposed to the
// service itself. A mailbox sync records it and moves on.
type FileError struct {
	FileName string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.FileName, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IngestMeta describes the origin of a file.
type IngestMeta struct {
	Source   string
	Subject  string
	Sender   string
	MailDate time.Time
}

// SheetResult is the engine outcome for one worksheet.
type SheetResult struct {
	Sheet   string          `json:"sheet"`
	Outcome extract.Outcome `json:"outcome"`
}

// IngestResult summarizes one persisted file.
type IngestResult struct {
	RunID    string          `json:"runId"`
	FileName string          `json:"fileName"`
	Sheets   []SheetResult   `json:"sheets"`
	Records  int             `json:"records"`
	Inserted int             `json:"inserted"`
	Skipped  int             `json:"skipped"`
	Failures []store.Failure `json:"failures,omitempty"`
}

// MessageResult summarizes one ingested mail message.
type MessageResult struct {
	Key      string         `json:"key"`
	Subject  string         `json:"subject"`
	Files    []IngestResult `json:"files"`
	Records  int            `json:"records"`
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Failures int            `json:"failures"`
}

// SyncSummary summarizes one mailbox sync.
type SyncSummary struct {
	RunID       string    `json:"runId"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Messages    int       `json:"messages"`
	Processed   int       `json:"processed"`
	AlreadySeen int       `json:"alreadySeen"`
	Files       int       `json:"files"`
	Records     int       `json:"records"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	Failures    int       `json:"failures"`
	SourceError string    `json:"sourceError,omitempty"`
}
