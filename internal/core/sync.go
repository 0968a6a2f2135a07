package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/navsync/internal/logging"
	"github.com/JonMunkholm/navsync/internal/mailbox"
)

// IngestMessage ingests every spreadsheet attached to msg. A bad attachment
// is recorded as a failure and the rest still run; a store or limiter error
// stops the message so it is retried on the next sync.
func (s *Service) IngestMessage(ctx context.Context, msg mailbox.Message) (MessageResult, error) {
	result := MessageResult{Key: msg.Key, Subject: msg.Subject}
	meta := IngestMeta{
		Source:   SourceMail,
		Subject:  msg.Subject,
		Sender:   msg.From,
		MailDate: msg.Date,
	}

	for _, att := range msg.Attachments {
		res, err := s.IngestFile(ctx, meta, att.FileName, att.Data)
		var fe *FileError
		if err != nil && !errors.As(err, &fe) {
			return result, fmt.Errorf("message %s: %w", msg.Key, err)
		}
		result.Files = append(result.Files, res)
		result.Records += res.Records
		result.Inserted += res.Inserted
		result.Skipped += res.Skipped
		result.Failures += len(res.Failures)
	}
	return result, nil
}

// SyncMailbox ingests every message the store has not seen yet and then
// records the sync time. Only one sync runs at a time.
//
// A source that returns some messages alongside an error still has those
// messages ingested; the error is reported in SourceError.
func (s *Service) SyncMailbox(ctx context.Context) (SyncSummary, error) {
	if s.source == nil {
		return SyncSummary{}, ErrNoMailSource
	}
	if !s.syncing.CompareAndSwap(false, true) {
		return SyncSummary{}, ErrSyncRunning
	}
	defer s.syncing.Store(false)

	runID := uuid.New().String()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	summary := SyncSummary{RunID: runID, StartedAt: s.now()}

	msgs, err := s.source.Messages(ctx)
	if err != nil {
		if len(msgs) == 0 {
			return summary, err
		}
		summary.SourceError = err.Error()
		logger.Warn("mail source returned errors", "error", err, "messages", len(msgs))
	}
	summary.Messages = len(msgs)

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		seen, err := s.store.IsProcessed(ctx, msg.Key)
		if err != nil {
			return summary, fmt.Errorf("check message %s: %w", msg.Key, err)
		}
		if seen {
			summary.AlreadySeen++
			continue
		}

		res, err := s.IngestMessage(ctx, msg)
		if err != nil {
			return summary, err
		}
		if err := s.store.MarkProcessed(ctx, msg.Key, msg.Subject, res.Records, res.Failures); err != nil {
			return summary, fmt.Errorf("mark message %s: %w", msg.Key, err)
		}

		summary.Processed++
		summary.Files += len(res.Files)
		summary.Records += res.Records
		summary.Inserted += res.Inserted
		summary.Skipped += res.Skipped
		summary.Failures += res.Failures
	}

	summary.FinishedAt = s.now()
	if err := s.store.SetLastSync(ctx, summary.FinishedAt); err != nil {
		return summary, fmt.Errorf("record sync time: %w", err)
	}

	logger.Info("mailbox synced",
		"messages", summary.Messages,
		"processed", summary.Processed,
		"already_seen", summary.AlreadySeen,
		"records", summary.Records,
		"inserted", summary.Inserted,
		"failures", summary.Failures,
	)
	return summary, nil
}
