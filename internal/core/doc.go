// Package core provides the ingest service around the NAV extraction engine.
//
// The package is independent of any transport. The web handlers, the
// background scheduler and tests all drive the same [Service].
//
// # Flow
//
// A file moves through four steps:
//
//  1. [sheet.Load] decodes the workbook into one grid per sheet
//  2. [Service.ExtractFile] runs the engine over every sheet concurrently
//  3. [ToNavRow] turns each record into a storable row, or a failure
//  4. The store writes rows and failures in one transaction
//
// Rows that repeat an existing (code, date) pair are skipped and counted,
// so re-ingesting a file or re-syncing a mailbox is safe.
//
// # Mailbox Sync
//
// [Service.SyncMailbox] reads the configured [mailbox.Source], ingests every
// message whose key has not been processed and marks it processed afterwards.
// A broken attachment becomes a failure entry; a store error stops the sync
// before the message is marked, so the next run retries it.
// [Service.StartSyncScheduler] repeats the sync on an interval.
//
// # Concurrency
//
// Uploads and syncs share an [IngestLimiter]. When every slot stays busy
// past the wait window the request fails with [ErrTooManyIngests].
//
// # Error Handling
//
// Technical errors map to coded user messages with [MapError]. The same
// codes are stored on failure entries:
//
//   - EXT001-EXT004: Extraction (layout, required fields, number, date)
//   - FILE001-FILE006: Files (size, format, empty, decode)
//   - MAIL001-MAIL003: Mail source
//   - ING001-ING004: Ingest scheduling and cancellation
//   - DB001-DB005: Database
package core
