package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Failure is one file or sheet that produced no usable record.
type Failure struct {
	ID        int64     `json:"id,omitempty"`
	RunID     uuid.UUID `json:"runId"`
	Source    string    `json:"source"`
	Subject   string    `json:"subject,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	MailDate  time.Time `json:"mailDate,omitempty"`
	FileName  string    `json:"fileName"`
	SheetName string    `json:"sheetName,omitempty"`
	Reason    string    `json:"reason"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

const insertFailureSQL = `
INSERT INTO extraction_failures (
    run_id, source, subject, sender, mail_date, file_name, sheet_name, reason, code
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// LogFailures appends failures to the failure log.
func (q *Queries) LogFailures(ctx context.Context, failures []Failure) error {
	if len(failures) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range failures {
		batch.Queue(insertFailureSQL,
			ToPgUUID(f.RunID),
			f.Source,
			ToPgText(f.Subject),
			ToPgText(f.Sender),
			ToPgTimestamptz(f.MailDate),
			f.FileName,
			ToPgText(f.SheetName),
			f.Reason,
			f.Code,
		)
	}
	return q.db.SendBatch(ctx, batch).Close()
}

// ListFailures returns the most recent failures first.
func (q *Queries) ListFailures(ctx context.Context, limit int) ([]Failure, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, run_id, source, subject, sender, mail_date, file_name, sheet_name,
       reason, code, created_at
FROM extraction_failures
ORDER BY created_at DESC, id DESC
LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var (
			f                      Failure
			runID                  pgtype.UUID
			subject, sender, sheet pgtype.Text
			mailDate, created      pgtype.Timestamptz
		)
		if err := rows.Scan(
			&f.ID, &runID, &f.Source, &subject, &sender, &mailDate,
			&f.FileName, &sheet, &f.Reason, &f.Code, &created,
		); err != nil {
			return nil, err
		}
		if runID.Valid {
			f.RunID = runID.Bytes
		}
		f.Subject = FromPgText(subject)
		f.Sender = FromPgText(sender)
		f.SheetName = FromPgText(sheet)
		f.MailDate = FromPgTimestamptz(mailDate)
		f.CreatedAt = FromPgTimestamptz(created)
		out = append(out, f)
	}
	return out, rows.Err()
}
