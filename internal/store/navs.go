package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DefaultListLimit caps list queries when the caller gives no limit.
const DefaultListLimit = 100

// MaxListLimit is the largest page a list query returns.
const MaxListLimit = 1000

// NavRow is one persisted NAV observation.
type NavRow struct {
	ID                  int64               `json:"id,omitempty"`
	ProductCode         string              `json:"productCode"`
	ProductName         string              `json:"productName,omitempty"`
	NavDate             time.Time           `json:"navDate"`
	UnitNAV             decimal.Decimal     `json:"unitNav"`
	AccumulatedNAV      decimal.NullDecimal `json:"accumulatedNav"`
	ClientName          string              `json:"clientName,omitempty"`
	ParticipatingShares decimal.NullDecimal `json:"participatingShares"`
	AccrualFrequency    string              `json:"accrualFrequency,omitempty"`
	PerformanceFee      decimal.NullDecimal `json:"performanceFee"`
	WithdrawalNAV       decimal.NullDecimal `json:"withdrawalNav"`
	PostAccrualNAV      decimal.NullDecimal `json:"postAccrualNav"`
	Layout              string              `json:"layout"`
	Source              string              `json:"source"`
	FileName            string              `json:"fileName"`
	SheetName           string              `json:"sheetName"`
	RunID               uuid.UUID           `json:"runId"`
	CreatedAt           time.Time           `json:"createdAt,omitempty"`
}

// InsertResult counts the outcome of an insert. Rows that collide with an
// existing (product_code, nav_date) are skipped, never overwritten.
type InsertResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

const insertNavSQL = `
INSERT INTO nav_records (
    product_code, product_name, nav_date, unit_nav, accumulated_nav,
    client_name, participating_shares, accrual_frequency, performance_fee,
    withdrawal_nav, post_accrual_nav, layout, source, file_name, sheet_name, run_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (product_code, nav_date) DO NOTHING`

// InsertNavs queues every row in one batch.
func (q *Queries) InsertNavs(ctx context.Context, rows []NavRow) (InsertResult, error) {
	var res InsertResult
	if len(rows) == 0 {
		return res, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertNavSQL,
			r.ProductCode,
			ToPgText(r.ProductName),
			ToPgDate(r.NavDate),
			ToPgNumeric(r.UnitNAV),
			ToPgNullNumeric(r.AccumulatedNAV),
			ToPgText(r.ClientName),
			ToPgNullNumeric(r.ParticipatingShares),
			ToPgText(r.AccrualFrequency),
			ToPgNullNumeric(r.PerformanceFee),
			ToPgNullNumeric(r.WithdrawalNAV),
			ToPgNullNumeric(r.PostAccrualNAV),
			r.Layout,
			r.Source,
			r.FileName,
			r.SheetName,
			ToPgUUID(r.RunID),
		)
	}

	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		tag, err := br.Exec()
		if err != nil {
			return res, fmt.Errorf("insert nav %s/%s: %w",
				rows[i].ProductCode, rows[i].NavDate.Format("20060102"), err)
		}
		if tag.RowsAffected() > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// NavFilter narrows ListNavs. Zero fields do not filter.
type NavFilter struct {
	Code  string
	From  time.Time
	To    time.Time
	Limit int
}

// ListNavs returns matching rows, newest date first.
func (q *Queries) ListNavs(ctx context.Context, f NavFilter) ([]NavRow, error) {
	var (
		conds []string
		args  []any
	)
	if f.Code != "" {
		args = append(args, f.Code)
		conds = append(conds, fmt.Sprintf("product_code = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, ToPgDate(f.From))
		conds = append(conds, fmt.Sprintf("nav_date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, ToPgDate(f.To))
		conds = append(conds, fmt.Sprintf("nav_date <= $%d", len(args)))
	}
	args = append(args, clampLimit(f.Limit))

	query := `
SELECT id, product_code, product_name, nav_date, unit_nav, accumulated_nav,
       client_name, participating_shares, accrual_frequency, performance_fee,
       withdrawal_nav, post_accrual_nav, layout, source, file_name, sheet_name,
       run_id, created_at
FROM nav_records`
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf("\nORDER BY nav_date DESC, product_code\nLIMIT $%d", len(args))

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NavRow
	for rows.Next() {
		r, err := scanNav(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanNav(row pgx.Row) (NavRow, error) {
	var (
		r                                      NavRow
		name, client, freq                     pgtype.Text
		date                                   pgtype.Date
		unit, acc, shares, fee, withdraw, post pgtype.Numeric
		runID                                  pgtype.UUID
		created                                pgtype.Timestamptz
	)
	err := row.Scan(
		&r.ID, &r.ProductCode, &name, &date, &unit, &acc,
		&client, &shares, &freq, &fee,
		&withdraw, &post, &r.Layout, &r.Source, &r.FileName, &r.SheetName,
		&runID, &created,
	)
	if err != nil {
		return NavRow{}, err
	}

	r.ProductName = FromPgText(name)
	r.ClientName = FromPgText(client)
	r.AccrualFrequency = FromPgText(freq)
	r.NavDate = date.Time
	r.UnitNAV = FromPgNumeric(unit).Decimal
	r.AccumulatedNAV = FromPgNumeric(acc)
	r.ParticipatingShares = FromPgNumeric(shares)
	r.PerformanceFee = FromPgNumeric(fee)
	r.WithdrawalNAV = FromPgNumeric(withdraw)
	r.PostAccrualNAV = FromPgNumeric(post)
	if runID.Valid {
		r.RunID = runID.Bytes
	}
	r.CreatedAt = FromPgTimestamptz(created)
	return r, nil
}

// NavCodes returns the distinct product codes on file.
func (q *Queries) NavCodes(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT DISTINCT product_code FROM nav_records ORDER BY product_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	}
	return n
}
