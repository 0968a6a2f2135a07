package core

// convert.go turns engine records into store rows. The engine only insists
// on code and unit value; a stored row also needs a valuation date and a
// unit value that parsed as a number.

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/navsync/internal/catalog"
	"github.com/JonMunkholm/navsync/internal/extract"
	"github.com/JonMunkholm/navsync/internal/store"
)

// RequiredFields must be present for a record to be stored.
var RequiredFields = []catalog.Field{catalog.Code, catalog.ValuationDate, catalog.UnitValue}

const navDateLayout = "20060102"

// ToNavRow converts rec. The returned error text starts with one of the
// error-map patterns so failures carry a code.
func ToNavRow(rec extract.Record) (store.NavRow, error) {
	var missing []string
	for _, f := range RequiredFields {
		if v, ok := rec[f]; !ok || v.IsBlank() {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return store.NavRow{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	unit := rec[catalog.UnitValue]
	if unit.Kind != extract.ValueNumber {
		return store.NavRow{}, fmt.Errorf("invalid number for %s: %q", catalog.UnitValue, unit.Text)
	}

	date := rec[catalog.ValuationDate]
	navDate, err := time.Parse(navDateLayout, date.Text)
	if date.Kind != extract.ValueDate || err != nil {
		return store.NavRow{}, fmt.Errorf("invalid date for %s: %q", catalog.ValuationDate, date.Text)
	}

	return store.NavRow{
		ProductCode:         rec.Text(catalog.Code),
		ProductName:         rec.Text(catalog.Name),
		NavDate:             navDate,
		UnitNAV:             unit.Number,
		AccumulatedNAV:      optionalNumber(rec, catalog.AccumulatedUnitValue),
		ClientName:          rec.Text(catalog.ClientName),
		ParticipatingShares: optionalNumber(rec, catalog.ParticipatingShares),
		AccrualFrequency:    rec.Text(catalog.AccrualFrequency),
		PerformanceFee:      optionalNumber(rec, catalog.PerformanceFeeAmount),
		WithdrawalNAV:       optionalNumber(rec, catalog.WithdrawalNAV),
		PostAccrualNAV:      optionalNumber(rec, catalog.PostAccrualVirtualNAV),
	}, nil
}

// optionalNumber keeps a numeric field only if it parsed; text is dropped.
func optionalNumber(rec extract.Record, f catalog.Field) decimal.NullDecimal {
	v, ok := rec[f]
	if !ok || v.Kind != extract.ValueNumber {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Number)
}
