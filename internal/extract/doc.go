// Package extract recovers NAV records from spreadsheet grids of unknown layout.
//
// The engine works on a raw cell grid with no header inference and knows
// nothing about the institution that produced it. It is pure: the same grid
// always yields the same [Outcome], nothing is logged, and an [Engine] may be
// shared across goroutines.
//
// # Layouts
//
// Two hypotheses are tried in order and never blended:
//
//   - Table: a header row within the first [Options.HeaderScanRows] rows naming
//     at least [Options.MinHeaderFields] distinct fields, followed by data
//     rows. Every data row with enough core-field coverage becomes a record,
//     in grid order.
//   - Key/value: labels anywhere in the grid with the value in the same cell
//     after a full-width colon, one or two cells to the right, or directly
//     below. At most one record per grid.
//
// # Disambiguation
//
// When several fields have an alias inside the same cell text, the longest
// alias owns the cell. "累计单位净值" belongs to accumulatedUnitValue even
// though it contains the unitValue alias "净值". This holds for header
// columns and key/value labels alike, so catalog order never decides
// ownership.
//
// # Failure
//
// Nothing in the engine returns an error. An extraction that finds nothing
// returns an Outcome with no records and a [Reason]; callers turn that into
// a logged failure.
//
//	eng := extract.New(catalog.Default())
//	out := eng.Run(grid)
//	if len(out.Records) == 0 {
//	    log.Printf("unrecognized layout: %s", out.Reason)
//	}
package extract
