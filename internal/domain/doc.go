// Package domain computes charter-party (CP) voyage performance from noon
// report telemetry.
//
// # Data Source
//
// Voyage telemetry arrives as a row-oriented table exported from a vessel
// reporting system: one row per noon report, COSP (commencement of sea
// passage) or EOSP (end of sea passage) event. Column names vary between
// reporting systems, so every canonical field is resolved through an ordered
// alias list (see [fieldAliases]); the first alias present in the table wins.
//
// # Reporting Conventions
//
// Event types (exact match after trimming):
//
//	"NOON AT SEA", "COSP", "EOSP"
//	Any other value (e.g. "NOON IN PORT", "ANCHORED") is dropped before aggregation.
//
// Units:
//
//	Distance in nautical miles, steaming time in hours, fuel in metric tonnes.
//	Speeds are knots (nm/h). CP consumption warranties are MT per day.
//
// Weather status (exact, case-sensitive):
//
//	"GOOD WEATHER DAY" or "BAD WEATHER DAY". A status column carrying any
//	other non-empty value puts the record in neither class; it still counts
//	toward voyage totals. Rows without a status are classified from wind force
//	(Beaufort), significant wave height and, optionally, current.
//
// Unknown values:
//
//	Unparsable numeric cells are treated as zero (distance, time, fuel) or as
//	absent (wind, wave, current). A malformed cell never aborts a calculation.
//
// # Warranty Reconciliation
//
// Good-weather performance is compared with the selected CP term using a
// speed tolerance (default 0.5 kn) and a fuel tolerance (default 5%):
//
//	band            = warranted consumption ± fuel tolerance
//	effective speed = good-weather speed clamped into warranted speed ± speed tolerance
//	entire voyage   = total distance / good speed × good fuel rate per hour
//	max/min FO      = total distance / effective speed × band upper/lower per hour
//
// Over-consumption is the excess above the maximum warranted fuel, saving is
// the shortfall below the minimum; at most one is nonzero. Time gained and
// lost compare the time at effective speed with the tolerance-bound times.
//
// Every division is zero-guarded: no data yields no signal rather than an error.
package domain
