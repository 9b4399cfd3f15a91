package domain

// FilterPeriod keeps sea-passage records outside every exclusion period.
//
// The event-type filter applies only when an event-type column was resolved.
// The exclusion filter applies only when a timestamp column was resolved and
// at least one period is given; records whose timestamp could not be parsed
// are kept. The input table is not modified.
func FilterPeriod(table Table, exclusions []ExclusionPeriod) Table {
	filterEvents := table.Columns.Has(FieldEventType)
	filterTime := table.Columns.Has(FieldTimestamp) && len(exclusions) > 0

	kept := make([]VoyageRecord, 0, len(table.Records))
	for _, rec := range table.Records {
		if filterEvents && !isSeaPassageEvent(rec.EventType) {
			continue
		}
		if filterTime && isExcluded(rec, exclusions) {
			continue
		}
		kept = append(kept, rec)
	}
	return Table{Columns: table.Columns, Records: kept}
}

// isSeaPassageEvent accepts exact matches only.
func isSeaPassageEvent(e EventType) bool {
	switch e {
	case EventNoonAtSea, EventCOSP, EventEOSP:
		return true
	default:
		return false
	}
}

func isExcluded(rec VoyageRecord, exclusions []ExclusionPeriod) bool {
	if rec.Timestamp.IsZero() {
		return false
	}
	for _, p := range exclusions {
		if p.Contains(rec.Timestamp) {
			return true
		}
	}
	return false
}
