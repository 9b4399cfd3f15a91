package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Field is a canonical telemetry column.
type Field string

const (
	FieldDistance      Field = "distance"
	FieldTimeHrs       Field = "time_hrs"
	FieldMEFuel        Field = "me_fuel"
	FieldWeatherStatus Field = "weather_status"
	FieldEventType     Field = "event_type"
	FieldTimestamp     Field = "timestamp"
	FieldWindForce     Field = "wind_force_beaufort"
	FieldWaveHeight    Field = "wave_height_m"
	FieldCurrent       Field = "current_kn"
)

// fieldAliases lists the accepted column names per canonical field in
// priority order. New reporting systems are supported by appending aliases.
var fieldAliases = []struct {
	field   Field
	aliases []string
}{
	{FieldDistance, []string{"distance", "distance_travelled", "distance_travelled_actual", "distance_nm"}},
	{FieldTimeHrs, []string{"time_hrs", "steaming_time_hrs", "steaming_time", "steaming_hours"}},
	{FieldMEFuel, []string{"me_fuel", "me_fuel_consumed", "fuel_consumed_mt", "me_consumption"}},
	{FieldWeatherStatus, []string{"weather_status", "day_status"}},
	{FieldEventType, []string{"event_type", "event", "report_type"}},
	{FieldTimestamp, []string{"timestamp", "datetime", "date_time", "report_time_utc"}},
	{FieldWindForce, []string{"wind_force_beaufort", "wind_force", "beaufort"}},
	{FieldWaveHeight, []string{"wave_height_m", "wave_height", "sig_wave_height"}},
	{FieldCurrent, []string{"current_kn", "current", "current_factor"}},
}

// eventTypeAliases lists the accepted spellings of each sea-passage event.
// Matching is exact and case-sensitive.
var eventTypeAliases = map[string]EventType{
	"NOON AT SEA": EventNoonAtSea,
	"NOON_AT_SEA": EventNoonAtSea,
	"COSP":        EventCOSP,
	"EOSP":        EventEOSP,
}

// timestampLayouts are tried in order when parsing the timestamp column.
// Values without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
}

// ColumnMap maps each resolved canonical field to the input column it came from.
type ColumnMap map[Field]string

// Has reports whether f was resolved to an input column.
func (m ColumnMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// ResolveColumns picks, for every canonical field, the first alias present in
// header. Column names are compared case-insensitively after trimming.
// Unresolved fields are absent from the result.
func ResolveColumns(header []string) ColumnMap {
	present := make(map[string]string, len(header))
	for _, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := present[key]; !dup {
			present[key] = col
		}
	}

	cols := make(ColumnMap, len(fieldAliases))
	for _, fa := range fieldAliases {
		for _, alias := range fa.aliases {
			if col, ok := present[alias]; ok {
				cols[fa.field] = col
				break
			}
		}
	}
	return cols
}

// Normalize resolves columns across all rows and coerces every cell into a
// VoyageRecord. It never fails: unparsable cells degrade to zero or absent.
func Normalize(rows []RawRow) Table {
	cols := ResolveColumns(headerOf(rows))

	records := make([]VoyageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalizeRow(row, cols))
	}
	return Table{Columns: cols, Records: records}
}

func normalizeRow(row RawRow, cols ColumnMap) VoyageRecord {
	cell := func(f Field) string {
		col, ok := cols[f]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	return VoyageRecord{
		Timestamp:         parseTimestamp(cell(FieldTimestamp)),
		EventType:         canonicalEventType(cell(FieldEventType)),
		DistanceNM:        parseFloatOrZero(cell(FieldDistance)),
		SteamingTimeHrs:   parseFloatOrZero(cell(FieldTimeHrs)),
		FuelConsumedMT:    parseFloatOrZero(cell(FieldMEFuel)),
		WindForceBeaufort: parseOptionalFloat(cell(FieldWindForce)),
		WaveHeightM:       parseOptionalFloat(cell(FieldWaveHeight)),
		CurrentKn:         parseOptionalFloat(cell(FieldCurrent)),
		StatusText:        statusText(row, cols),
	}
}

// statusText returns the weather status cell verbatim. A blank cell counts as
// no reported status.
func statusText(row RawRow, cols ColumnMap) string {
	col, ok := cols[FieldWeatherStatus]
	if !ok {
		return ""
	}
	v := row[col]
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}

// canonicalEventType maps an accepted spelling to its EventType. Unknown
// values are kept as-is and later dropped by the filter.
func canonicalEventType(s string) EventType {
	if e, ok := eventTypeAliases[s]; ok {
		return e
	}
	return EventType(s)
}

// headerOf returns the sorted union of column names across rows.
func headerOf(rows []RawRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	header := make([]string, 0, len(seen))
	for col := range seen {
		header = append(header, col)
	}
	sort.Strings(header)
	return header
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
// NaN and infinities count as failures so they cannot poison a sum.
func parseFloatOrZero(s string) float64 {
	if v := parseOptionalFloat(s); v != nil {
		return *v
	}
	return 0
}

// parseOptionalFloat parses a string as float64, returning nil when the cell
// is empty, unparsable or not finite.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseTimestamp returns the zero time when s matches none of the known layouts.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
