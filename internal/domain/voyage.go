package domain

import "time"

// EventType identifies the kind of report a telemetry row came from.
type EventType string

const (
	EventNoonAtSea EventType = "NOON AT SEA"
	EventCOSP      EventType = "COSP"
	EventEOSP      EventType = "EOSP"
)

// WeatherStatus is the weather class of a voyage record.
type WeatherStatus string

const (
	WeatherGood WeatherStatus = "GOOD WEATHER DAY"
	WeatherBad  WeatherStatus = "BAD WEATHER DAY"
	// WeatherNeither marks a record whose status column carried an
	// unrecognised value. It counts toward totals only.
	WeatherNeither WeatherStatus = ""
)

// RawRow is one row of an uploaded telemetry table, keyed by column name.
type RawRow map[string]string

// VoyageRecord is one observation period after column resolution and type coercion.
type VoyageRecord struct {
	Timestamp       time.Time `json:"timestamp,omitempty"`
	EventType       EventType `json:"event_type,omitempty"`
	DistanceNM      float64   `json:"distance_nm"`
	SteamingTimeHrs float64   `json:"steaming_time_hrs"`
	FuelConsumedMT  float64   `json:"fuel_consumed_mt"`

	// Weather observations; nil when the column is absent or the cell is unparsable.
	WindForceBeaufort *float64 `json:"wind_force_beaufort,omitempty"`
	WaveHeightM       *float64 `json:"wave_height_m,omitempty"`
	CurrentKn         *float64 `json:"current_kn,omitempty"`

	// StatusText is the verbatim weather status cell, empty when not reported.
	StatusText string `json:"weather_status,omitempty"`

	// Weather is assigned by Classify.
	Weather WeatherStatus `json:"weather,omitempty"`
}

// Table is a normalized telemetry table together with the columns that were resolved.
type Table struct {
	Columns ColumnMap
	Records []VoyageRecord
}

// CharterPartyTerm is one contracted speed/consumption warranty point.
type CharterPartyTerm struct {
	Label              string  `json:"label,omitempty"`
	SpeedKn            float64 `json:"speed_kn" validate:"finite,gt=0"`
	MEConsumptionMTDay float64 `json:"me_consumption_mt_day" validate:"finite,gt=0"`
	AEConsumptionMTDay float64 `json:"ae_consumption_mt_day" validate:"finite,gte=0"`
}

// WeatherDefinition holds the thresholds that separate good from bad weather.
type WeatherDefinition struct {
	BeaufortLimit    int     `json:"beaufort_limit" validate:"gte=0,lte=12"`
	WaveHeightLimitM float64 `json:"wave_height_limit_m" validate:"finite,gte=0"`
	IncludeCurrent   bool    `json:"include_current"`
}

// CurrentLimitKn is the adverse current above which a day is bad weather
// when the definition includes current.
const CurrentLimitKn = 1.0

// DefaultWeatherDefinition returns Beaufort 6 and 2.0 m significant wave height, current ignored.
func DefaultWeatherDefinition() WeatherDefinition {
	return WeatherDefinition{BeaufortLimit: 6, WaveHeightLimitM: 2.0}
}

// ExclusionPeriod is a closed time range removed from the analysis.
type ExclusionPeriod struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// Contains reports whether t lies within [Start, End].
func (p ExclusionPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Tolerances are the speed and fuel allowances applied around a CP warranty.
type Tolerances struct {
	SpeedKn float64 `json:"speed_tolerance_kn" validate:"finite,gt=0"`
	FuelPct float64 `json:"fuel_tolerance_pct" validate:"finite,gt=0,lt=100"`
}

// DefaultTolerances returns the customary 0.5 kn and 5% allowances.
func DefaultTolerances() Tolerances {
	return Tolerances{SpeedKn: 0.5, FuelPct: 5.0}
}

// Vessel identifies the ship the calculation is for.
type Vessel struct {
	Name string  `json:"name,omitempty"`
	IMO  string  `json:"imo,omitempty" validate:"omitempty,len=7,numeric"`
	GRT  float64 `json:"grt,omitempty" validate:"finite,gte=0"`
}

// VoyageDetails describes the voyage leg under evaluation.
type VoyageDetails struct {
	DeparturePort string    `json:"departure_port,omitempty"`
	ArrivalPort   string    `json:"arrival_port,omitempty"`
	COSP          time.Time `json:"cosp,omitempty"`
	EOSP          time.Time `json:"eosp,omitempty" validate:"omitempty,gtfield=COSP"`
	DepartureLat  float64   `json:"departure_lat,omitempty" validate:"gte=-90,lte=90"`
	DepartureLon  float64   `json:"departure_lon,omitempty" validate:"gte=-180,lte=180"`
	ArrivalLat    float64   `json:"arrival_lat,omitempty" validate:"gte=-90,lte=90"`
	ArrivalLon    float64   `json:"arrival_lon,omitempty" validate:"gte=-180,lte=180"`
}

// AggregateMetrics are the sums and rates derived from classified records.
type AggregateMetrics struct {
	RecordCount  int `json:"record_count"`
	GoodCount    int `json:"good_wx_count"`
	BadCount     int `json:"bad_wx_count"`
	NeitherCount int `json:"neither_wx_count"`

	TotalDistanceNM  float64 `json:"total_distance"`
	TotalSteamingHrs float64 `json:"total_steaming_time"`
	TotalFuelMT      float64 `json:"total_me_fuel"`
	AvgSpeedKn       float64 `json:"voyage_avg_speed"`

	GoodDistanceNM     float64 `json:"good_wx_distance"`
	GoodSteamingHrs    float64 `json:"good_wx_time"`
	GoodFuelMT         float64 `json:"good_wx_fo_cons"`
	GoodSpeedKn        float64 `json:"good_wx_speed"`
	GoodFuelRatePerHr  float64 `json:"good_wx_fo_rate_hr"`
	GoodFuelRatePerDay float64 `json:"good_wx_fo_rate_day"`

	BadDistanceNM  float64 `json:"bad_wx_distance"`
	BadSteamingHrs float64 `json:"bad_wx_time"`
	BadFuelMT      float64 `json:"bad_wx_fo_cons"`
	BadSpeedKn     float64 `json:"bad_wx_speed"`
}

// ReconciliationResult compares good-weather performance with the CP warranty.
type ReconciliationResult struct {
	WarrantedSpeedKn          float64 `json:"warranted_speed"`
	WarrantedConsumptionMTDay float64 `json:"warranted_consumption"`
	SpeedToleranceKn          float64 `json:"speed_tolerance_kn"`
	FuelTolerancePct          float64 `json:"fuel_tolerance_pct"`
	FuelToleranceMT           float64 `json:"fuel_tolerance_mt"`
	BandLowerMTDay            float64 `json:"warranted_minus_tol"`
	BandUpperMTDay            float64 `json:"warranted_plus_tol"`
	EffectiveSpeedKn          float64 `json:"effective_speed"`

	EntireVoyageConsMT    float64 `json:"entire_voyage_cons"`
	MaxWarrantedFOMT      float64 `json:"max_warranted_fo"`
	MinWarrantedFOMT      float64 `json:"min_warranted_fo"`
	FuelOverconsumptionMT float64 `json:"fuel_overconsumption"`
	FuelSavingMT          float64 `json:"fuel_saving"`

	TimeAtEffectiveSpeedHrs float64 `json:"time_at_effective_speed"`
	MaxTimeHrs              float64 `json:"max_time"`
	MinTimeHrs              float64 `json:"min_time"`
	TimeGainedHrs           float64 `json:"time_gained"`
	TimeLostHrs             float64 `json:"time_lost"`
}

// PerformanceReport is the output of one calculation run.
type PerformanceReport struct {
	ID                string               `json:"id"`
	VoyageID          string               `json:"voyage_id,omitempty"`
	Vessel            Vessel               `json:"vessel"`
	Voyage            VoyageDetails        `json:"voyage"`
	Term              CharterPartyTerm     `json:"term"`
	WeatherDefinition WeatherDefinition    `json:"weather_definition"`
	Tolerances        Tolerances           `json:"tolerances"`
	InputRows         int                  `json:"input_rows"`
	Metrics           AggregateMetrics     `json:"metrics"`
	Result            ReconciliationResult `json:"result"`
	CalculatedAt      time.Time            `json:"calculated_at"`
}
