package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVoyageID = "V-2403-SIN-RTM"

func sampleRows() []RawRow {
	return []RawRow{
		{"event_type": "COSP", "timestamp": "2024-03-01 00:00", "distance_travelled_actual": "0", "steaming_time_hrs": "0", "me_fuel_consumed": "0", "day_status": "GOOD WEATHER DAY"},
		{"event_type": "NOON AT SEA", "timestamp": "2024-03-01 12:00", "distance_travelled_actual": "144", "steaming_time_hrs": "12", "me_fuel_consumed": "10", "day_status": "GOOD WEATHER DAY"},
		{"event_type": "NOON AT SEA", "timestamp": "2024-03-02 12:00", "distance_travelled_actual": "288", "steaming_time_hrs": "24", "me_fuel_consumed": "20", "day_status": "GOOD WEATHER DAY"},
		{"event_type": "NOON AT SEA", "timestamp": "2024-03-03 12:00", "distance_travelled_actual": "240", "steaming_time_hrs": "24", "me_fuel_consumed": "22", "day_status": "BAD WEATHER DAY"},
		{"event_type": "NOON IN PORT", "timestamp": "2024-03-04 12:00", "distance_travelled_actual": "0", "steaming_time_hrs": "0", "me_fuel_consumed": "3", "day_status": "GOOD WEATHER DAY"},
		{"event_type": "EOSP", "timestamp": "2024-03-04 18:00", "distance_travelled_actual": "60", "steaming_time_hrs": "6", "me_fuel_consumed": "n/a", "day_status": ""},
	}
}

func sampleInput() CalculationInput {
	return CalculationInput{
		VoyageID: testVoyageID,
		Vessel:   Vessel{Name: "MV Example", IMO: "9876543", GRT: 42000},
		Terms:    []CharterPartyTerm{warranty},
		Rows:     sampleRows(),
	}
}

func TestCalculate(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	SetIDGenerator(func() string { return "run-1" })
	t.Cleanup(func() {
		SetClock(nil)
		SetIDGenerator(nil)
	})

	report, err := Calculate(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.ID)
	assert.Equal(t, testVoyageID, report.VoyageID)
	assert.Equal(t, fixed, report.CalculatedAt)
	assert.Equal(t, 6, report.InputRows)
	assert.Equal(t, warranty, report.Term)
	assert.Equal(t, DefaultWeatherDefinition(), report.WeatherDefinition)
	assert.Equal(t, DefaultTolerances(), report.Tolerances)

	m := report.Metrics
	assert.Equal(t, 5, m.RecordCount, "port report is dropped")
	assert.Equal(t, 4, m.GoodCount, "blank status falls back to thresholds")
	assert.Equal(t, 1, m.BadCount)
	assert.Equal(t, 732.0, m.TotalDistanceNM)
	assert.Equal(t, 66.0, m.TotalSteamingHrs)
	assert.Equal(t, 52.0, m.TotalFuelMT, "unparsable fuel counts as zero")
	assert.InDelta(t, 492.0/42, m.GoodSpeedKn, 1e-9)
	assert.InDelta(t, 30.0/42*24, m.GoodFuelRatePerDay, 1e-9)
	assert.InDelta(t, 10.0, m.BadSpeedKn, 1e-9)

	r := report.Result
	assert.InDelta(t, 11.714, r.EffectiveSpeedKn, 1e-3)
	assert.InDelta(t, 44.634, r.EntireVoyageConsMT, 1e-3)
	assert.InDelta(t, 54.677, r.MaxWarrantedFOMT, 1e-3)
	assert.InDelta(t, 49.470, r.MinWarrantedFOMT, 1e-3)
	assert.InDelta(t, 4.835, r.FuelSavingMT, 1e-3)
	assert.Zero(t, r.FuelOverconsumptionMT)
	assert.Zero(t, r.TimeGainedHrs)
	assert.Zero(t, r.TimeLostHrs)
}

func TestCalculate_Exclusions(t *testing.T) {
	in := sampleInput()
	in.Exclusions = []ExclusionPeriod{{
		Start: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC),
	}}

	report, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Metrics.RecordCount)
	assert.Zero(t, report.Metrics.BadCount)
	assert.Equal(t, 492.0, report.Metrics.TotalDistanceNM)
}

func TestCalculate_SelectsRequestedTerm(t *testing.T) {
	in := sampleInput()
	ballast := CharterPartyTerm{Label: "ballast", SpeedKn: 13, MEConsumptionMTDay: 18}
	in.Terms = append(in.Terms, ballast)
	in.SelectedTerm = 1

	report, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, ballast, report.Term)
	assert.Equal(t, 13.0, report.Result.WarrantedSpeedKn)
	assert.InDelta(t, 12.5, report.Result.EffectiveSpeedKn, 1e-9)
}

func TestCalculate_NoTerms(t *testing.T) {
	in := sampleInput()
	in.Terms = nil

	report, err := Calculate(in)

	require.ErrorIs(t, err, ErrNoCharterPartyTerm)
	assert.True(t, IsConfigurationError(err))
	assert.Empty(t, report.ID)
}

func TestCalculate_TermIndexOutOfRange(t *testing.T) {
	in := sampleInput()
	in.SelectedTerm = 3

	_, err := Calculate(in)

	require.ErrorIs(t, err, ErrTermIndexOutOfRange)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "index 3 of 1")
}

func TestCalculate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CalculationInput)
		field  string
	}{
		{"warranted speed within tolerance", func(in *CalculationInput) {
			in.Terms = []CharterPartyTerm{{SpeedKn: 0.4, MEConsumptionMTDay: 20}}
		}, "terms[0].speed_kn"},
		{"second term invalid", func(in *CalculationInput) {
			in.Terms = append(in.Terms, CharterPartyTerm{SpeedKn: 12})
		}, "terms[1].me_consumption_mt_day"},
		{"exclusion end before start", func(in *CalculationInput) {
			in.Exclusions = []ExclusionPeriod{{Start: day(3, 0), End: day(2, 0)}}
		}, "exclusions[0].end"},
		{"exclusion start equals end", func(in *CalculationInput) {
			in.Exclusions = []ExclusionPeriod{{Start: day(1, 0), End: day(2, 0)}, {Start: day(3, 0), End: day(3, 0)}}
		}, "exclusions[1].end"},
		{"exclusion missing start", func(in *CalculationInput) {
			in.Exclusions = []ExclusionPeriod{{End: day(2, 0)}}
		}, "exclusions[0].start"},
		{"beaufort above 12", func(in *CalculationInput) {
			in.WeatherDefinition = &WeatherDefinition{BeaufortLimit: 13}
		}, "weather_definition.beaufort_limit"},
		{"negative wave limit", func(in *CalculationInput) {
			in.WeatherDefinition = &WeatherDefinition{BeaufortLimit: 4, WaveHeightLimitM: -1}
		}, "weather_definition.wave_height_limit_m"},
		{"zero fuel tolerance", func(in *CalculationInput) {
			in.Tolerances = &Tolerances{SpeedKn: 0.5}
		}, "tolerances.fuel_tolerance_pct"},
		{"bad IMO", func(in *CalculationInput) {
			in.Vessel.IMO = "12AB"
		}, "vessel.imo"},
		{"EOSP before COSP", func(in *CalculationInput) {
			in.Voyage = VoyageDetails{COSP: day(5, 0), EOSP: day(1, 0)}
		}, "voyage.eosp"},
		{"latitude out of range", func(in *CalculationInput) {
			in.Voyage = VoyageDetails{DepartureLat: 91}
		}, "voyage.departure_lat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)

			_, err := Calculate(in)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, err.Error(), tt.field)
			assert.False(t, IsConfigurationError(err))
		})
	}
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	in := sampleInput()
	rows := sampleRows()

	_, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, rows, in.Rows)
	assert.Nil(t, in.WeatherDefinition)
	assert.Nil(t, in.Tolerances)
}

func TestSelectTerm(t *testing.T) {
	laden := CharterPartyTerm{Label: "laden", SpeedKn: 12, MEConsumptionMTDay: 20}
	ballast := CharterPartyTerm{Label: "ballast", SpeedKn: 13, MEConsumptionMTDay: 18}

	got, err := SelectTerm([]CharterPartyTerm{laden, ballast}, 0)
	require.NoError(t, err)
	assert.Equal(t, laden, got)

	got, err = SelectTerm([]CharterPartyTerm{laden, ballast}, 1)
	require.NoError(t, err)
	assert.Equal(t, ballast, got)

	_, err = SelectTerm(nil, 0)
	assert.ErrorIs(t, err, ErrNoCharterPartyTerm)

	_, err = SelectTerm([]CharterPartyTerm{laden}, -1)
	assert.ErrorIs(t, err, ErrTermIndexOutOfRange)
}
