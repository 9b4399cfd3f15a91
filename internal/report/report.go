// Package report turns a domain.PerformanceReport into the tabular and plain
// text forms handed to operators and downstream consumers.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places metric values are rounded to.
const Precision int32 = 3

const notAvailable = "N/A"

// Row is one line of the metric table.
type Row struct {
	Metric string          `json:"metric"`
	Value  decimal.Decimal `json:"value"`
	Unit   string          `json:"unit,omitempty"`
}

// Rows lists the report metrics in their customary order, rounded to Precision.
func Rows(r domain.PerformanceReport) []Row {
	m, res := r.Metrics, r.Result
	rows := []struct {
		metric string
		value  float64
		unit   string
	}{
		{"total_distance", m.TotalDistanceNM, "nm"},
		{"total_steaming_time", m.TotalSteamingHrs, "hrs"},
		{"voyage_avg_speed", m.AvgSpeedKn, "kn"},
		{"good_wx_distance", m.GoodDistanceNM, "nm"},
		{"good_wx_time", m.GoodSteamingHrs, "hrs"},
		{"good_wx_speed", m.GoodSpeedKn, "kn"},
		{"good_wx_fo_cons", m.GoodFuelMT, "MT"},
		{"good_wx_fo_rate_hr", m.GoodFuelRatePerHr, "MT/hr"},
		{"good_wx_fo_rate_day", m.GoodFuelRatePerDay, "MT/day"},
		{"bad_wx_distance", m.BadDistanceNM, "nm"},
		{"bad_wx_time", m.BadSteamingHrs, "hrs"},
		{"bad_wx_fo_cons", m.BadFuelMT, "MT"},
		{"bad_wx_speed", m.BadSpeedKn, "kn"},
		{"total_me_fuel", m.TotalFuelMT, "MT"},
		{"entire_voyage_cons", res.EntireVoyageConsMT, "MT"},
		{"max_warranted_fo", res.MaxWarrantedFOMT, "MT"},
		{"min_warranted_fo", res.MinWarrantedFOMT, "MT"},
		{"fuel_overconsumption", res.FuelOverconsumptionMT, "MT"},
		{"fuel_saving", res.FuelSavingMT, "MT"},
		{"time_gained", res.TimeGainedHrs, "hrs"},
		{"time_lost", res.TimeLostHrs, "hrs"},
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = Row{Metric: row.metric, Value: round(row.value), Unit: row.unit}
	}
	return out
}

// Summary returns the time headline: gained hours when positive, otherwise lost hours.
func Summary(r domain.PerformanceReport) string {
	if r.Result.TimeGainedHrs > 0 {
		return "Gained: " + decimal.NewFromFloat(r.Result.TimeGainedHrs).StringFixed(1) + " hrs"
	}
	return "Lost: " + decimal.NewFromFloat(r.Result.TimeLostHrs).StringFixed(1) + " hrs"
}

// Render writes the plain-text performance report.
func Render(w io.Writer, r domain.PerformanceReport) error {
	var b strings.Builder

	section(&b, "Charterparty Performance Report", "=")
	field(&b, "Generated", formatTime(r.CalculatedAt))
	field(&b, "Run ID", orNA(r.ID))
	field(&b, "Voyage ID", orNA(r.VoyageID))

	section(&b, "Vessel Information", "-")
	field(&b, "Name", orNA(r.Vessel.Name))
	field(&b, "IMO", orNA(r.Vessel.IMO))
	field(&b, "GRT", formatPositive(r.Vessel.GRT))

	section(&b, "Voyage Details", "-")
	field(&b, "Departure", orNA(r.Voyage.DeparturePort))
	field(&b, "Arrival", orNA(r.Voyage.ArrivalPort))
	field(&b, "COSP", formatTime(r.Voyage.COSP))
	field(&b, "EOSP", formatTime(r.Voyage.EOSP))

	section(&b, "Charter Party Terms", "-")
	field(&b, "Term", orNA(r.Term.Label))
	field(&b, "Warranted speed", round(r.Term.SpeedKn).String()+" kn")
	field(&b, "Warranted ME consumption", round(r.Term.MEConsumptionMTDay).String()+" MT/day")
	field(&b, "Warranted AE consumption", round(r.Term.AEConsumptionMTDay).String()+" MT/day")
	field(&b, "Speed tolerance", round(r.Tolerances.SpeedKn).String()+" kn")
	field(&b, "Fuel tolerance", round(r.Tolerances.FuelPct).String()+" %")
	field(&b, "Good weather", weatherText(r.WeatherDefinition))

	section(&b, "Performance Summary", "-")
	field(&b, "Records", fmt.Sprintf("%d of %d rows analysed", r.Metrics.RecordCount, r.InputRows))
	field(&b, "Time difference", Summary(r))
	for _, row := range Rows(r) {
		field(&b, row.Metric, row.Value.StringFixed(Precision))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(Precision)
}

func section(b *strings.Builder, title, underline string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat(underline, len(title)) + "\n")
}

func field(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "%s: %s\n", name, value)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func formatPositive(v float64) string {
	if v <= 0 {
		return notAvailable
	}
	return decimal.NewFromFloat(v).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func weatherText(d domain.WeatherDefinition) string {
	s := fmt.Sprintf("wind up to Beaufort %d, waves up to %s m", d.BeaufortLimit, round(d.WaveHeightLimitM))
	if d.IncludeCurrent {
		s += fmt.Sprintf(", adverse current up to %s kn", round(domain.CurrentLimitKn))
	}
	return s
}
