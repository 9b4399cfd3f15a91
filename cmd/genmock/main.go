// Command genmock generates a deterministic synthetic voyage: a noon-report
// CSV, the matching calculation request, and the performance report the
// engine produces for it. It uses the domain package itself so the expected
// report always matches real calculation behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -days 20 -seed 7 \
//	  -csv-out data/mock/noon_reports.csv \
//	  -request-out data/mock/calculation_request.json \
//	  -report-out data/mock/expected_report.json
//
// With -check, genmock instead re-reads the three files and verifies that the
// CSV, the request and the stored report still agree.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/cp-performance/internal/adapter/table"
	"github.com/couchcryptid/cp-performance/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

var (
	cosp         = time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC)
	calculatedAt = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
)

const mockRunID = "00000000-0000-4000-8000-000000000001"

var csvHeader = []string{
	"timestamp", "event_type", "distance_travelled_actual", "steaming_time_hrs",
	"me_fuel_consumed", "wind_force", "sig_wave_height", "current_factor", "day_status",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	days := flag.Int("days", 20, "number of noon reports between COSP and EOSP")
	seed := flag.Uint64("seed", 7, "random seed")
	csvOut := flag.String("csv-out", "", "output path for the noon-report CSV")
	requestOut := flag.String("request-out", "", "output path for the calculation request JSON")
	reportOut := flag.String("report-out", "", "output path for the expected report JSON")
	check := flag.Bool("check", false, "verify existing fixtures instead of generating them")
	flag.Parse()

	if *csvOut == "" || *requestOut == "" || *reportOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -request-out, -report-out")
	}

	// Fixed stamps keep the expected report byte-for-byte reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(calculatedAt))
	defer domain.SetClock(nil)
	domain.SetIDGenerator(func() string { return mockRunID })
	defer domain.SetIDGenerator(nil)

	if *check {
		return checkFixtures(*csvOut, *requestOut, *reportOut)
	}

	if *days < 1 {
		return fmt.Errorf("-days must be at least 1")
	}

	records := generate(*days, rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))
	if err := writeCSV(*csvOut, records); err != nil {
		return err
	}

	rows, err := table.ReadFile(*csvOut)
	if err != nil {
		return err
	}
	req := request(rows)
	if err := writeJSON(*requestOut, req); err != nil {
		return err
	}

	report, err := domain.Calculate(req)
	if err != nil {
		return fmt.Errorf("calculate: %w", err)
	}
	if err := writeJSON(*reportOut, report); err != nil {
		return err
	}

	log.Printf("wrote %d rows, %d analysed, good weather %d, bad weather %d",
		len(rows), report.Metrics.RecordCount, report.Metrics.GoodCount, report.Metrics.BadCount)
	return nil
}

// request wraps rows in the voyage the fixtures describe.
func request(rows []domain.RawRow) domain.CalculationInput {
	def := domain.WeatherDefinition{BeaufortLimit: 4, WaveHeightLimitM: 1.25, IncludeCurrent: true}
	return domain.CalculationInput{
		VoyageID: "MOCK-SIN-RTM-001",
		Vessel:   domain.Vessel{Name: "MV Mock Trader", IMO: "9000001", GRT: 43500},
		Voyage: domain.VoyageDetails{
			DeparturePort: "Singapore",
			ArrivalPort:   "Rotterdam",
			COSP:          cosp,
		},
		Terms: []domain.CharterPartyTerm{
			{Label: "laden", SpeedKn: 12.5, MEConsumptionMTDay: 28, AEConsumptionMTDay: 2.5},
			{Label: "eco", SpeedKn: 11, MEConsumptionMTDay: 21, AEConsumptionMTDay: 2.5},
		},
		WeatherDefinition: &def,
		Rows:              rows,
	}
}

type noonRecord struct {
	at       time.Time
	event    domain.EventType
	distance float64
	hours    float64
	fuel     float64
	wind     int
	wave     float64
	current  float64
	status   string
}

// generate produces COSP, daily noon reports and EOSP. A few rows carry a
// reported day status or a missing fuel figure, as real noon data does.
func generate(days int, rng *rand.Rand) []noonRecord {
	records := []noonRecord{{at: cosp, event: domain.EventCOSP}}

	prev := cosp
	for d := 1; d <= days; d++ {
		at := time.Date(cosp.Year(), cosp.Month(), cosp.Day()+d, 12, 0, 0, 0, time.UTC)
		hours := at.Sub(prev).Hours()
		prev = at

		wind := 2 + rng.IntN(6)
		wave := round(0.3+rng.Float64()*2.2, 2)
		current := round(rng.Float64()*1.6-0.3, 2)
		speed := 12.6 - 0.35*math.Max(0, float64(wind-3)) - rng.Float64()*0.4
		rate := 27 + rng.Float64()*2.5

		rec := noonRecord{
			at:       at,
			event:    domain.EventNoonAtSea,
			distance: round(speed*hours, 1),
			hours:    hours,
			fuel:     round(rate*hours/24, 2),
			wind:     wind,
			wave:     wave,
			current:  current,
		}
		switch d % 9 {
		case 4:
			rec.status = string(domain.WeatherBad)
		case 7:
			rec.fuel = math.NaN()
		}
		records = append(records, rec)
	}

	eosp := prev.Add(7 * time.Hour)
	records = append(records, noonRecord{
		at: eosp, event: domain.EventEOSP,
		distance: round(12.1*7, 1), hours: 7, fuel: round(27.5*7/24, 2),
		wind: 3, wave: 0.8,
	})
	return records
}

func writeCSV(path string, records []noonRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		fuel := "n/a"
		if !math.IsNaN(r.fuel) {
			fuel = strconv.FormatFloat(r.fuel, 'f', -1, 64)
		}
		if err := w.Write([]string{
			r.at.Format("2006-01-02 15:04"),
			string(r.event),
			strconv.FormatFloat(r.distance, 'f', -1, 64),
			strconv.FormatFloat(r.hours, 'f', -1, 64),
			fuel,
			strconv.Itoa(r.wind),
			strconv.FormatFloat(r.wave, 'f', -1, 64),
			strconv.FormatFloat(r.current, 'f', -1, 64),
			r.status,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// checkFixtures recalculates the stored request and CSV and compares the
// results against the stored report.
func checkFixtures(csvPath, requestPath, reportPath string) error {
	rows, err := table.ReadFile(csvPath)
	if err != nil {
		return err
	}

	var req domain.CalculationInput
	if err := readJSON(requestPath, &req); err != nil {
		return err
	}
	var want domain.PerformanceReport
	if err := readJSON(reportPath, &want); err != nil {
		return err
	}

	if len(req.Rows) != len(rows) {
		return fmt.Errorf("request has %d rows, csv has %d", len(req.Rows), len(rows))
	}

	fromRequest, err := domain.Calculate(req)
	if err != nil {
		return fmt.Errorf("calculate request: %w", err)
	}
	req.Rows = rows
	fromCSV, err := domain.Calculate(req)
	if err != nil {
		return fmt.Errorf("calculate csv: %w", err)
	}

	var failures int
	for name, got := range map[string]domain.PerformanceReport{"request": fromRequest, "csv": fromCSV} {
		if got.Metrics != want.Metrics {
			log.Printf("FAIL %s: metrics differ from %s", name, reportPath)
			failures++
		}
		if got.Result != want.Result {
			log.Printf("FAIL %s: reconciliation differs from %s", name, reportPath)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d fixture checks failed", failures)
	}
	log.Printf("fixtures consistent: %d rows, effective speed %.3f kn", len(rows), want.Result.EffectiveSpeedKn)
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
