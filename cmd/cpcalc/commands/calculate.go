package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/cp-performance/internal/adapter/table"
	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/spf13/cobra"
)

// exclusionLayouts are accepted for --exclude bounds; values are read as UTC.
var exclusionLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

type calculateOptions struct {
	dataPath    string
	requestPath string
	format      string

	voyageID string
	vessel   string
	imo      string

	label string
	speed float64
	me    float64
	ae    float64

	beaufort       int
	wave           float64
	includeCurrent bool

	speedTol float64
	fuelTol  float64
	exclude  []string
}

// calculate: run a calculation and print the report.
func calculateCmd() *cobra.Command {
	defWeather := domain.DefaultWeatherDefinition()
	defTol := domain.DefaultTolerances()
	opts := calculateOptions{}

	cmd := &cobra.Command{
		Use:     "calculate",
		Short:   "Calculate voyage performance against a charter-party warranty",
		Example: "  cpcalc calculate --data noon.csv --speed 12 --me 20 --beaufort 4 --wave 1.25\n  cpcalc calculate --request voyage.json --format json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := opts.input(cmd)
			if err != nil {
				return err
			}

			res, err := domain.Calculate(in)
			if err != nil {
				return err
			}
			slog.Debug("calculation complete", "run_id", res.ID, "records", res.Metrics.RecordCount)

			if archivePath != "" {
				store, err := openArchive()
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveBatch(context.Background(), []domain.PerformanceReport{res}); err != nil {
					return err
				}
			}
			return writeReport(cmd.OutOrStdout(), res, opts.format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataPath, "data", "", "noon-report CSV file")
	f.StringVar(&opts.requestPath, "request", "", "calculation request JSON file; --data replaces its rows")
	f.StringVar(&opts.format, "format", "text", "output format: text or json")
	f.StringVar(&opts.voyageID, "voyage-id", "", "voyage reference")
	f.StringVar(&opts.vessel, "vessel", "", "vessel name")
	f.StringVar(&opts.imo, "imo", "", "vessel IMO number")
	f.StringVar(&opts.label, "label", "", "CP term label, e.g. laden")
	f.Float64Var(&opts.speed, "speed", 0, "warranted speed (kn)")
	f.Float64Var(&opts.me, "me", 0, "warranted ME consumption (MT/day)")
	f.Float64Var(&opts.ae, "ae", 0, "warranted AE consumption (MT/day)")
	f.IntVar(&opts.beaufort, "beaufort", defWeather.BeaufortLimit, "good weather wind limit (Beaufort)")
	f.Float64Var(&opts.wave, "wave", defWeather.WaveHeightLimitM, "good weather significant wave height limit (m)")
	f.BoolVar(&opts.includeCurrent, "include-current", false, "treat adverse current above 1 kn as bad weather")
	f.Float64Var(&opts.speedTol, "speed-tol", defTol.SpeedKn, "speed tolerance (kn)")
	f.Float64Var(&opts.fuelTol, "fuel-tol", defTol.FuelPct, "fuel tolerance (%)")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "excluded period START,END (repeatable)")
	cmd.MarkFlagsOneRequired("data", "request")

	return cmd
}

// input assembles the calculation input from a request file or from flags.
func (o *calculateOptions) input(cmd *cobra.Command) (domain.CalculationInput, error) {
	var rows []domain.RawRow
	if o.dataPath != "" {
		var err error
		if rows, err = table.ReadFile(o.dataPath); err != nil {
			return domain.CalculationInput{}, err
		}
	}

	if o.requestPath != "" {
		in, err := readRequest(o.requestPath)
		if err != nil {
			return domain.CalculationInput{}, err
		}
		if o.dataPath != "" {
			in.Rows = rows
		}
		return in, nil
	}

	s := domain.NewSession(o.voyageID)
	if err := s.SetVessel(domain.Vessel{Name: o.vessel, IMO: o.imo}); err != nil {
		return domain.CalculationInput{}, err
	}
	if err := s.SetTolerances(domain.Tolerances{SpeedKn: o.speedTol, FuelPct: o.fuelTol}); err != nil {
		return domain.CalculationInput{}, err
	}
	if err := s.SetWeatherDefinition(domain.WeatherDefinition{
		BeaufortLimit:    o.beaufort,
		WaveHeightLimitM: o.wave,
		IncludeCurrent:   o.includeCurrent,
	}); err != nil {
		return domain.CalculationInput{}, err
	}
	if cmd.Flags().Changed("speed") || cmd.Flags().Changed("me") {
		term := domain.CharterPartyTerm{Label: o.label, SpeedKn: o.speed, MEConsumptionMTDay: o.me, AEConsumptionMTDay: o.ae}
		if err := s.AddTerm(term); err != nil {
			return domain.CalculationInput{}, err
		}
	}
	for _, arg := range o.exclude {
		p, err := parseExclusion(arg)
		if err != nil {
			return domain.CalculationInput{}, err
		}
		if err := s.AddExclusion(p); err != nil {
			return domain.CalculationInput{}, err
		}
	}
	s.LoadRows(rows)
	return s.Snapshot(), nil
}

// parseExclusion reads a "START,END" pair.
func parseExclusion(arg string) (domain.ExclusionPeriod, error) {
	startStr, endStr, ok := strings.Cut(arg, ",")
	if !ok {
		return domain.ExclusionPeriod{}, fmt.Errorf("invalid --exclude %q: want START,END", arg)
	}
	start, err := parseInstant(startStr)
	if err != nil {
		return domain.ExclusionPeriod{}, fmt.Errorf("invalid --exclude start: %w", err)
	}
	end, err := parseInstant(endStr)
	if err != nil {
		return domain.ExclusionPeriod{}, fmt.Errorf("invalid --exclude end: %w", err)
	}
	return domain.ExclusionPeriod{Start: start, End: end}, nil
}

func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range exclusionLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
