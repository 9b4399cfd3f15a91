package domain

import "fmt"

// CalculationInput is an immutable snapshot of everything one calculation run needs.
// Nil WeatherDefinition and Tolerances fall back to their defaults.
type CalculationInput struct {
	VoyageID          string             `json:"voyage_id,omitempty"`
	Vessel            Vessel             `json:"vessel"`
	Voyage            VoyageDetails      `json:"voyage"`
	Terms             []CharterPartyTerm `json:"terms"`
	SelectedTerm      int                `json:"selected_term"`
	WeatherDefinition *WeatherDefinition `json:"weather_definition,omitempty"`
	Exclusions        []ExclusionPeriod  `json:"exclusions,omitempty"`
	Tolerances        *Tolerances        `json:"tolerances,omitempty"`
	Rows              []RawRow           `json:"rows"`
}

func (in CalculationInput) weatherDefinition() WeatherDefinition {
	if in.WeatherDefinition == nil {
		return DefaultWeatherDefinition()
	}
	return *in.WeatherDefinition
}

func (in CalculationInput) tolerances() Tolerances {
	if in.Tolerances == nil {
		return DefaultTolerances()
	}
	return *in.Tolerances
}

// Validate checks every operator-entered value and returns the first
// ValidationError, naming the offending field.
func (in CalculationInput) Validate() error {
	if err := ValidateVessel(in.Vessel); err != nil {
		return withField("vessel", err)
	}
	if err := ValidateVoyage(in.Voyage); err != nil {
		return withField("voyage", err)
	}
	if err := ValidateWeatherDefinition(in.weatherDefinition()); err != nil {
		return withField("weather_definition", err)
	}
	tol := in.tolerances()
	if err := ValidateTolerances(tol); err != nil {
		return withField("tolerances", err)
	}
	for i, p := range in.Exclusions {
		if err := ValidateExclusion(p); err != nil {
			return withField(fmt.Sprintf("exclusions[%d]", i), err)
		}
	}
	for i, t := range in.Terms {
		if err := ValidateTerm(t, tol); err != nil {
			return withField(fmt.Sprintf("terms[%d]", i), err)
		}
	}
	return nil
}

// SelectTerm returns the CP term at index. An empty list is a configuration
// error; no default warranty is ever assumed.
func SelectTerm(terms []CharterPartyTerm, index int) (CharterPartyTerm, error) {
	if len(terms) == 0 {
		return CharterPartyTerm{}, ErrNoCharterPartyTerm
	}
	if index < 0 || index >= len(terms) {
		return CharterPartyTerm{}, fmt.Errorf("%w: index %d of %d terms", ErrTermIndexOutOfRange, index, len(terms))
	}
	return terms[index], nil
}

// Calculate runs normalize → filter → classify → aggregate → reconcile over
// the input snapshot. It fails only on missing or invalid configuration;
// malformed telemetry degrades to zero contribution.
func Calculate(in CalculationInput) (PerformanceReport, error) {
	term, err := SelectTerm(in.Terms, in.SelectedTerm)
	if err != nil {
		return PerformanceReport{}, err
	}
	if err := in.Validate(); err != nil {
		return PerformanceReport{}, err
	}

	def := in.weatherDefinition()
	tol := in.tolerances()

	table := Normalize(in.Rows)
	table = FilterPeriod(table, in.Exclusions)
	table = Classify(table, def)
	metrics := Aggregate(table.Records)

	result, err := Reconcile(metrics, term, tol)
	if err != nil {
		return PerformanceReport{}, fmt.Errorf("reconcile: %w", err)
	}

	return PerformanceReport{
		ID:                newID(),
		VoyageID:          in.VoyageID,
		Vessel:            in.Vessel,
		Voyage:            in.Voyage,
		Term:              term,
		WeatherDefinition: def,
		Tolerances:        tol,
		InputRows:         len(in.Rows),
		Metrics:           metrics,
		Result:            result,
		CalculatedAt:      clock.Now().UTC(),
	}, nil
}
