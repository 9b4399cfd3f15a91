package domain

import (
	"fmt"
	"maps"
	"sync"
)

// Session holds the operator-entered inputs of one interactive session.
// Every mutator validates its input before accepting it. Calculations run on
// a deep-copied snapshot, so the session may keep changing during a run.
type Session struct {
	mu         sync.Mutex
	voyageID   string
	vessel     Vessel
	voyage     VoyageDetails
	terms      []CharterPartyTerm
	selected   int
	weather    WeatherDefinition
	tolerances Tolerances
	exclusions []ExclusionPeriod
	rows       []RawRow
}

// NewSession returns a session with the default weather definition and tolerances.
func NewSession(voyageID string) *Session {
	return &Session{
		voyageID:   voyageID,
		weather:    DefaultWeatherDefinition(),
		tolerances: DefaultTolerances(),
	}
}

// SetVessel replaces the vessel details.
func (s *Session) SetVessel(v Vessel) error {
	if err := ValidateVessel(v); err != nil {
		return withField("vessel", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vessel = v
	return nil
}

// SetVoyage replaces the voyage details.
func (s *Session) SetVoyage(v VoyageDetails) error {
	if err := ValidateVoyage(v); err != nil {
		return withField("voyage", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voyage = v
	return nil
}

// AddTerm appends a CP term after checking it against the current tolerances.
func (s *Session) AddTerm(t CharterPartyTerm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ValidateTerm(t, s.tolerances); err != nil {
		return withField(fmt.Sprintf("terms[%d]", len(s.terms)), err)
	}
	s.terms = append(s.terms, t)
	return nil
}

// ClearTerms removes all CP terms and resets the selection to the first term.
func (s *Session) ClearTerms() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = nil
	s.selected = 0
}

// SelectTerm chooses which CP term the next calculation reconciles against.
func (s *Session) SelectTerm(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := SelectTerm(s.terms, index); err != nil {
		return err
	}
	s.selected = index
	return nil
}

// SetWeatherDefinition replaces the good/bad weather thresholds.
func (s *Session) SetWeatherDefinition(d WeatherDefinition) error {
	if err := ValidateWeatherDefinition(d); err != nil {
		return withField("weather_definition", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = d
	return nil
}

// SetTolerances replaces the tolerances. Existing terms must remain valid under them.
func (s *Session) SetTolerances(t Tolerances) error {
	if err := ValidateTolerances(t); err != nil {
		return withField("tolerances", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, term := range s.terms {
		if err := ValidateTerm(term, t); err != nil {
			return withField(fmt.Sprintf("terms[%d]", i), err)
		}
	}
	s.tolerances = t
	return nil
}

// AddExclusion appends an excluded period.
func (s *Session) AddExclusion(p ExclusionPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ValidateExclusion(p); err != nil {
		return withField(fmt.Sprintf("exclusions[%d]", len(s.exclusions)), err)
	}
	s.exclusions = append(s.exclusions, p)
	return nil
}

// ClearExclusions removes all excluded periods.
func (s *Session) ClearExclusions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusions = nil
}

// LoadRows replaces the uploaded telemetry table.
func (s *Session) LoadRows(rows []RawRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = copyRows(rows)
}

// Terms returns a copy of the CP term list.
func (s *Session) Terms() []CharterPartyTerm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CharterPartyTerm(nil), s.terms...)
}

// Exclusions returns a copy of the excluded periods.
func (s *Session) Exclusions() []ExclusionPeriod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ExclusionPeriod(nil), s.exclusions...)
}

// Snapshot deep-copies the session into a CalculationInput.
func (s *Session) Snapshot() CalculationInput {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := s.weather
	tol := s.tolerances
	return CalculationInput{
		VoyageID:          s.voyageID,
		Vessel:            s.vessel,
		Voyage:            s.voyage,
		Terms:             append([]CharterPartyTerm(nil), s.terms...),
		SelectedTerm:      s.selected,
		WeatherDefinition: &def,
		Exclusions:        append([]ExclusionPeriod(nil), s.exclusions...),
		Tolerances:        &tol,
		Rows:              copyRows(s.rows),
	}
}

// Calculate runs a calculation on a snapshot of the session.
func (s *Session) Calculate() (PerformanceReport, error) {
	return Calculate(s.Snapshot())
}

func copyRows(rows []RawRow) []RawRow {
	if rows == nil {
		return nil
	}
	out := make([]RawRow, len(rows))
	for i, row := range rows {
		out[i] = maps.Clone(row)
	}
	return out
}
