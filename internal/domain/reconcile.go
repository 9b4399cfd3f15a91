package domain

import "math"

// EffectiveSpeed clamps the observed good-weather speed into the warranted
// band. Speeds strictly inside the band are returned unchanged; speeds above
// it return the upper bound and all others the lower bound, so a speed exactly
// on the upper edge takes the lower bound.
func EffectiveSpeed(goodSpeed, warrantedSpeed, speedTolerance float64) float64 {
	lower := warrantedSpeed - speedTolerance
	upper := warrantedSpeed + speedTolerance
	switch {
	case goodSpeed > lower && goodSpeed < upper:
		return goodSpeed
	case goodSpeed > upper:
		return upper
	default:
		return lower
	}
}

// Reconcile applies the CP warranty and tolerances to aggregated voyage
// performance. The term and tolerances are validated first so that a
// non-positive lower speed bound is reported rather than divided by.
//
// The entire-voyage projection uses the unclamped good-weather speed while
// the warranted bounds use the effective (clamped) speed.
func Reconcile(m AggregateMetrics, term CharterPartyTerm, tol Tolerances) (ReconciliationResult, error) {
	if err := ValidateTolerances(tol); err != nil {
		return ReconciliationResult{}, err
	}
	if err := ValidateTerm(term, tol); err != nil {
		return ReconciliationResult{}, err
	}

	ws := term.SpeedKn
	wc := term.MEConsumptionMTDay
	r := ReconciliationResult{
		WarrantedSpeedKn:          ws,
		WarrantedConsumptionMTDay: wc,
		SpeedToleranceKn:          tol.SpeedKn,
		FuelTolerancePct:          tol.FuelPct,
	}

	r.FuelToleranceMT = wc * tol.FuelPct / 100
	r.BandLowerMTDay = wc - r.FuelToleranceMT
	r.BandUpperMTDay = wc + r.FuelToleranceMT
	r.EffectiveSpeedKn = EffectiveSpeed(m.GoodSpeedKn, ws, tol.SpeedKn)

	if m.GoodSpeedKn > 0 {
		r.EntireVoyageConsMT = safeDiv(m.TotalDistanceNM, m.GoodSpeedKn) * (m.GoodFuelRatePerDay / hoursPerDay)
	}

	r.TimeAtEffectiveSpeedHrs = safeDiv(m.TotalDistanceNM, r.EffectiveSpeedKn)
	r.MaxWarrantedFOMT = r.TimeAtEffectiveSpeedHrs * (r.BandUpperMTDay / hoursPerDay)
	r.MinWarrantedFOMT = r.TimeAtEffectiveSpeedHrs * (r.BandLowerMTDay / hoursPerDay)
	r.FuelOverconsumptionMT = math.Max(0, r.EntireVoyageConsMT-r.MaxWarrantedFOMT)
	r.FuelSavingMT = math.Max(0, r.MinWarrantedFOMT-r.EntireVoyageConsMT)

	r.MaxTimeHrs = safeDiv(m.TotalDistanceNM, ws-tol.SpeedKn)
	r.MinTimeHrs = safeDiv(m.TotalDistanceNM, ws+tol.SpeedKn)
	r.TimeGainedHrs = math.Max(0, r.MinTimeHrs-r.TimeAtEffectiveSpeedHrs)
	r.TimeLostHrs = math.Max(0, r.TimeAtEffectiveSpeedHrs-r.MaxTimeHrs)

	return r, nil
}
