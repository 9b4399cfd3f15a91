package domain

const hoursPerDay = 24

// Aggregate sums distance, time and fuel over all records and per weather
// class, then derives speeds and fuel rates. Records in neither class count
// toward the totals only.
func Aggregate(records []VoyageRecord) AggregateMetrics {
	var m AggregateMetrics
	for _, rec := range records {
		m.RecordCount++
		m.TotalDistanceNM += rec.DistanceNM
		m.TotalSteamingHrs += rec.SteamingTimeHrs
		m.TotalFuelMT += rec.FuelConsumedMT

		switch rec.Weather {
		case WeatherGood:
			m.GoodCount++
			m.GoodDistanceNM += rec.DistanceNM
			m.GoodSteamingHrs += rec.SteamingTimeHrs
			m.GoodFuelMT += rec.FuelConsumedMT
		case WeatherBad:
			m.BadCount++
			m.BadDistanceNM += rec.DistanceNM
			m.BadSteamingHrs += rec.SteamingTimeHrs
			m.BadFuelMT += rec.FuelConsumedMT
		default:
			m.NeitherCount++
		}
	}

	m.AvgSpeedKn = safeDiv(m.TotalDistanceNM, m.TotalSteamingHrs)
	m.GoodSpeedKn = safeDiv(m.GoodDistanceNM, m.GoodSteamingHrs)
	m.GoodFuelRatePerHr = safeDiv(m.GoodFuelMT, m.GoodSteamingHrs)
	m.GoodFuelRatePerDay = m.GoodFuelRatePerHr * hoursPerDay
	m.BadSpeedKn = safeDiv(m.BadDistanceNM, m.BadSteamingHrs)
	return m
}

// safeDiv returns 0 when the denominator is zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
