package domain

// ClassifyWeather decides the weather class of a single record.
//
// A reported status is compared verbatim, without trimming or case folding:
// "GOOD WEATHER DAY" and "BAD WEATHER DAY" map to their classes and any other
// non-blank value, padded spellings included, yields WeatherNeither.
// Without a reported status the record is good unless wind force exceeds the
// Beaufort limit, wave height exceeds the wave limit, or (when enabled) the
// current exceeds 1 kn. Missing observations never make a day bad.
func ClassifyWeather(rec VoyageRecord, def WeatherDefinition) WeatherStatus {
	if rec.StatusText != "" {
		switch WeatherStatus(rec.StatusText) {
		case WeatherGood, WeatherBad:
			return WeatherStatus(rec.StatusText)
		default:
			return WeatherNeither
		}
	}

	switch {
	case rec.WindForceBeaufort != nil && *rec.WindForceBeaufort > float64(def.BeaufortLimit):
		return WeatherBad
	case rec.WaveHeightM != nil && *rec.WaveHeightM > def.WaveHeightLimitM:
		return WeatherBad
	case def.IncludeCurrent && rec.CurrentKn != nil && *rec.CurrentKn > CurrentLimitKn:
		return WeatherBad
	default:
		return WeatherGood
	}
}

// Classify returns a copy of the table with every record's Weather assigned.
func Classify(table Table, def WeatherDefinition) Table {
	out := make([]VoyageRecord, len(table.Records))
	for i, rec := range table.Records {
		rec.Weather = ClassifyWeather(rec, def)
		out[i] = rec
	}
	return Table{Columns: table.Columns, Records: out}
}
