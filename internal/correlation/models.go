package correlation

import "time"

// DateRange is an inclusive day range. Both bounds are normalized to
// midnight UTC; no time-of-day semantics flow past the parser.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days returns the number of days iterated for the range, inclusive of both
// bounds.
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

// FuelShare is one fuel's contribution to the generation mix.
type FuelShare struct {
	Fuel       string  `json:"fuel"`
	Percentage float64 `json:"perc"`
}

// CarbonReading is one day's shaped carbon-intensity forecast for a region.
type CarbonReading struct {
	Date              time.Time
	ForecastIntensity int
	Index             string
	FuelMix           []FuelShare
}

// CovidReading is one day's case counts for a health area. The death
// counters are omitted by the upstream for some areas and dates, so their
// absence is not an error.
type CovidReading struct {
	Date             time.Time
	AreaName         string
	DailyCases       int
	CumulativeCases  int
	DailyDeaths      *int
	CumulativeDeaths *int
}

// CorrelatedRecord merges one day's readings from both upstreams.
type CorrelatedRecord struct {
	Date                 time.Time
	CumulativeCovidCases int
	CarbonIntensity      int
}

// DayOutcome tags one day of the requested range as either correlated or
// skipped. Skipped days carry the reason for logging and tests but are not
// serialized into responses.
type DayOutcome struct {
	Date       time.Time
	Record     *CorrelatedRecord
	SkipReason string
}

// OK reports whether the day produced a record.
func (o DayOutcome) OK() bool {
	return o.Record != nil
}

// Result is the outcome of correlating one region over one date range.
// Days covers every day of the range in ascending order, including the
// skipped ones.
type Result struct {
	Region string
	Days   []DayOutcome
}

// Records returns the successfully correlated days in ascending date order.
func (r Result) Records() []CorrelatedRecord {
	records := make([]CorrelatedRecord, 0, len(r.Days))
	for _, day := range r.Days {
		if day.OK() {
			records = append(records, *day.Record)
		}
	}
	return records
}
