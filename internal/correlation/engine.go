package correlation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/carbon-covid-correlation/internal/regions"
)

var (
	// ErrInvalidRegion is returned when the region id has no directory entry.
	// The text doubles as the user-facing error string.
	ErrInvalidRegion = errors.New("Invalid region id")

	// ErrRangeTooLong is returned when the range exceeds the configured cap.
	ErrRangeTooLong = errors.New("date range too long")
)

// Engine correlates per-day carbon-intensity and COVID readings for a
// region across a date range. Days with a failed upstream call are retained
// as skipped outcomes and logged, but never abort the whole range.
type Engine struct {
	directory *regions.Directory
	carbon    CarbonSource
	covid     CovidSource

	maxConcurrentDays int
	maxRangeDays      int
}

// NewEngine creates a new Engine. maxConcurrentDays caps the number of
// in-flight day fetches per request and maxRangeDays caps the range length;
// values <= 0 fall back to defaults.
func NewEngine(directory *regions.Directory, carbon CarbonSource, covid CovidSource, maxConcurrentDays, maxRangeDays int) *Engine {
	if maxConcurrentDays <= 0 {
		maxConcurrentDays = 4
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 366
	}
	return &Engine{
		directory:         directory,
		carbon:            carbon,
		covid:             covid,
		maxConcurrentDays: maxConcurrentDays,
		maxRangeDays:      maxRangeDays,
	}
}

// Correlate validates the region and range, fans out one fetch task per day
// bounded by the concurrency cap, and reassembles the outcomes by day index
// so the result is always ascending by date regardless of completion order.
// Validation failures return before any upstream call is made.
func (e *Engine) Correlate(ctx context.Context, regionID int, rng DateRange) (Result, error) {
	desc, err := e.directory.Resolve(regionID)
	if err != nil {
		return Result{}, ErrInvalidRegion
	}

	if rng.From.After(rng.To) {
		return Result{}, ErrInvalidRange
	}

	days := rng.Days()
	if days > e.maxRangeDays {
		return Result{}, fmt.Errorf("%w: %d days requested, limit is %d", ErrRangeTooLong, days, e.maxRangeDays)
	}

	outcomes := make([]DayOutcome, days)

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxConcurrentDays)

	for i := 0; i < days; i++ {
		day := rng.From.AddDate(0, 0, i)

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, day time.Time) {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes[i] = e.fetchDay(ctx, regionID, day)
		}(i, day)
	}
	wg.Wait()

	for _, o := range outcomes {
		if !o.OK() {
			log.Printf("correlation: dropping %s for region %d: %s", o.Date.Format(DateLayout), regionID, o.SkipReason)
		}
	}

	return Result{Region: desc.CarbonRegionName, Days: outcomes}, nil
}

// fetchDay issues the day's two upstream calls concurrently; they are
// independent of each other. Both must succeed for the day to produce a
// record.
func (e *Engine) fetchDay(ctx context.Context, regionID int, day time.Time) DayOutcome {
	var (
		wg        sync.WaitGroup
		carbon    CarbonReading
		covid     CovidReading
		carbonErr error
		covidErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		carbon, carbonErr = e.carbon.Fetch(ctx, regionID, day)
	}()
	go func() {
		defer wg.Done()
		covid, covidErr = e.covid.Fetch(ctx, regionID, day)
	}()
	wg.Wait()

	if carbonErr != nil {
		return DayOutcome{Date: day, SkipReason: fmt.Sprintf("no carbon data: %v", carbonErr)}
	}
	if covidErr != nil {
		return DayOutcome{Date: day, SkipReason: fmt.Sprintf("no covid data: %v", covidErr)}
	}

	return DayOutcome{
		Date: day,
		Record: &CorrelatedRecord{
			Date:                 day,
			CumulativeCovidCases: covid.CumulativeCases,
			CarbonIntensity:      carbon.ForecastIntensity,
		},
	}
}
