package correlation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/carbon-covid-correlation/internal/regions"
)

type stubCarbon struct {
	mu    sync.Mutex
	calls int
	fn    func(regionID int, day time.Time) (CarbonReading, error)
}

func (s *stubCarbon) Fetch(_ context.Context, regionID int, day time.Time) (CarbonReading, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(regionID, day)
}

type stubCovid struct {
	mu    sync.Mutex
	calls int
	fn    func(regionID int, day time.Time) (CovidReading, error)
}

func (s *stubCovid) Fetch(_ context.Context, regionID int, day time.Time) (CovidReading, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(regionID, day)
}

func okCarbon(intensity int) *stubCarbon {
	return &stubCarbon{fn: func(_ int, day time.Time) (CarbonReading, error) {
		return CarbonReading{Date: day, ForecastIntensity: intensity, Index: "moderate"}, nil
	}}
}

func okCovid(cases int) *stubCovid {
	return &stubCovid{fn: func(_ int, day time.Time) (CovidReading, error) {
		return CovidReading{Date: day, AreaName: "London", CumulativeCases: cases}, nil
	}}
}

func mustRange(t *testing.T, from, to string) DateRange {
	t.Helper()
	rng, err := ParseDateRange(from, to)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return rng
}

func TestCorrelateInvalidRegionMakesNoUpstreamCalls(t *testing.T) {
	carbon := okCarbon(100)
	covid := okCovid(500)
	engine := NewEngine(regions.NewDirectory(), carbon, covid, 0, 0)

	for _, id := range []int{0, 18, -5} {
		_, err := engine.Correlate(context.Background(), id, mustRange(t, "2023-06-10", ""))
		if !errors.Is(err, ErrInvalidRegion) {
			t.Fatalf("region %d: expected ErrInvalidRegion, got %v", id, err)
		}
		if err.Error() != "Invalid region id" {
			t.Fatalf("unexpected error text: %q", err.Error())
		}
	}

	if carbon.calls != 0 || covid.calls != 0 {
		t.Fatalf("expected zero upstream calls, got carbon=%d covid=%d", carbon.calls, covid.calls)
	}
}

func TestCorrelateReversedRangeMakesNoUpstreamCalls(t *testing.T) {
	carbon := okCarbon(100)
	covid := okCovid(500)
	engine := NewEngine(regions.NewDirectory(), carbon, covid, 0, 0)

	_, err := engine.Correlate(context.Background(), 13, DateRange{
		From: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	if carbon.calls != 0 || covid.calls != 0 {
		t.Fatalf("expected zero upstream calls, got carbon=%d covid=%d", carbon.calls, covid.calls)
	}
}

func TestCorrelateSkipsFailedDays(t *testing.T) {
	// Three-day range where day 2's carbon call fails: the result must hold
	// exactly the two surviving days, ascending.
	failDay := time.Date(2023, 6, 11, 0, 0, 0, 0, time.UTC)

	carbon := &stubCarbon{fn: func(_ int, day time.Time) (CarbonReading, error) {
		if day.Equal(failDay) {
			return CarbonReading{}, fmt.Errorf("upstream says no")
		}
		return CarbonReading{Date: day, ForecastIntensity: 140, Index: "moderate"}, nil
	}}
	covid := okCovid(25000)

	engine := NewEngine(regions.NewDirectory(), carbon, covid, 2, 0)

	result, err := engine.Correlate(context.Background(), 13, mustRange(t, "2023-06-10", "2023-06-12"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Region != "London" {
		t.Errorf("expected region London, got %q", result.Region)
	}

	records := result.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := records[0].Date.Format(DateLayout); got != "2023-06-10" {
		t.Errorf("expected first record 2023-06-10, got %s", got)
	}
	if got := records[1].Date.Format(DateLayout); got != "2023-06-12" {
		t.Errorf("expected second record 2023-06-12, got %s", got)
	}

	if len(result.Days) != 3 {
		t.Fatalf("expected 3 day outcomes, got %d", len(result.Days))
	}
	skipped := result.Days[1]
	if skipped.OK() {
		t.Fatal("expected day 2 to be skipped")
	}
	if skipped.SkipReason == "" {
		t.Error("expected a skip reason for the failed day")
	}
}

func TestCorrelateOmittedToIteratesDefaultWindow(t *testing.T) {
	carbon := okCarbon(120)
	covid := okCovid(1000)
	engine := NewEngine(regions.NewDirectory(), carbon, covid, 0, 0)

	result, err := engine.Correlate(context.Background(), 15, mustRange(t, "2023-06-10", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Default window is [from, from+1day], both inclusive.
	if len(result.Days) != 2 {
		t.Fatalf("expected 2 day outcomes, got %d", len(result.Days))
	}
	if carbon.calls != 2 || covid.calls != 2 {
		t.Fatalf("expected 2 calls per upstream, got carbon=%d covid=%d", carbon.calls, covid.calls)
	}
}

func TestCorrelateRejectsOverlongRange(t *testing.T) {
	engine := NewEngine(regions.NewDirectory(), okCarbon(100), okCovid(1), 0, 5)

	_, err := engine.Correlate(context.Background(), 13, mustRange(t, "2023-06-01", "2023-06-30"))
	if !errors.Is(err, ErrRangeTooLong) {
		t.Fatalf("expected ErrRangeTooLong, got %v", err)
	}
}

func TestCorrelateIsDeterministic(t *testing.T) {
	carbon := &stubCarbon{fn: func(_ int, day time.Time) (CarbonReading, error) {
		return CarbonReading{Date: day, ForecastIntensity: day.Day() * 3, Index: "low"}, nil
	}}
	covid := &stubCovid{fn: func(_ int, day time.Time) (CovidReading, error) {
		return CovidReading{Date: day, AreaName: "England", CumulativeCases: day.Day() * 1000}, nil
	}}

	engine := NewEngine(regions.NewDirectory(), carbon, covid, 3, 0)
	rng := mustRange(t, "2023-06-01", "2023-06-07")

	first, err := engine.Correlate(context.Background(), 15, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Correlate(context.Background(), 15, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := json.Marshal(first.Records())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	b, err := json.Marshal(second.Records())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical output, got\n%s\nvs\n%s", a, b)
	}

	// Concurrent fan-out must not disturb date ordering.
	records := first.Records()
	for i := 1; i < len(records); i++ {
		if !records[i-1].Date.Before(records[i].Date) {
			t.Fatalf("records out of order at %d: %v >= %v", i, records[i-1].Date, records[i].Date)
		}
	}
}
