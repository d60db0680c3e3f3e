package correlation

import (
	"context"
	"time"
)

// CarbonSource produces one day's carbon-intensity reading for a grid region.
type CarbonSource interface {
	Fetch(ctx context.Context, regionID int, day time.Time) (CarbonReading, error)
}

// CovidSource produces one day's case counts for a grid region.
type CovidSource interface {
	Fetch(ctx context.Context, regionID int, day time.Time) (CovidReading, error)
}
