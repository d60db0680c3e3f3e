package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/carbon-covid-correlation/internal/correlation"
)

// carbonTimeLayout is the timestamp format the carbon-intensity provider
// expects in its path segments.
const carbonTimeLayout = "2006-01-02T15:04:05Z"

// CarbonResponse mirrors the provider's regional intensity document.
type CarbonResponse struct {
	Data CarbonData `json:"data"`
}

type CarbonData struct {
	Data []CarbonPeriod `json:"data"`
}

type CarbonPeriod struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Intensity     CarbonIntensity `json:"intensity"`
	GenerationMix []GenerationMix `json:"generationmix"`
}

type CarbonIntensity struct {
	Forecast int    `json:"forecast"`
	Index    string `json:"index"`
}

type GenerationMix struct {
	Fuel string  `json:"fuel"`
	Perc float64 `json:"perc"`
}

// CarbonClient fetches regional carbon-intensity forecasts. It implements
// correlation.CarbonSource.
type CarbonClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewCarbonClient(client *http.Client, baseURL string) *CarbonClient {
	return &CarbonClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		circuit: newBreaker("carbon-intensity"),
	}
}

func (c *CarbonClient) intensityURL(regionID int, day time.Time) string {
	return fmt.Sprintf("%s/regional/intensity/%s/%s/regionid/%d",
		c.baseURL,
		day.Format(carbonTimeLayout),
		day.AddDate(0, 0, 1).Format(carbonTimeLayout),
		regionID,
	)
}

// FetchRaw returns the provider document for the [day, day+1day) window.
func (c *CarbonClient) FetchRaw(ctx context.Context, regionID int, day time.Time) (CarbonResponse, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.intensityURL(regionID, day), nil)
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return CarbonResponse{}, fmt.Errorf("carbon intensity request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload CarbonResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CarbonResponse{}, fmt.Errorf("carbon intensity response decode failed: %w", err)
	}
	return payload, nil
}

// Fetch shapes the day window's first period into a daily reading. An empty
// series is an upstream error, never an index panic.
func (c *CarbonClient) Fetch(ctx context.Context, regionID int, day time.Time) (correlation.CarbonReading, error) {
	payload, err := c.FetchRaw(ctx, regionID, day)
	if err != nil {
		return correlation.CarbonReading{}, err
	}

	if len(payload.Data.Data) == 0 {
		return correlation.CarbonReading{}, fmt.Errorf("carbon intensity returned no periods for %s", day.Format(correlation.DateLayout))
	}

	first := payload.Data.Data[0]
	mix := make([]correlation.FuelShare, 0, len(first.GenerationMix))
	for _, g := range first.GenerationMix {
		mix = append(mix, correlation.FuelShare{Fuel: g.Fuel, Percentage: g.Perc})
	}

	return correlation.CarbonReading{
		Date:              day,
		ForecastIntensity: first.Intensity.Forecast,
		Index:             first.Intensity.Index,
		FuelMix:           mix,
	}, nil
}

// Ping issues a minimal availability probe against the provider. Only
// transport and status failures count; the body is discarded.
func (c *CarbonClient) Ping(ctx context.Context) error {
	day := time.Now().UTC().Truncate(24 * time.Hour)

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.intensityURL(13, day), nil)
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
