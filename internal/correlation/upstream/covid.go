package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker"

	"github.com/i474232898/carbon-covid-correlation/internal/correlation"
	"github.com/i474232898/carbon-covid-correlation/internal/regions"
)

// covidStructure maps our response keys onto the provider's metric names.
// It is sent percent-encoded in the structure query parameter.
const covidStructure = `{"date":"date","name":"areaName","dailyCases":"newCasesByPublishDate","cumulativeCases":"cumCasesByPublishDate","dailyDeaths":"newDeaths28DaysByPublishDate","cumulativeDeaths":"cumDeaths28DaysByPublishDate"}`

// CovidResponse mirrors the health-data provider's response document.
type CovidResponse struct {
	Data []CovidRecord `json:"data"`
}

// CovidRecord is one area/date row. The death counters are omitted by the
// provider for some areas and dates.
type CovidRecord struct {
	Date             string `json:"date"`
	Name             string `json:"name"`
	DailyCases       int    `json:"dailyCases"`
	CumulativeCases  int    `json:"cumulativeCases"`
	DailyDeaths      *int   `json:"dailyDeaths,omitempty"`
	CumulativeDeaths *int   `json:"cumulativeDeaths,omitempty"`
}

// CovidClient fetches per-day case counts from the health-data provider.
// It implements correlation.CovidSource.
type CovidClient struct {
	baseURL   string
	client    *http.Client
	directory *regions.Directory
	circuit   *gobreaker.CircuitBreaker
}

func NewCovidClient(client *http.Client, directory *regions.Directory, baseURL string) *CovidClient {
	return &CovidClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    client,
		directory: directory,
		circuit:   newBreaker("covid-data"),
	}
}

// dataURL builds the filter query for one area and day. The area name is
// percent-encoded because the provider's names contain spaces.
func (c *CovidClient) dataURL(desc regions.Descriptor, day time.Time) string {
	filters := fmt.Sprintf("areaName=%s;areaType=%s;date=%s",
		url.PathEscape(desc.CovidAreaName),
		desc.CovidAreaType,
		day.Format(correlation.DateLayout),
	)
	return fmt.Sprintf("%s/v1/data?filters=%s&structure=%s", c.baseURL, filters, url.QueryEscape(covidStructure))
}

// FetchRaw returns the provider document for one region and day. The
// provider gzip-encodes its response body; decompression failure is an
// upstream error for the day.
func (c *CovidClient) FetchRaw(ctx context.Context, regionID int, day time.Time) (CovidResponse, error) {
	// The engine validates the region up front, but this client must not
	// assume every caller did.
	desc, err := c.directory.Resolve(regionID)
	if err != nil {
		return CovidResponse{}, fmt.Errorf("covid area lookup failed: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.dataURL(desc, day), nil)
		if err != nil {
			return nil, err
		}
		// Request gzip explicitly so decompression stays under our control
		// and its failures surface as upstream errors.
		req.Header.Set("Accept-Encoding", "gzip")
		return req, nil
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return CovidResponse{}, fmt.Errorf("covid data request failed: %w", err)
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return CovidResponse{}, fmt.Errorf("covid response gunzip failed: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	var payload CovidResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return CovidResponse{}, fmt.Errorf("covid response decode failed: %w", err)
	}
	return payload, nil
}

// Fetch shapes the day's first row into a reading. An empty result set is an
// upstream error, never an index panic.
func (c *CovidClient) Fetch(ctx context.Context, regionID int, day time.Time) (correlation.CovidReading, error) {
	payload, err := c.FetchRaw(ctx, regionID, day)
	if err != nil {
		return correlation.CovidReading{}, err
	}

	if len(payload.Data) == 0 {
		return correlation.CovidReading{}, fmt.Errorf("covid data empty for %s", day.Format(correlation.DateLayout))
	}

	row := payload.Data[0]
	return correlation.CovidReading{
		Date:             day,
		AreaName:         row.Name,
		DailyCases:       row.DailyCases,
		CumulativeCases:  row.CumulativeCases,
		DailyDeaths:      row.DailyDeaths,
		CumulativeDeaths: row.CumulativeDeaths,
	}, nil
}

// Ping issues a minimal availability probe against the provider. Only
// transport and status failures count; the body is discarded.
func (c *CovidClient) Ping(ctx context.Context) error {
	desc, err := c.directory.Resolve(13)
	if err != nil {
		return err
	}

	// Probe with a recent but settled date; the provider lags by a few days.
	day := time.Now().UTC().AddDate(0, 0, -3).Truncate(24 * time.Hour)

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.dataURL(desc, day), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept-Encoding", "gzip")
		return req, nil
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
