package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const carbonFixture = `{
	"data": {
		"data": [
			{
				"from": "2023-06-10T00:00:00Z",
				"to": "2023-06-10T00:30:00Z",
				"intensity": {"forecast": 141, "index": "moderate"},
				"generationmix": [
					{"fuel": "gas", "perc": 38.2},
					{"fuel": "wind", "perc": 25.7}
				]
			},
			{
				"from": "2023-06-10T00:30:00Z",
				"to": "2023-06-10T01:00:00Z",
				"intensity": {"forecast": 150, "index": "moderate"},
				"generationmix": []
			}
		]
	}
}`

func testDay(t *testing.T) time.Time {
	t.Helper()
	day, err := time.ParseInLocation("2006-01-02", "2023-06-10", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return day
}

func TestCarbonFetchShapesFirstPeriod(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(carbonFixture))
	}))
	defer server.Close()

	client := NewCarbonClient(server.Client(), server.URL)

	reading, err := client.Fetch(context.Background(), 13, testDay(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := "/regional/intensity/2023-06-10T00:00:00Z/2023-06-11T00:00:00Z/regionid/13"
	if gotPath != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, gotPath)
	}

	if reading.ForecastIntensity != 141 {
		t.Errorf("expected forecast 141, got %d", reading.ForecastIntensity)
	}
	if reading.Index != "moderate" {
		t.Errorf("expected index moderate, got %q", reading.Index)
	}
	if len(reading.FuelMix) != 2 || reading.FuelMix[0].Fuel != "gas" || reading.FuelMix[0].Percentage != 38.2 {
		t.Errorf("unexpected fuel mix: %+v", reading.FuelMix)
	}
}

func TestCarbonFetchEmptySeriesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"data": []}}`))
	}))
	defer server.Close()

	client := NewCarbonClient(server.Client(), server.URL)

	if _, err := client.Fetch(context.Background(), 13, testDay(t)); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestCarbonFetchNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCarbonClient(server.Client(), server.URL)

	if _, err := client.Fetch(context.Background(), 13, testDay(t)); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCarbonFetchMalformedBodyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewCarbonClient(server.Client(), server.URL)

	if _, err := client.Fetch(context.Background(), 13, testDay(t)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
