package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/carbon-covid-correlation/internal/correlation"
	"github.com/i474232898/carbon-covid-correlation/internal/correlation/upstream"
	"github.com/i474232898/carbon-covid-correlation/internal/status"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(
	app *fiber.App,
	engine *correlation.Engine,
	carbon *upstream.CarbonClient,
	covid *upstream.CovidClient,
	monitor *status.Monitor,
) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("homepage")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "carbon-covid-correlation",
			"upstreams": monitor.Snapshot(),
		})
	})

	app.Get("/carbon", func(c *fiber.Ctx) error {
		q, rng, err := parseRegionQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		payload, err := carbon.FetchRaw(c.Context(), q.RegionID, rng.From)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch carbon intensity data")
		}
		return c.JSON(payload)
	})

	app.Get("/covid", func(c *fiber.Ctx) error {
		q, rng, err := parseRegionQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		payload, err := covid.FetchRaw(c.Context(), q.RegionID, rng.From)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch covid data")
		}
		return c.JSON(payload)
	})

	// The correlated endpoint always answers 200; business errors ride the
	// error field of the body.
	app.Get("/main", func(c *fiber.Ctx) error {
		regionID, err := strconv.Atoi(c.Query("region_id"))
		if err != nil {
			return c.JSON(errorResponse("Invalid region id"))
		}

		rng, err := correlation.ParseDateRange(c.Query("from"), c.Query("to"))
		if err != nil {
			if errors.Is(err, correlation.ErrInvalidRange) {
				return c.JSON(errorResponse(correlation.ErrInvalidRange.Error()))
			}
			return c.JSON(errorResponse(err.Error()))
		}

		result, err := engine.Correlate(c.Context(), regionID, rng)
		if err != nil {
			return c.JSON(errorResponse(err.Error()))
		}

		records := result.Records()
		data := make([]regionDatum, 0, len(records))
		for _, rec := range records {
			cases := rec.CumulativeCovidCases
			intensity := rec.CarbonIntensity
			data = append(data, regionDatum{
				Date:                 rec.Date.Format(correlation.DateLayout),
				CumulativeCovidCases: &cases,
				CarbonIntensity:      &intensity,
			})
		}

		return c.JSON(regionResponse{
			Region: &result.Region,
			Data:   data,
		})
	})
}

// regionResponse is the /main body. Region and Data are null when Error is
// set, and vice versa.
type regionResponse struct {
	Region *string       `json:"region"`
	Data   []regionDatum `json:"data"`
	Error  *string       `json:"error"`
}

type regionDatum struct {
	Date                 string `json:"date"`
	CumulativeCovidCases *int   `json:"cumulative_covid_cases"`
	CarbonIntensity      *int   `json:"carbon_intensity"`
}

func errorResponse(msg string) regionResponse {
	return regionResponse{Error: &msg}
}

// regionQuery holds the query parameters shared by the data endpoints.
type regionQuery struct {
	RegionID int    `validate:"required,min=1"`
	From     string `validate:"required,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
}

func parseRegionQuery(c *fiber.Ctx) (regionQuery, correlation.DateRange, error) {
	var q regionQuery

	if raw := c.Query("region_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return q, correlation.DateRange{}, errors.New("region_id must be an integer")
		}
		q.RegionID = id
	}
	q.From = c.Query("from")
	q.To = c.Query("to")

	if err := validate.Struct(q); err != nil {
		return q, correlation.DateRange{}, err
	}

	rng, err := correlation.ParseDateRange(q.From, q.To)
	if err != nil {
		return q, correlation.DateRange{}, err
	}

	return q, rng, nil
}
