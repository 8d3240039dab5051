package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/dashboard"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/firespot"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/geocode"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/store"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather"
)

var validate = validator.New()

// Deps bundles the collaborators the route layer composes.
type Deps struct {
	Manager  *dashboard.Manager
	Spots    firespot.Provider
	History  weather.HistoryStore
	Resolver *geocode.Resolver

	// Frontend bootstrap values served verbatim; the core never uses the
	// map token itself.
	MapboxToken      string
	DefaultViewPoint weather.ViewPoint
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"mapboxToken":      deps.MapboxToken,
			"defaultViewPoint": deps.DefaultViewPoint,
		})
	})

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		var vp *weather.ViewPoint
		if len(c.Body()) > 0 {
			req := new(viewPointBody)
			if err := c.BodyParser(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			v := req.toViewPoint(deps.DefaultViewPoint.Zoom)
			vp = &v
		}

		session := deps.Manager.Create(vp)
		return c.Status(fiber.StatusCreated).JSON(session.Snapshot())
	})

	v1.Get("/sessions/:id", func(c *fiber.Ctx) error {
		session, ok := deps.Manager.Get(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown session")
		}
		return c.JSON(session.Snapshot())
	})

	v1.Put("/sessions/:id/viewpoint", func(c *fiber.Ctx) error {
		session, ok := deps.Manager.Get(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown session")
		}

		req := new(viewPointBody)
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// The fetch runs asynchronously; the accepted snapshot shows the
		// loading state the UI should render meanwhile.
		session.SetViewPoint(req.toViewPoint(session.ViewPoint().Zoom))
		return c.Status(fiber.StatusAccepted).JSON(session.Snapshot())
	})

	v1.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		deps.Manager.Delete(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/firespots", func(c *fiber.Ctx) error {
		spots, err := deps.Spots.Fetch(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{"spots": spots})
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		vp := weather.ViewPoint{Latitude: req.Lat, Longitude: req.Lon}
		readings, err := deps.History.Range(vp, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested coordinate")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"viewPoint": vp,
			"readings":  readings,
		})
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		if deps.Resolver == nil || !deps.Resolver.Enabled() {
			return fiber.NewError(fiber.StatusNotFound, "place search is not configured")
		}

		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}

		vp, err := deps.Resolver.Resolve(q)
		if err != nil {
			if errors.Is(err, geocode.ErrNoMatch) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(vp)
	})
}

// viewPointBody is the camera-change payload from the map collaborator.
// Coordinates are required but deliberately not range-checked: out-of-range
// values pass through to the upstream weather service, whose response
// decides (zero is a valid coordinate, hence pointers).
type viewPointBody struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Zoom      *float64 `json:"zoomLevel"`
}

func (b *viewPointBody) toViewPoint(fallbackZoom float64) weather.ViewPoint {
	zoom := fallbackZoom
	if b.Zoom != nil {
		zoom = *b.Zoom
	}
	return weather.ViewPoint{
		Latitude:  *b.Latitude,
		Longitude: *b.Longitude,
		Zoom:      zoom,
	}
}

// historyQuery holds query parameters for the history endpoint. The time
// window is optional and defaults to everything retained.
type historyQuery struct {
	Lat  float64
	Lon  float64
	From time.Time
	To   time.Time
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errors.New("invalid lon")
	}
	h.Lat = lat
	h.Lon = lon

	h.From = time.Time{}
	h.To = time.Now().UTC()

	if s := c.Query("from"); s != "" {
		if h.From, err = parseTime(s); err != nil {
			return err
		}
	}
	if s := c.Query("to"); s != "" {
		if h.To, err = parseTime(s); err != nil {
			return err
		}
	}
	if h.To.Before(h.From) {
		return errors.New("to must not be before from")
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
