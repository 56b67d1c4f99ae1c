package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-tracker/internal/cloudapp"
	"github.com/i474232898/weather-tracker/internal/logging"
	"github.com/i474232898/weather-tracker/internal/scheduler"
)

const (
	serviceName = "weather-tracker"

	// HeaderRequestID echoes the id attached to the request's log lines.
	HeaderRequestID = "X-Request-ID"
)

// Deps are the collaborators the routes need.
type Deps struct {
	App        *cloudapp.App
	Descriptor cloudapp.Descriptor

	// StoreStatus reports the latest store probe. Nil skips the store section of /health.
	StoreStatus func() scheduler.Status

	Logger *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Use(cors.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "ok",
			"service": serviceName,
		}
		if d.StoreStatus != nil {
			st := d.StoreStatus()
			body["store"] = st
			if !st.CheckedAt.IsZero() && !st.Healthy {
				body["status"] = "degraded"
			}
		}
		return c.JSON(body)
	})

	apps := app.Group("/apps/weather")

	apps.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(d.Descriptor)
	})

	apps.Post("/", func(c *fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Set(HeaderRequestID, reqID)

		log := logger.With(zap.String("request_id", reqID))
		capture, err := cloudapp.ParseCapture(c.Body())
		if err != nil {
			log.Info("rejecting capture", zap.Error(err))
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := logging.WithContext(c.UserContext(), log)
		return c.JSON(d.App.Process(ctx, capture))
	})

	// Leaving keeps the user's record; nothing is tracked until they join again.
	apps.Post("/leave", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
}
