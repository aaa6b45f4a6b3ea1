package main

import (
	"context"
	"errors"
	"time"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/database"
	"github.com/fadilmartias/jobseek/internal/domain/fiber/handler"
	"github.com/fadilmartias/jobseek/internal/middleware"
	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newFiberApp(appConfig *config.AppConfig, log *zap.Logger, ready func(*fiber.Ctx) bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
			}
			return util.ErrorResponse(ctx, util.ErrorResponseFormat{Code: code, Message: message}, err)
		},
	})
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: ready,
	}))
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(appConfig.RateLimit, appConfig.RateWindow))
	return app
}

func registerRoutes(app *fiber.App, comp *components, appConfig *config.AppConfig) {
	handler.NewSearchHandler(comp.search, config.LoadSearchConfig()).RegisterRoutes(app)
	handler.NewDataHandler(comp.ingest, comp.backfill, appConfig.AdminToken, comp.logger).RegisterRoutes(app)
}

// readinessProbe reports ready once the database answers. The memory store
// is always ready.
func readinessProbe(comp *components) func(*fiber.Ctx) bool {
	return func(c *fiber.Ctx) bool {
		if comp.db == nil {
			return true
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		return database.Ping(ctx, comp.db) == nil
	}
}
