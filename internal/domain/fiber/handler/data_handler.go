package handler

import (
	"github.com/fadilmartias/jobseek/internal/middleware"
	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DataHandler exposes the admin-only ingest and embed triggers.
type DataHandler struct {
	ingest     Ingester
	backfill   Backfiller
	adminToken string
	logger     *zap.Logger
}

func NewDataHandler(ingest Ingester, backfill Backfiller, adminToken string, logger *zap.Logger) *DataHandler {
	return &DataHandler{ingest: ingest, backfill: backfill, adminToken: adminToken, logger: logger}
}

func (h *DataHandler) RegisterRoutes(app fiber.Router) {
	data := app.Group("/data", middleware.AdminOnly(h.adminToken))
	data.Post("/external_retrieval", h.ExternalRetrieval)
	data.Post("/embed", h.Embed)
}

func (h *DataHandler) ExternalRetrieval(c *fiber.Ctx) error {
	report, err := h.ingest.Run(c.UserContext())
	if err != nil {
		h.logger.Error("ingest failed", zap.Error(err))
		return errorResponse(c, "failed to retrieve external jobs", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success retrieve external jobs",
		Data:    report,
	})
}

func (h *DataHandler) Embed(c *fiber.Ctx) error {
	n, err := h.backfill.RunExclusive(c.UserContext())
	if err != nil {
		h.logger.Warn("embed run failed", zap.Error(err))
		return errorResponse(c, "failed to embed jobs", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success embed jobs",
		Data:    fiber.Map{"embedded": n},
	})
}
