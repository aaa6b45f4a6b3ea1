package handler

import (
	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	uc  JobSearcher
	cfg *config.SearchConfig
}

func NewSearchHandler(uc JobSearcher, cfg *config.SearchConfig) *SearchHandler {
	return &SearchHandler{uc: uc, cfg: cfg}
}

func (h *SearchHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/search", h.Search)
	app.Get("/jobs/:id", h.GetJob)
}

// Search answers GET /search with the bare page envelope.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	q := dto.SearchQuery{Page: 1, PageSize: h.cfg.DefaultPageSize}
	if err := c.QueryParser(&q); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid query parameters",
		}, err)
	}

	page, err := h.uc.DoJobSearch(c.UserContext(), q)
	if err != nil {
		return errorResponse(c, "search failed", err)
	}
	return c.JSON(page)
}

func (h *SearchHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.uc.GetJob(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, "job not found", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job",
		Data:    job,
	})
}
