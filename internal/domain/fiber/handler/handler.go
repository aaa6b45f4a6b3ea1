package handler

import (
	"context"
	"errors"

	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/response"
	"github.com/fadilmartias/jobseek/internal/service"
	"github.com/fadilmartias/jobseek/internal/usecase"
	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/gofiber/fiber/v2"
)

type JobSearcher interface {
	DoJobSearch(ctx context.Context, q dto.SearchQuery) (*response.Page[dto.JobResultDTO], error)
	GetJob(ctx context.Context, id string) (*dto.JobDetailDTO, error)
}

type Ingester interface {
	Run(ctx context.Context) (*usecase.IngestReport, error)
}

type Backfiller interface {
	RunExclusive(ctx context.Context) (int, error)
}

var (
	_ JobSearcher = (*usecase.SearchUsecase)(nil)
	_ Ingester    = (*usecase.IngestUsecase)(nil)
	_ Backfiller  = (*usecase.BackfillUsecase)(nil)
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrLockHeld):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrModelUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, message string, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    statusFor(err),
		Message: message,
	}, err)
}
