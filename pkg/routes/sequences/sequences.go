// Package sequences exposes the raw read retrieval endpoint.
package sequences

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/processor"
)

// Service is the slice of the processor this handler needs.
type Service interface {
	GetSequences(ctx context.Context, req models.FetchSequencesRequest) (*models.FetchSequencesResponse, error)
}

// Handler handles sequence download API requests
type Handler struct {
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new sequences handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the sequences routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/sequences/fetch", h.Fetch)
}

// Fetch handles POST /sequences/fetch. Downloads run for the whole batch.
func (h *Handler) Fetch(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.FetchSequencesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	resp, err := h.service.GetSequences(ctx, req)
	if err != nil {
		switch e := err.(type) {
		case *models.ErrInvalidIDs:
			return httperror.NewHTTPError(http.StatusBadRequest, e.Error())
		case *processor.InvalidIDsError:
			return httperror.NewHTTPError(http.StatusUnprocessableEntity, e.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
