// Package retrieval exposes the combined metadata-plus-sequences endpoint.
package retrieval

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
	GetAll(ctx context.Context, req models.FetchAllRequest) (*models.FetchAllResponse, error)
}

// Handler handles combined retrieval API requests
type Handler struct {
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new combined retrieval handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the combined retrieval routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/all/fetch", h.Fetch)
}

// Fetch handles POST /all/fetch
func (h *Handler) Fetch(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.FetchAllRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	resp, err := h.service.GetAll(ctx, req)
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
