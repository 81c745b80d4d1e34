// Package validation exposes the accession classification endpoint.
package validation

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/pkg/models"
)

// Service is the slice of the processor this handler needs.
type Service interface {
	ValidateIDs(ctx context.Context, req models.ValidateIDsRequest) (*models.ValidateIDsResponse, error)
}

// Handler handles id validation API requests
type Handler struct {
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new validation handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the validation routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/ids/validate", h.Validate)
}

// Validate handles POST /ids/validate
func (h *Handler) Validate(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ValidateIDsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	resp, err := h.service.ValidateIDs(ctx, req)
	if err != nil {
		if e, ok := err.(*models.ErrInvalidIDs); ok {
			return httperror.NewHTTPError(http.StatusBadRequest, e.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
