// Package metadata exposes the run metadata retrieval endpoints.
package metadata

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/processor"
)

// Service is the slice of the processor this handler needs.
type Service interface {
	GetMetadata(ctx context.Context, req models.FetchMetadataRequest) (*models.FetchMetadataResponse, error)
	GetCachedMetadata(ctx context.Context, ids []string) (*models.FetchMetadataResponse, error)
}

// Handler handles metadata API requests
type Handler struct {
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new metadata handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the metadata routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/metadata/fetch", h.Fetch)
	g.GET("/metadata", h.Get)
}

// Fetch handles POST /metadata/fetch
func (h *Handler) Fetch(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.FetchMetadataRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	resp, err := h.service.GetMetadata(ctx, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /metadata?ids=SRR1,SRR2
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	raw := c.QueryParam("ids")
	if raw == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "ids query parameter is required")
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "ids query parameter is required")
	}

	resp, err := h.service.GetCachedMetadata(ctx, ids)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// mapError rewrites domain errors into client-facing HTTP errors.
func mapError(err error) error {
	switch e := err.(type) {
	case *models.ErrInvalidIDs:
		return httperror.NewHTTPError(http.StatusBadRequest, e.Error())
	case *processor.InvalidIDsError:
		return httperror.NewHTTPError(http.StatusUnprocessableEntity, e.Error())
	}
	return err
}
