package terminology

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flaretrack/flaretrack/internal/platform/auth"
)

// Handler provides REST endpoints for terminology services.
type Handler struct {
	svc *Service
}

// NewHandler creates a new terminology handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers terminology routes on the API group. Browsing the
// MedDRA dictionary is limited to clinical and research users.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	termGroup := api.Group("/terminology", auth.RequireRole("clinician", "researcher"))
	termGroup.GET("/meddra", h.SearchMedDRA)
	termGroup.GET("/meddra/:code", h.LookupMedDRA)
}

func getLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("_count"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

// SearchMedDRA handles GET /api/v1/terminology/meddra?q=...
func (h *Handler) SearchMedDRA(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}
	results, err := h.svc.SearchMedDRA(c.Request().Context(), query, getLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if results == nil {
		results = []*MedDRATerm{}
	}
	return c.JSON(http.StatusOK, results)
}

// LookupMedDRA handles GET /api/v1/terminology/meddra/:code
func (h *Handler) LookupMedDRA(c echo.Context) error {
	results, err := h.svc.LookupMedDRA(c.Request().Context(), c.Param("code"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, results)
}
