package analysis

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/flaretrack/flaretrack/internal/domain/events"
	"github.com/flaretrack/flaretrack/internal/platform/auth"
)

// Handler provides the signal report endpoints.
type Handler struct {
	svc   *Service
	clock func() time.Time
}

// NewHandler creates a new analysis handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, clock: func() time.Time { return time.Now().UTC() }}
}

// RegisterRoutes registers analysis routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/users/:user_id/signals", h.UserSignals, auth.RequireSelfOrRole("user_id", "clinician"))
	api.POST("/signals/analyze", h.AnalyzeSnapshot)
}

// AnalyzeRequest is a raw snapshot plus the optional subject and clock.
type AnalyzeRequest struct {
	events.RawSnapshot
	UserID string `json:"user_id,omitempty"`
	Now    string `json:"now,omitempty"`
}

// UserSignals handles GET /api/v1/users/:user_id/signals?now=...
func (h *Handler) UserSignals(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	now, err := h.parseNow(c.QueryParam("now"))
	if err != nil {
		return err
	}

	report, err := h.svc.Report(c.Request().Context(), userID, now)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// AnalyzeSnapshot handles POST /api/v1/signals/analyze. Nothing is read
// from or written to the store.
func (h *Handler) AnalyzeSnapshot(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	now, err := h.parseNow(req.Now)
	if err != nil {
		return err
	}

	userID := uuid.Nil
	switch {
	case req.UserID != "":
		if userID, err = uuid.Parse(req.UserID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
	default:
		if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			userID = id
		}
	}

	return c.JSON(http.StatusOK, h.svc.Analyze(userID, req.RawSnapshot, now))
}

func (h *Handler) parseNow(v string) (time.Time, error) {
	if v == "" {
		return h.clock(), nil
	}
	now, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "now must be an RFC 3339 timestamp")
	}
	return now, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "timed out reading user records")
	case errors.Is(err, ErrFetch):
		return echo.NewHTTPError(http.StatusBadGateway, "failed to read user records")
	default:
		return err
	}
}
