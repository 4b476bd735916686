package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

const defaultActivityLimit = 50

// ActivityHandler lists recorded activity.
type ActivityHandler struct {
	reader ports.ActivityReader
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(reader ports.ActivityReader) *ActivityHandler {
	return &ActivityHandler{reader: reader}
}

// Logins handles GET /activity/logins.
//
// @Summary      Recent logins
// @Tags         activity
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of entries (default 50)"
// @Success      200    {object}  activityResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /activity/logins [get]
func (h *ActivityHandler) Logins(c echo.Context) error {
	limit := defaultActivityLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	entries, err := h.reader.Recent(c.Request().Context(), domain.ActivityLogin, limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	return c.JSON(http.StatusOK, activityResponse{Entries: entries})
}
