package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/api/metrics"
	"github.com/openforum/session-gateway/internal/core/domain"
)

// GateHandler answers navigation checks for the SPA's router. The client
// asks before rendering a route; the decision mirrors what the server-side
// gate middleware enforces on the API itself.
type GateHandler struct{}

func NewGateHandler() *GateHandler {
	return &GateHandler{}
}

// Check evaluates one navigation attempt against the caller's session.
//
// @Summary      Check a navigation attempt
// @Tags         gate
// @Accept       json
// @Produce      json
// @Param        body  body      gateCheckRequest  true  "Route kind and attempted path"
// @Success      200   {object}  domain.GateDecision
// @Failure      400   {object}  map[string]string
// @Router       /gate/check [post]
func (h *GateHandler) Check(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	var req gateCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d := sc.Gate.Evaluate(c.Request().Context(), domain.RouteKind(req.Route), req.Path)
	metrics.GateDecisionsTotal.WithLabelValues(req.Route, string(d.State)).Inc()
	return c.JSON(http.StatusOK, d)
}
