package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/api/metrics"
	"github.com/openforum/session-gateway/internal/core/domain"
)

// Gate evaluates the route gate of the given kind against the caller's
// session context before the handler runs. Denied navigations answer with
// the redirect target and the attempted path, mirroring what the SPA's
// client-side gate does with the same decision.
func Gate(kind domain.RouteKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sc, err := SessionFromContext(c)
			if err != nil {
				return err
			}

			d := sc.Gate.Evaluate(c.Request().Context(), kind, c.Request().URL.Path)
			metrics.GateDecisionsTotal.WithLabelValues(string(kind), string(d.State)).Inc()

			switch d.State {
			case domain.GateAllow:
				return next(c)
			case domain.GatePending:
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session still loading")
			case domain.GateDenyToLogin:
				return c.JSON(http.StatusUnauthorized, d)
			default:
				return c.JSON(http.StatusForbidden, d)
			}
		}
	}
}
