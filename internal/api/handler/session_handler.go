package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/api/metrics"
)

// SessionHandler exposes the caller's session snapshot, theme preference,
// and resolved role.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Current returns the caller's session snapshot.
//
// @Summary      Get the current session
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Session
// @Failure      401  {object}  map[string]string
// @Router       /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sc.Store.Current())
}

// SetTheme stores an explicit theme choice.
//
// @Summary      Set the session theme
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      themeRequest  true  "Theme (dark or light)"
// @Success      200   {object}  themeResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/theme [put]
func (h *SessionHandler) SetTheme(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	var req themeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := sc.Store.SetTheme(c.Request().Context(), req.Theme); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, themeResponse{Theme: req.Theme})
}

// ToggleTheme flips between dark and light.
//
// @Summary      Toggle the session theme
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  themeResponse
// @Router       /session/theme/toggle [post]
func (h *SessionHandler) ToggleTheme(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	theme, err := sc.Store.ToggleTheme(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, themeResponse{Theme: theme})
}

// Role returns the caller's resolved role, reading through the per-session
// cache.
//
// @Summary      Get the resolved role
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roleResponse
// @Failure      401  {object}  map[string]string
// @Router       /session/role [get]
func (h *SessionHandler) Role(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	sess := sc.Store.Current()
	email := ""
	if sess.Identity != nil {
		email = sess.Identity.Email
	}

	role, lookupErr := sc.Roles.Resolve(c.Request().Context(), email)
	if lookupErr != nil {
		metrics.RoleLookupsTotal.WithLabelValues("error").Inc()
	} else {
		metrics.RoleLookupsTotal.WithLabelValues("ok").Inc()
	}
	// Lookup failures still yield the safe default role.
	return c.JSON(http.StatusOK, roleResponse{Role: role})
}

// RefetchRole bypasses the role cache and asks the directory again.
//
// @Summary      Refetch the resolved role
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roleResponse
// @Failure      401  {object}  map[string]string
// @Router       /session/role/refetch [post]
func (h *SessionHandler) RefetchRole(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	role, lookupErr := sc.Roles.Refetch(c.Request().Context())
	if lookupErr != nil {
		metrics.RoleLookupsTotal.WithLabelValues("error").Inc()
	} else {
		metrics.RoleLookupsTotal.WithLabelValues("ok").Inc()
	}
	return c.JSON(http.StatusOK, roleResponse{Role: role})
}
