package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/session"
)

// AdminHandler exposes operator-only views over the session registry. The
// routes it serves sit behind the admin gate.
type AdminHandler struct {
	registry *session.Registry
}

func NewAdminHandler(registry *session.Registry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// Sessions lists the principals with a live session context.
//
// @Summary      List active sessions
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminSessionsResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /admin/sessions [get]
func (h *AdminHandler) Sessions(c echo.Context) error {
	uids := h.registry.UIDs()
	return c.JSON(http.StatusOK, adminSessionsResponse{Count: len(uids), UIDs: uids})
}
