package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/api/middleware"
	"github.com/openforum/session-gateway/internal/session"
)

// sessionCtx extracts the per-principal session context injected by the
// session middleware. Presence proves the middleware ran; handlers mounted
// without it fail fast instead of dereferencing nil.
func sessionCtx(c echo.Context) (*session.Context, error) {
	return middleware.SessionFromContext(c)
}

// principalUID returns the UID claim set by RequireSession. Empty for
// requests that came through OptionalSession without a token.
func principalUID(c echo.Context) string {
	uid, _ := c.Get(middleware.CtxUID).(string)
	return uid
}
