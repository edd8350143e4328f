package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/session"
)

// Context keys set by the session middleware.
const (
	CtxUID     = "uid"
	CtxEmail   = "email"
	CtxSession = "session_ctx"
)

// TokenVerifier validates a bearer token and returns its subject claims.
// The local identity provider implements it.
type TokenVerifier interface {
	VerifyToken(token string) (uid, email string, err error)
}

// RequireSession validates the bearer token and injects the caller's bound
// session context. Requests without a valid token, or whose session is no
// longer bound, get 401.
func RequireSession(verifier TokenVerifier, reg *session.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, email, err := bearerClaims(c, verifier)
			if err != nil {
				return err
			}

			sc, ok := reg.Lookup(uid)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "session not found")
			}

			c.Set(CtxUID, uid)
			c.Set(CtxEmail, email)
			c.Set(CtxSession, sc)
			return next(c)
		}
	}
}

// OptionalSession injects the caller's session context when a valid token
// is presented and the shared anonymous context otherwise. Anonymous
// navigation checks flow through here.
func OptionalSession(verifier TokenVerifier, reg *session.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(CtxSession, reg.Anonymous())

			if c.Request().Header.Get("Authorization") != "" {
				uid, email, err := bearerClaims(c, verifier)
				if err == nil {
					if sc, ok := reg.Lookup(uid); ok {
						c.Set(CtxUID, uid)
						c.Set(CtxEmail, email)
						c.Set(CtxSession, sc)
					}
				}
			}
			return next(c)
		}
	}
}

// SessionFromContext extracts the session context injected by the
// middleware.
func SessionFromContext(c echo.Context) (*session.Context, error) {
	sc, _ := c.Get(CtxSession).(*session.Context)
	if sc == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sc, nil
}

func bearerClaims(c echo.Context, verifier TokenVerifier) (string, string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	uid, email, err := verifier.VerifyToken(parts[1])
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return uid, email, nil
}
