package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/api/metrics"
	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/infrastructure/provider/oauth"
	"github.com/openforum/session-gateway/internal/session"
)

// StateStore tracks the single-use anti-CSRF states of the federated flow.
type StateStore interface {
	Issue(ctx context.Context, state string) error
	Consume(ctx context.Context, state string) (bool, error)
}

// AuthHandler handles account creation, sign-in (password and federated),
// sign-out, and profile edits. Successful sign-ins bind a fresh session
// context in the registry under the principal's UID.
type AuthHandler struct {
	registry *session.Registry
	flow     *oauth.Flow
	states   StateStore
	log      zerolog.Logger
}

// NewAuthHandler builds the handler. flow may be nil when no federated
// provider is configured; the federated endpoints then answer 501. states
// may be nil, which disables state verification on the exchange.
func NewAuthHandler(registry *session.Registry, flow *oauth.Flow, states StateStore, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{registry: registry, flow: flow, states: states, log: log}
}

// Register creates a new account and signs the caller in.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sc, err := h.registry.NewContext()
	if err != nil {
		return err
	}

	id, err := sc.Gateway.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		sc.Close()
		metrics.SignInsTotal.WithLabelValues("register", "error").Inc()
		return err
	}

	h.bind(id.UID, sc)
	metrics.SignInsTotal.WithLabelValues("register", "ok").Inc()
	return c.JSON(http.StatusCreated, authResponse{Token: sc.Store.Token(), Identity: id})
}

// Login signs an existing account in with email and password.
//
// @Summary      Sign in with password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sc, err := h.registry.NewContext()
	if err != nil {
		return err
	}

	id, err := sc.Gateway.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		sc.Close()
		metrics.SignInsTotal.WithLabelValues("password", "error").Inc()
		return err
	}

	h.bind(id.UID, sc)
	metrics.SignInsTotal.WithLabelValues("password", "ok").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: sc.Store.Token(), Identity: id})
}

// FederatedURL starts the federated sign-in flow.
//
// @Summary      Get the federated provider's authorization URL
// @Tags         auth
// @Produce      json
// @Success      200  {object}  federatedURLResponse
// @Failure      501  {object}  map[string]string
// @Router       /auth/federated/url [get]
func (h *AuthHandler) FederatedURL(c echo.Context) error {
	if h.flow == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "federated sign-in not configured")
	}

	state, err := h.flow.StateToken()
	if err != nil {
		return err
	}
	if h.states != nil {
		if err := h.states.Issue(c.Request().Context(), state); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, federatedURLResponse{URL: h.flow.AuthURL(state), State: state})
}

// FederatedExchange completes the federated sign-in flow with the
// authorization code the provider handed back.
//
// @Summary      Exchange a federated authorization code for a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      federatedExchangeRequest  true  "Authorization code"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      501   {object}  map[string]string
// @Router       /auth/federated/exchange [post]
func (h *AuthHandler) FederatedExchange(c echo.Context) error {
	if h.flow == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "federated sign-in not configured")
	}

	var req federatedExchangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.states != nil {
		ok, err := h.states.Consume(c.Request().Context(), req.State)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Authf("federated sign in", nil, "unknown or already used state")
		}
	}

	sc, err := h.registry.NewContext()
	if err != nil {
		return err
	}

	ctx := oauth.WithCode(c.Request().Context(), req.Code)
	id, err := sc.Gateway.SignInFederated(ctx)
	if err != nil {
		sc.Close()
		metrics.SignInsTotal.WithLabelValues("federated", "error").Inc()
		return err
	}

	h.bind(id.UID, sc)
	metrics.SignInsTotal.WithLabelValues("federated", "ok").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: sc.Store.Token(), Identity: id})
}

// Logout signs the caller out and drops their session context.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}
	uid := principalUID(c)

	signOutErr := sc.Gateway.SignOut(c.Request().Context())

	// The local session may be cleared even when the remote call failed,
	// depending on the configured sign-out policy. Drop the registry binding
	// whenever the identity is gone so the stale token stops resolving.
	if sc.Store.Current().Identity == nil && uid != "" {
		h.registry.Remove(uid)
		metrics.ActiveSessions.Set(float64(h.registry.Len()))
	}
	if signOutErr != nil {
		return signOutErr
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile edits the signed-in identity's display name and photo.
//
// @Summary      Update the signed-in profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/profile [patch]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.DisplayName == nil && req.PhotoURL == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	update := domain.ProfileUpdate{DisplayName: req.DisplayName, PhotoURL: req.PhotoURL}
	if err := sc.Gateway.UpdateIdentity(c.Request().Context(), update); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sc.Store.Current().Identity)
}

func (h *AuthHandler) bind(uid string, sc *session.Context) {
	h.registry.Bind(uid, sc)
	metrics.ActiveSessions.Set(float64(h.registry.Len()))
}
