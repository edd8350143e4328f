package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openforum/session-gateway/internal/api/metrics"
	"github.com/openforum/session-gateway/internal/core/ports"
)

// MembershipHandler runs the paid upgrade to the gold tier.
type MembershipHandler struct{}

func NewMembershipHandler() *MembershipHandler {
	return &MembershipHandler{}
}

// Upgrade charges the caller's card and moves their profile to the gold
// tier.
//
// @Summary      Upgrade to gold membership
// @Tags         membership
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      upgradeRequest  true  "Card details"
// @Success      200   {object}  domain.UpgradeReceipt
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /membership/upgrade [post]
func (h *MembershipHandler) Upgrade(c echo.Context) error {
	sc, err := sessionCtx(c)
	if err != nil {
		return err
	}

	var req upgradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	card := ports.CardDetails{
		Number:   req.CardNumber,
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
		CVC:      req.CVC,
		Name:     req.Name,
	}

	receipt, err := sc.Membership.UpgradeToGold(c.Request().Context(), card)
	if err != nil {
		metrics.MembershipUpgradesTotal.WithLabelValues("error").Inc()
		// The charge may have gone through even though the tier update
		// failed; surface the receipt with the error's status in that case.
		if receipt != nil {
			return c.JSON(http.StatusBadGateway, receipt)
		}
		return err
	}

	metrics.MembershipUpgradesTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, receipt)
}
