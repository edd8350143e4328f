package handler

import (
	"github.com/openforum/session-gateway/internal/core/domain"
)

// --- Request / Response types ---

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type federatedExchangeRequest struct {
	Code  string `json:"code"  validate:"required"`
	State string `json:"state"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
}

type authResponse struct {
	Token    string           `json:"token"`
	Identity *domain.Identity `json:"identity"`
}

type federatedURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=dark light"`
}

type themeResponse struct {
	Theme string `json:"theme"`
}

type roleResponse struct {
	Role domain.Role `json:"role"`
}

type gateCheckRequest struct {
	Route string `json:"route" validate:"required,oneof=anonymous authenticated admin"`
	Path  string `json:"path"  validate:"required"`
}

type upgradeRequest struct {
	CardNumber string `json:"card_number" validate:"required"`
	ExpMonth   int    `json:"exp_month"   validate:"required,min=1,max=12"`
	ExpYear    int    `json:"exp_year"    validate:"required"`
	CVC        string `json:"cvc"         validate:"required"`
	Name       string `json:"name"        validate:"required"`
}

type adminSessionsResponse struct {
	Count int      `json:"count"`
	UIDs  []string `json:"uids"`
}
