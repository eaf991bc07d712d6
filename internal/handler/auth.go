package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ticketminer/box-office/internal/config"
	"github.com/ticketminer/box-office/internal/middleware"
	"github.com/ticketminer/box-office/internal/registry"
	"github.com/ticketminer/box-office/internal/utils"
)

// AuthHandler bundles dependencies for the login endpoints. Customers
// authenticate against the registry; the single administrator account
// comes from configuration.
type AuthHandler struct {
	Cfg config.Config
	Reg *registry.Registry
}

func NewAuthHandler(cfg config.Config, reg *registry.Registry) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Reg: reg}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	ID     int       `json:"id"`
	Name   string    `json:"name,omitempty"`
	Role   string    `json:"role"`
	Member bool      `json:"member,omitempty"`
	Access tokenPart `json:"access"`
}

// Login authenticates a username/password pair and returns a signed
// access token. Usernames are matched case-insensitively. The admin
// credentials from the environment take precedence over customer
// records.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	if strings.EqualFold(req.Username, h.Cfg.AdminUsername) {
		if req.Password != h.Cfg.AdminPassword {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		access, err := utils.NewAccessToken(h.Cfg.JWTSecret, 0, middleware.RoleAdmin, h.Cfg.AccessTTLMin)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
		}
		return c.JSON(http.StatusOK, loginResp{
			ID:     0,
			Role:   middleware.RoleAdmin,
			Access: tokenPart{Token: access.Token, Expires: access.Exp},
		})
	}

	cu, err := h.Reg.CustomerByUsername(req.Username)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyPassword(cu.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cu.ID, middleware.RoleCustomer, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		ID:     cu.ID,
		Name:   cu.FirstName + " " + cu.LastName,
		Role:   middleware.RoleCustomer,
		Member: cu.Member,
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me echoes the authenticated identity from the token claims.
func (h *AuthHandler) Me(c echo.Context) error {
	id, _ := customerID(c)
	role, _ := c.Get("role").(string)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
}
