package controller

import (
	"net/http"
	"time"

	"campusdesk/internal/access"
	"campusdesk/internal/user/service"
	"campusdesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool   `yaml:"secure"`
	Domain string `yaml:"domain"`
	Path   string `yaml:"path"`
}

// AuthController handles auth-related HTTP endpoints.
type AuthController struct {
	authService *service.AuthService
	cookie      CookieConfig
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService *service.AuthService, cookie CookieConfig) *AuthController {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthController{authService: authService, cookie: cookie}
}

// Create handles account creation.
func (h *AuthController) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		SID:      req.SID,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "User created", response.Payload{"user": user.Profile()})
}

// Login verifies credentials and sets the session cookie.
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		SID:      req.SID,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, result.Token, int(time.Until(result.ExpiresAt).Seconds()))
	response.Success(c, "User logged in successfully", response.Payload{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      result.User,
	})
}

// Logout clears the cookie and revokes the current token. The cookie is
// cleared even when revocation fails.
func (h *AuthController) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	if err := h.authService.Logout(c.Request.Context(), access.CurrentClaims(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "User logged out successfully", nil)
}

// ChangePassword replaces the caller's password.
func (h *AuthController) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), access.CurrentUser(c), access.CurrentClaims(c),
		service.ChangePasswordInput{
			SID:         req.SID,
			OldPassword: req.OldPassword,
			NewPassword: req.Password,
		})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookie(c, "", -1)
	response.Success(c, "Password has been changed", nil)
}

// Check echoes the authenticated user.
func (h *AuthController) Check(c *gin.Context) {
	profile, err := h.authService.Check(c.Request.Context(), access.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "User checked successfully", response.Payload{"user": profile})
}

func (h *AuthController) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(access.CookieName, value, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

// CreateRequest defines the account creation payload.
type CreateRequest struct {
	SID      string `json:"sid"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest defines the login payload.
type LoginRequest struct {
	SID      string `json:"sid"`
	Password string `json:"password"`
}

// ChangePasswordRequest defines the password change payload.
type ChangePasswordRequest struct {
	SID         string `json:"sid"`
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}
