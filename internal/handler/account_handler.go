package handler

import (
	"errors"
	"net/http"

	"storefront_accounts/internal/logging"
	"storefront_accounts/internal/metrics"
	"storefront_accounts/internal/middleware"
	"storefront_accounts/internal/model"
	"storefront_accounts/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account requests
type AccountHandler struct {
	service service.AccountService
	metrics *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler. m may be nil.
func NewAccountHandler(s service.AccountService, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{service: s, metrics: m}
}

// RegisterAccountRoutes registers account routes. authMW guards the routes that need an identity.
func (h *AccountHandler) RegisterAccountRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/userRegister", h.Register)
	rg.POST("/userLogin", h.Login)
	rg.POST("/userLogout", h.Logout)

	rg.PUT("/updateUserProfile", authMW, h.UpdateProfile)
	rg.PATCH("/userUpdate/:id", authMW, h.UpdateAccount)
	rg.DELETE("/userDelete/:id", authMW, h.DeleteAccount)
}

// Register handles user registration
func (h *AccountHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "register", err)
		return
	}

	account, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "register", err)
		return
	}

	h.metrics.RecordAccountEvent("register", "success")
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    account.View(),
	})
}

// Login handles user login and returns a token
func (h *AccountHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "login", err)
		return
	}

	account, token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	h.metrics.RecordAccountEvent("login", "success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    account.View(),
	})
}

// Logout only acknowledges the request. Tokens are stateless and stay valid
// until they expire, so the client drops its own copy.
func (h *AccountHandler) Logout(c *gin.Context) {
	h.metrics.RecordAccountEvent("logout", "success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// UpdateProfile changes the caller's own profile after re-checking their password
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	claims, err := middleware.ClaimsFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "access token required"})
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "update_profile", err)
		return
	}

	account, token, err := h.service.UpdateProfile(c.Request.Context(), claims.AccountID, req.CurrentPassword, req.Updates)
	if err != nil {
		h.fail(c, "update_profile", err)
		return
	}

	h.metrics.RecordAccountEvent("update_profile", "success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"token":   token,
		"user":    account.View(),
	})
}

// UpdateAccount applies a partial update to the caller's own account by id
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	claims, err := middleware.ClaimsFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "access token required"})
		return
	}

	var req model.AccountUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "update_account", err)
		return
	}

	account, err := h.service.UpdateAccount(c.Request.Context(), claims.AccountID, c.Param("id"), req)
	if err != nil {
		h.fail(c, "update_account", err)
		return
	}

	h.metrics.RecordAccountEvent("update_account", "success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    account.View(),
	})
}

// DeleteAccount removes an account by id
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	account, err := h.service.DeleteAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "delete", err)
		return
	}

	h.metrics.RecordAccountEvent("delete", "success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
		"user": gin.H{
			"id":       account.ID,
			"username": account.Username,
			"email":    account.Email,
		},
	})
}

func (h *AccountHandler) badBody(c *gin.Context, op string, err error) {
	logging.FromContext(c.Request.Context()).Debug("malformed request body", "op", op, "error", err)
	h.metrics.RecordAccountEvent(op, "invalid")
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
}

// fail maps service errors onto HTTP statuses. Unknown errors are logged and
// answered with a generic 500.
func (h *AccountHandler) fail(c *gin.Context, op string, err error) {
	status, outcome := statusFor(err)
	h.metrics.RecordAccountEvent(op, outcome)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("account operation failed", "op", op, "error", err)
		c.JSON(status, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, service.ErrNotAccountOwner):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrIncorrectPassword):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "error"
	}
}
