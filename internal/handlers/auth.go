package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"terramap/api/internal/middleware"
	"terramap/api/internal/models"
	"terramap/api/internal/security"
	"terramap/api/internal/service"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusCreated, "registration successful", gin.H{
		"user_id": user.ID,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "login successful", gin.H{
		"token": result.Token,
		"user":  toUserResponse(result.User),
	})
}

// Logout is reachable without the auth middleware so a stale token still
// clears its session. Destroying an absent session succeeds.
func (h HandlerSet) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if claims, err := security.ParseAccessToken(tokenStr, h.cfg.Security.TokenSecret); err == nil {
			if err := h.authService.Logout(c.Request.Context(), claims.SessionID); err != nil {
				h.respondErr(c, err)
				return
			}
		}
	}

	ok(c, http.StatusOK, "logged out", nil)
}

func (h HandlerSet) Me(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	user, err := h.users.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	canClaim, err := h.roleService.CanClaimAdmin(c.Request.Context(), identity)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "", gin.H{
		"user":            toUserResponse(user),
		"can_claim_admin": canClaim,
	})
}

func (h HandlerSet) ClaimAdmin(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	if err := h.roleService.ClaimAdmin(c.Request.Context(), identity); err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "admin role claimed", gin.H{
		"role": string(models.RoleAdmin),
	})
}
