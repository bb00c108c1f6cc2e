package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stores-api/internal/domain"
	"stores-api/internal/notifier"
	"stores-api/internal/service"
	"stores-api/internal/token"
)

const claimsContextKey = "authClaims"

// Handler wires HTTP routes to the auth service.
type Handler struct {
	auth          *service.AuthService
	confirmations *service.ConfirmationService
	issuer        *token.Issuer
}

func NewHandler(auth *service.AuthService, confirmations *service.ConfirmationService, issuer *token.Issuer) *Handler {
	return &Handler{
		auth:          auth,
		confirmations: confirmations,
		issuer:        issuer,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/refresh", h.refresh)
		api.POST("/logout", h.requireToken(false), h.logout)
		api.GET("/confirm/:confirmation_id", h.confirm)
		api.GET("/users/:user_id", h.getUser)
		api.DELETE("/users/:user_id", h.requireToken(true), h.deleteUser)
		api.GET("/confirmations/:user_id", h.listConfirmations)
		api.POST("/confirmations/:user_id", h.resendConfirmation)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireToken validates the bearer token and stashes its claims. With
// fresh set it additionally rejects access tokens minted from a refresh
// exchange; destructive operations want a recent password login.
func (h *Handler) requireToken(fresh bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing or malformed"})
			return
		}

		claims, err := h.issuer.Validate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Kind != token.KindAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
			return
		}
		if fresh && !claims.Fresh {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "fresh token required"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return tokenString, tokenString != ""
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "account created successfully, an email with an activation link has been sent to your email address",
		"user":    userToResponse(user),
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

func (h *Handler) logout(c *gin.Context) {
	// middleware already validated it, Logout revokes the jti
	tokenString, _ := bearerToken(c)
	userID, err := h.auth.Logout(c.Request.Context(), tokenString)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user " + strconv.FormatInt(userID, 10) + " successfully logged out"})
}

func (h *Handler) confirm(c *gin.Context) {
	confirmation, err := h.confirmations.Confirm(c.Request.Context(), c.Param("confirmation_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "account confirmed",
		"confirmation": confirmationToResponse(*confirmation),
	})
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.auth.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) listConfirmations(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if _, err := h.auth.GetUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	confirmations, err := h.confirmations.ListFor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ConfirmationResponse, len(confirmations))
	for i := range confirmations {
		resp[i] = confirmationToResponse(confirmations[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"current_time":  time.Now().Unix(),
		"confirmations": resp,
	})
}

func (h *Handler) resendConfirmation(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.auth.ResendConfirmation(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "confirmation email resent"})
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto HTTP statuses. Storage
// failures and anything unrecognized fall through to 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, token.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, token.ErrWrongTokenKind):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotConfirmed),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrAlreadyConfirmed),
		errors.Is(err, service.ErrActiveConfirmationExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, notifier.ErrDelivery):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ConfirmationResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
	ExpireAt  string `json:"expire_at"`
	Confirmed bool   `json:"confirmed"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func confirmationToResponse(c domain.Confirmation) ConfirmationResponse {
	return ConfirmationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		ExpireAt:  c.ExpireAt.Format(time.RFC3339),
		Confirmed: c.Confirmed,
	}
}
