package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/middleware"
)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

func sessionMeta(c *gin.Context) auth.SessionMeta {
	return auth.SessionMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("corps de requête invalide"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.auth.Register(ctx, input.Name, input.Email, input.Password, sessionMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" || input.Password == "" {
		respondError(c, apperr.Validation("email et mot de passe requis"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.auth.Login(ctx, input.Email, input.Password, sessionMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("corps de requête invalide"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.auth.Refresh(ctx, input.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		respondError(c, apperr.Unauthorized("utilisateur non authentifié"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.Logout(ctx, principal); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		respondError(c, apperr.Unauthorized("utilisateur non authentifié"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.auth.Profile(ctx, principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
