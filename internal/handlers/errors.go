package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proteia_back_end/internal/apperr"
)

// Délai maximal d'une requête vers les stores
const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError traduit le Kind en statut HTTP. Les erreurs internes
// sont journalisées et servies avec un message générique.
func respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": apperr.MessageOf(err)})
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.MessageOf(err)})
	case apperr.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.MessageOf(err)})
	default:
		zap.L().Error("❌ Erreur interne",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne du serveur"})
	}
}

// queryFloat lit un paramètre décimal optionnel
func queryFloat(c *gin.Context, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.Validation("%s doit être un nombre", name)
	}
	return v, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s doit être un entier", name)
	}
	return v, nil
}

// queryFloats lit une liste "500,1000,1500"
func queryFloats(c *gin.Context, name string) ([]float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperr.Validation("%s : valeur %q invalide", name, part)
		}
		out = append(out, v)
	}
	return out, nil
}
