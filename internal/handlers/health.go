package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health indique quelles dépendances optionnelles sont actives
func Health(deps map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": deps})
	}
}
