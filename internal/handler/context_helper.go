package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/client-attendance-api/internal/middleware"
	"github.com/noah-isme/client-attendance-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// sessionKey scopes per-session state such as strike notices.
func sessionKey(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.SessionID
	}
	return ""
}
