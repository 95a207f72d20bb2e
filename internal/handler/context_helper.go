package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oktel/attendance-report/internal/middleware"
	"github.com/oktel/attendance-report/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}
