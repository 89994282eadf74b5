package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/citedocs-api/internal/middleware"
	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

func idParam(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}
