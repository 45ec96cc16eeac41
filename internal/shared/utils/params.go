package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"stagewatch/internal/shared/errors"
)

// ParseUintParam parses a numeric ID from a URL path parameter.
func ParseUintParam(c *gin.Context, paramName, entityName string) (uint, error) {
	raw := c.Param(paramName)
	if raw == "" {
		return 0, errors.NewValidationError(entityName + " ID is required")
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid %s ID: %q", entityName, raw))
	}
	return uint(id), nil
}
