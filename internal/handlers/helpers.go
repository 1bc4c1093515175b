package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/aufildessentiers/backend/pkg/errors"
	"github.com/aufildessentiers/backend/pkg/response"
	"github.com/aufildessentiers/backend/pkg/validator"
)

// bindAndValidate decodes the JSON body into dst and runs struct validation.
// On failure it writes the error response and returns false.
func bindAndValidate(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, apperrors.NewBadRequest("Invalid request body"))
		return false
	}

	if err := validator.ValidateStruct(dst); err != nil {
		if failures, ok := err.(validator.ValidationErrors); ok {
			response.ErrorWithDetails(c, apperrors.NewBadRequest("Validation failed"), gin.H{
				"fields": failures,
			})
			return false
		}
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return false
	}

	return true
}

// uintParam parses a numeric path parameter. On failure it writes a 404 and
// returns false, since a malformed id can never address a resource.
func uintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.Error(c, apperrors.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

// intQuery reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// floatQuery reads a float query parameter and reports whether it was present
// and well formed.
func floatQuery(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// paginationMeta computes response metadata for a paged listing.
func paginationMeta(page, pageSize int, total int64) *response.Meta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &response.Meta{
		Page:       page,
		PerPage:    pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}
