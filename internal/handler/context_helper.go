package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admin-core/internal/middleware"
	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
	"github.com/noah-isme/sma-admin-core/pkg/response"
)

// actorFromContext builds the acting identity from the JWT claims. An
// anonymous actor holds no role and fails every admin check.
func actorFromContext(c *gin.Context) models.Actor {
	return middleware.Claims(c).Actor()
}

// idParam parses the :id path parameter, writing a 400 when it is not a positive integer.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrFormat, "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// optionalID parses an optional positive integer query parameter.
func optionalID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrFormat, name+" must be a positive integer"))
		return nil, false
	}
	return &id, true
}

// bindJSON decodes the request body into dest, writing a 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrFormat.Code, appErrors.ErrFormat.Status, "invalid JSON payload"))
		return false
	}
	return true
}
