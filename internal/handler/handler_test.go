package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/middleware"
	"github.com/noah-isme/sma-admin-core/internal/models"
)

type responseEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

var adminClaims = &models.JWTClaims{UserID: 1, Username: "admin", Role: models.RoleAdmin}

func init() {
	gin.SetMode(gin.TestMode)
}

// newContext builds a gin context authenticated as claims. A nil claims leaves the request anonymous.
func newContext(method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestActorFromContextAnonymous(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", nil, nil)
	actor := actorFromContext(c)
	require.False(t, actor.IsAdmin())
	require.Zero(t, actor.UserID)
}

func TestIDParamRejectsNonNumeric(t *testing.T) {
	c, w := newContext(http.MethodGet, "/users/abc", nil, adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	_, ok := idParam(c)

	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "FORMAT_ERROR", decode(t, w).Error.Code)
}
