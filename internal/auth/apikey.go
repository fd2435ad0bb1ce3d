package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/tubefetch/pkg/dto"
)

const (
	headerName   = "X-API-Key"
	bearerPrefix = "Bearer "
)

// APIKeyMiddleware validates the API key from the X-API-Key header or an
// Authorization bearer token. If apiKey is empty, authentication is disabled.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := providedKey(c.Request)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing API key"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "invalid API key"})
			return
		}

		c.Next()
	}
}

// Browsers cannot set headers on WebSocket upgrades, so the key may also come
// as the api_key query parameter.
func providedKey(r *http.Request) string {
	if v := r.Header.Get(headerName); v != "" {
		return v
	}
	if v := r.Header.Get("Authorization"); len(v) > len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(v[len(bearerPrefix):])
	}
	return r.URL.Query().Get("api_key")
}
