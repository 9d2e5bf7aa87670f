package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"synchron/internal/metrics"
)

// AuthConfig carries the admin gate settings. AdminTokenHash, when set,
// takes precedence over AdminToken and is verified with bcrypt; otherwise
// the plaintext token is compared in constant time. JWTSecret enables the
// login endpoint and bearer-token access.
type AuthConfig struct {
	AdminToken     string
	AdminTokenHash string
	JWTSecret      string
	TokenTTL       time.Duration
}

func (a AuthConfig) verifySecret(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if a.AdminTokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.AdminTokenHash), []byte(token)) == nil
	}
	if a.AdminToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.AdminToken)) == 1
}

func (a AuthConfig) verifyBearer(header string) bool {
	const prefix = "Bearer "
	if a.JWTSecret == "" || !strings.HasPrefix(header, prefix) {
		return false
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, prefix), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.JWTSecret), nil
	})
	return err == nil && token.Valid
}

// requireAdmin gates a route group behind the shared admin secret, either
// presented directly in X-Admin-Token or exchanged for a session token via
// the login endpoint. Failures never reach the handlers.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.auth.verifySecret(c.GetHeader("X-Admin-Token")) {
			c.Next()
			return
		}
		if h.auth.verifyBearer(c.GetHeader("Authorization")) {
			c.Next()
			return
		}
		metrics.AuthFailures.Inc()
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.auth.verifySecret(req.Password) {
		metrics.AuthFailures.Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})
		return
	}
	if h.auth.JWTSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session tokens are not configured"})
		return
	}

	expires := time.Now().Add(h.auth.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte(h.auth.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      signed,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}
