package ginserver

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/middleware"
)

// PasswordVerifier checks a password against a stored hash.
type PasswordVerifier interface {
	Compare(hash, password string) error
}

// OperatorAuth guards operator routes with HTTP basic auth. An empty PasswordHash
// disables the operator console entirely.
type OperatorAuth struct {
	User         string
	PasswordHash string
	Verifier     PasswordVerifier
	Logger       *slog.Logger
}

func (m OperatorAuth) Handle(c *gin.Context) {
	user, password, ok := c.Request.BasicAuth()
	if !ok || !m.valid(user, password) {
		if ok && m.Logger != nil {
			m.Logger.WarnContext(c.Request.Context(), "operator authentication failed", "user", user, "client_ip", c.ClientIP())
		}
		c.Header("WWW-Authenticate", `Basic realm="staybook operator"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "operator authentication required", Reason: "unauthorized"})
		return
	}
	c.Request = c.Request.WithContext(middleware.ContextWithOperator(c.Request.Context(), user))
	c.Next()
}

func (m OperatorAuth) valid(user, password string) bool {
	if m.PasswordHash == "" || m.Verifier == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(m.User)) != 1 {
		return false
	}
	return m.Verifier.Compare(m.PasswordHash, password) == nil
}
