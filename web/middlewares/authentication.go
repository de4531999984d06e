package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"iara.com/iarasync/security"
	"iara.com/iarasync/web/common"
)

const (
	TokenCookie = "iarasync.Token"
	OperatorKey = "operator"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		cookie, err := c.Cookie(TokenCookie)
		if err != nil || cookie == "" {
			return "", false
		}
		return cookie, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authentication accepts a Bearer operator token or the token cookie and
// stores the operator claims under OperatorKey.
func Authentication(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := security.ParseOperatorToken(tokenStr, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
			return
		}
		if claims.Scope != security.ScopeSync {
			c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("token scope does not allow sync"))
			return
		}

		c.Set(OperatorKey, claims.Operator)
		c.Next()
	}
}

// OperatorName returns the authenticated operator, or "".
func OperatorName(c *gin.Context) string {
	if op, ok := c.Get(OperatorKey); ok {
		if operator, ok := op.(security.Operator); ok {
			return operator.Name
		}
	}
	return ""
}
