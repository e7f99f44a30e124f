package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/server/services"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// requireToken resolves the bearer token into a services.Principal stored on
// the gin context; requests without a valid token stop with 401.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		p, err := s.users.Authenticate(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}

		c.Set(principalKey, *p)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	h := c.GetHeader(common.AuthorizationHeaderName)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
}

func principal(c *gin.Context) services.Principal {
	p, _ := c.MustGet(principalKey).(services.Principal)
	return p
}
