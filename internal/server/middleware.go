package server

import (
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	"github.com/gin-gonic/gin"
)

const contextUserKey = "current_user"

// AuthRequired resolves the session cookie to a user and injects it into the
// request context. Missing, malformed, and expired sessions all fail the
// same way.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*identitydomain.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*identitydomain.User)
	return user, ok
}
