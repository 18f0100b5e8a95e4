package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mauryajatin45/blogfront/shared/auth"
)

// RequireAuth guards routes that need a usable credential. Visitors without
// one are sent to the login page instead of issuing a doomed API call.
func RequireAuth(session *auth.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.Authenticated() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
