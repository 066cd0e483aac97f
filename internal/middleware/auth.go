package middleware

import (
	"net/http"

	"it-inventory/internal/models"

	"github.com/gin-gonic/gin"
)

// Tier is the access level a route requires. Elevated and admin are independent flags on the
// user, so neither tier implies the other.
type Tier int

const (
	TierAuthenticated Tier = iota
	TierElevated
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierElevated:
		return "elevated"
	case TierAdmin:
		return "admin"
	}
	return "authenticated"
}

// Allows reports whether u may access routes guarded by t.
func (t Tier) Allows(u models.User) bool {
	switch t {
	case TierElevated:
		return u.IsElevated
	case TierAdmin:
		return u.IsAdmin
	}
	return u.ID != 0
}

const (
	loginPath = "/login"
	homePath  = "/home"
)

func RequireAuth() gin.HandlerFunc {
	return Require(TierAuthenticated)
}

// Require redirects anonymous requests to the login page and users below tier to the home
// page. Failures are never reported as 403.
func Require(tier Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		if !tier.Allows(user) {
			c.Redirect(http.StatusFound, homePath)
			c.Abort()
			return
		}
		c.Next()
	}
}
