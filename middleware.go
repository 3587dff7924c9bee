package main

import (
	"net/http"
	"strings"

	"docman/models"
	"docman/pkg/token"

	"github.com/gin-gonic/gin"
)

// authRequired validates the bearer access token, consults the revocation
// ledger, then re-reads the user from the store. The fresh read costs a
// query per request but makes role downgrades and account deletion take
// effect immediately instead of at token expiry.
func authRequired(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}

		claims, err := issuer.ParseAccess(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		revoked, err := isAccessTokenRevoked(claims.ID)
		if err != nil {
			httpError(c, err)
			c.Abort()
			return
		}
		if revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			c.Abort()
			return
		}

		uid, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		// don't carry secrets in the request context
		user.PasswordHash = nil
		user.RefreshTokenHash = nil
		user.ResetTokenHash = nil

		c.Set("user", &user)
		c.Set("claims", claims)
		c.Next()
	}
}

// currentUser fetches the user attached by authRequired.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

// requireRole admits callers whose role ranks at or above the lowest listed
// role. The denial message is identical no matter the reason, so the
// response leaks nothing about which roles exist. Must run after
// authRequired.
func requireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			c.Abort()
			return
		}

		min := allowed[0]
		for _, r := range allowed[1:] {
			if r.Rank() < min.Rank() {
				min = r
			}
		}
		if !user.Role.AtLeast(min) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}
