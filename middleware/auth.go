package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ContextBranchID   = "branchID"
	ContextActorID    = "actorID"
	ContextActorEmail = "actorEmail"
)

// Claims carried by the session token. BranchID is the tenant scope
// every scoped endpoint requires.
type Claims struct {
	AdminID  uint   `json:"admin_id"`
	BranchID uint   `json:"branch_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and puts the actor and branch scope
// into the request context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired token"})
			return
		}

		c.Set(ContextActorID, claims.AdminID)
		c.Set(ContextActorEmail, claims.Email)
		c.Set(ContextBranchID, claims.BranchID)
		c.Next()
	}
}
