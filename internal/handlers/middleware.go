package handlers

import (
	"net/http"
	"strings"

	"github.com/catprep/mocktest-service/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and stores the caller's
// identity in the request context.
func AuthRequired(users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := users.Authenticate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set("username", claims.Username)
		c.Set("name", claims.Name)
		c.Next()
	}
}
