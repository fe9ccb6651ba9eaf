package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Claims are the fields read from an access token. Subject is the user ID
// for customers and admins and the guest session ID for guests.
type Claims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken requires an HS256 token signed with secret, taken from the
// Authorization header or, for websocket clients, the token query parameter.
func ValidateToken(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}

		var claims Claims
		token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		switch claims.Role {
		case models.RoleCustomer, models.RoleAdmin, models.RoleGuest:
		case "":
			claims.Role = models.RoleCustomer
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin must run after ValidateToken.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// RequireMember rejects guest tokens.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := MemberID(c); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Sign in required"})
			return
		}
		c.Next()
	}
}

func Subject(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func Role(c *gin.Context) models.Role {
	role, _ := c.Get(ContextRole)
	r, _ := role.(models.Role)
	return r
}

// MemberID returns the numeric user ID of a customer or admin token.
func MemberID(c *gin.Context) (uint, error) {
	if Role(c) == models.RoleGuest {
		return 0, errors.New("guest token")
	}
	id, err := strconv.ParseUint(Subject(c), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("token subject is not a user id")
	}
	return uint(id), nil
}

func bearer(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}
	return c.Query("token")
}
