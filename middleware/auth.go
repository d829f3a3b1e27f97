package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/urbankisan/backend-go/utils"
)

// Auth requires a valid bearer token and stores the caller's identity in the
// request context as "userID" (primitive.ObjectID) and "isAdmin" (bool).
func Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := bearerClaims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid or missing token"})
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		}

		c.Set("userID", userID)
		c.Set("isAdmin", claims.IsAdmin)
		return next(c)
	}
}

// RequireAdmin must run after Auth; non-admin callers get a 403.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if isAdmin, ok := c.Get("isAdmin").(bool); !ok || !isAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "Admin access required"})
		}
		return next(c)
	}
}

// OptionalAuth resolves the caller's identity on a best-effort basis for
// public endpoints that behave differently for owners. Any token failure is
// treated as anonymous; the request always proceeds.
func OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, ok := bearerClaims(c); ok {
			if userID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
				c.Set("userID", userID)
				c.Set("isAdmin", claims.IsAdmin)
			}
		}
		return next(c)
	}
}

func bearerClaims(c echo.Context) (*utils.Claims, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := utils.ValidateJWT(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

// UserID returns the authenticated caller's id; the zero ObjectID means
// anonymous (only possible behind OptionalAuth).
func UserID(c echo.Context) primitive.ObjectID {
	if id, ok := c.Get("userID").(primitive.ObjectID); ok {
		return id
	}
	return primitive.NilObjectID
}

// IsAdmin reports whether the authenticated caller carries the admin flag.
func IsAdmin(c echo.Context) bool {
	isAdmin, ok := c.Get("isAdmin").(bool)
	return ok && isAdmin
}
