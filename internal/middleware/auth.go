// Package middleware provides HTTP middleware shared by every route group.
package middleware

import (
	"strconv"
	"strings"

	"socialapp/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

type authError struct {
	message string
}

func (e authError) Error() string { return e.message }

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	token, err := bearerToken(c.Get("Authorization"))
	if err != nil {
		return unauthorized(c, err)
	}
	userID, err := userIDFromToken(token)
	if err != nil {
		return unauthorized(c, err)
	}

	c.Locals("userID", userID)
	c.SetUserContext(enrichContext(c))
	return c.Next()
}

// OptionalAuth sets userID when a valid bearer token is present and never rejects.
func OptionalAuth(c *fiber.Ctx) error {
	if token, err := bearerToken(c.Get("Authorization")); err == nil {
		if userID, err := userIDFromToken(token); err == nil {
			c.Locals("userID", userID)
			c.SetUserContext(enrichContext(c))
		}
	}
	return c.Next()
}

// WebSocketAuthRequired accepts the token from the "token" query parameter,
// falling back to the Authorization header.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		var err error
		if token, err = bearerToken(c.Get("Authorization")); err != nil {
			if c.Get("Authorization") == "" {
				err = authError{"Token required"}
			}
			return unauthorized(c, err)
		}
	}

	userID, err := userIDFromToken(token)
	if err != nil {
		return unauthorized(c, err)
	}

	c.Locals("userID", userID)
	return c.Next()
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", authError{"Authorization header required"}
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", authError{"Invalid authorization header format"}
	}
	return parts[1], nil
}

// userIDFromToken validates an HMAC-signed JWT and reads the user ID from its "sub" claim.
func userIDFromToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, authError{"Invalid or expired token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, authError{"Invalid token claims"}
	}

	subStr, err := claims.GetSubject()
	if err != nil || subStr == "" {
		return 0, authError{"Invalid token structure - missing subject"}
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userIDVal == 0 {
		return 0, authError{"Invalid user ID in token"}
	}
	return uint(userIDVal), nil
}
