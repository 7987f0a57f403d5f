package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const UserIDKey = "user_id"

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Authenticate requires a Bearer token signed by the portal's identity
// service and stores the caller's user id in the request locals. Every
// wallet operation is scoped to that identity; the body never names it.
func Authenticate(secret string, logger *zap.Logger) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "missing bearer token",
			})
		}

		token := strings.TrimSpace(header[len("Bearer "):])

		userID, err := parseToken(token, key)
		if err != nil {
			logger.Debug("Rejected bearer token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "invalid access token",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

func parseToken(tokenStr string, key []byte) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", errors.New("token carries no user id")
	}

	return userID, nil
}

// CallerID returns the authenticated user id set by Authenticate.
func CallerID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}
