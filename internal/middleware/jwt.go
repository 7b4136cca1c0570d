package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/quizzq/quizzq-api/internal/utils"
)

// JWTProtected validates HMAC-signed bearer tokens and binds the caller's
// identity to request locals. Tokens carry the caller ID in the standard "sub"
// claim and a single role string in "role"; every protected route needs the
// caller ID, so a token without a usable subject is rejected outright.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		const bearer = "Bearer "
		authorization := c.Get("Authorization")
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(strings.TrimSpace(authorization[len(bearer):]), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, err := subjectID(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}
		c.Locals("user_id", userID)

		if role, ok := claims["role"].(string); ok {
			if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
				c.Locals("user_role", role)
			}
		}

		return c.Next()
	}
}

// subjectID reads the numeric caller ID from the "sub" claim. Tokens encode it
// either as a JSON number or a decimal string.
func subjectID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["sub"].(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("negative subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("missing subject")
	}
}
