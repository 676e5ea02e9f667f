package serverutils

import (
	"os"

	"multimodal-rag-be/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localUserID   = "user_id"
	localUsername = "username"
	localIsAdmin  = "is_admin"
)

// JwtMiddleware verifies an HS256 bearer token signed with JWT_SECRET and
// stores the caller identity in Locals.
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
	}
	username, _ := claims["sub"].(string)
	isAdmin, _ := claims["is_admin"].(bool)

	ctx.Locals(localUserID, userID)
	ctx.Locals(localUsername, username)
	ctx.Locals(localIsAdmin, isAdmin)
	return ctx.Next()
}

// AdminOnly must run after JwtMiddleware.
func AdminOnly(ctx *fiber.Ctx) error {
	if !CallerFrom(ctx).IsAdmin {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
	}
	return ctx.Next()
}

// CallerFrom reads the identity stored by JwtMiddleware.
func CallerFrom(ctx *fiber.Ctx) dto.Caller {
	userID, _ := ctx.Locals(localUserID).(string)
	username, _ := ctx.Locals(localUsername).(string)
	isAdmin, _ := ctx.Locals(localIsAdmin).(bool)
	return dto.Caller{UserID: userID, Username: username, IsAdmin: isAdmin}
}
