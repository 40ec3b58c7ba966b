package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/pkg/jwt"
)

// Locals keys que deja el middleware de auth en Fiber.
const (
	LocalUserID   = "user_id"
	LocalSucursal = "sucursal"
	LocalGroups   = "groups"
)

// AuthMiddleware valida el Bearer Token JWT y extrae usuario, sucursal y grupos a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalSucursal, claims.Sucursal)
		c.Locals(LocalGroups, claims.Groups)
		return c.Next()
	}
}

// RequireGroup deja pasar si el token pertenece a alguno de los grupos.
// Debe usarse DESPUÉS de AuthMiddleware.
//   - 401 MISSING_ROLE → el token no trae grupos.
//   - 403 FORBIDDEN    → ninguno de sus grupos está permitido.
func RequireGroup(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groups := GetGroups(c)
		if len(groups) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye grupos"})
		}
		for _, g := range groups {
			for _, a := range allowed {
				if g == a {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "se requiere alguno de los grupos: " + strings.Join(allowed, ", "),
		})
	}
}

// GetUserID devuelve el usuario del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetSucursal sucursal asignada al usuario en el token; puede ir vacía.
func GetSucursal(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalSucursal).(string)
	return s
}

// GetGroups grupos del token.
func GetGroups(c *fiber.Ctx) []string {
	g, _ := c.Locals(LocalGroups).([]string)
	return g
}
