package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/users"
)

// ProcessLoginAction authenticates an admin user and opens a session.
// Credentials arrive as JSON; failures answer 401 without revealing whether
// the email exists.
func ProcessLoginAction(ctx *cartridge.Context) error {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.BodyParser(&credentials); err != nil {
		// Fall back to form values for non-JSON clients.
		credentials.Email = ctx.FormValue("email")
		credentials.Password = ctx.FormValue("password")
	}

	if credentials.Email == "" || credentials.Password == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email and password are required",
		})
	}

	user, ok := users.Authenticate(ctx.DB(), credentials.Email, credentials.Password)
	if !ok {
		ctx.Logger.Info("Failed login attempt", slog.String("email", credentials.Email))
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid credentials",
		})
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to create session", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create session",
		})
	}

	ctx.Logger.Info("User logged in", slog.String("email", user.Email))
	return ctx.JSON(fiber.Map{
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// LogoutAction closes the current session.
func LogoutAction(ctx *cartridge.Context) error {
	ctx.Session.ClearSession(ctx.Ctx)
	return ctx.JSON(fiber.Map{"status": "logged_out"})
}
