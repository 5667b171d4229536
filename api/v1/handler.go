// Package v1 exposes the public, unauthenticated ingestion API consumed by
// the visit tracker.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/events"
)

// CreateEventHandler ingests one analytics event. Invalid payloads get a
// structured 400 listing every violated field; valid ones are persisted and
// echoed back with a 201, including the server-assigned id and timestamp.
func CreateEventHandler(ctx *cartridge.Context) error {
	ctx.Logger.Debug("Received event request",
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.Path()))

	var event events.AnalyticsEvent
	if err := ctx.BodyParser(&event); err != nil {
		ctx.Logger.Debug("Failed to parse event request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":  "invalid request body",
			"fields": []events.FieldError{},
		})
	}

	stored, err := events.CollectEvent(ctx.DBManager, ctx.Logger, &event, getClientIP(ctx.Ctx))
	if err != nil {
		var validationErr *events.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error":  "invalid event",
				"fields": validationErr.Fields,
			})
		}

		ctx.Logger.Error("Failed to collect event", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store event",
		})
	}

	return ctx.Status(http.StatusCreated).JSON(stored)
}

// CreateEventBeaconHandler ingests exit events sent via
// navigator.sendBeacon. The sender never reads the response and has usually
// left the page already, so this always answers 202 no matter what.
func CreateEventBeaconHandler(ctx *cartridge.Context) error {
	// Beacon payloads arrive as text/plain, so parse the raw body.
	var event events.AnalyticsEvent
	if err := json.Unmarshal(ctx.Body(), &event); err != nil {
		ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}

	if _, err := events.CollectEvent(ctx.DBManager, ctx.Logger, &event, getClientIP(ctx.Ctx)); err != nil {
		ctx.Logger.Debug("Failed to collect beacon event", slog.Any("error", err))
	}

	return ctx.SendStatus(http.StatusAccepted)
}
