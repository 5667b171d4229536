package http

import (
	"strconv"
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/timeframe"
)

// queryParamsFromRequest builds aggregation parameters from the request's
// query string. Absent or non-numeric days values fall back to the default
// window, and "all" on a dimension means unfiltered.
func queryParamsFromRequest(ctx *cartridge.Context) analytics.QueryParams {
	days := timeframe.DefaultDays
	if raw := ctx.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		} else {
			ctx.Logger.Debug("Ignoring invalid days parameter", slog.String("days", raw))
		}
	}

	params := analytics.NewQueryParams(timeframe.NewDayWindow(days, time.Now().UTC()))
	params.Source = ctx.Query("source")
	params.DeviceType = ctx.Query("deviceType")
	params.PageURL = ctx.Query("pageUrl")
	return params
}

func aggregationError(ctx *cartridge.Context, section string, err error) error {
	ctx.Logger.Error("Failed to aggregate analytics",
		slog.String("section", section),
		slog.Any("error", err))
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "failed to load " + section,
	})
}

// AnalyticsOverviewAction returns visit totals for the requested window.
// With compare=previous it also returns the preceding window of the same
// length so the caller can diff the two.
func AnalyticsOverviewAction(ctx *cartridge.Context) error {
	params := queryParamsFromRequest(ctx)
	db := ctx.DB()

	if ctx.Query("compare") == "previous" {
		comparison, err := analytics.GetOverviewComparison(db, params)
		if err != nil {
			return aggregationError(ctx, "overview", err)
		}
		return ctx.JSON(fiber.Map{
			"overview": comparison.Current,
			"previous": comparison.Previous,
		})
	}

	overview, err := analytics.GetOverview(db, params)
	if err != nil {
		return aggregationError(ctx, "overview", err)
	}
	return ctx.JSON(fiber.Map{"overview": overview})
}

// AnalyticsTimelineAction returns one point per day in the window, zero
// filled for days without traffic.
func AnalyticsTimelineAction(ctx *cartridge.Context) error {
	points, err := analytics.GetTimeline(ctx.DB(), queryParamsFromRequest(ctx))
	if err != nil {
		return aggregationError(ctx, "timeline", err)
	}
	return ctx.JSON(fiber.Map{"timeline": points})
}

// AnalyticsSourcesAction returns visits grouped by source and medium.
func AnalyticsSourcesAction(ctx *cartridge.Context) error {
	sources, err := analytics.GetSources(ctx.DB(), queryParamsFromRequest(ctx))
	if err != nil {
		return aggregationError(ctx, "sources", err)
	}
	return ctx.JSON(fiber.Map{"sources": sources})
}

// AnalyticsPagesAction returns the top pages by visits.
func AnalyticsPagesAction(ctx *cartridge.Context) error {
	pages, err := analytics.GetPages(ctx.DB(), queryParamsFromRequest(ctx))
	if err != nil {
		return aggregationError(ctx, "pages", err)
	}
	return ctx.JSON(fiber.Map{"pages": pages})
}

// AnalyticsDevicesAction returns visits grouped by device type, browser and
// operating system.
func AnalyticsDevicesAction(ctx *cartridge.Context) error {
	devices, err := analytics.GetDevices(ctx.DB(), queryParamsFromRequest(ctx))
	if err != nil {
		return aggregationError(ctx, "devices", err)
	}
	return ctx.JSON(fiber.Map{"devices": devices})
}

// AnalyticsConversionsAction returns converted visits grouped by conversion
// type.
func AnalyticsConversionsAction(ctx *cartridge.Context) error {
	conversions, err := analytics.GetConversions(ctx.DB(), queryParamsFromRequest(ctx))
	if err != nil {
		return aggregationError(ctx, "conversions", err)
	}
	return ctx.JSON(fiber.Map{"conversions": conversions})
}

// AnalyticsDashboardAction returns every dashboard section in one response.
// The sections are computed concurrently; any failure fails the whole
// request rather than returning partial results. The request context flows
// into the fan-out so a disconnected client cancels the remaining queries.
func AnalyticsDashboardAction(ctx *cartridge.Context) error {
	dashboard, err := analytics.GetDashboard(ctx.Ctx.Context(), ctx.DB(), queryParamsFromRequest(ctx))
	if err != nil {
		return aggregationError(ctx, "dashboard", err)
	}
	return ctx.JSON(fiber.Map{"dashboard": dashboard})
}
