package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/attribution"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
)

func TestGetOverviewEmptyWindow(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	params := analytics.NewQueryParams(timeframe.NewDayWindow(30, time.Now().UTC()))
	overview, err := analytics.GetOverview(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(0), overview.TotalVisits)
	assert.Equal(t, int64(0), overview.NewUsers)
	assert.Equal(t, int64(0), overview.ReturningUsers)
	assert.Equal(t, float64(0), overview.AvgTimeOnPage)
	assert.Equal(t, float64(0), overview.BounceRate)
	assert.Equal(t, int64(0), overview.Conversions)
}

func TestGetOverviewCountsPageViewAndExit(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	// A page view followed by the exit event of the same visit: two rows,
	// one marked bounced by the client.
	testsupport.CreateTestEvent(t, db,
		testsupport.WithSource(attribution.SourceOrganic, "google"),
		testsupport.WithNewUser(true),
	)
	testsupport.CreateTestEvent(t, db,
		testsupport.WithSource(attribution.SourceOrganic, "google"),
		testsupport.WithTimeOnPage(5, true),
	)

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	overview, err := analytics.GetOverview(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(2), overview.TotalVisits)
	assert.Equal(t, int64(1), overview.NewUsers)
	assert.Equal(t, int64(1), overview.ReturningUsers)
	assert.InDelta(t, 50.0, overview.BounceRate, 0.001)
	assert.InDelta(t, 2.5, overview.AvgTimeOnPage, 0.001)
}

func TestGetOverviewDimensionFilters(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db,
		testsupport.WithSource(attribution.SourceSocial, "facebook"),
		testsupport.WithDevice(attribution.DeviceMobile, "Safari", "MacOS"),
		testsupport.WithPage("/pricing", "Pricing"),
	)
	testsupport.CreateTestEvent(t, db,
		testsupport.WithSource(attribution.SourceOrganic, "google"),
		testsupport.WithDevice(attribution.DeviceDesktop, "Chrome", "Windows"),
		testsupport.WithPage("/", "Home"),
	)

	window := timeframe.NewDayWindow(1, time.Now().UTC())

	bySource := analytics.QueryParams{Window: window, Source: attribution.SourceSocial}
	overview, err := analytics.GetOverview(db, bySource)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.TotalVisits)

	byDevice := analytics.QueryParams{Window: window, DeviceType: attribution.DeviceDesktop}
	overview, err = analytics.GetOverview(db, byDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.TotalVisits)

	byPage := analytics.QueryParams{Window: window, PageURL: "/pricing"}
	overview, err = analytics.GetOverview(db, byPage)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.TotalVisits)

	// "all" disables a dimension filter, same as leaving it empty.
	unfiltered := analytics.QueryParams{Window: window, Source: analytics.FilterAll, DeviceType: analytics.FilterAll}
	overview, err = analytics.GetOverview(db, unfiltered)
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.TotalVisits)
}

func TestGetOverviewComparison(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	now := time.Now().UTC()
	testsupport.CreateTestEvent(t, db, testsupport.WithNewUser(true))
	testsupport.CreateTestEvent(t, db, testsupport.WithVisitedAt(now.AddDate(0, 0, -40)))

	params := analytics.NewQueryParams(timeframe.NewDayWindow(30, now))
	comparison, err := analytics.GetOverviewComparison(db, params)
	require.NoError(t, err)

	// The current window misses the 40-day-old event; the previous period
	// covers twice the days and picks it up.
	assert.Equal(t, int64(1), comparison.Current.TotalVisits)
	assert.Equal(t, int64(2), comparison.Previous.TotalVisits)
}

func TestGetOverviewIsIdempotent(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db, testsupport.WithTimeOnPage(42, false))
	testsupport.CreateTestEvent(t, db, testsupport.WithTimeOnPage(3, true))

	params := analytics.NewQueryParams(timeframe.NewDayWindow(7, time.Now().UTC()))

	first, err := analytics.GetOverview(db, params)
	require.NoError(t, err)
	second, err := analytics.GetOverview(db, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
