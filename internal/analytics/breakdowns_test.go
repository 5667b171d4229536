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

func TestGetSourcesGroupsBySourceAndMedium(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	for i := 0; i < 3; i++ {
		testsupport.CreateTestEvent(t, db, testsupport.WithSource(attribution.SourceSocial, "facebook"))
	}
	testsupport.CreateTestEvent(t, db, testsupport.WithSource(attribution.SourceOrganic, "google"))

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	sources, err := analytics.GetSources(db, params)
	require.NoError(t, err)

	require.Len(t, sources, 2)
	assert.Equal(t, analytics.SourceStat{Source: attribution.SourceSocial, Medium: "facebook", Visits: 3}, sources[0])
	assert.Equal(t, analytics.SourceStat{Source: attribution.SourceOrganic, Medium: "google", Visits: 1}, sources[1])
}

func TestGetPagesOrdersByVisitsAndAveragesTime(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db, testsupport.WithPage("/pricing", "Pricing"))
	testsupport.CreateTestEvent(t, db,
		testsupport.WithPage("/pricing", "Pricing"),
		testsupport.WithTimeOnPage(30, false),
	)
	testsupport.CreateTestEvent(t, db, testsupport.WithPage("/", "Home"))

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	pages, err := analytics.GetPages(db, params)
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, "/pricing", pages[0].PageURL)
	assert.Equal(t, int64(2), pages[0].Visits)
	assert.InDelta(t, 15.0, pages[0].AvgTimeOnPage, 0.001)
	assert.Equal(t, "/", pages[1].PageURL)
	assert.Equal(t, int64(1), pages[1].Visits)
}

func TestGetPagesLimitsToTopTen(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	for i := 0; i < 12; i++ {
		testsupport.CreateTestEvent(t, db, testsupport.WithPage(
			string(rune('a'+i))+"-page", "Page",
		))
	}

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	pages, err := analytics.GetPages(db, params)
	require.NoError(t, err)

	assert.Len(t, pages, 10)
}

func TestGetDevicesGroupsByDeviceBrowserOS(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	for i := 0; i < 2; i++ {
		testsupport.CreateTestEvent(t, db, testsupport.WithDevice(attribution.DeviceMobile, "Safari", "MacOS"))
	}
	testsupport.CreateTestEvent(t, db, testsupport.WithDevice(attribution.DeviceDesktop, "Firefox", "Linux"))

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	devices, err := analytics.GetDevices(db, params)
	require.NoError(t, err)

	require.Len(t, devices, 2)
	assert.Equal(t, analytics.DeviceStat{DeviceType: attribution.DeviceMobile, Browser: "Safari", OS: "MacOS", Visits: 2}, devices[0])
	assert.Equal(t, analytics.DeviceStat{DeviceType: attribution.DeviceDesktop, Browser: "Firefox", OS: "Linux", Visits: 1}, devices[1])
}

func TestBreakdownsReturnEmptySlicesOnEmptyWindows(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))

	sources, err := analytics.GetSources(db, params)
	require.NoError(t, err)
	assert.Empty(t, sources)

	pages, err := analytics.GetPages(db, params)
	require.NoError(t, err)
	assert.Empty(t, pages)

	devices, err := analytics.GetDevices(db, params)
	require.NoError(t, err)
	assert.Empty(t, devices)
}
