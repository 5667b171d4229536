package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
)

func TestGetConversionsGroupsByType(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db, testsupport.WithConversion("registration", testsupport.IntPtr(100)))
	testsupport.CreateTestEvent(t, db, testsupport.WithConversion("registration", testsupport.IntPtr(50)))
	testsupport.CreateTestEvent(t, db, testsupport.WithConversion("newsletter", nil))
	testsupport.CreateTestEvent(t, db) // not converted, must not appear

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	conversions, err := analytics.GetConversions(db, params)
	require.NoError(t, err)

	require.Len(t, conversions, 2)
	assert.Equal(t, analytics.ConversionStat{ConversionType: "registration", Count: 2, TotalValue: 150}, conversions[0])
	assert.Equal(t, analytics.ConversionStat{ConversionType: "newsletter", Count: 1, TotalValue: 0}, conversions[1])
}

func TestGetConversionsEmptyWindow(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	params := analytics.NewQueryParams(timeframe.NewDayWindow(1, time.Now().UTC()))
	conversions, err := analytics.GetConversions(db, params)
	require.NoError(t, err)

	assert.Empty(t, conversions)
}

func TestGetDashboardFetchesAllSections(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db, testsupport.WithNewUser(true))
	testsupport.CreateTestEvent(t, db, testsupport.WithConversion("registration", testsupport.IntPtr(10)))

	params := analytics.NewQueryParams(timeframe.NewDayWindow(7, time.Now().UTC()))
	dashboard, err := analytics.GetDashboard(context.Background(), db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(2), dashboard.Overview.TotalVisits)
	assert.Len(t, dashboard.Timeline, 7)
	assert.NotEmpty(t, dashboard.Sources)
	assert.NotEmpty(t, dashboard.Pages)
	assert.NotEmpty(t, dashboard.Devices)
	require.Len(t, dashboard.Conversions, 1)
	assert.Equal(t, int64(1), dashboard.Conversions[0].Count)
}

func TestGetDashboardAbortsOnCancelledContext(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	params := analytics.NewQueryParams(timeframe.NewDayWindow(7, time.Now().UTC()))
	dashboard, err := analytics.GetDashboard(ctx, db, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, dashboard)
}
