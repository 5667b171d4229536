package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/testsupport"
)

func postEvent(t *testing.T, app *fiber.App, path string, payload map[string]interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	return resp
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"pageUrl":          "/pricing",
		"pageTitle":        "Pricing",
		"referrer":         "https://www.google.com/",
		"source":           "organic",
		"medium":           "google",
		"sessionId":        "session_1700000000000_abc123xyz",
		"isNewUser":        true,
		"deviceType":       "desktop",
		"browser":          "Chrome",
		"os":               "Windows",
		"screenResolution": "1920x1080",
	}
}

func TestCreateEventHandler(t *testing.T) {
	t.Run("persists a valid event and echoes the stored record", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		resp := postEvent(t, app, "/x/api/v1/events", validPayload())
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var stored events.AnalyticsEvent
		require.NoError(t, json.Unmarshal(body, &stored))
		assert.NotZero(t, stored.ID)
		assert.Equal(t, "/pricing", stored.PageURL)
		assert.Equal(t, "organic", stored.Source)
		assert.Equal(t, "google", stored.Medium)
		assert.True(t, stored.IsNewUser)
		assert.False(t, stored.VisitedAt.IsZero())

		var count int64
		require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects missing required fields with the full violation list", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		resp := postEvent(t, app, "/x/api/v1/events", map[string]interface{}{
			"pageTitle": "Pricing",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var errResp struct {
			Error  string             `json:"error"`
			Fields []events.FieldError `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(body, &errResp))

		var names []string
		for _, f := range errResp.Fields {
			names = append(names, f.Field)
		}
		assert.Contains(t, names, "pageUrl")
		assert.Contains(t, names, "source")
		assert.Contains(t, names, "sessionId")
		assert.Contains(t, names, "deviceType")

		var count int64
		require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&count).Error)
		assert.Equal(t, int64(0), count, "invalid events must not be persisted")
	})

	t.Run("rejects out-of-enum source values", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		payload := validPayload()
		payload["source"] = "paid"

		resp := postEvent(t, app, "/x/api/v1/events", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("drops conversion attributes on non-converted events", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		payload := validPayload()
		payload["converted"] = false
		payload["conversionType"] = "registration"
		payload["conversionValue"] = 100

		resp := postEvent(t, app, "/x/api/v1/events", payload)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var stored events.AnalyticsEvent
		require.NoError(t, db.First(&stored).Error)
		assert.False(t, stored.Converted)
		assert.Empty(t, stored.ConversionType)
		assert.Nil(t, stored.ConversionValue)
	})
}

func TestCreateEventBeaconHandler(t *testing.T) {
	t.Run("stores a valid beacon event and answers 202", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		payload := validPayload()
		payload["isNewUser"] = false
		payload["timeOnPage"] = 5
		payload["bounced"] = true

		resp := postEvent(t, app, "/x/api/v1/events/beacon", payload)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var stored events.AnalyticsEvent
		require.NoError(t, db.First(&stored).Error)
		assert.Equal(t, 5, stored.TimeOnPage)
		assert.True(t, stored.Bounced)
	})

	t.Run("answers 202 even for garbage payloads", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		req := httptest.NewRequest("POST", "/x/api/v1/events/beacon", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("Sec-Fetch-Site", "cross-site")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("answers 202 for invalid beacon events without storing them", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		app := testsupport.CreateMinimalTestApp(t, db)
		testsupport.CleanAllTables(db)

		resp := postEvent(t, app, "/x/api/v1/events/beacon", map[string]interface{}{
			"pageUrl": "/",
		})
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}
