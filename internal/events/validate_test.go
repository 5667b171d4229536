package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
)

func validEvent() events.AnalyticsEvent {
	return events.AnalyticsEvent{
		PageURL:          "/pricing",
		Source:           "organic",
		SessionID:        "session_1700000000000_abc123xyz",
		DeviceType:       "desktop",
		Browser:          "Chrome",
		OS:               "MacOS",
		ScreenResolution: "1920x1080",
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a complete event", func(t *testing.T) {
		event := validEvent()
		assert.NoError(t, event.Validate())
	})

	t.Run("collects every violation instead of stopping at the first", func(t *testing.T) {
		event := events.AnalyticsEvent{}
		err := event.Validate()
		require.Error(t, err)

		var validationErr *events.ValidationError
		require.ErrorAs(t, err, &validationErr)

		var fields []string
		for _, f := range validationErr.Fields {
			fields = append(fields, f.Field)
		}
		assert.Contains(t, fields, "pageUrl")
		assert.Contains(t, fields, "source")
		assert.Contains(t, fields, "sessionId")
		assert.Contains(t, fields, "deviceType")
		assert.Contains(t, fields, "browser")
		assert.Contains(t, fields, "os")
		assert.Contains(t, fields, "screenResolution")
	})

	t.Run("rejects unknown source values", func(t *testing.T) {
		event := validEvent()
		event.Source = "paid"

		var validationErr *events.ValidationError
		require.ErrorAs(t, event.Validate(), &validationErr)
		require.Len(t, validationErr.Fields, 1)
		assert.Equal(t, "source", validationErr.Fields[0].Field)
	})

	t.Run("rejects unknown device types", func(t *testing.T) {
		event := validEvent()
		event.DeviceType = "fridge"

		var validationErr *events.ValidationError
		require.ErrorAs(t, event.Validate(), &validationErr)
		require.Len(t, validationErr.Fields, 1)
		assert.Equal(t, "deviceType", validationErr.Fields[0].Field)
	})

	t.Run("rejects negative time on page", func(t *testing.T) {
		event := validEvent()
		event.TimeOnPage = -3

		var validationErr *events.ValidationError
		require.ErrorAs(t, event.Validate(), &validationErr)
		require.Len(t, validationErr.Fields, 1)
		assert.Equal(t, "timeOnPage", validationErr.Fields[0].Field)
	})

	t.Run("converted events need a conversion type", func(t *testing.T) {
		event := validEvent()
		event.Converted = true

		var validationErr *events.ValidationError
		require.ErrorAs(t, event.Validate(), &validationErr)
		require.Len(t, validationErr.Fields, 1)
		assert.Equal(t, "conversionType", validationErr.Fields[0].Field)

		event.ConversionType = "registration"
		assert.NoError(t, event.Validate())
	})
}
