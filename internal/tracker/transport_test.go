package tracker_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/tracker"
)

func TestBeaconTransportDeliversEvents(t *testing.T) {
	var mu sync.Mutex
	var received []events.AnalyticsEvent

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var event events.AnalyticsEvent
		require.NoError(t, json.Unmarshal(body, &event))

		mu.Lock()
		received = append(received, event)
		mu.Unlock()

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	transport := tracker.NewBeaconTransport(server.URL, testsupport.GetLogger())
	transport.Send(&events.AnalyticsEvent{PageURL: "/", Source: "direct", SessionID: "session_1_a"})
	transport.Send(&events.AnalyticsEvent{PageURL: "/about", Source: "direct", SessionID: "session_1_a"})
	transport.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	pages := []string{received[0].PageURL, received[1].PageURL}
	assert.ElementsMatch(t, []string{"/", "/about"}, pages)
}

func TestBeaconTransportSwallowsDeliveryErrors(t *testing.T) {
	// Endpoint refuses connections: Send must still return immediately and
	// Wait must not hang.
	transport := tracker.NewBeaconTransport("http://127.0.0.1:1/x/api/v1/events", testsupport.GetLogger())
	transport.Send(&events.AnalyticsEvent{PageURL: "/"})
	transport.Wait()
}
