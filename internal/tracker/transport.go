package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sitepulse/internal/events"
)

// Transport delivers one event payload without ever blocking or failing the
// caller. Delivery errors are logged and swallowed; no send is retried.
type Transport interface {
	Send(event *events.AnalyticsEvent)
}

// BeaconTransport posts events to the ingestion endpoint from detached
// goroutines, so an in-flight send is never cancelled by whatever the
// caller does next. Duplicate or lost deliveries are both acceptable.
type BeaconTransport struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	wg       sync.WaitGroup
}

var _ Transport = (*BeaconTransport)(nil)

func NewBeaconTransport(endpoint string, logger *slog.Logger) *BeaconTransport {
	return &BeaconTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Send dispatches the event in the background and returns immediately.
func (t *BeaconTransport) Send(event *events.AnalyticsEvent) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		body, err := json.Marshal(event)
		if err != nil {
			t.logger.Error("Failed to encode analytics event", slog.Any("error", err))
			return
		}

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, t.endpoint, bytes.NewReader(body))
		if err != nil {
			t.logger.Error("Failed to build event request", slog.Any("error", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			t.logger.Debug("Event delivery failed",
				slog.String("endpoint", t.endpoint),
				slog.Any("error", err))
			return
		}
		resp.Body.Close()
	}()
}

// Wait blocks until every dispatched send has finished. Intended for
// shutdown and tests; pages never call it.
func (t *BeaconTransport) Wait() {
	t.wg.Wait()
}
