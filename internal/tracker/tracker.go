// Package tracker is the visit-capture side of the analytics pipeline: it
// derives attribution for each page view, maintains session and first-visit
// identity, measures time on page, and emits events over a fire-and-forget
// transport. Capture never raises errors toward the page being measured.
package tracker

import (
	"log/slog"
	"sync"
	"time"

	"sitepulse/internal/attribution"
	"sitepulse/internal/events"
)

// BounceThresholdSeconds is the time-on-page below which a finished visit
// counts as a bounce.
const BounceThresholdSeconds = 10

// Config wires a Tracker's environment and collaborators. SessionStore,
// VisitorStore and Now default to in-memory stores and the system clock.
type Config struct {
	PageHost         string
	UserAgent        string
	ScreenResolution string
	SessionStore     Store
	VisitorStore     Store
	Transport        Transport
	Logger           *slog.Logger
	Now              func() time.Time
}

// Tracker emits analytics events for one browsing context. All methods are
// safe for concurrent use and none of them ever blocks on delivery.
type Tracker struct {
	identity         *Identity
	transport        Transport
	logger           *slog.Logger
	now              func() time.Time
	pageHost         string
	userAgent        string
	screenResolution string

	mu        sync.Mutex
	pageURL   string
	pageTitle string
	referrer  string
	pageStart time.Time
	exitSent  bool
}

func New(cfg Config) *Tracker {
	if cfg.SessionStore == nil {
		cfg.SessionStore = NewMemoryStore()
	}
	if cfg.VisitorStore == nil {
		cfg.VisitorStore = NewMemoryStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Tracker{
		identity:         NewIdentity(cfg.SessionStore, cfg.VisitorStore, cfg.Now),
		transport:        cfg.Transport,
		logger:           cfg.Logger,
		now:              cfg.Now,
		pageHost:         cfg.PageHost,
		userAgent:        cfg.UserAgent,
		screenResolution: cfg.ScreenResolution,
	}
}

// PageView records navigation to a page: it restarts the visit clock,
// resolves identity and attribution, and emits the page-view event. The
// first-visit check happens here and only here; exit events always report a
// returning visitor.
func (t *Tracker) PageView(pageURL, pageTitle, referrer string) {
	t.mu.Lock()
	t.pageURL = pageURL
	t.pageTitle = pageTitle
	t.referrer = referrer
	t.pageStart = t.now()
	t.exitSent = false
	t.mu.Unlock()

	event := t.baseEvent(pageURL, pageTitle, referrer)
	event.IsNewUser = t.identity.RegisterVisit()

	t.send(event)
}

// PageHidden emits the exit event when the page becomes hidden.
func (t *Tracker) PageHidden() {
	t.sendExit()
}

// PageUnload emits the exit event when the page starts unloading. A visit
// that already reported its exit on visibility change stays silent here.
func (t *Tracker) PageUnload() {
	t.sendExit()
}

// PageVisible restarts the visit clock after the page returns from a hidden
// state, so the next hide or unload measures the new foreground span.
func (t *Tracker) PageVisible() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pageURL == "" {
		return
	}
	t.pageStart = t.now()
	t.exitSent = false
}

// Conversion emits an independent goal-completion event carrying an
// optional monetary value. It does not close out the visit clock; the exit
// event still reports the visit's time on page.
func (t *Tracker) Conversion(conversionType string, value *int) {
	t.mu.Lock()
	pageURL, pageTitle, referrer := t.pageURL, t.pageTitle, t.referrer
	t.mu.Unlock()

	if pageURL == "" {
		pageURL = "/"
	}

	event := t.baseEvent(pageURL, pageTitle, referrer)
	event.Converted = true
	event.ConversionType = conversionType
	event.ConversionValue = value

	t.send(event)
}

func (t *Tracker) sendExit() {
	t.mu.Lock()
	if t.pageURL == "" || t.exitSent {
		t.mu.Unlock()
		return
	}
	t.exitSent = true
	pageURL, pageTitle, referrer := t.pageURL, t.pageTitle, t.referrer
	timeOnPage := int(t.now().Sub(t.pageStart).Seconds())
	t.mu.Unlock()

	if timeOnPage < 0 {
		timeOnPage = 0
	}

	event := t.baseEvent(pageURL, pageTitle, referrer)
	event.TimeOnPage = timeOnPage
	event.Bounced = timeOnPage < BounceThresholdSeconds

	t.send(event)
}

func (t *Tracker) baseEvent(pageURL, pageTitle, referrer string) *events.AnalyticsEvent {
	attributed := attribution.Classify(t.userAgent, referrer, t.pageHost)

	return &events.AnalyticsEvent{
		PageURL:          pageURL,
		PageTitle:        pageTitle,
		Referrer:         referrer,
		Source:           attributed.Source,
		Medium:           attributed.Medium,
		SessionID:        t.identity.SessionID(),
		DeviceType:       attributed.DeviceType,
		Browser:          attributed.Browser,
		OS:               attributed.OS,
		ScreenResolution: t.screenResolution,
		VisitedAt:        t.now().UTC(),
	}
}

func (t *Tracker) send(event *events.AnalyticsEvent) {
	if t.transport == nil {
		t.logger.Debug("No transport configured, dropping event",
			slog.String("page_url", event.PageURL))
		return
	}
	t.transport.Send(event)
}
