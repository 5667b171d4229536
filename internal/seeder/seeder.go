package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/attribution"
	"sitepulse/internal/events"
)

const insertBatchSize = 500

// Seeder fills the events table with realistic sample traffic so dashboards
// have something to show in development.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
	Days       int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount, days int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 30
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
		Days:       days,
	}
}

type trafficProfile struct {
	source   string
	medium   string
	referrer string
	weight   int
}

var trafficProfiles = []trafficProfile{
	{source: attribution.SourceDirect, medium: "", referrer: "", weight: 35},
	{source: attribution.SourceOrganic, medium: "google", referrer: "https://www.google.com/", weight: 30},
	{source: attribution.SourceOrganic, medium: "bing", referrer: "https://www.bing.com/search", weight: 5},
	{source: attribution.SourceSocial, medium: "twitter", referrer: "https://t.co/abc", weight: 8},
	{source: attribution.SourceSocial, medium: "linkedin", referrer: "https://www.linkedin.com/feed/", weight: 7},
	{source: attribution.SourceReferral, medium: "", referrer: "https://news.ycombinator.com/", weight: 15},
}

type deviceProfile struct {
	deviceType string
	browser    string
	os         string
	resolution string
	weight     int
}

var deviceProfiles = []deviceProfile{
	{deviceType: attribution.DeviceDesktop, browser: "Chrome", os: "Windows", resolution: "1920x1080", weight: 30},
	{deviceType: attribution.DeviceDesktop, browser: "Chrome", os: "MacOS", resolution: "2560x1440", weight: 15},
	{deviceType: attribution.DeviceDesktop, browser: "Firefox", os: "Linux", resolution: "1920x1080", weight: 8},
	{deviceType: attribution.DeviceDesktop, browser: "Safari", os: "MacOS", resolution: "1440x900", weight: 10},
	{deviceType: attribution.DeviceMobile, browser: "Safari", os: "iOS", resolution: "390x844", weight: 20},
	{deviceType: attribution.DeviceMobile, browser: "Chrome", os: "Android", resolution: "412x915", weight: 14},
	{deviceType: attribution.DeviceTablet, browser: "Safari", os: "iOS", resolution: "820x1180", weight: 3},
}

var journeyTemplates = [][]string{
	{"/", "/about", "/contact"},
	{"/", "/features", "/pricing", "/signup"},
	{"/", "/blog", "/blog/launch-week", "/signup"},
	{"/pricing", "/features", "/signup"},
	{"/", "/docs", "/docs/getting-started"},
	{"/", "/signup"},
	{"/blog/launch-week", "/pricing"},
	{"/"},
}

var pageTitles = map[string]string{
	"/":                      "Home",
	"/about":                 "About",
	"/contact":               "Contact",
	"/features":              "Features",
	"/pricing":               "Pricing",
	"/signup":                "Sign Up",
	"/blog":                  "Blog",
	"/blog/launch-week":      "Launch Week",
	"/docs":                  "Documentation",
	"/docs/getting-started":  "Getting Started",
}

var conversionTypes = []struct {
	name  string
	value int
}{
	{name: "registration", value: 0},
	{name: "newsletter", value: 0},
	{name: "purchase", value: 2999},
	{name: "demo_request", value: 0},
}

// Run generates sessions until the configured event count is reached.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding sample traffic...",
		slog.Int("eventCount", s.EventCount),
		slog.Int("days", s.Days))

	db := s.DBManager.GetConnection()
	if db == nil {
		return fmt.Errorf("no database connection available")
	}

	batch := make([]events.AnalyticsEvent, 0, insertBatchSize)
	created := 0

	for created < s.EventCount {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		session := s.generateSession()
		for _, event := range session {
			batch = append(batch, event)
			created++
			if len(batch) >= insertBatchSize {
				if err := s.insertBatch(db, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
			if created >= s.EventCount {
				break
			}
		}
	}

	if len(batch) > 0 {
		if err := s.insertBatch(db, batch); err != nil {
			return err
		}
	}

	s.Logger.Info("Seeding completed",
		slog.Int("created", created),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// generateSession builds one visitor session: a page view and an exit event
// per page, with an occasional conversion.
func (s *Seeder) generateSession() []events.AnalyticsEvent {
	traffic := pickTrafficProfile()
	device := pickDeviceProfile()
	journey := journeyTemplates[rand.IntN(len(journeyTemplates))]

	visitedAt := time.Now().UTC().
		AddDate(0, 0, -rand.IntN(s.Days)).
		Add(-time.Duration(rand.IntN(86400)) * time.Second)
	sessionID := fmt.Sprintf("session_%d_%s", visitedAt.UnixMilli(), randomBase36(9))
	isNewUser := rand.IntN(100) < 60

	var session []events.AnalyticsEvent
	for i, page := range journey {
		base := events.AnalyticsEvent{
			PageURL:          page,
			PageTitle:        pageTitles[page],
			Referrer:         traffic.referrer,
			Source:           traffic.source,
			Medium:           traffic.medium,
			SessionID:        sessionID,
			IsNewUser:        isNewUser && i == 0,
			DeviceType:       device.deviceType,
			Browser:          device.browser,
			OS:               device.os,
			ScreenResolution: device.resolution,
			VisitedAt:        visitedAt,
			CreatedAt:        visitedAt,
		}
		session = append(session, base)

		timeOnPage := rand.IntN(120)
		exit := base
		exit.IsNewUser = false
		exit.TimeOnPage = timeOnPage
		exit.Bounced = len(journey) == 1 && timeOnPage < 10
		session = append(session, exit)

		visitedAt = visitedAt.Add(time.Duration(timeOnPage+1) * time.Second)
	}

	// Roughly one in twelve sessions converts on its last page.
	if rand.IntN(12) == 0 {
		conv := conversionTypes[rand.IntN(len(conversionTypes))]
		event := session[len(session)-1]
		event.TimeOnPage = 0
		event.Bounced = false
		event.Converted = true
		event.ConversionType = conv.name
		if conv.value > 0 {
			value := conv.value
			event.ConversionValue = &value
		}
		session = append(session, event)
	}

	return session
}

func (s *Seeder) insertBatch(db *gorm.DB, batch []events.AnalyticsEvent) error {
	rows := make([]events.AnalyticsEvent, len(batch))
	copy(rows, batch)
	return sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

func pickTrafficProfile() trafficProfile {
	return trafficProfiles[pickWeighted(len(trafficProfiles), func(i int) int {
		return trafficProfiles[i].weight
	})]
}

func pickDeviceProfile() deviceProfile {
	return deviceProfiles[pickWeighted(len(deviceProfiles), func(i int) int {
		return deviceProfiles[i].weight
	})]
}

func pickWeighted(n int, weight func(int) int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += weight(i)
	}
	pick := rand.IntN(total)
	for i := 0; i < n; i++ {
		pick -= weight(i)
		if pick < 0 {
			return i
		}
	}
	return n - 1
}

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = base36Chars[rand.IntN(len(base36Chars))]
	}
	return string(out)
}
