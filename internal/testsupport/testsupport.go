package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal"
	"sitepulse/internal/attribution"
	"sitepulse/internal/config"
	"sitepulse/internal/events"
	"sitepulse/internal/users"
)

// SessionCookieName is the expected cookie name for session cookies in
// tests. It must match the pattern used in routes.go: cfg.AppName +
// "_session".
const SessionCookieName = "sitepulse_session"

// testDBCache caches test databases by root test name so setup helpers and
// subtests share one database.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with sitepulse's interface.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all sitepulse models for migration.
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&events.AnalyticsEvent{},
		&users.User{},
	}
}

// SetTestEnv forces the test environment configuration for the process.
func SetTestEnv(t *testing.T) {
	t.Helper()

	if os.Getenv("SITEPULSE_ENV") != config.Test {
		os.Setenv("SITEPULSE_ENV", config.Test)
		config.Reset()
	}
	cfg := config.GetConfig()
	require.Equal(t, config.Test, cfg.Environment, "tests must run in the test environment")
}

// SetupTestDB creates a named in-memory database with all models migrated.
// cache=shared allows multiple connections within a test to share the same
// database; the database is cached by root test name so subtests reuse it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager backed by an in-memory
// database.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()

	SetTestEnv(t)
	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CleanAllTables clears all non-system tables in the database.
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}
	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger that only reports errors.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// EventOption mutates a test event before it is stored.
type EventOption func(*events.AnalyticsEvent)

func WithVisitedAt(visitedAt time.Time) EventOption {
	return func(e *events.AnalyticsEvent) { e.VisitedAt = visitedAt }
}

func WithSource(source, medium string) EventOption {
	return func(e *events.AnalyticsEvent) {
		e.Source = source
		e.Medium = medium
	}
}

func WithPage(pageURL, pageTitle string) EventOption {
	return func(e *events.AnalyticsEvent) {
		e.PageURL = pageURL
		e.PageTitle = pageTitle
	}
}

func WithDevice(deviceType, browser, os string) EventOption {
	return func(e *events.AnalyticsEvent) {
		e.DeviceType = deviceType
		e.Browser = browser
		e.OS = os
	}
}

func WithNewUser(isNewUser bool) EventOption {
	return func(e *events.AnalyticsEvent) { e.IsNewUser = isNewUser }
}

func WithTimeOnPage(seconds int, bounced bool) EventOption {
	return func(e *events.AnalyticsEvent) {
		e.TimeOnPage = seconds
		e.Bounced = bounced
	}
}

func WithConversion(conversionType string, value *int) EventOption {
	return func(e *events.AnalyticsEvent) {
		e.Converted = true
		e.ConversionType = conversionType
		e.ConversionValue = value
	}
}

func WithSession(sessionID string) EventOption {
	return func(e *events.AnalyticsEvent) { e.SessionID = sessionID }
}

// CreateTestEvent stores one event row directly, bypassing the ingestion
// endpoint. Defaults describe a plain desktop page view from direct
// traffic visited now.
func CreateTestEvent(t *testing.T, db *gorm.DB, opts ...EventOption) *events.AnalyticsEvent {
	t.Helper()

	event := &events.AnalyticsEvent{
		PageURL:          "/",
		PageTitle:        "Home",
		Source:           attribution.SourceDirect,
		SessionID:        "session_1700000000000_testtest",
		DeviceType:       attribution.DeviceDesktop,
		Browser:          "Chrome",
		OS:               "MacOS",
		ScreenResolution: "1920x1080",
		VisitedAt:        time.Now().UTC(),
		CreatedAt:        time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(event)
	}

	require.NoError(t, db.Create(event).Error)
	return event
}

// IntPtr returns a pointer to v, for optional conversion values.
func IntPtr(v int) *int {
	return &v
}

// CreateTestUserForAuth creates a user with a properly hashed password.
func CreateTestUserForAuth(t *testing.T, db *gorm.DB, email, password string) *users.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &users.User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	SetTestEnv(t)

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Match production behavior: browser-originated requests carry a
	// Sec-Fetch-Site header.
	cfg.EnableSecFetchSite = true
	cfg.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// LoginTestUser logs the user in over the JSON endpoint and returns the
// session cookie value.
func LoginTestUser(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sessionValue string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookieName {
			sessionValue = cookie.Value
			break
		}
	}
	require.NotEmpty(t, sessionValue, "login response must set the session cookie")

	return sessionValue
}
