// Package geo resolves client IP addresses to a country and city using an
// optional GeoLite2 database. When the database is not configured or cannot
// be opened, every lookup degrades to an empty Location instead of failing.
package geo

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitepulse/internal/config"
)

// Location is the resolved geography of one client IP. Empty fields mean
// the dimension could not be resolved.
type Location struct {
	Country string
	City    string
}

var (
	geoDB     *geoip2.Reader
	mu        sync.RWMutex
	once      sync.Once
	logger    *slog.Logger
	countries = gountries.New()
	caser     = cases.Upper(language.AmericanEnglish)
)

// InitLogger sets the logger for the geo package.
func InitLogger(l *slog.Logger) {
	logger = l
}

func openDatabase() *geoip2.Reader {
	cfg := config.GetConfig()
	if cfg.GeoDBPath == "" {
		if logger != nil {
			logger.Debug("GeoIP database path not configured - geo lookups disabled")
		}
		return nil
	}

	if _, err := os.Stat(cfg.GeoDBPath); err != nil {
		if logger != nil {
			logger.Info("GeoLite2 database not found - geo lookups disabled",
				slog.String("path", cfg.GeoDBPath),
				slog.Any("error", err))
		}
		return nil
	}

	db, err := geoip2.Open(cfg.GeoDBPath)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open GeoLite2 database",
				slog.String("path", cfg.GeoDBPath),
				slog.Any("error", err))
		}
		return nil
	}

	if logger != nil {
		logger.Info("GeoLite2 database initialized", slog.String("path", cfg.GeoDBPath))
	}
	return db
}

func getDatabase() *geoip2.Reader {
	once.Do(func() {
		mu.Lock()
		geoDB = openDatabase()
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return geoDB
}

// Reload reopens the GeoLite2 database from disk. Call after replacing the
// database file.
func Reload() {
	mu.Lock()
	defer mu.Unlock()
	if geoDB != nil {
		geoDB.Close()
	}
	geoDB = openDatabase()
}

// Lookup resolves an IP address to a Location. It never fails: unparseable
// addresses, missing database and lookup errors all yield an empty Location.
func Lookup(ipAddress string) Location {
	db := getDatabase()
	if db == nil {
		return Location{}
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return Location{}
	}

	record, err := db.City(ip)
	if err != nil {
		if logger != nil {
			logger.Debug("GeoIP lookup failed",
				slog.String("ip_address", ipAddress),
				slog.Any("error", err))
		}
		return Location{}
	}

	return Location{
		Country: CountryName(record.Country.IsoCode),
		City:    record.City.Names["en"],
	}
}

// CountryName maps an ISO alpha-2 country code to its common English name.
// Unrecognized codes come back uppercased as-is.
func CountryName(isoCode string) string {
	if isoCode == "" {
		return ""
	}
	country, err := countries.FindCountryByAlpha(isoCode)
	if err != nil {
		return caser.String(isoCode)
	}
	return country.Name.Common
}
