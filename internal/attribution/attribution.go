package attribution

import (
	"embed"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Traffic source categories.
const (
	SourceDirect   = "direct"
	SourceOrganic  = "organic"
	SourceSocial   = "social"
	SourceReferral = "referral"
)

// Device types.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// Unknown is the fallback value for browser and OS classification.
const Unknown = "Unknown"

//go:embed database/referrers.yml
var databaseFiles embed.FS

type mediumRule struct {
	Medium    string   `yaml:"medium"`
	Fragments []string `yaml:"fragments"`
}

type referrerDatabase struct {
	Social []mediumRule `yaml:"social"`
	Search []mediumRule `yaml:"search"`
}

var (
	database     referrerDatabase
	databaseOnce sync.Once
)

func getDatabase() referrerDatabase {
	databaseOnce.Do(func() {
		data, err := databaseFiles.ReadFile("database/referrers.yml")
		if err != nil {
			panic(fmt.Sprintf("attribution: reading referrer database: %v", err))
		}
		if err := yaml.Unmarshal(data, &database); err != nil {
			panic(fmt.Sprintf("attribution: parsing referrer database: %v", err))
		}
	})
	return database
}

// Attribution holds every dimension derived from a user agent and referrer.
type Attribution struct {
	DeviceType string
	Browser    string
	OS         string
	Source     string
	Medium     string
}

// Classify derives all attribution dimensions for one page view. pageHost is
// the host serving the tracked page, used to tell self-referrals from
// external traffic.
func Classify(userAgent, referrer, pageHost string) Attribution {
	return Attribution{
		DeviceType: DeviceType(userAgent),
		Browser:    Browser(userAgent),
		OS:         OS(userAgent),
		Source:     Source(referrer, pageHost),
		Medium:     Medium(referrer),
	}
}

var tabletSignatures = []string{"ipad", "tablet", "kindle", "silk", "playbook"}

var mobileSignatures = []string{"mobi", "iphone", "ipod", "android", "blackberry", "windows phone", "opera mini"}

// DeviceType classifies a user agent as mobile, tablet or desktop. Tablet
// signatures win over the generic mobile ones: Android tablets carry the
// "android" token but not "mobile", and iPads match before the iOS checks.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, sig := range tabletSignatures {
		if strings.Contains(ua, sig) {
			return DeviceTablet
		}
	}
	if strings.Contains(ua, "android") && !strings.Contains(ua, "mobile") {
		return DeviceTablet
	}
	for _, sig := range mobileSignatures {
		if strings.Contains(ua, sig) {
			return DeviceMobile
		}
	}

	return DeviceDesktop
}

// Browser classifies a user agent into a small closed set of browser names.
// The checks are ordered: Chromium-family agents embed each other's tokens
// ("Edg" and "OPR" agents also say "Chrome", Chrome agents also say
// "Safari"), so reordering them changes the result.
func Browser(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "opr") || strings.Contains(ua, "opera"):
		return "Opera"
	default:
		return Unknown
	}
}

// OS classifies a user agent into a small closed set of operating system
// names. Checks are ordered the same way as Browser's.
func OS(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac"):
		return "MacOS"
	case strings.Contains(ua, "x11") || strings.Contains(ua, "linux"):
		return "Linux"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ios"):
		return "iOS"
	default:
		return Unknown
	}
}

// Source classifies a referrer into direct, social, organic or referral
// traffic. An empty referrer, an unparseable one, or one pointing back at
// pageHost all count as direct.
func Source(referrer, pageHost string) string {
	host := referrerHost(referrer)
	if host == "" || host == normalizeHost(pageHost) {
		return SourceDirect
	}

	db := getDatabase()
	if matchMedium(db.Social, host) != "" {
		return SourceSocial
	}
	if matchMedium(db.Search, host) != "" {
		return SourceOrganic
	}
	return SourceReferral
}

// Medium resolves a referrer to a canonical medium name (a named social
// network or search engine). It returns "" when the referrer is empty or
// its host matches no known fragment, even for hosts Source classifies as
// referral.
func Medium(referrer string) string {
	host := referrerHost(referrer)
	if host == "" {
		return ""
	}

	db := getDatabase()
	if medium := matchMedium(db.Social, host); medium != "" {
		return medium
	}
	return matchMedium(db.Search, host)
}

func matchMedium(rules []mediumRule, host string) string {
	for _, rule := range rules {
		for _, fragment := range rule.Fragments {
			if strings.Contains(host, fragment) {
				return rule.Medium
			}
		}
	}
	return ""
}

func referrerHost(referrer string) string {
	if referrer == "" {
		return ""
	}

	host := ""
	if u, err := url.Parse(referrer); err == nil {
		host = u.Host
	}
	if host == "" {
		// Bare hostnames without a scheme end up in the path component.
		host = referrer
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
	}
	return normalizeHost(host)
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
