package events

import (
	"fmt"
	"strings"

	"sitepulse/internal/attribution"
)

// FieldError describes one violated field in an inbound event payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full list of violated fields so the ingestion
// endpoint can report them all in one response.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("invalid event: %s", strings.Join(names, ", "))
}

var validSources = map[string]bool{
	attribution.SourceOrganic:  true,
	attribution.SourceSocial:   true,
	attribution.SourceDirect:   true,
	attribution.SourceReferral: true,
}

var validDeviceTypes = map[string]bool{
	attribution.DeviceMobile:  true,
	attribution.DeviceTablet:  true,
	attribution.DeviceDesktop: true,
}

// Validate checks the required fields and enum memberships of an inbound
// event. It returns a *ValidationError listing every violation, or nil when
// the event is acceptable.
func (e *AnalyticsEvent) Validate() error {
	var fields []FieldError

	add := func(field, message string) {
		fields = append(fields, FieldError{Field: field, Message: message})
	}

	if e.PageURL == "" {
		add("pageUrl", "is required")
	}
	if e.Source == "" {
		add("source", "is required")
	} else if !validSources[e.Source] {
		add("source", "must be one of organic, social, direct, referral")
	}
	if e.SessionID == "" {
		add("sessionId", "is required")
	}
	if e.DeviceType == "" {
		add("deviceType", "is required")
	} else if !validDeviceTypes[e.DeviceType] {
		add("deviceType", "must be one of mobile, tablet, desktop")
	}
	if e.Browser == "" {
		add("browser", "is required")
	}
	if e.OS == "" {
		add("os", "is required")
	}
	if e.ScreenResolution == "" {
		add("screenResolution", "is required")
	}
	if e.TimeOnPage < 0 {
		add("timeOnPage", "must not be negative")
	}
	if e.Converted && e.ConversionType == "" {
		add("conversionType", "is required for converted events")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
