package events

import "time"

// AnalyticsEvent is one immutable row in the visit log. Rows are appended by
// the ingestion endpoint and never updated afterwards; every aggregation
// reads from this table.
type AnalyticsEvent struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PageURL          string    `gorm:"column:page_url;index;not null" json:"pageUrl"`
	PageTitle        string    `gorm:"column:page_title" json:"pageTitle,omitempty"`
	Referrer         string    `json:"referrer,omitempty"`
	Source           string    `gorm:"index;not null" json:"source"`
	Medium           string    `json:"medium,omitempty"`
	SessionID        string    `gorm:"column:session_id;index;not null" json:"sessionId"`
	IsNewUser        bool      `gorm:"column:is_new_user" json:"isNewUser"`
	DeviceType       string    `gorm:"column:device_type;index;not null" json:"deviceType"`
	Browser          string    `gorm:"not null" json:"browser"`
	OS               string    `gorm:"column:os;not null" json:"os"`
	ScreenResolution string    `gorm:"column:screen_resolution" json:"screenResolution"`
	TimeOnPage       int       `gorm:"column:time_on_page;default:0" json:"timeOnPage"`
	Bounced          bool      `gorm:"default:false" json:"bounced"`
	Converted        bool      `gorm:"default:false;index" json:"converted"`
	ConversionType   string    `gorm:"column:conversion_type;index" json:"conversionType,omitempty"`
	ConversionValue  *int      `gorm:"column:conversion_value" json:"conversionValue,omitempty"`
	Country          string    `json:"country,omitempty"`
	City             string    `json:"city,omitempty"`
	VisitedAt        time.Time `gorm:"column:visited_at;index;not null" json:"visitedAt"`
	CreatedAt        time.Time `json:"-"`
}
