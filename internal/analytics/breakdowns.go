package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// topPagesLimit caps the pages breakdown to the busiest pages.
const topPagesLimit = 10

// SourceStat is one (source, medium) group in the sources breakdown.
type SourceStat struct {
	Source string `json:"source"`
	Medium string `json:"medium,omitempty"`
	Visits int64  `json:"visits"`
}

// PageStat is one (pageUrl, pageTitle) group in the pages breakdown.
type PageStat struct {
	PageURL       string  `json:"pageUrl"`
	PageTitle     string  `json:"pageTitle,omitempty"`
	Visits        int64   `json:"visits"`
	AvgTimeOnPage float64 `json:"avgTimeOnPage"`
}

// DeviceStat is one (deviceType, browser, os) group in the devices
// breakdown.
type DeviceStat struct {
	DeviceType string `json:"deviceType"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	Visits     int64  `json:"visits"`
}

// GetSources groups the window's visits by traffic source and medium,
// busiest groups first. Ties order by the group keys so results are
// deterministic for a fixed dataset.
func GetSources(db *gorm.DB, params QueryParams) ([]SourceStat, error) {
	where, args := params.whereClause()

	results := []SourceStat{}
	query := fmt.Sprintf(`
		SELECT
			source,
			medium,
			COUNT(*) AS visits
		FROM analytics_events
		WHERE %s
		GROUP BY source, medium
		ORDER BY visits DESC, source ASC, medium ASC
	`, where)

	if err := db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to compute sources breakdown: %w", err)
	}
	return results, nil
}

// GetPages groups the window's visits by page, busiest first, limited to
// the top entries.
func GetPages(db *gorm.DB, params QueryParams) ([]PageStat, error) {
	where, args := params.whereClause()

	results := []PageStat{}
	query := fmt.Sprintf(`
		SELECT
			page_url,
			page_title,
			COUNT(*) AS visits,
			COALESCE(AVG(time_on_page), 0) AS avg_time_on_page
		FROM analytics_events
		WHERE %s
		GROUP BY page_url, page_title
		ORDER BY visits DESC, page_url ASC, page_title ASC
		LIMIT ?
	`, where)

	args = append(args, topPagesLimit)
	if err := db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to compute pages breakdown: %w", err)
	}

	for i := range results {
		results[i].AvgTimeOnPage = roundTwoDecimals(results[i].AvgTimeOnPage)
	}
	return results, nil
}

// GetDevices groups the window's visits by device type, browser and OS,
// busiest groups first.
func GetDevices(db *gorm.DB, params QueryParams) ([]DeviceStat, error) {
	where, args := params.whereClause()

	results := []DeviceStat{}
	query := fmt.Sprintf(`
		SELECT
			device_type,
			browser,
			os,
			COUNT(*) AS visits
		FROM analytics_events
		WHERE %s
		GROUP BY device_type, browser, os
		ORDER BY visits DESC, device_type ASC, browser ASC, os ASC
	`, where)

	if err := db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to compute devices breakdown: %w", err)
	}
	return results, nil
}
