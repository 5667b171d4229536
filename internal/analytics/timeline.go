package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// TimelinePoint is one calendar date's activity within a query window.
type TimelinePoint struct {
	Date        string `json:"date"`
	Visits      int64  `json:"visits"`
	NewUsers    int64  `json:"newUsers"`
	Conversions int64  `json:"conversions"`
}

// GetTimeline returns one point per calendar date in the window, ascending,
// with zero-filled points for dates without events so the series always
// covers the full window.
func GetTimeline(db *gorm.DB, params QueryParams) ([]TimelinePoint, error) {
	where, args := params.whereClause()

	var rows []TimelinePoint
	query := fmt.Sprintf(`
		SELECT
			strftime('%s', visited_at) AS date,
			COUNT(*) AS visits,
			COALESCE(SUM(CASE WHEN is_new_user THEN 1 ELSE 0 END), 0) AS new_users,
			COALESCE(SUM(CASE WHEN converted THEN 1 ELSE 0 END), 0) AS conversions
		FROM analytics_events
		WHERE %s
		GROUP BY date
		ORDER BY date ASC
	`, timeframe.SQLiteDateFormat, where)

	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute timeline: %w", err)
	}

	byDate := make(map[string]TimelinePoint, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	labels := params.Window.DateLabels()
	timeline := make([]TimelinePoint, len(labels))
	for i, date := range labels {
		if point, ok := byDate[date]; ok {
			timeline[i] = point
		} else {
			timeline[i] = TimelinePoint{Date: date}
		}
	}

	return timeline, nil
}
