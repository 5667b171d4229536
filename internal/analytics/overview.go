package analytics

import (
	"fmt"
	"math"

	"gorm.io/gorm"
)

// Overview holds the KPI summary for one query window.
type Overview struct {
	TotalVisits    int64   `json:"totalVisits"`
	NewUsers       int64   `json:"newUsers"`
	ReturningUsers int64   `json:"returningUsers"`
	AvgTimeOnPage  float64 `json:"avgTimeOnPage"`
	BounceRate     float64 `json:"bounceRate"`
	Conversions    int64   `json:"conversions"`
}

// OverviewComparison pairs the current window's overview with one computed
// over a window twice the size. Callers diff the two; no deltas are
// computed here.
type OverviewComparison struct {
	Current  *Overview `json:"current"`
	Previous *Overview `json:"previous"`
}

// GetOverview computes the KPI summary for the filtered window. New and
// returning user counts are both computed from the row set directly rather
// than derived from each other.
func GetOverview(db *gorm.DB, params QueryParams) (*Overview, error) {
	where, args := params.whereClause()

	var row struct {
		TotalVisits    int64
		NewUsers       int64
		ReturningUsers int64
		AvgTimeOnPage  float64
		BouncedVisits  int64
		Conversions    int64
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_visits,
			COALESCE(SUM(CASE WHEN is_new_user THEN 1 ELSE 0 END), 0) AS new_users,
			COALESCE(SUM(CASE WHEN is_new_user THEN 0 ELSE 1 END), 0) AS returning_users,
			COALESCE(AVG(time_on_page), 0) AS avg_time_on_page,
			COALESCE(SUM(CASE WHEN bounced THEN 1 ELSE 0 END), 0) AS bounced_visits,
			COALESCE(SUM(CASE WHEN converted THEN 1 ELSE 0 END), 0) AS conversions
		FROM analytics_events
		WHERE %s
	`, where)

	if err := db.Raw(query, args...).Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to compute overview: %w", err)
	}

	overview := &Overview{
		TotalVisits:    row.TotalVisits,
		NewUsers:       row.NewUsers,
		ReturningUsers: row.ReturningUsers,
		AvgTimeOnPage:  roundTwoDecimals(row.AvgTimeOnPage),
		Conversions:    row.Conversions,
	}
	// Guard the division: an empty window has a bounce rate of exactly 0.
	if row.TotalVisits > 0 {
		overview.BounceRate = roundTwoDecimals(float64(row.BouncedVisits) / float64(row.TotalVisits) * 100)
	}

	return overview, nil
}

// GetOverviewComparison computes the overview for the current window and for
// a window of twice the requested size ending at the same instant.
func GetOverviewComparison(db *gorm.DB, params QueryParams) (*OverviewComparison, error) {
	current, err := GetOverview(db, params)
	if err != nil {
		return nil, err
	}

	previous, err := GetOverview(db, params.WithPreviousPeriod())
	if err != nil {
		return nil, err
	}

	return &OverviewComparison{Current: current, Previous: previous}, nil
}

func roundTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
