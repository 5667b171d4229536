package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// ConversionStat summarizes one conversion goal within a query window.
type ConversionStat struct {
	ConversionType string `json:"conversionType"`
	Count          int64  `json:"count"`
	TotalValue     int64  `json:"totalValue"`
}

// GetConversions groups the window's converted visits by conversion type
// with a null-safe sum of their monetary values. Rows without a conversion
// never appear in any group.
func GetConversions(db *gorm.DB, params QueryParams) ([]ConversionStat, error) {
	where, args := params.whereClause()

	results := []ConversionStat{}
	query := fmt.Sprintf(`
		SELECT
			conversion_type,
			COUNT(*) AS count,
			COALESCE(SUM(conversion_value), 0) AS total_value
		FROM analytics_events
		WHERE %s AND converted = 1
		GROUP BY conversion_type
		ORDER BY count DESC, conversion_type ASC
	`, where)

	if err := db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to compute conversions breakdown: %w", err)
	}
	return results, nil
}
