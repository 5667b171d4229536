package analytics

import (
	"strings"

	"sitepulse/internal/timeframe"
)

// FilterAll disables filtering on a dimension, same as leaving it empty.
const FilterAll = "all"

// QueryParams is the common filter set accepted by every aggregation: a day
// window plus optional source, device type and exact page filters.
type QueryParams struct {
	Window     timeframe.Window
	Source     string
	DeviceType string
	PageURL    string
}

// NewQueryParams builds params covering the given window with no dimension
// filters.
func NewQueryParams(window timeframe.Window) QueryParams {
	return QueryParams{Window: window}
}

// WithPreviousPeriod widens the window to twice its size for
// period-over-period comparison, keeping all dimension filters.
func (p QueryParams) WithPreviousPeriod() QueryParams {
	p.Window = p.Window.WithPreviousPeriod()
	return p
}

// whereClause renders the shared WHERE conditions and their bind arguments.
func (p QueryParams) whereClause() (string, []interface{}) {
	conditions := []string{"visited_at BETWEEN ? AND ?"}
	args := []interface{}{p.Window.From, p.Window.To}

	if p.Source != "" && p.Source != FilterAll {
		conditions = append(conditions, "source = ?")
		args = append(args, p.Source)
	}
	if p.DeviceType != "" && p.DeviceType != FilterAll {
		conditions = append(conditions, "device_type = ?")
		args = append(args, p.DeviceType)
	}
	if p.PageURL != "" {
		conditions = append(conditions, "page_url = ?")
		args = append(args, p.PageURL)
	}

	return strings.Join(conditions, " AND "), args
}
