package analytics

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/pkg/async"
)

// Dashboard bundles every aggregation for one window. The sections are
// fetched in parallel without a shared transaction, so slight skew between
// them under concurrent ingestion is accepted.
type Dashboard struct {
	Overview    *Overview        `json:"overview"`
	Timeline    []TimelinePoint  `json:"timeline"`
	Sources     []SourceStat     `json:"sources"`
	Pages       []PageStat       `json:"pages"`
	Devices     []DeviceStat     `json:"devices"`
	Conversions []ConversionStat `json:"conversions"`
}

// GetDashboard runs all six aggregations concurrently. Any single failure
// fails the whole dashboard; no partial result is returned.
func GetDashboard(ctx context.Context, db *gorm.DB, params QueryParams) (*Dashboard, error) {
	tasks := []async.Task{
		{Name: "overview", Run: func() (interface{}, error) { return GetOverview(db, params) }},
		{Name: "timeline", Run: func() (interface{}, error) { return GetTimeline(db, params) }},
		{Name: "sources", Run: func() (interface{}, error) { return GetSources(db, params) }},
		{Name: "pages", Run: func() (interface{}, error) { return GetPages(db, params) }},
		{Name: "devices", Run: func() (interface{}, error) { return GetDevices(db, params) }},
		{Name: "conversions", Run: func() (interface{}, error) { return GetConversions(db, params) }},
	}

	pool := async.NewPool(len(tasks))
	results := pool.Execute(ctx, tasks)

	if len(results) != len(tasks) {
		return nil, fmt.Errorf("dashboard aggregation interrupted: %w", ctx.Err())
	}
	for name, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, result.Err)
		}
	}

	return &Dashboard{
		Overview:    results["overview"].Data.(*Overview),
		Timeline:    results["timeline"].Data.([]TimelinePoint),
		Sources:     results["sources"].Data.([]SourceStat),
		Pages:       results["pages"].Data.([]PageStat),
		Devices:     results["devices"].Data.([]DeviceStat),
		Conversions: results["conversions"].Data.([]ConversionStat),
	}, nil
}
