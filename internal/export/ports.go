// Package export defines the outbound port for publishing monthly
// withdrawal schedules to external destinations.
package export

import (
	"context"

	"paysched/internal/schedule"
)

// ScheduleExporter writes a monthly withdrawal view to an external sheet.
// Implementations must be idempotent: re-exporting a month replaces the
// previous export of that month.
type ScheduleExporter interface {
	// ExportMonthlyView writes the view and returns a reference to the
	// written range.
	ExportMonthlyView(ctx context.Context, view schedule.MonthlyView) (rangeRef string, err error)
}
