package http

import (
	"log/slog"
	"net/http"

	"paysched/internal/schedule"
)

// handleSchedule returns the monthly withdrawal cross-table for
// ?year=YYYY&month=M (defaults to the current month).
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	view, err := s.schedule.MonthlyView(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly view failed",
			"year", year,
			"month", month,
			"error", err)
		writeError(w, http.StatusInternalServerError, "failed to build monthly view")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleCalendar returns per-day totals for ?year=YYYY&month=M, keyed by
// YYYY-MM-DD.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	days, err := s.schedule.CalendarMonth(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Calendar view failed",
			"year", year,
			"month", month,
			"error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar view")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Year  int                          `json:"year"`
		Month int                          `json:"month"`
		Days  map[string]schedule.DayTotal `json:"days"`
	}{Year: year, Month: month, Days: days})
}

// handleExport queues a sheet re-export for ?year=YYYY&month=M.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	if err := s.schedule.RequestExport(r.Context(), year, month); err != nil {
		slog.ErrorContext(r.Context(), "Export request failed",
			"year", year,
			"month", month,
			"error", err)
		writeError(w, http.StatusServiceUnavailable, "failed to queue export request")
		return
	}

	writeJSON(w, http.StatusAccepted, struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}{Year: year, Month: month})
}
