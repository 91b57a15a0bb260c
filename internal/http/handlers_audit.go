package http

import (
	"log/slog"
	"net/http"

	"paysched/internal/schedule"
)

// handleAuditIssues reports accounts whose configuration combines a
// month-end payment day with weekend adjustment.
func (s *Server) handleAuditIssues(w http.ResponseWriter, r *http.Request) {
	report, err := s.audit.Analyze(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Audit analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "audit analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAuditFixes returns the recommended fix set for the current issues.
func (s *Server) handleAuditFixes(w http.ResponseWriter, r *http.Request) {
	fixes, err := s.audit.RecommendFixes(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Fix recommendation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fix recommendation failed")
		return
	}
	writeJSON(w, http.StatusOK, fixes)
}

type fixSetRequest struct {
	Fixes []schedule.Fix `json:"fixes"`
}

// handleAuditAffected previews the scheduled-date shifts a fix set would
// cause, without writing anything.
func (s *Server) handleAuditAffected(w http.ResponseWriter, r *http.Request) {
	var req fixSetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	affected, err := s.audit.AffectedTransactions(r.Context(), req.Fixes)
	if err != nil {
		slog.ErrorContext(r.Context(), "Affected preview failed", "error", err)
		writeError(w, http.StatusInternalServerError, "affected preview failed")
		return
	}
	writeJSON(w, http.StatusOK, affected)
}

func (s *Server) handleAuditValidate(w http.ResponseWriter, r *http.Request) {
	var req fixSetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	validation, err := s.audit.ValidateFixes(r.Context(), req.Fixes)
	if err != nil {
		slog.ErrorContext(r.Context(), "Fix validation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fix validation failed")
		return
	}
	writeJSON(w, http.StatusOK, validation)
}

type applyRequest struct {
	Fixes            []schedule.Fix `json:"fixes"`
	RewriteSchedules bool           `json:"rewriteSchedules"`
}

// handleAuditApply applies a fix set. This is the only endpoint that may
// rewrite stored scheduled dates, and only when rewriteSchedules is set.
func (s *Server) handleAuditApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.audit.ApplyFixes(r.Context(), req.Fixes, req.RewriteSchedules)
	if err != nil {
		slog.ErrorContext(r.Context(), "Apply fixes failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
