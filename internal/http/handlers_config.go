package http

import (
	"log/slog"
	"net/http"

	"paysched/internal/core"
)

type createBankRequest struct {
	Name string `json:"name"`
	Memo string `json:"memo"`
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bank, err := s.schedule.CreateBank(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Memo))
	if err != nil {
		slog.ErrorContext(r.Context(), "Create bank failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.schedule.ListBanks(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List banks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list banks")
		return
	}
	if banks == nil {
		banks = []core.Bank{}
	}
	writeJSON(w, http.StatusOK, banks)
}

func (s *Server) handleGetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := s.schedule.GetBank(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (s *Server) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := s.schedule.DeleteBank(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type accountRequest struct {
	BankID            string       `json:"bankId"`
	Name              string       `json:"name"`
	ClosingDay        core.DayRule `json:"closingDay"`
	PaymentDay        core.DayRule `json:"paymentDay"`
	PaymentMonthShift int          `json:"paymentMonthShift"`
	WeekendAdjustment bool         `json:"weekendAdjustment"`
}

func (req accountRequest) toAccount() core.BillingAccount {
	return core.BillingAccount{
		BankID:            req.BankID,
		Name:              sanitizeInput(req.Name),
		ClosingDay:        req.ClosingDay,
		PaymentDay:        req.PaymentDay,
		PaymentMonthShift: req.PaymentMonthShift,
		WeekendAdjustment: req.WeekendAdjustment,
	}
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.schedule.CreateAccount(r.Context(), req.toAccount())
	if err != nil {
		slog.ErrorContext(r.Context(), "Create billing account failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.schedule.ListAccounts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List billing accounts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list billing accounts")
		return
	}
	if accounts == nil {
		accounts = []core.BillingAccount{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.schedule.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// handleUpdateAccount rewrites an account's configuration. Existing scheduled
// dates are untouched; the audit apply endpoint is the repair path.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := req.toAccount()
	account.ID = r.PathValue("id")
	if err := s.schedule.UpdateAccount(r.Context(), account); err != nil {
		slog.ErrorContext(r.Context(), "Update billing account failed",
			"account_id", account.ID,
			"error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.schedule.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
