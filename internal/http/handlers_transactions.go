package http

import (
	"log/slog"
	"net/http"

	"paysched/internal/core"
)

type createTransactionRequest struct {
	Amount    core.Money       `json:"amount"`
	Date      core.Date        `json:"date"`
	Kind      core.PaymentKind `json:"kind"`
	AccountID string           `json:"accountId"`
	BankID    string           `json:"bankId"`
	StoreName string           `json:"storeName"`
	Memo      string           `json:"memo"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.schedule.CreateTransaction(r.Context(), core.Transaction{
		Amount:    req.Amount,
		Date:      req.Date,
		Kind:      req.Kind,
		AccountID: req.AccountID,
		BankID:    req.BankID,
		StoreName: sanitizeInput(req.StoreName),
		Memo:      sanitizeInput(req.Memo),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleListTransactions lists all transactions, or a single month when
// ?year&month is given (basis=scheduled filters by withdrawal month,
// basis=transaction by transaction date).
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)
	q := r.URL.Query()
	if q.Get("year") != "" || q.Get("month") != "" {
		year, month := parseYearMonth(r)
		txs, err = s.schedule.ListTransactionsForMonth(r.Context(), year, month, q.Get("basis"))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	} else {
		txs, err = s.schedule.ListTransactions(r.Context())
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.schedule.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

type updateTransactionRequest struct {
	Amount    core.Money `json:"amount"`
	StoreName string     `json:"storeName"`
	Memo      string     `json:"memo"`
}

// handleUpdateTransaction edits the mutable transaction fields. Date, kind,
// payer, and the scheduled withdrawal date cannot be changed here.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.schedule.UpdateTransaction(r.Context(), id, req.Amount, sanitizeInput(req.StoreName), sanitizeInput(req.Memo)); err != nil {
		slog.ErrorContext(r.Context(), "Update transaction failed",
			"transaction_id", id,
			"error", err)
		writeServiceError(w, err)
		return
	}

	tx, err := s.schedule.GetTransaction(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.schedule.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
