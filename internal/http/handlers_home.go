package http

import (
	"net/http"

	"dompet/internal/core"
	"dompet/internal/log"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	req := ParseSummaryRequest(r.URL.Query(), s.userID)
	summary, err := s.summary.BuildHomeSummary(r.Context(), req)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(r, w, &in); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	id, err := s.ledger.RecordExpense(r.Context(), s.userID, in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(OKBody{OK: true, ID: id}).Write(w)
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	var in core.BalanceInput
	if err := DecodeJSON(r, w, &in); err != nil {
		writeError(w, r, log.OpTopUp, err)
		return
	}

	if err := s.ledger.AdjustBalance(r.Context(), s.userID, in); err != nil {
		writeError(w, r, log.OpTopUp, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(OKBody{OK: true}).Write(w)
}

func (s *Server) handleSetBudgetLimit(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetLimitInput
	if err := DecodeJSON(r, w, &in); err != nil {
		writeError(w, r, log.OpBudget, err)
		return
	}

	if err := s.ledger.SetBudgetLimit(r.Context(), s.userID, in); err != nil {
		writeError(w, r, log.OpBudget, err)
		return
	}
	NewJSONResponse().Body(OKBody{OK: true}).Write(w)
}
