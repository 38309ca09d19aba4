package http

import (
	"net/http"

	"dompet/internal/core"
	"dompet/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, err := ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	page, err := s.transactions.ListTransactions(r.Context(), s.userID, params)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(page).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	item, err := s.transactions.GetTransaction(r.Context(), s.userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(item).Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !core.ValidID(id) {
		writeError(w, r, log.OpUpdate, core.Invalid("Invalid transaction id"))
		return
	}

	var in core.TransactionEdit
	if err := DecodeJSON(r, w, &in); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	res, err := s.ledger.EditTransaction(r.Context(), s.userID, id, in)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(OKBody{OK: true, ID: res.ID, Amount: &res.Amount}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), s.userID, r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(OKBody{OK: true}).Write(w)
}
