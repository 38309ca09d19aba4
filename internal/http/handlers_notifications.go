package http

import (
	"net/http"
	"strings"

	"dompet/internal/core"
	"dompet/internal/log"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseNotificationLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	list, err := s.notifications.List(r.Context(), s.userID, limit)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var in core.NotificationInput
	if err := DecodeJSON(r, w, &in); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	n, err := s.notifications.Create(r.Context(), s.userID, in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(n).Write(w)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	var body markReadBody
	if err := DecodeJSON(r, w, &body); err != nil {
		writeError(w, r, log.OpUpdate, core.Invalid("Invalid notification id"))
		return
	}

	n, err := s.notifications.MarkRead(r.Context(), s.userID, strings.TrimSpace(body.ID))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(n).Write(w)
}
