package rsvp

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"meeting-scheduler/api/pkg/middleware"
)

// HandleAccept records an acceptance for the email in the path and replies
// with a plain-text confirmation.
func (s *Service) HandleAccept(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)
	addr := mux.Vars(r)["email"]
	slog.Debug("handling rsvp accept", "email", addr, "requestId", rid)

	msg, err := s.Accept(r.Context(), addr)
	if err != nil {
		slog.Error("failed to accept rsvp", "email", addr, "requestId", rid, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeText(w, msg, rid)
}

// HandleDecline records a decline, taking the optional reason from the
// reason query parameter.
func (s *Service) HandleDecline(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)
	addr := mux.Vars(r)["email"]
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	slog.Debug("handling rsvp decline", "email", addr, "requestId", rid)

	msg, err := s.Decline(r.Context(), addr, reason)
	if err != nil {
		slog.Error("failed to decline rsvp", "email", addr, "requestId", rid, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeText(w, msg, rid)
}

func writeText(w http.ResponseWriter, msg, rid string) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(msg)); err != nil {
		slog.Error("failed to write response", "requestId", rid, "error", err)
	}
}
