package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"meeting-scheduler/api/pkg/clients/llm"
	"meeting-scheduler/api/services/scheduler"
	"meeting-scheduler/api/services/storage"
)

// maxRequestBody limits the size of request bodies to prevent abuse.
const maxRequestBody = 1 << 20 // 1MB

// Scheduler is the part of the invite scheduler the dashboard drives.
type Scheduler interface {
	Schedule(ctx context.Context, req scheduler.Request) (*scheduler.Result, error)
}

// Service exposes the dashboard: parsing free-text requests, sending
// invites and reading back RSVP state from the meeting log.
type Service struct {
	store     storage.Storage
	extractor llm.Extractor
	scheduler Scheduler

	now func() time.Time
}

// NewService creates a dashboard Service. All dependencies are required.
func NewService(store storage.Storage, extractor llm.Extractor, sched Scheduler) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("service: store cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("service: extractor cannot be nil")
	}
	if sched == nil {
		return nil, fmt.Errorf("service: scheduler cannot be nil")
	}
	return &Service{
		store:     store,
		extractor: extractor,
		scheduler: sched,
		now:       time.Now,
	}, nil
}

// jsonMiddleware sets the Content-Type header to application/json
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.NewRoute().Subrouter()
	router.StrictSlash(false)
	router.Use(jsonMiddleware)

	router.HandleFunc("/requests/parse", s.HandleParseRequest).Methods("POST")
	router.HandleFunc("/meetings", s.HandleScheduleMeetings).Methods("POST")
	router.HandleFunc("/meetings", s.HandleListMeetings).Methods("GET")
	router.HandleFunc("/meetings/calendar.ics", s.HandleCalendar).Methods("GET")
	router.HandleFunc("/rsvp/summary", s.HandleSummary).Methods("GET")
}

// writeErrorJSON writes a structured JSON error response with a machine-readable
// code and a human-readable message.
func writeErrorJSON(w http.ResponseWriter, errCode, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": errCode, "message": message})
}
