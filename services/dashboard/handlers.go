package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"meeting-scheduler/api/pkg/clients/llm"
	"meeting-scheduler/api/pkg/config"
	"meeting-scheduler/api/pkg/middleware"
	"meeting-scheduler/api/services/scheduler"
)

// HandleParseRequest runs a free-text scheduling request through the
// intent extractor and returns the structured result for review.
func (s *Service) HandleParseRequest(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("failed to decode request body", "requestId", rid, "error", err)
		writeErrorJSON(w, "INVALID_BODY", "invalid request body", http.StatusBadRequest)
		return
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		writeErrorJSON(w, "INVALID_INPUT", "please enter a scheduling prompt", http.StatusBadRequest)
		return
	}

	intent, err := s.extractor.ExtractMeeting(r.Context(), prompt)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrMissingAPIKey):
			slog.Error("extractor is not configured", "requestId", rid, "error", err)
			writeErrorJSON(w, "CONFIG_ERROR", err.Error(), http.StatusInternalServerError)
		case errors.Is(err, llm.ErrNoJSON):
			slog.Warn("unparseable model output", "requestId", rid, "error", err)
			writeErrorJSON(w, "PARSE_ERROR", err.Error(), http.StatusUnprocessableEntity)
		default:
			slog.Error("intent extraction failed", "requestId", rid, "error", err)
			writeErrorJSON(w, "UPSTREAM_ERROR", err.Error(), http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusOK, intent, rid)
}

// HandleScheduleMeetings sends invites for a confirmed request. A partial
// send failure is reported as SEND_FAILED together with what was done.
func (s *Service) HandleScheduleMeetings(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var body struct {
		Emails   []string `json:"emails"`
		Date     string   `json:"date"`
		Time     string   `json:"time"`
		Days     *int     `json:"days"`
		MeetLink string   `json:"meetLink"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("failed to decode request body", "requestId", rid, "error", err)
		writeErrorJSON(w, "INVALID_BODY", "invalid request body", http.StatusBadRequest)
		return
	}

	req := scheduler.Request{
		Recipients: body.Emails,
		Date:       body.Date,
		Time:       body.Time,
		Days:       1,
		MeetLink:   strings.TrimSpace(body.MeetLink),
	}
	if body.Days != nil {
		req.Days = *body.Days
	}

	res, err := s.scheduler.Schedule(r.Context(), req)
	if err != nil {
		var sendErr *scheduler.SendError
		switch {
		case errors.Is(err, config.ErrMissingCredentials):
			slog.Error("mail credentials missing", "requestId", rid)
			writeErrorJSON(w, "CONFIG_ERROR", err.Error(), http.StatusInternalServerError)
		case errors.Is(err, scheduler.ErrNoRecipients), errors.Is(err, scheduler.ErrInvalidDays):
			slog.Warn("invalid schedule request", "requestId", rid, "error", err)
			writeErrorJSON(w, "INVALID_INPUT", err.Error(), http.StatusBadRequest)
		case errors.Is(err, scheduler.ErrInvalidDate), errors.Is(err, scheduler.ErrInvalidTime):
			slog.Warn("unparseable schedule request", "requestId", rid, "error", err)
			writeErrorJSON(w, "PARSE_ERROR", err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, scheduler.ErrSaveFailed):
			slog.Error("failed to save meeting log", "requestId", rid, "error", err)
			writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		case errors.As(err, &sendErr):
			slog.Warn("some invites failed", "requestId", rid, "failed", len(sendErr.Failures))
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"code":    "SEND_FAILED",
				"message": err.Error(),
				"result":  res,
			}, rid)
		default:
			slog.Error("failed to schedule meetings", "requestId", rid, "error", err)
			writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	slog.Info("invites sent", "requestId", rid, "records", len(res.Records), "sent", res.Sent)
	writeJSON(w, http.StatusCreated, res, rid)
}

// HandleListMeetings returns one row per invite in log order.
func (s *Service) HandleListMeetings(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)

	records, err := s.store.Load(r.Context())
	if err != nil {
		slog.Error("failed to load meeting log", "requestId", rid, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Rows(records), rid)
}

// HandleSummary returns invite counts by RSVP state.
func (s *Service) HandleSummary(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)

	records, err := s.store.Load(r.Context())
	if err != nil {
		slog.Error("failed to load meeting log", "requestId", rid, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Summarize(Rows(records)), rid)
}

// HandleCalendar exports the meeting log as an iCalendar feed.
func (s *Service) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	rid := middleware.ReqID(r)

	records, err := s.store.Load(r.Context())
	if err != nil {
		slog.Error("failed to load meeting log", "requestId", rid, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	n, err := WriteCalendar(&buf, records, s.now())
	if err != nil {
		slog.Error("failed to export calendar", "requestId", rid, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	slog.Debug("exported calendar", "requestId", rid, "events", n)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meetings.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write response", "requestId", rid, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, rid string) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "requestId", rid, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		slog.Error("failed to write response", "requestId", rid, "error", err)
	}
}
