package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

const (
	StatusAccepted = "Accepted"
	StatusDeclined = "Declined"
	StatusPending  = "Pending"
)

// MeetingRecord is one scheduled day of a meeting. It is appended once by
// the scheduler and afterwards only its RSVP entries change.
type MeetingRecord struct {
	Emails []string `json:"emails"`
	Date   string   `json:"date"` // YYYY-MM-DD
	Time   string   `json:"time"` // HH:MM

	// RSVP maps each invited email to its answer. A nil value means the
	// invite is still pending.
	RSVP map[string]*RSVPState `json:"rsvp"`

	MeetLink string `json:"meet_link,omitempty"`
}

// NewMeetingRecord returns a record with a pending RSVP for every email.
func NewMeetingRecord(emails []string, date, clock string) MeetingRecord {
	rsvp := make(map[string]*RSVPState, len(emails))
	for _, e := range emails {
		rsvp[e] = nil
	}
	return MeetingRecord{
		Emails: slices.Clone(emails),
		Date:   date,
		Time:   clock,
		RSVP:   rsvp,
	}
}

// HasEmail reports whether email was invited to this record.
func (m *MeetingRecord) HasEmail(email string) bool {
	return slices.Contains(m.Emails, email)
}

// IsPending reports whether email was invited and has not answered yet.
func (m *MeetingRecord) IsPending(email string) bool {
	if !m.HasEmail(email) {
		return false
	}
	return m.RSVP[email] == nil
}

// SetRSVP records an answer for email, allocating the map for records
// written by older versions without one.
func (m *MeetingRecord) SetRSVP(email string, state *RSVPState) {
	if m.RSVP == nil {
		m.RSVP = make(map[string]*RSVPState)
	}
	m.RSVP[email] = state
}

// Pending is the match predicate used by RSVP updates: the record invites
// email and has no answer for it yet.
func Pending(email string) func(*MeetingRecord) bool {
	return func(m *MeetingRecord) bool {
		return m.IsPending(email)
	}
}

// RSVPState is a recorded answer. On disk an acceptance is the bare string
// "Accepted" and a decline is {"status":"Declined","reason":...}.
type RSVPState struct {
	Status string
	Reason *string
}

// Accepted returns the state stored for an accepted invite.
func Accepted() *RSVPState {
	return &RSVPState{Status: StatusAccepted}
}

// Declined returns the state stored for a declined invite. An empty reason
// is stored as null.
func Declined(reason string) *RSVPState {
	s := &RSVPState{Status: StatusDeclined}
	if reason != "" {
		s.Reason = &reason
	}
	return s
}

// Label is the status shown on the dashboard; nil reads as pending.
func (s *RSVPState) Label() string {
	if s == nil || s.Status == "" {
		return StatusPending
	}
	return s.Status
}

// ReasonText returns the decline reason or "".
func (s *RSVPState) ReasonText() string {
	if s == nil || s.Reason == nil {
		return ""
	}
	return *s.Reason
}

func (s RSVPState) MarshalJSON() ([]byte, error) {
	if s.Status == StatusDeclined {
		return json.Marshal(struct {
			Status string  `json:"status"`
			Reason *string `json:"reason"`
		}{Status: s.Status, Reason: s.Reason})
	}
	return json.Marshal(s.Status)
}

func (s *RSVPState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty rsvp value")
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("unsupported rsvp value: %s", string(data))
		}
		return nil
	case '"':
		// "Declined" as a bare string was written by the first RSVP server.
		var status string
		if err := json.Unmarshal(data, &status); err != nil {
			return err
		}
		*s = RSVPState{Status: status}
		return nil
	case '{':
		var obj struct {
			Status string  `json:"status"`
			Reason *string `json:"reason"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Status == "" {
			obj.Status = StatusDeclined
		}
		*s = RSVPState{Status: obj.Status, Reason: obj.Reason}
		return nil
	default:
		return fmt.Errorf("unsupported rsvp value: %s", string(data))
	}
}
