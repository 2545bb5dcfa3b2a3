package dashboard

import "meeting-scheduler/api/services/storage"

// MeetingRow is one invite: a (record, email) pair of the meeting log.
type MeetingRow struct {
	Email  string `json:"email"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	RSVP   string `json:"rsvp"`
	Reason string `json:"reason"`
}

// Summary counts invites by RSVP state.
type Summary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Declined int `json:"declined"`
	Pending  int `json:"pending"`
}

// Rows flattens the log into one row per invited email, in log order.
func Rows(records []storage.MeetingRecord) []MeetingRow {
	rows := make([]MeetingRow, 0, len(records))
	for _, rec := range records {
		for _, addr := range rec.Emails {
			state := rec.RSVP[addr]
			rows = append(rows, MeetingRow{
				Email:  addr,
				Date:   rec.Date,
				Time:   rec.Time,
				RSVP:   state.Label(),
				Reason: state.ReasonText(),
			})
		}
	}
	return rows
}

// Summarize counts rows by status.
func Summarize(rows []MeetingRow) Summary {
	sum := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.RSVP {
		case storage.StatusAccepted:
			sum.Accepted++
		case storage.StatusDeclined:
			sum.Declined++
		default:
			sum.Pending++
		}
	}
	return sum
}
