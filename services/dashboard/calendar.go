package dashboard

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"meeting-scheduler/api/services/storage"
)

const (
	productID       = "-//meeting-scheduler//RSVP export//EN"
	meetingDuration = 30 * time.Minute
	eventSummary    = "Scheduled meeting"
)

var partStat = map[string]string{
	storage.StatusAccepted: "ACCEPTED",
	storage.StatusDeclined: "DECLINED",
	storage.StatusPending:  "NEEDS-ACTION",
}

// uidNamespace scopes the name-based UIDs of exported events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("meeting-scheduler/events"))

// WriteCalendar encodes records as VEVENTs with one ATTENDEE per invited
// email. Times are floating local times, as stored. Records whose date or
// time cannot be parsed are skipped.
func WriteCalendar(w io.Writer, records []storage.MeetingRecord, stamp time.Time) (int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	n := 0
	for i, rec := range records {
		start, err := time.ParseInLocation("2006-01-02 15:04", rec.Date+" "+rec.Time, time.Local)
		if err != nil {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, eventUID(i, rec))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(meetingDuration))
		event.Props.SetText(ical.PropSummary, eventSummary)
		if rec.MeetLink != "" {
			event.Props.SetText(ical.PropLocation, rec.MeetLink)
		}

		for _, addr := range rec.Emails {
			state := rec.RSVP[addr]
			attendee := ical.NewProp(ical.PropAttendee)
			attendee.Value = "mailto:" + addr
			attendee.Params.Set(ical.ParamParticipationStatus, partStat[state.Label()])
			if reason := state.ReasonText(); reason != "" {
				attendee.Params.Set("X-DECLINE-REASON", reason)
			}
			event.Props.Add(attendee)
		}

		cal.Children = append(cal.Children, event.Component)
		n++
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return n, nil
}

// eventUID is stable across exports as long as the log is only appended to.
func eventUID(index int, rec storage.MeetingRecord) string {
	name := strings.Join([]string{strconv.Itoa(index), rec.Date, rec.Time, strings.Join(rec.Emails, ",")}, "|")
	return uuid.NewSHA1(uidNamespace, []byte(name)).String()
}
