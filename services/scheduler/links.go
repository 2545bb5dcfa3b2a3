package scheduler

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"meeting-scheduler/api/pkg/config"
)

const (
	inviteSubject  = "Meeting Invite with RSVP"
	fallbackHostIP = "127.0.0.1"
)

// BaseURL is the prefix of RSVP links: rsvp_base_url when configured,
// otherwise this host's LAN address on the RSVP server port so that
// devices on the same network can reach it.
func BaseURL(cfg *config.Config) string {
	if cfg.RSVPBaseURL != "" {
		return strings.TrimRight(cfg.RSVPBaseURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", localIP(), cfg.Port)
}

// localIP finds the outbound interface address. Dialing UDP sends no packets.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return fallbackHostIP
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return fallbackHostIP
	}
	return addr.IP.String()
}

// RSVPLinks returns the accept and decline URLs for email.
func RSVPLinks(base, email string) (accept, decline string) {
	escaped := url.PathEscape(email)
	return base + "/rsvp/accept/" + escaped, base + "/rsvp/decline/" + escaped
}

func inviteBody(email, date, clock, acceptLink, declineLink string) string {
	return fmt.Sprintf(`Hi %s,

You're invited to a meeting on %s at %s.

Please RSVP below:
Accept: %s
Decline: %s

Best,
AI Scheduler Bot
`, email, date, clock, acceptLink, declineLink)
}
