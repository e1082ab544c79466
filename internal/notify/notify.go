// Package notify delivers "new songs" notifications by email. Two bindings
// exist, SMTP and SendGrid, selected by configuration; the checker only sees
// the core.Notifier capability.
package notify

import (
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"playlistwatch/internal/core"
)

const senderName = "Playlist Watch"

// New returns the notifier binding selected by config.Provider.
func New(config *core.NotifyConfig, logger *zap.Logger) (core.Notifier, error) {
	switch config.Provider {
	case "smtp":
		return NewSMTPNotifier(config, logger), nil
	case "sendgrid":
		return NewSendGridNotifier(config, logger), nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %q", config.Provider)
	}
}

func subject(playlistName string, count int) string {
	plural := ""
	if count > 1 {
		plural = "s"
	}
	return fmt.Sprintf("New Song%s Added to %q", plural, playlistName)
}

func textBody(playlistName string, songs []core.Track) string {
	var b strings.Builder

	verb := "has"
	plural := ""
	if len(songs) > 1 {
		verb = "have"
		plural = "s"
	}

	fmt.Fprintf(&b, "Hello!\n\n")
	fmt.Fprintf(&b, "%d new song%s %s been added to your playlist %q:\n\n", len(songs), plural, verb, playlistName)
	for i, song := range songs {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, song.Name, song.Artists)
	}
	fmt.Fprintf(&b, "\nHappy listening!\n\n---\nThis is an automated notification from your playlist monitor.\n")

	return b.String()
}

func htmlBody(playlistName string, songs []core.Track) string {
	var b strings.Builder

	plural := ""
	if len(songs) > 1 {
		plural = "s"
	}

	fmt.Fprintf(&b, `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	fmt.Fprintf(&b, `<h2 style="color: #1DB954;">New Song%s Added to %q</h2>`, plural, html.EscapeString(playlistName))
	fmt.Fprintf(&b, `<ul style="list-style: none; padding: 0;">`)
	for _, song := range songs {
		fmt.Fprintf(&b, `<li style="padding: 10px; margin: 5px 0; border-left: 4px solid #1DB954;"><strong>%s</strong><br><span style="color: #666;">%s</span></li>`,
			html.EscapeString(song.Name), html.EscapeString(song.Artists))
	}
	fmt.Fprintf(&b, `</ul>`)
	fmt.Fprintf(&b, `<p style="color: #888;">Happy listening!</p>`)
	fmt.Fprintf(&b, `<p style="color: #aaa; font-size: 12px;">This is an automated notification from your playlist monitor.</p>`)
	fmt.Fprintf(&b, `</div>`)

	return b.String()
}

const (
	testSubject  = "Playlist Watch - Test Email"
	testTextBody = "Your notification configuration is working correctly."
	testHTMLBody = `<div style="font-family: Arial, sans-serif;"><h2 style="color: #1DB954;">Test Successful</h2><p>Your notification configuration is working correctly.</p></div>`
)
