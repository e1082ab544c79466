package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"playlistwatch/internal/core"
)

// SendGridNotifier delivers notifications through the SendGrid transactional
// API.
type SendGridNotifier struct {
	config *core.NotifyConfig
	logger *zap.Logger
}

func NewSendGridNotifier(config *core.NotifyConfig, logger *zap.Logger) *SendGridNotifier {
	return &SendGridNotifier{config: config, logger: logger}
}

func (n *SendGridNotifier) Notify(ctx context.Context, playlistName string, newSongs []core.Track) error {
	return n.send(ctx,
		subject(playlistName, len(newSongs)),
		textBody(playlistName, newSongs),
		htmlBody(playlistName, newSongs))
}

// SendTest sends a configuration smoke-test message.
func (n *SendGridNotifier) SendTest(ctx context.Context) error {
	return n.send(ctx, testSubject, testTextBody, testHTMLBody)
}

func (n *SendGridNotifier) send(ctx context.Context, subject, text, html string) error {
	from := sgmail.NewEmail(senderName, n.config.From)
	to := sgmail.NewEmail("", n.config.To)
	message := sgmail.NewSingleEmail(from, subject, to, text, html)

	client := sendgrid.NewSendClient(n.config.SendGridAPIKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid rejected mail: status %d: %s", response.StatusCode, response.Body)
	}

	n.logger.Info("Notification email sent",
		zap.String("to", n.config.To),
		zap.String("subject", subject),
		zap.Int("status", response.StatusCode))

	return nil
}
