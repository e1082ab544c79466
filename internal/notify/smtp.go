package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"playlistwatch/internal/core"
)

// SMTPNotifier delivers notifications over plain SMTP.
type SMTPNotifier struct {
	config *core.NotifyConfig
	logger *zap.Logger
}

func NewSMTPNotifier(config *core.NotifyConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{config: config, logger: logger}
}

func (n *SMTPNotifier) Notify(ctx context.Context, playlistName string, newSongs []core.Track) error {
	return n.send(ctx,
		subject(playlistName, len(newSongs)),
		textBody(playlistName, newSongs),
		htmlBody(playlistName, newSongs))
}

// SendTest sends a configuration smoke-test message.
func (n *SMTPNotifier) SendTest(ctx context.Context) error {
	return n.send(ctx, testSubject, testTextBody, testHTMLBody)
}

func (n *SMTPNotifier) send(ctx context.Context, subject, text, html string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, n.config.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(n.config.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	client, err := mail.NewClient(n.config.SMTPHost,
		mail.WithPort(n.config.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.config.SMTPUser),
		mail.WithPassword(n.config.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	n.logger.Info("Notification email sent",
		zap.String("to", n.config.To),
		zap.String("subject", subject))

	return nil
}
