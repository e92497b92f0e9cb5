package sender

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/open-tracker/internal/config"
	"github.com/ignite/open-tracker/internal/tracker"
)

// Mailer delivers a single HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// InjectTracking embeds the three tracking resources into an HTML body: the
// hidden pixel before </body>, the stylesheet link inside <head>, and a
// confirmation link footer. Bodies without those tags get the resources
// appended/prepended instead.
func InjectTracking(html string, res *tracker.RegisterResult) string {
	link := fmt.Sprintf(`<link rel="stylesheet" href="%s">`, res.StylesheetURL)
	if strings.Contains(html, "</head>") {
		html = strings.Replace(html, "</head>", link+"</head>", 1)
	} else {
		html = link + html
	}

	footer := fmt.Sprintf(`<p style="font-size:12px;color:#888;"><a href="%s">Confirm you received this email</a></p>`,
		res.ConfirmationURL)
	pixel := fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" border="0" style="display:none;"/>`,
		res.TrackingURL)
	if strings.Contains(html, "</body>") {
		html = strings.Replace(html, "</body>", footer+pixel+"</body>", 1)
	} else {
		html = html + footer + pixel
	}

	return html
}

// buildMIME constructs a single-part HTML mail message
func buildMIME(from, to, subject, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// SMTPMailer submits mail over SMTP with STARTTLS
type SMTPMailer struct {
	cfg  config.SMTPConfig
	from string
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg config.SMTPConfig, from string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, from: from}
}

// Send submits one message. net/smtp upgrades to TLS when the server
// advertises STARTTLS.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	msg := buildMIME(m.from, to, subject, html)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// SESMailer submits mail through the AWS SES v2 API
type SESMailer struct {
	client *sesv2.Client
	from   string
}

// NewSESMailer creates an SES mailer. Static credentials are used when
// configured; otherwise the default AWS credential chain applies.
func NewSESMailer(ctx context.Context, cfg config.SESConfig, from string) (*SESMailer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESMailer{client: sesv2.NewFromConfig(awsCfg), from: from}, nil
}

// Send submits one message via SES
func (m *SESMailer) Send(ctx context.Context, to, subject, html string) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	return nil
}
