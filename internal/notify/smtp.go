package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const smtpImplicitTLSPort = "465"

// SMTPNotifier sends HTML notifications through an SMTP relay
type SMTPNotifier struct {
	host      string
	port      string
	username  string
	password  string
	from      string
	templates *Templates
	timeout   time.Duration
}

func NewSMTPNotifier(cfg models.NotificationConfig, templates *Templates) (*SMTPNotifier, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("smtp host cannot be empty")
	}
	port := cfg.SMTPPort
	if port == "" {
		port = smtpImplicitTLSPort
	}
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUsername
	}
	if from == "" {
		return nil, errors.New("smtp sender address cannot be empty")
	}
	if templates == nil {
		templates = DefaultTemplates()
	}

	return &SMTPNotifier{
		host:      cfg.SMTPHost,
		port:      port,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		from:      from,
		templates: templates,
		timeout:   30 * time.Second,
	}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, recipient string, params models.EmailNotification) (string, error) {
	subject, body, err := n.templates.Render(params)
	if err != nil {
		return "", err
	}

	messageId := fmt.Sprintf("<%s@%s>", strings.ToLower(ulid.Make().String()), n.host)
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", n.from) +
			fmt.Sprintf("To: %s\r\n", recipient) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			fmt.Sprintf("Message-ID: %s\r\n", messageId) +
			fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	if err := n.deliver(ctx, recipient, msg); err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	zap.L().Info("Email sent",
		zap.String("message_id", messageId),
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return messageId, nil
}

func (n *SMTPNotifier) deliver(ctx context.Context, recipient string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if n.port != smtpImplicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
				return err
			}
		}
	}

	if n.username != "" {
		if err := client.Auth(smtp.PlainAuth("", n.username, n.password, n.host)); err != nil {
			return err
		}
	}

	if err := client.Mail(n.from); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// dial uses implicit TLS on port 465 and a plain connection otherwise
func (n *SMTPNotifier) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(n.host, n.port)
	if n.port == smtpImplicitTLSPort {
		dialer := &tls.Dialer{Config: &tls.Config{ServerName: n.host}}
		return dialer.DialContext(ctx, "tcp", addr)
	}
	var dialer net.Dialer
	return dialer.DialContext(ctx, "tcp", addr)
}
