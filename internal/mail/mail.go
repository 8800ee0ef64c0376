// Package mail sends plain-text emails to commanders.
package mail

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sender sends a plain-text email
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP sends email through an SMTP relay with PLAIN auth
type SMTP struct {
	Addr     string // host:port
	Username string
	Password string
	From     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an SMTP sender
func NewSMTP(addr, username, password, from string) (*SMTP, error) {
	if addr == "" {
		return nil, errors.New("smtp address is required")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, fmt.Errorf("smtp address must be host:port: %w", err)
	}
	if from == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &SMTP{
		Addr:     addr,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}, nil
}

// Send implements Sender
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return errors.New("recipient address is required")
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient address %q", to)
	}

	var auth smtp.Auth
	if s.Username != "" {
		host, _, _ := net.SplitHostPort(s.Addr)
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}

	msg := Message(s.From, to, subject, body, time.Now())
	if err := s.send(s.Addr, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// Message renders an RFC 5322 plain-text message. Header values lose their
// line breaks and a non-ASCII subject is RFC 2047 encoded.
func Message(from, to, subject, body string, date time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + sanitizeHeader(from) + "\r\n")
	b.WriteString("To: " + sanitizeHeader(to) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", sanitizeHeader(subject)) + "\r\n")
	b.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogOnly writes emails to the process log instead of sending them
type LogOnly struct {
	Logger zerolog.Logger
}

// Send implements Sender
func (l LogOnly) Send(ctx context.Context, to, subject, body string) error {
	l.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("SMTP not configured, email not sent")
	return nil
}
