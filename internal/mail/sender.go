// Package mail renders and sends the transactional mails of the service.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

const (
	implicitTLSPort = 465
	dialTimeout     = 10 * time.Second
)

// Message is a single html mail.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an smtp sender, or a sender that only logs when mail is disabled.
func NewSender(cfg config.Mail) Sender {
	if !cfg.Enabled || cfg.Host == "" {
		log.Warn().Msg("mail disabled: outgoing mails are written to the log")
		return LogSender{}
	}

	return &SMTPSender{cfg: cfg}
}

// SMTPSender sends through an smtp relay with PLAIN auth.
type SMTPSender struct {
	cfg config.Mail
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := s.build(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.Port == implicitTLSPort {
		err = s.sendTLS(addr, auth, msg.To, raw)
	} else {
		err = smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, raw)
	}

	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	return nil
}

func (s *SMTPSender) sendTLS(addr string, auth smtp.Auth, to string, raw []byte) error {
	dialer := &net.Dialer{Timeout: dialTimeout}

	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return err
		}
	}

	if err = client.Mail(s.cfg.From); err != nil {
		return err
	}

	if err = client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write(raw); err != nil {
		return err
	}

	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (s *SMTPSender) build(msg Message) ([]byte, error) {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	from := (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}).String()

	var b bytes.Buffer

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)

	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}

	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")

	return b.Bytes(), nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("replyTo", msg.ReplyTo).
		Str("subject", msg.Subject).
		Int("bytes", len(msg.HTML)).
		Msg("mail not sent, mail is disabled")

	return nil
}

// Recorder keeps messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error // returned by Send when set
}

// Send implements Sender.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.messages = append(r.messages, msg)

	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.messages...)
}
