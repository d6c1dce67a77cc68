package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v3"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.gohtml
var embeddedTemplates embed.FS

const layoutName = "layout"

//nolint:gochecknoglobals
var (
	strict = bluemonday.StrictPolicy()
	ist    = time.FixedZone("IST", 5*60*60+30*60)
)

// Mailer renders the mail templates and hands them to a Sender.
type Mailer struct {
	sender Sender
	views  *html.Engine
	admin  string
}

// New loads the embedded templates.
func New(sender Sender, adminAddress string) (*Mailer, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}

	views := html.NewFileSystem(http.FS(sub), ".gohtml")
	views.AddFunc("nl2br", func(s template.HTML) template.HTML {
		return template.HTML(strings.ReplaceAll(string(s), "\n", "<br>")) //nolint:gosec
	})

	if err = views.Load(); err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}

	return &Mailer{sender: sender, views: views, admin: adminAddress}, nil
}

// clean strips every tag from user supplied text, the result is safe to embed as html.
func clean(s string) template.HTML {
	return template.HTML(strict.Sanitize(strings.TrimSpace(s))) //nolint:gosec
}

func (m *Mailer) send(ctx context.Context, name string, data map[string]interface{}, msg Message) error {
	data["Year"] = time.Now().In(ist).Year()

	var buf bytes.Buffer
	if err := m.views.Render(&buf, name, data, layoutName); err != nil {
		return fmt.Errorf("render mail %s: %w", name, err)
	}

	msg.HTML = buf.String()

	return m.sender.Send(ctx, msg)
}

// SendOTP mails a signup verification code.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return m.send(ctx, "otp", map[string]interface{}{
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	}, Message{To: to, Subject: "Your OTP Code"})
}

// SendPasswordReset mails a reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, link string) error {
	return m.send(ctx, "reset", map[string]interface{}{
		"Link": link,
	}, Message{To: to, Subject: "Reset Password"})
}

// ThankYou describes a completed membership payment.
type ThankYou struct {
	Name           string
	Email          string
	AmountPaise    int64
	TransactionID  string
	MembershipType string
}

// SendMembershipThankYou confirms a membership payment to the member.
func (m *Mailer) SendMembershipThankYou(ctx context.Context, t ThankYou) error {
	return m.send(ctx, "membership", map[string]interface{}{
		"Name":           clean(t.Name),
		"Amount":         decimal.New(t.AmountPaise, -2).StringFixed(2), //nolint:mnd
		"TransactionID":  t.TransactionID,
		"MembershipType": clean(t.MembershipType),
	}, Message{To: t.Email, Subject: "Thank you for your membership"})
}

// Contact is a message from the contact form.
type Contact struct {
	Name    string
	Email   string
	Mobile  string
	Message string
}

// SendContact forwards a contact message to the admin and confirms it to the sender.
func (m *Mailer) SendContact(ctx context.Context, c Contact) error {
	data := func() map[string]interface{} {
		return map[string]interface{}{
			"Name":       clean(c.Name),
			"Email":      clean(c.Email),
			"Mobile":     clean(c.Mobile),
			"Message":    clean(c.Message),
			"ReceivedAt": time.Now().In(ist).Format("Monday, 02 January 2006 15:04 MST"),
			"Admin":      m.admin,
		}
	}

	err := m.send(ctx, "contact_admin", data(), Message{
		To:      m.admin,
		ReplyTo: c.Email,
		Subject: fmt.Sprintf("New Contact Form: %s - %s", c.Name, c.Mobile),
	})
	if err != nil {
		return err
	}

	return m.send(ctx, "contact_reply", data(), Message{
		To:      c.Email,
		ReplyTo: m.admin,
		Subject: "Thank you for contacting us! 🙏",
	})
}

// Booking is a gau katha booking request.
type Booking struct {
	Name    string
	Contact string
	State   string
	City    string
	Email   string
}

// SendGauKathaBooking forwards a booking request to the admin.
func (m *Mailer) SendGauKathaBooking(ctx context.Context, b Booking) error {
	return m.send(ctx, "gaukatha", map[string]interface{}{
		"Name":        clean(b.Name),
		"Contact":     clean(b.Contact),
		"State":       clean(b.State),
		"City":        clean(b.City),
		"Email":       clean(b.Email),
		"SubmittedAt": time.Now().In(ist).Format("Monday, 02 January 2006 15:04 MST"),
	}, Message{
		To:      m.admin,
		ReplyTo: b.Email,
		Subject: fmt.Sprintf("🙏 नया गौ कथा बुकिंग - %s से %s, %s", b.Name, b.City, b.State),
	})
}
