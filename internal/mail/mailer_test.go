package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

func newTestMailer(t *testing.T) (*Mailer, *Recorder) {
	t.Helper()

	rec := &Recorder{}
	m, err := New(rec, "admin@example.org")
	require.NoError(t, err)

	return m, rec
}

func TestSendOTP(t *testing.T) {
	m, rec := newTestMailer(t)

	require.NoError(t, m.SendOTP(context.Background(), "ram@example.org", "123456", 5*time.Minute))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ram@example.org", msgs[0].To)
	assert.Equal(t, "Your OTP Code", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTML, "Your OTP is: 123456")
	assert.Contains(t, msgs[0].HTML, "Valid for 5 minutes")
	assert.Contains(t, msgs[0].HTML, "Shree Gopal Parivar Sang")
}

func TestSendPasswordReset(t *testing.T) {
	m, rec := newTestMailer(t)

	link := "https://example.org/reset-password?token=abc"
	require.NoError(t, m.SendPasswordReset(context.Background(), "ram@example.org", link))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].HTML, `href="https://example.org/reset-password?token=abc"`)
}

func TestSendContactSanitizes(t *testing.T) {
	m, rec := newTestMailer(t)

	err := m.SendContact(context.Background(), Contact{
		Name:    "Ram <script>alert(1)</script>",
		Email:   "ram@example.org",
		Mobile:  "9876543210",
		Message: "line one\nline <b>two</b>",
	})
	require.NoError(t, err)

	msgs := rec.Messages()
	require.Len(t, msgs, 2)

	admin, reply := msgs[0], msgs[1]

	assert.Equal(t, "admin@example.org", admin.To)
	assert.Equal(t, "ram@example.org", admin.ReplyTo)
	assert.True(t, strings.HasPrefix(admin.Subject, "New Contact Form:"))
	assert.NotContains(t, admin.HTML, "<script>")
	assert.NotContains(t, admin.HTML, "<b>two</b>")
	assert.Contains(t, admin.HTML, "line one<br>line two")

	assert.Equal(t, "ram@example.org", reply.To)
	assert.Equal(t, "admin@example.org", reply.ReplyTo)
	assert.Contains(t, reply.HTML, "+91 9876543210")
}

func TestSendGauKathaBooking(t *testing.T) {
	m, rec := newTestMailer(t)

	err := m.SendGauKathaBooking(context.Background(), Booking{
		Name: "Shyam", Contact: "9876543210", State: "Rajasthan", City: "Jaipur", Email: "s@example.org",
	})
	require.NoError(t, err)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "admin@example.org", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "Jaipur")
	assert.Contains(t, msgs[0].HTML, "Rajasthan")
}

func TestSendMembershipThankYou(t *testing.T) {
	m, rec := newTestMailer(t)

	err := m.SendMembershipThankYou(context.Background(), ThankYou{
		Name: "Ram", Email: "ram@example.org", AmountPaise: 1100000, TransactionID: "TXN_1", MembershipType: "Life Time",
	})
	require.NoError(t, err)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].HTML, "₹11000.00")
	assert.Contains(t, msgs[0].HTML, "TXN_1")
}

func TestSenderErrorIsReturned(t *testing.T) {
	m, rec := newTestMailer(t)
	rec.Err = errors.New("relay down")

	err := m.SendOTP(context.Background(), "ram@example.org", "1", time.Minute)
	require.Error(t, err)
	assert.Empty(t, rec.Messages())
}

func TestNewSender(t *testing.T) {
	assert.IsType(t, LogSender{}, NewSender(config.Mail{}))
	assert.IsType(t, &SMTPSender{}, NewSender(config.Mail{Enabled: true, Host: "smtp.example.org", Port: 587}))
}

func TestSMTPBuild(t *testing.T) {
	s := &SMTPSender{cfg: config.Mail{From: "noreply@example.org", FromName: "Gopal Parivar"}}

	raw, err := s.build(Message{To: "ram@example.org", ReplyTo: "a@example.org", Subject: "धन्यवाद", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, "From: \"Gopal Parivar\" <noreply@example.org>\r\n")
	assert.Contains(t, out, "Reply-To: a@example.org\r\n")
	assert.Contains(t, out, "Subject: =?utf-8?q?")
	assert.Contains(t, out, "Content-Type: text/html; charset=UTF-8")
	assert.True(t, strings.HasSuffix(out, "<p>hi</p>\r\n"))

	_, err = s.build(Message{To: "not an address"})
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "x@example.org"}))
}
