// Package contact forwards the contact form and gau katha bookings by mail.
package contact

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/mail"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Paths of the contact api.
const (
	MessagePath  = "/message"
	GauKathaPath = "/gaukatha"
)

const (
	msgAllRequired   = "All fields are required"
	msgInvalidEmail  = "Invalid email format"
	msgInvalidMobile = "Please enter a valid 10-digit mobile number"
)

//nolint:gochecknoglobals
var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	spaces        = regexp.MustCompile(`\s`)
)

// Service handles contact submissions.
type Service struct {
	handler.Service
	mailer *mail.Mailer
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Mailer == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.mailer = deps.Mailer

	router.Post(MessagePath+"/send-message", s.SendMessage)
	router.Post(GauKathaPath+"/send-message", s.BookGauKatha)

	return nil
}

// mobile strips whitespace and checks for a ten digit indian mobile number.
func mobile(v string) (string, bool) {
	v = spaces.ReplaceAllString(v, "")
	return v, mobilePattern.MatchString(v)
}

type messageInput struct {
	Name    string `json:"name"    form:"name"`
	Email   string `json:"email"   form:"email"`
	Mobile  string `json:"mobile"  form:"mobile"`
	Message string `json:"message" form:"message"`
}

// SendMessage mails a contact message to the office and a confirmation to the sender.
func (s *Service) SendMessage(c fiber.Ctx) error {
	var in messageInput
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	in.Name, in.Email, in.Message = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Mobile == "" || in.Message == "" {
		return handler.BadRequest(msgAllRequired)
	}

	if !emailPattern.MatchString(in.Email) {
		return handler.BadRequest(msgInvalidEmail)
	}

	number, ok := mobile(in.Mobile)
	if !ok {
		return handler.BadRequest("Invalid mobile number")
	}

	err := s.mailer.SendContact(c.Context(), mail.Contact{
		Name:    in.Name,
		Email:   in.Email,
		Mobile:  number,
		Message: in.Message,
	})
	if err != nil {
		return handler.Internal(c, err, "Failed to send message. Please try again later.")
	}

	log.Info().Str("from", in.Email).Msg("contact message sent")

	return handler.OK(c, "Message sent successfully! Check your email for confirmation.", nil)
}

type bookingInput struct {
	Name    string `json:"name"    form:"name"`
	Contact string `json:"contact" form:"contact"`
	State   string `json:"state"   form:"state"`
	City    string `json:"city"    form:"city"`
	Email   string `json:"email"   form:"email"`
}

// BookGauKatha mails a gau katha booking request to the office.
func (s *Service) BookGauKatha(c fiber.Ctx) error {
	var in bookingInput
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	for _, v := range []*string{&in.Name, &in.State, &in.City, &in.Email} {
		*v = strings.TrimSpace(*v)
	}

	if in.Name == "" || in.Contact == "" || in.State == "" || in.City == "" || in.Email == "" {
		return handler.BadRequest(msgAllRequired)
	}

	number, ok := mobile(in.Contact)
	if !ok {
		return handler.BadRequest(msgInvalidMobile)
	}

	if !emailPattern.MatchString(in.Email) {
		return handler.BadRequest(msgInvalidEmail)
	}

	err := s.mailer.SendGauKathaBooking(c.Context(), mail.Booking{
		Name:    in.Name,
		Contact: number,
		State:   in.State,
		City:    in.City,
		Email:   in.Email,
	})
	if err != nil {
		return handler.Internal(c, err, "Failed to submit booking request")
	}

	log.Info().Str("city", in.City).Msg("gau katha booking sent")

	return handler.OK(c, "Your booking request has been submitted successfully!", nil)
}
