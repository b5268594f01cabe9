package email

import (
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	logger   *zap.Logger
}

func NewEmailService(logger *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(os.Getenv("RESEND_API_KEY")),
		from:     os.Getenv("EMAIL_FROM_ADDRESS"),
		fromName: os.Getenv("EMAIL_FROM_NAME"),
		logger:   logger,
	}
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("id", resp.Id),
	)
	return nil
}

func (s *EmailService) SendWelcomeEmail(to, fullName string) error {
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Welcome to Theraloop. You can book your first session from your dashboard.</p>`, fullName)
	return s.send(to, "Welcome to Theraloop", html)
}

func (s *EmailService) SendPasswordResetEmail(to, resetToken string) error {
	resetLink := os.Getenv("FRONTEND_URL") + "/reset-password?token=" + resetToken
	html := fmt.Sprintf(`<p>We received a request to reset your password.</p><p><a href="%s">Reset your password</a></p><p>The link expires in 15 minutes.</p>`, resetLink)
	return s.send(to, "Reset your password", html)
}

func (s *EmailService) SendBookingConfirmationEmail(to, fullName, datetime string) error {
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Your session on %s is confirmed. See you then.</p>`, fullName, datetime)
	return s.send(to, "Your session is booked", html)
}

// SendLowCreditsEmail fires when a booking leaves a package with two or fewer
// sessions.
func (s *EmailService) SendLowCreditsEmail(to, fullName string, remaining int) error {
	html := fmt.Sprintf(`<p>Hi %s,</p><p>You have %d prepaid session(s) left in your package. Top up from your dashboard to keep your regular slot.</p>`, fullName, remaining)
	return s.send(to, "You're running low on sessions", html)
}

func (s *EmailService) SendCreditsDepletedEmail(to, fullName string) error {
	html := fmt.Sprintf(`<p>Hi %s,</p><p>You've used the last session in your package. Purchase a new package to book your next session.</p>`, fullName)
	return s.send(to, "Your package is used up", html)
}
