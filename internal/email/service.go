package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"

	"github.com/redmonkez12/teamtasks/internal/config"
	"github.com/redmonkez12/teamtasks/internal/logging"
)

// SendFunc delivers a raw message. It matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost     string
	smtpAddr     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	send         SendFunc
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpAddr:     cfg.Address(),
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.SMTPUser,
		frontendURL:  cfg.FrontendURL,
		send:         smtp.SendMail,
	}
}

// WithSender replaces the SMTP transport
func (s *Service) WithSender(send SendFunc) *Service {
	s.send = send
	return s
}

// SendConfirmationEmail sends an account confirmation link to the user.
// It is called from a goroutine after registration.
func (s *Service) SendConfirmationEmail(ctx context.Context, toEmail, username, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := s.confirmationLink(token)

	body, err := renderConfirmationEmail(username, link)
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Confirm your email address", body); err != nil {
		logger.Error("failed to send confirmation email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", toEmail)
	return nil
}

// confirmationLink points at the frontend verify page, which calls
// GET /auth/confirm on the API with the same token.
func (s *Service) confirmationLink(token string) string {
	return fmt.Sprintf("%s/verify?token=%s", s.frontendURL, url.QueryEscape(token))
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	return s.send(s.smtpAddr, auth, s.fromEmail, []string{to}, msg)
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #4F46E5;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .button {
            display: inline-block;
            background-color: #4F46E5;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Welcome to TeamTasks, {{.Username}}!</h1>
    </div>
    <div class="content">
        <h2>Confirm your email address</h2>
        <p>Click the button below to confirm your email and start working with your team.</p>

        <a href="{{.Link}}" class="button" style="color: white !important;">Confirm Email</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #4F46E5;">{{.Link}}</p>

        <p style="margin-top: 30px;">If you didn't create an account, you can safely ignore this email.</p>
    </div>
</body>
</html>
`))

func renderConfirmationEmail(username, link string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Username string
		Link     string
	}{
		Username: username,
		Link:     link,
	}

	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
