package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/teamtasks/internal/config"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(sent *[]sentMail, sendErr error) *Service {
	svc := NewService(config.EmailConfig{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "2525",
		SMTPUser:    "noreply@example.com",
		FrontendURL: "https://app.example.com",
	})
	return svc.WithSender(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return sendErr
	})
}

func TestSendConfirmationEmail(t *testing.T) {
	var sent []sentMail
	svc := newTestService(&sent, nil)

	err := svc.SendConfirmationEmail(context.Background(), "a@x.com", "alice", "tok+/=")
	require.NoError(t, err)
	require.Len(t, sent, 1)

	m := sent[0]
	assert.Equal(t, "smtp.example.com:2525", m.addr)
	assert.Equal(t, "noreply@example.com", m.from)
	assert.Equal(t, []string{"a@x.com"}, m.to)
	assert.Contains(t, m.msg, "Subject: Confirm your email address\r\n")
	assert.Contains(t, m.msg, "Welcome to TeamTasks, alice!")
	assert.Contains(t, m.msg, "https://app.example.com/verify?token=tok%2B%2F%3D")
}

func TestSendConfirmationEmail_EscapesUsername(t *testing.T) {
	body, err := renderConfirmationEmail("<script>", "https://app.example.com/verify?token=t")
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestSendConfirmationEmail_TransportError(t *testing.T) {
	var sent []sentMail
	svc := newTestService(&sent, errors.New("connection refused"))

	err := svc.SendConfirmationEmail(context.Background(), "a@x.com", "alice", "tok")
	assert.ErrorContains(t, err, "send email")
}
