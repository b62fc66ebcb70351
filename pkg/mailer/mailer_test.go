package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPSenderSend(t *testing.T) {
	d := &recordingDialer{}
	sender := &SMTPSender{from: "office@program.test", dialer: d, logger: zap.NewNop()}

	err := sender.Send(context.Background(), Message{To: "parent@home.test", Subject: "Hello", Body: "Body"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"parent@home.test"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"office@program.test"}, d.sent[0].GetHeader("From"))
}

func TestSMTPSenderSendErrors(t *testing.T) {
	d := &recordingDialer{err: errors.New("connection refused")}
	sender := &SMTPSender{from: "office@program.test", dialer: d, logger: zap.NewNop()}

	assert.Error(t, sender.Send(context.Background(), Message{To: ""}))
	assert.ErrorContains(t, sender.Send(context.Background(), Message{To: "a@b.test"}), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, Message{To: "a@b.test"}), context.Canceled)
}

func TestMailtoURL(t *testing.T) {
	link := MailtoURL(Message{To: "parent@home.test", Subject: "Attendance notice", Body: "Hi there"})
	assert.Equal(t, "mailto:parent@home.test?body=Hi%20there&subject=Attendance%20notice", link)
}
