package transport

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/pkg/textfully"
)

type mockTextfully struct {
	mock.Mock
}

func (m *mockTextfully) SendMessage(ctx context.Context, req textfully.MessageRequest) (*textfully.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*textfully.MessageResponse), args.Error(1)
}

func TestNewSMTPSender_RequiresHost(t *testing.T) {
	_, err := NewSMTPSender(config.EmailConfig{FromAddress: "out@sells.example"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp host")
}

func TestNewSMTPSender_RequiresFromAddress(t *testing.T) {
	_, err := NewSMTPSender(config.EmailConfig{SMTPHost: "smtp.example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from address")
}

func TestNewSMTPSender_DefaultsPort(t *testing.T) {
	s, err := NewSMTPSender(config.EmailConfig{
		SMTPHost:    "smtp.example.com",
		FromAddress: "out@sells.example",
	})
	require.NoError(t, err)
	assert.NotNil(t, s.client)
}

func TestTextfullySender_Send(t *testing.T) {
	tf := &mockTextfully{}
	tf.On("SendMessage", mock.Anything, textfully.MessageRequest{To: "+15551234567", Text: "hi"}).
		Return(&textfully.MessageResponse{ID: "msg-1", Status: "sent"}, nil)

	s := NewTextfullySender(tf)
	err := s.Send(context.Background(), "+15551234567", "hi")

	require.NoError(t, err)
	tf.AssertExpectations(t)
}

func TestTextfullySender_Send_MissingNumber(t *testing.T) {
	s := NewTextfullySender(&mockTextfully{})
	err := s.Send(context.Background(), "", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing phone number")
}

func TestTextfullySender_Send_APIError(t *testing.T) {
	tf := &mockTextfully{}
	tf.On("SendMessage", mock.Anything, mock.Anything).
		Return(nil, eris.New("textfully: unexpected status 429: slow down"))

	s := NewTextfullySender(tf)
	err := s.Send(context.Background(), "+15551234567", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "send sms")
	tf.AssertExpectations(t)
}
