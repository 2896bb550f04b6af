package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

var topProp = model.ValueProposition{
	PainPoint:   "customs delays",
	Proposition: "Clear customs in hours, not days.",
}

func TestPersonalize_BothChannels(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "model-personalization"
	})).Return(textResponse(messagesJSON(80)), nil)

	msgs, err := p.Personalize(context.Background(), topProp, pendingLead("2"))

	require.NoError(t, err)
	assert.Equal(t, "Faster customs for Acme", msgs.EmailSubject)
	assert.NotEmpty(t, msgs.EmailBody)
	assert.Len(t, msgs.SMSBody, 80)
}

func TestPersonalize_EmptyProposition(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	_, err := p.Personalize(context.Background(), model.ValueProposition{}, pendingLead("2"))

	var pe *PersonalizationError
	require.ErrorAs(t, err, &pe)
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestPersonalize_NoChannels(t *testing.T) {
	p := newStagePipeline(&mockAnthropicClient{}, &mockJinaClient{})

	lead := pendingLead("2")
	lead.Email = ""
	lead.Phone = ""

	_, err := p.Personalize(context.Background(), topProp, lead)

	var pe *PersonalizationError
	require.ErrorAs(t, err, &pe)
}

func TestPersonalize_SMSOverCapDropsChannelKeepsEmail(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(messagesJSON(500)), nil)

	msgs, err := p.Personalize(context.Background(), topProp, pendingLead("2"))

	require.NoError(t, err)
	assert.Empty(t, msgs.SMSBody, "over-cap sms is dropped, never truncated")
	assert.NotEmpty(t, msgs.EmailBody)
}

func TestPersonalize_SMSOverCapOnlyChannelFails(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	p.cfg.Messaging.SMSMaxLength = 3
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"sms_body": "way too long for the cap"}`), nil)

	lead := pendingLead("2")
	lead.Email = ""

	_, err := p.Personalize(context.Background(), topProp, lead)

	var pe *PersonalizationError
	require.ErrorAs(t, err, &pe)
}

func TestPersonalize_MissingEmailBodyDropsEmailChannel(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"email_subject": "", "email_body": "", "sms_body": "Short and sweet."}`), nil)

	msgs, err := p.Personalize(context.Background(), topProp, pendingLead("2"))

	require.NoError(t, err)
	assert.Empty(t, msgs.EmailBody)
	assert.Equal(t, "Short and sweet.", msgs.SMSBody)
}

func TestPersonalize_InferenceError(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, eris.New("anthropic: overloaded"))

	_, err := p.Personalize(context.Background(), topProp, pendingLead("2"))

	var pe *PersonalizationError
	require.ErrorAs(t, err, &pe)
}

func TestPersonalize_ParseFailure(t *testing.T) {
	ai := &mockAnthropicClient{}
	p := newStagePipeline(ai, &mockJinaClient{})

	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("no json here"), nil)

	_, err := p.Personalize(context.Background(), topProp, pendingLead("2"))

	var pe *PersonalizationError
	require.ErrorAs(t, err, &pe)
}
