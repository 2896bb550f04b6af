package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

func newStagePipeline(ai *mockAnthropicClient, jc *mockJinaClient) *Pipeline {
	return New(testConfig(), nil, nil, ai, jc, nil, nil, nil)
}

func TestAnalyze_HappyPath(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Read", mock.Anything, "https://acme.example").
		Return(readResponse("# Acme\nWe make widgets and ship worldwide."), nil)
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "model-analysis"
	})).Return(textResponse(analysisJSON), nil)

	findings, err := p.Analyze(context.Background(), pendingLead("2"))

	require.NoError(t, err)
	assert.Equal(t, "Acme makes industrial widgets.", findings.BusinessDescription)
	assert.True(t, findings.ExportsDetected)
	assert.Equal(t, []string{"customs delays", "freight costs"}, findings.PainPoints)
	assert.False(t, findings.Partial)
	assert.Equal(t, "https://acme.example", findings.SourceURL)
	jc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestAnalyze_DiscoversWebsiteWhenMissing(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Search", mock.Anything, "Acme Exports official website").
		Return(searchResponse("https://found.example"), nil)
	jc.On("Read", mock.Anything, "https://found.example").
		Return(readResponse("content"), nil)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(analysisJSON), nil)

	lead := pendingLead("2")
	lead.Website = ""

	findings, err := p.Analyze(context.Background(), lead)

	require.NoError(t, err)
	assert.Equal(t, "https://found.example", findings.SourceURL)
	jc.AssertExpectations(t)
}

func TestAnalyze_NoSearchResults(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Search", mock.Anything, mock.Anything).Return(searchResponse(), nil)

	lead := pendingLead("2")
	lead.Website = ""

	_, err := p.Analyze(context.Background(), lead)

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestAnalyze_FetchError(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Read", mock.Anything, mock.Anything).
		Return(nil, eris.New("jina: unexpected status 404: not found"))

	_, err := p.Analyze(context.Background(), pendingLead("2"))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestAnalyze_EmptyContent(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Read", mock.Anything, mock.Anything).Return(readResponse("   \n"), nil)

	_, err := p.Analyze(context.Background(), pendingLead("2"))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "empty content")
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestAnalyze_TruncatesContent(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)
	p.cfg.Anthropic.MaxContentChars = 50

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	jc.On("Read", mock.Anything, mock.Anything).Return(readResponse(string(long)), nil)
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 && len(req.Messages[0].Content) < 200
	})).Return(textResponse(analysisJSON), nil)

	_, err := p.Analyze(context.Background(), pendingLead("2"))

	require.NoError(t, err)
	ai.AssertExpectations(t)
}

func TestAnalyze_TruncationKeepsRuneBoundary(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)
	p.cfg.Anthropic.MaxContentChars = 10

	// "é" is two bytes; the cap lands mid-rune.
	content := strings.Repeat("é", 20)
	jc.On("Read", mock.Anything, mock.Anything).Return(readResponse(content), nil)
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 && utf8.ValidString(req.Messages[0].Content)
	})).Return(textResponse(analysisJSON), nil)

	_, err := p.Analyze(context.Background(), pendingLead("2"))

	require.NoError(t, err)
	ai.AssertExpectations(t)
}

func TestAnalyze_InferenceError(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Read", mock.Anything, mock.Anything).Return(readResponse("content"), nil)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, eris.New("anthropic: invalid api key"))

	_, err := p.Analyze(context.Background(), pendingLead("2"))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	ai.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestAnalyze_MalformedResponseDegradesToPartial(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Read", mock.Anything, mock.Anything).Return(readResponse("content"), nil)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("Acme builds widgets but I could not produce JSON."), nil)

	findings, err := p.Analyze(context.Background(), pendingLead("2"))

	require.NoError(t, err)
	assert.True(t, findings.Partial)
	assert.Contains(t, findings.BusinessDescription, "Acme builds widgets")
	assert.Empty(t, findings.PainPoints)
}

func TestAnalyze_EmptyResponse(t *testing.T) {
	ai := &mockAnthropicClient{}
	jc := &mockJinaClient{}
	p := newStagePipeline(ai, jc)

	jc.On("Read", mock.Anything, mock.Anything).Return(readResponse("content"), nil)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(""), nil)

	_, err := p.Analyze(context.Background(), pendingLead("2"))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
}

func TestParseFindings_MissingDescription(t *testing.T) {
	_, err := parseFindings(`{"business_description": "", "pain_points": ["x"]}`)
	require.Error(t, err)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose wrapped", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}

func TestExtractText_JoinsBlocks(t *testing.T) {
	resp := &anthropic.MessageResponse{Content: []anthropic.ContentBlock{
		{Type: "text", Text: "one"},
		{Type: "text", Text: "two"},
	}}
	assert.Equal(t, "one\ntwo", extractText(resp))
	assert.Equal(t, "", extractText(nil))
}
