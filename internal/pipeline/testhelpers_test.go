package pipeline

import (
	"fmt"
	"time"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/jina"
)

// testConfig returns a config with no pacing so orchestrator tests run
// instantly.
func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			AnalysisModel:        "model-analysis",
			GenerationModel:      "model-generation",
			PersonalizationModel: "model-personalization",
			MaxContentChars:      12000,
		},
		Messaging: config.MessagingConfig{SMSMaxLength: 320},
		Batch:     config.BatchConfig{MaxLeads: 25, LeadPacingSecs: 0},
	}
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func readResponse(content string) *jina.ReadResponse {
	return &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: content}}
}

func searchResponse(urls ...string) *jina.SearchResponse {
	resp := &jina.SearchResponse{Code: 200}
	for _, u := range urls {
		resp.Data = append(resp.Data, jina.SearchResult{URL: u})
	}
	return resp
}

const analysisJSON = `{"business_description": "Acme makes industrial widgets.", "exports_detected": true, "pain_points": ["customs delays", "freight costs"]}`

const propositionsJSON = `{"propositions": [
	{"pain_point": "customs delays", "proposition": "Clear customs in hours, not days."},
	{"pain_point": "freight costs", "proposition": "Cut freight spend by a fifth."}
]}`

func messagesJSON(smsLen int) string {
	sms := ""
	for len(sms) < smsLen {
		sms += "x"
	}
	return fmt.Sprintf(`{"email_subject": "Faster customs for Acme", "email_body": "Hi Jane, saw your exports.", "sms_body": "%s"}`, sms)
}

func pendingLead(id string) model.Lead {
	return model.Lead{
		ID:            id,
		ContactPerson: "Jane Smith",
		Email:         "jane@acme.com",
		Phone:         "+15551234567",
		Company:       "Acme Exports",
		Website:       "https://acme.example",
		Status:        model.StatusPending,
		Priority:      1,
		CreatedAt:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}
