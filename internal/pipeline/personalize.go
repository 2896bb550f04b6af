package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const personalizeSystemPrompt = `You write short, personal B2B outreach messages for a freight and logistics services provider. Given a contact, their company, and a value proposition, respond with a valid JSON object:
{"email_subject": "<subject line>", "email_body": "<3-4 sentence email, greeting the contact by first name>", "sms_body": "<single SMS under %d characters>"}
Only include the fields requested. Plain text only, no placeholders, no signature blocks. Respond with JSON only.`

const personalizeUserPrompt = `Contact: %s
Company: %s
Value proposition: %s

Requested channels: %s`

// Personalize runs the personalization stage for the top-ranked value
// proposition. Bodies are generated only for channels whose contact field
// is present on the lead. An SMS over the configured length cap is a hard
// failure for that channel; it is never truncated.
func (p *Pipeline) Personalize(ctx context.Context, top model.ValueProposition, lead model.Lead) (*model.Messages, error) {
	if strings.TrimSpace(top.Proposition) == "" {
		return nil, &PersonalizationError{Err: eris.New("pipeline: empty value proposition")}
	}

	wantEmail := lead.Email != ""
	wantSMS := lead.Phone != ""
	if !wantEmail && !wantSMS {
		return nil, &PersonalizationError{Err: eris.New("pipeline: no channels to personalize for")}
	}

	var channels []string
	if wantEmail {
		channels = append(channels, "email")
	}
	if wantSMS {
		channels = append(channels, "sms")
	}

	system := fmt.Sprintf(personalizeSystemPrompt, p.cfg.Messaging.SMSMaxLength)
	prompt := fmt.Sprintf(personalizeUserPrompt,
		lead.ContactPerson, lead.Company, top.Proposition, strings.Join(channels, ", "))

	resp, err := resilience.DoVal(ctx, p.retryCfg("personalize"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Inference())
		defer cancel()
		return p.anthropic.CreateMessage(callCtx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.PersonalizationModel,
			MaxTokens: 1024,
			System:    system,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, &PersonalizationError{Err: err}
	}
	resp.Usage.Log(p.cfg.Anthropic.PersonalizationModel, "personalize")

	msgs, err := parseMessages(extractText(resp))
	if err != nil {
		return nil, &PersonalizationError{Err: err}
	}

	// Per-channel validation. A failed channel clears its body; the stage
	// errors only when every requested channel failed.
	if wantEmail && (msgs.EmailSubject == "" || msgs.EmailBody == "") {
		zap.L().Warn("personalization produced no usable email body",
			zap.String("company", lead.Company))
		msgs.EmailSubject = ""
		msgs.EmailBody = ""
		wantEmail = false
	}
	if wantSMS {
		if msgs.SMSBody == "" {
			wantSMS = false
		} else if limit := p.cfg.Messaging.SMSMaxLength; limit > 0 && len(msgs.SMSBody) > limit {
			zap.L().Warn("sms body exceeds length cap, dropping channel",
				zap.String("company", lead.Company),
				zap.Int("length", len(msgs.SMSBody)),
				zap.Int("cap", limit))
			msgs.SMSBody = ""
			wantSMS = false
		}
	}

	if !wantEmail && !wantSMS {
		return nil, &PersonalizationError{Err: eris.New("pipeline: no usable message body for any channel")}
	}
	return msgs, nil
}

func parseMessages(text string) (*model.Messages, error) {
	cleaned := cleanJSON(text)

	var msgs model.Messages
	if err := json.Unmarshal([]byte(cleaned), &msgs); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse messages")
	}

	msgs.EmailSubject = strings.TrimSpace(msgs.EmailSubject)
	msgs.EmailBody = strings.TrimSpace(msgs.EmailBody)
	msgs.SMSBody = strings.TrimSpace(msgs.SMSBody)
	return &msgs, nil
}
