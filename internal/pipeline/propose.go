package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const proposeSystemPrompt = `You write value propositions for a freight and logistics services provider reaching out to exporters. Given a company description and its operational pain points, respond with a valid JSON object:
{"propositions": [{"pain_point": "<the pain point>", "proposition": "<one-sentence value proposition addressing it>"}]}
Order propositions from most to least compelling. Respond with JSON only.`

const proposeUserPrompt = `Company description:
%s

Exports detected: %t

Pain points:
%s`

// Propose runs the value proposition stage: one model call covering every
// detected pain point. The returned list keeps the model's ranking. A lead
// with no pain points yields an empty, non-error list.
func (p *Pipeline) Propose(ctx context.Context, findings *model.Findings) ([]model.ValueProposition, error) {
	if findings == nil || strings.TrimSpace(findings.BusinessDescription) == "" {
		return nil, &GenerationError{Err: eris.New("pipeline: no findings to generate from")}
	}
	if len(findings.PainPoints) == 0 {
		return []model.ValueProposition{}, nil
	}

	var points strings.Builder
	for i, pp := range findings.PainPoints {
		fmt.Fprintf(&points, "%d. %s\n", i+1, pp)
	}

	prompt := fmt.Sprintf(proposeUserPrompt,
		findings.BusinessDescription, findings.ExportsDetected, points.String())

	resp, err := resilience.DoVal(ctx, p.retryCfg("propose"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Inference())
		defer cancel()
		return p.anthropic.CreateMessage(callCtx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.GenerationModel,
			MaxTokens: 1024,
			System:    proposeSystemPrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	resp.Usage.Log(p.cfg.Anthropic.GenerationModel, "propose")

	props, err := parsePropositions(extractText(resp))
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	return props, nil
}

func parsePropositions(text string) ([]model.ValueProposition, error) {
	cleaned := cleanJSON(text)

	var result struct {
		Propositions []model.ValueProposition `json:"propositions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse propositions")
	}

	props := make([]model.ValueProposition, 0, len(result.Propositions))
	for _, vp := range result.Propositions {
		if strings.TrimSpace(vp.Proposition) == "" {
			continue
		}
		props = append(props, vp)
	}
	return props, nil
}
