package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const analysisSystemPrompt = `You analyze company websites for a B2B logistics outreach team. Given the markdown content of a company's website, respond with a valid JSON object:
{"business_description": "<2-3 sentence summary of what the company does>", "exports_detected": <true|false>, "pain_points": ["<operational pain point>", ...]}
exports_detected is true when the company ships goods internationally. List at most five pain points, most significant first. Respond with JSON only.`

const analysisUserPrompt = `Company: %s

Website content (markdown):
%s`

// Analyze runs the website analysis stage for one lead: resolve the
// company's website, fetch it, and extract structured findings.
func (p *Pipeline) Analyze(ctx context.Context, lead model.Lead) (*model.Findings, error) {
	siteURL := lead.Website
	if siteURL == "" {
		discovered, err := p.discoverWebsite(ctx, lead.Company)
		if err != nil {
			return nil, &AnalysisError{Err: err}
		}
		siteURL = discovered
	}

	content, err := p.fetchContent(ctx, siteURL)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &AnalysisError{Err: eris.Errorf("pipeline: empty content from %s", siteURL)}
	}

	maxChars := p.cfg.Anthropic.MaxContentChars
	if maxChars > 0 && len(content) > maxChars {
		// Back the cut off to a rune boundary so the prompt stays valid UTF-8.
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	prompt := fmt.Sprintf(analysisUserPrompt, lead.Company, content)
	resp, err := resilience.DoVal(ctx, p.retryCfg("analyze"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Inference())
		defer cancel()
		return p.anthropic.CreateMessage(callCtx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.AnalysisModel,
			MaxTokens: 1024,
			System:    analysisSystemPrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}
	resp.Usage.Log(p.cfg.Anthropic.AnalysisModel, "analyze")

	findings, err := parseFindings(extractText(resp))
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}
	findings.SourceURL = siteURL
	return findings, nil
}

// discoverWebsite resolves a company's website via web search when the lead
// row carries no URL. The first organic result wins.
func (p *Pipeline) discoverWebsite(ctx context.Context, company string) (string, error) {
	searchCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Fetch())
	defer cancel()

	resp, err := p.jina.Search(searchCtx, fmt.Sprintf("%s official website", company))
	if err != nil {
		return "", eris.Wrapf(err, "pipeline: discover website for %s", company)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", eris.Errorf("pipeline: no website found for %s", company)
	}

	zap.L().Debug("discovered company website",
		zap.String("company", company),
		zap.String("url", resp.Data[0].URL))
	return resp.Data[0].URL, nil
}

func (p *Pipeline) fetchContent(ctx context.Context, siteURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Fetch())
	defer cancel()

	resp, err := p.jina.Read(fetchCtx, siteURL)
	if err != nil {
		return "", eris.Wrapf(err, "pipeline: fetch %s", siteURL)
	}
	return resp.Data.Content, nil
}

// parseFindings decodes the model's JSON answer. A malformed response with
// recoverable text degrades to partial findings instead of failing the lead.
func parseFindings(text string) (*model.Findings, error) {
	cleaned := cleanJSON(text)

	var result struct {
		BusinessDescription string   `json:"business_description"`
		ExportsDetected     bool     `json:"exports_detected"`
		PainPoints          []string `json:"pain_points"`
	}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, eris.New("pipeline: empty analysis response")
		}
		zap.L().Warn("analysis response was not valid JSON, degrading to partial findings",
			zap.Error(err))
		return &model.Findings{BusinessDescription: trimmed, Partial: true}, nil
	}

	if strings.TrimSpace(result.BusinessDescription) == "" {
		return nil, eris.New("pipeline: analysis response missing business description")
	}

	return &model.Findings{
		BusinessDescription: strings.TrimSpace(result.BusinessDescription),
		ExportsDetected:     result.ExportsDetected,
		PainPoints:          result.PainPoints,
	}, nil
}

// extractText concatenates all text blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
