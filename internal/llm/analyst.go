package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/model"
)

// Verdict is the structured analysis result for a scan target.
type Verdict struct {
	RiskScore       int      `json:"risk_score"`
	Severity        string   `json:"severity"`
	Summary         string   `json:"summary"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

// Chatter is the LLM surface the analyst needs. *Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Analyst turns scan evidence into a Verdict via the LLM backend. Calls are
// single-shot: any transport or parse failure yields the fallback verdict
// so a scan always completes.
type Analyst struct {
	client Chatter
	logger zerolog.Logger
}

// NewAnalyst creates a new Analyst.
func NewAnalyst(client Chatter, logger zerolog.Logger) *Analyst {
	return &Analyst{
		client: client,
		logger: logger.With().Str("component", "analyst").Logger(),
	}
}

const verdictInstruction = `Respond with a single JSON object and nothing else:
{"risk_score": <0-100>, "severity": "low"|"medium"|"high"|"critical", "summary": "<one sentence>", "findings": ["..."], "recommendations": ["..."]}`

var systemPrompts = map[string]string{
	model.ScanWebsite: "You are a web security analyst. Assess the scanned website for phishing, malware distribution, and misconfigured security headers.",
	model.ScanAPI:     "You are an API security analyst. Assess the scanned API endpoint for authentication weaknesses, information disclosure, and injection exposure.",
	model.ScanQR:      "You are a security analyst. Assess the decoded QR code payload for phishing, malicious redirects, and payload obfuscation.",
	model.ScanStatic:  "You are a security analyst. Assess the provided configuration or source snippet for hardcoded secrets, injection sinks, and unsafe settings.",
}

// Analyze produces a verdict for one scan type. The returned bool is false
// when the fallback verdict was used.
func (a *Analyst) Analyze(ctx context.Context, scanType, target, evidence string) (*Verdict, bool) {
	system, ok := systemPrompts[scanType]
	if !ok {
		system = systemPrompts[model.ScanStatic]
	}

	resp, err := a.client.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: system + "\n" + verdictInstruction},
			{Role: "user", Content: fmt.Sprintf("Target: %s\n\nEvidence:\n%s", target, evidence)},
		},
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("scan_type", scanType).Msg("analysis backend failed, using fallback verdict")
		return FallbackVerdict(scanType), false
	}
	if len(resp.Choices) == 0 {
		a.logger.Warn().Str("scan_type", scanType).Msg("empty completion, using fallback verdict")
		return FallbackVerdict(scanType), false
	}

	verdict, err := ParseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		a.logger.Warn().Err(err).Str("scan_type", scanType).Msg("unparseable verdict, using fallback")
		return FallbackVerdict(scanType), false
	}
	return verdict, true
}

// MultiAgentAnalyze runs the recon, vulnerability, and risk agent passes over
// the same evidence and merges their verdicts: max risk score, highest
// severity, concatenated findings. Degraded if every pass fell back.
func (a *Analyst) MultiAgentAnalyze(ctx context.Context, target, evidence string) (*Verdict, bool) {
	agents := []struct {
		name   string
		system string
	}{
		{"recon", "You are a reconnaissance agent. Map the target's exposed surface and identify anything an attacker would enumerate first."},
		{"vulnerability", "You are a vulnerability analysis agent. Identify concrete weaknesses in the target based on the evidence."},
		{"risk", "You are a risk assessment agent. Judge the overall business risk the target poses or faces."},
	}

	merged := &Verdict{Severity: model.SeverityLow}
	anyLive := false

	for _, agent := range agents {
		resp, err := a.client.Chat(ctx, ChatRequest{
			Messages: []Message{
				{Role: "system", Content: agent.system + "\n" + verdictInstruction},
				{Role: "user", Content: fmt.Sprintf("Target: %s\n\nEvidence:\n%s", target, evidence)},
			},
		})
		if err != nil || len(resp.Choices) == 0 {
			a.logger.Warn().Err(err).Str("agent", agent.name).Msg("agent pass failed")
			continue
		}
		verdict, err := ParseVerdict(resp.Choices[0].Message.Content)
		if err != nil {
			a.logger.Warn().Err(err).Str("agent", agent.name).Msg("agent verdict unparseable")
			continue
		}

		anyLive = true
		if verdict.RiskScore > merged.RiskScore {
			merged.RiskScore = verdict.RiskScore
		}
		if model.SeverityAtLeast(verdict.Severity, merged.Severity) {
			merged.Severity = verdict.Severity
		}
		if merged.Summary == "" {
			merged.Summary = verdict.Summary
		}
		for _, f := range verdict.Findings {
			merged.Findings = append(merged.Findings, agent.name+": "+f)
		}
		merged.Recommendations = append(merged.Recommendations, verdict.Recommendations...)
	}

	if !anyLive {
		return FallbackVerdict("multi-agent"), false
	}
	return merged, true
}

// ParseVerdict extracts the JSON verdict from a completion, tolerating
// surrounding prose and markdown fences.
func ParseVerdict(content string) (*Verdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}

	if v.RiskScore < 0 {
		v.RiskScore = 0
	}
	if v.RiskScore > 100 {
		v.RiskScore = 100
	}
	if !model.ValidSeverity(v.Severity) {
		v.Severity = severityForScore(v.RiskScore)
	}
	return &v, nil
}

// FallbackVerdict is the canned response used when the analysis backend is
// unavailable. Medium severity: the scan ran but nothing was verified.
func FallbackVerdict(scanType string) *Verdict {
	return &Verdict{
		RiskScore: 50,
		Severity:  model.SeverityMedium,
		Summary:   "Automated analysis was unavailable; manual review recommended.",
		Findings:  []string{"The analysis backend did not return a usable verdict for this " + scanType + " scan."},
		Recommendations: []string{
			"Re-run the scan once the analysis backend is reachable.",
			"Treat the target as unverified until reviewed by an analyst.",
		},
	}
}

func severityForScore(score int) string {
	switch {
	case score >= 85:
		return model.SeverityCritical
	case score >= 60:
		return model.SeverityHigh
	case score >= 30:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
