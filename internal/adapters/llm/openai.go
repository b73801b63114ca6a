package llm

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

// Reasoner implements the reasoning capability over the OpenAI chat
// completions API. Every stage call requests a JSON object response and
// parses it into the stage-specific result.
type Reasoner struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *logging.Logger
}

// Config configures the reasoner.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// NewReasoner creates a reasoner. BaseURL is optional and supports
// OpenAI-compatible endpoints.
func NewReasoner(cfg Config, logger *logging.Logger) *Reasoner {
	if logger == nil {
		logger = logging.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &Reasoner{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Discover infers documentation-relevant hints from the change.
func (r *Reasoner) Discover(ctx context.Context, req core.DiscoveryRequest) (*core.DiscoveryResult, error) {
	prompt := discoveryPrompt(req)

	var out struct {
		Hints []struct {
			Kind   string  `json:"kind"`
			Value  string  `json:"value"`
			Weight float64 `json:"weight"`
		} `json:"hints"`
	}
	if err := r.complete(ctx, discoverySystem, prompt, &out); err != nil {
		return nil, err
	}

	result := &core.DiscoveryResult{}
	for _, h := range out.Hints {
		if h.Value == "" {
			continue
		}
		if h.Kind != "keyword" && h.Kind != "section" && h.Kind != "doc_file_changed" {
			h.Kind = "keyword"
		}
		if h.Weight <= 0 || h.Weight > 1 {
			h.Weight = 0.5
		}
		result.Hints = append(result.Hints, core.ContextHint{Kind: h.Kind, Value: h.Value, Weight: h.Weight})
	}
	return result, nil
}

// auditFinding is the JSON shape the audit prompt asks for.
type auditFinding struct {
	Kind              string   `json:"kind"`
	Severity          string   `json:"severity"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	TargetLocation    string   `json:"target_location"`
	ExtraLocations    []string `json:"extra_locations"`
	RecommendedUpdate string   `json:"recommended_update"`
	Confidence        float64  `json:"confidence"`
	NeedsDiagram      bool     `json:"needs_diagram"`
	FlowDescription   string   `json:"flow_description"`
}

// Audit produces candidate findings for the change.
func (r *Reasoner) Audit(ctx context.Context, req core.AuditRequest) (*core.AuditResult, error) {
	prompt := auditPrompt(req)

	var out struct {
		Findings []auditFinding `json:"findings"`
	}
	if err := r.complete(ctx, auditSystem, prompt, &out); err != nil {
		return nil, err
	}

	result := &core.AuditResult{}
	for i, af := range out.Findings {
		f := core.Finding{
			Kind:              core.FindingKind(af.Kind),
			Severity:          core.Severity(strings.ToLower(af.Severity)),
			Title:             af.Title,
			Description:       af.Description,
			TargetLocation:    af.TargetLocation,
			ExtraLocations:    af.ExtraLocations,
			RecommendedUpdate: af.RecommendedUpdate,
			Confidence:        af.Confidence,
		}
		if !core.ValidFindingKind(f.Kind) {
			f.Kind = core.FindingImprovement
		}
		if core.SeverityOrder(f.Severity) > 4 {
			f.Severity = core.SeverityMedium
		}
		if f.Title == "" {
			r.logger.Warn("dropping untitled finding from audit output", "index", i)
			continue
		}
		if af.NeedsDiagram && req.EnableDiagrams {
			f.Kind = core.FindingDiagramNeeded
		}
		result.Findings = append(result.Findings, f)
	}

	// Diagram requests need finding IDs, which are assigned downstream.
	// Stash the flow descriptions keyed by position instead.
	for i, af := range out.Findings {
		if af.NeedsDiagram && req.EnableDiagrams && af.Title != "" && i < len(result.Findings) {
			result.DiagramRequests = append(result.DiagramRequests, core.DiagramRequest{
				Description:     af.Title,
				FlowDescription: af.FlowDescription,
			})
		}
	}
	return result, nil
}

// Critique judges the findings against the source material.
func (r *Reasoner) Critique(ctx context.Context, req core.CritiqueRequest) (*core.CritiqueResult, error) {
	prompt := critiquePrompt(req)

	var out struct {
		Accepted          bool     `json:"accepted"`
		Reason            string   `json:"reason"`
		Unsupported       []string `json:"unsupported_ids"`
		HallucinationRisk string   `json:"hallucination_risk"`
	}
	if err := r.complete(ctx, critiqueSystem, prompt, &out); err != nil {
		return nil, err
	}

	// A rejection naming no findings is not actionable for a revision
	// pass; treat it as accepting.
	if !out.Accepted && len(out.Unsupported) == 0 && out.Reason == "" {
		out.Accepted = true
	}

	return &core.CritiqueResult{Verdict: core.Verdict{
		Accepted:          out.Accepted,
		Reason:            out.Reason,
		Unsupported:       out.Unsupported,
		HallucinationRisk: out.HallucinationRisk,
	}}, nil
}

// complete sends one JSON-mode chat completion and unmarshals the reply.
func (r *Reasoner) complete(ctx context.Context, system, user string, out any) error {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return core.ErrReasoning(core.CodeNetworkFailure, "chat completion failed").WithCause(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return core.ErrReasoning(core.CodeEmptyResponse, "model returned no content")
	}

	content := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return core.ErrReasoning(core.CodeParseFailed, "model output is not the requested JSON").WithCause(err)
	}
	return nil
}

// stripFences removes a ```json fence if the model wrapped its output
// despite JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
