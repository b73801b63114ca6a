package llm

import (
	"context"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// EmbeddingScorer scores finding similarity as the cosine similarity of
// text embeddings. It backs the deduplicator's near-duplicate decision.
type EmbeddingScorer struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewEmbeddingScorer creates a scorer. Model defaults to
// text-embedding-3-small.
func NewEmbeddingScorer(cfg Config) *EmbeddingScorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &EmbeddingScorer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.SmallEmbedding3,
	}
}

// Score returns the cosine similarity of the two findings' text,
// mapped into [0, 1].
func (s *EmbeddingScorer) Score(ctx context.Context, a, b core.Finding) (float64, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: s.model,
		Input: []string{findingText(a), findingText(b)},
	})
	if err != nil {
		return 0, core.ErrReasoning(core.CodeNetworkFailure, "embedding request failed").WithCause(err)
	}
	if len(resp.Data) != 2 {
		return 0, core.ErrReasoning(core.CodeEmptyResponse, "embedding response incomplete")
	}

	sim := cosine(resp.Data[0].Embedding, resp.Data[1].Embedding)
	// Cosine lands in [-1, 1]; the threshold operates on [0, 1].
	return (sim + 1) / 2, nil
}

func findingText(f core.Finding) string {
	return f.Title + "\n" + f.Description
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
