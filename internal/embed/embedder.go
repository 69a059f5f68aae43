package embed

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Dimensions is the fixed vector size the persistence layer stores. Every
// generated embedding is validated against it.
const Dimensions = 384

// Embedder converts texts to fixed-dimension vectors. Output has the same
// length and order as the input; empty input yields empty output.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Func adapts a plain function to Embedder.
type Func func(ctx context.Context, texts []string) ([][]float32, error)

func (f Func) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// OpenAIEmbedder talks to an OpenAI-compatible embeddings endpoint. A local
// all-MiniLM-class server works; anything returning 384-dim vectors does.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
}

type Config struct {
	BaseURL string
	Model   string
	Token   string
}

func NewOpenAIEmbedder(cfg Config, logger *zap.Logger) (*OpenAIEmbedder, error) {
	token := cfg.Token
	if token == "" {
		// Local OpenAI-compatible services accept any token.
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embeddings client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}
	return &OpenAIEmbedder{embedder: embedder, logger: logger}, nil
}

func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("embedding generation failed", zap.Int("texts", len(texts)), zap.Error(err))
		}
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != Dimensions {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), Dimensions)
		}
	}
	return vectors, nil
}
