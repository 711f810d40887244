package assistant

import (
	"context"
	"errors"
	"fmt"

	xe "github.com/opst/libris/pkg/errors"
	"google.golang.org/genai"
)

// embedBatchSize is the max number of texts in an embedding request.
const embedBatchSize = 100

// Gemini is a Model on the Gemini API.
type Gemini struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

var _ Model = &Gemini{}

func NewGemini(ctx context.Context, apiKey, chatModel, embeddingModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("api key for Gemini is required")
	}
	if chatModel == "" {
		chatModel = "gemini-2.5-flash"
	}
	if embeddingModel == "" {
		embeddingModel = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, chatModel: chatModel, embeddingModel: embeddingModel}, nil
}

func (g *Gemini) Generate(ctx context.Context, system string, history []Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", xe.Wrap(err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("model answered nothing")
	}
	return text, nil
}

func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for begin := 0; begin < len(texts); begin += embedBatchSize {
		end := min(begin+embedBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-begin)
		for _, t := range texts[begin:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		result, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, nil)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		if len(result.Embeddings) != len(contents) {
			return nil, fmt.Errorf("%d embeddings returned for %d texts", len(result.Embeddings), len(contents))
		}
		for _, e := range result.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}
	return vectors, nil
}
