package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const GeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider serves completions from Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: missing Gemini API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}

func (g *GeminiProvider) BaseURL() string {
	return GeminiBaseURL
}

// Complete maps the chat transcript onto a Gemini chat session. The system
// turn becomes the system instruction; the final user turn is the prompt.
func (g *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if req.Model == "" {
		return nil, errors.New("llm: model must not be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("llm: no messages")
	}

	// A fresh model handle per call; SystemInstruction is per-request state.
	model := g.client.GenerativeModel(req.Model)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	model.SetTemperature(float32(req.Temperature))
	if req.TopP > 0 {
		model.SetTopP(float32(req.TopP))
	}

	system, history, prompt := splitForGemini(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	return &Completion{Content: extractText(resp), Model: req.Model}, nil
}

func splitForGemini(messages []Message) (string, []*genai.Content, string) {
	var system []string
	var history []*genai.Content
	prompt := ""

	last := len(messages) - 1
	for i, m := range messages {
		switch {
		case m.Role == RoleSystem:
			system = append(system, m.Text())
		case i == last && m.Role == RoleUser:
			prompt = m.Text()
		default:
			role := "user"
			if m.Role == RoleAssistant {
				role = "model"
			}
			history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Text())}})
		}
	}
	return strings.Join(system, "\n\n"), history, prompt
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
