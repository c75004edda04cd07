package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/af-corp/aegis-docai/internal/types"
)

// generateProvider speaks the single-turn completion protocol (Ollama style):
// POST {base}/generate {model, prompt, system?} -> {response, model}.
type generateProvider struct {
	baseURL string
	apiKey  string
	model   string
}

func (p *generateProvider) Name() string { return "generate" }

func (p *generateProvider) NewRequest(ctx context.Context, req types.LLMRequest) (*http.Request, error) {
	body := generateRequestBody{
		Model:  p.model,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Stream: false,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	url := strings.TrimRight(p.baseURL, "/") + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	return httpReq, nil
}

func (p *generateProvider) ParseResponse(body []byte) (string, string, error) {
	var resp generateResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", &Error{Kind: KindDecode, Provider: p.Name(), Err: fmt.Errorf("unmarshal generate response: %w", err)}
	}
	if resp.Response == nil || strings.TrimSpace(*resp.Response) == "" {
		return "", "", &Error{Kind: KindEmpty, Provider: p.Name(), Err: fmt.Errorf("response field missing or empty")}
	}
	model := resp.Model
	if model == "" {
		model = p.model
	}
	return strings.TrimSpace(*resp.Response), model, nil
}

type generateRequestBody struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponseBody struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
}
