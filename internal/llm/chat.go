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

// chatProvider speaks the OpenAI-compatible chat protocol:
// POST {base}/chat/completions {model, messages} -> {choices[0].message.content, model}.
type chatProvider struct {
	baseURL string
	apiKey  string
	model   string
}

func (p *chatProvider) Name() string { return "chat" }

func (p *chatProvider) NewRequest(ctx context.Context, req types.LLMRequest) (*http.Request, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	data, err := json.Marshal(chatRequestBody{Model: p.model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	return httpReq, nil
}

func (p *chatProvider) ParseResponse(body []byte) (string, string, error) {
	var resp chatResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", &Error{Kind: KindDecode, Provider: p.Name(), Err: fmt.Errorf("unmarshal chat response: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return "", "", &Error{Kind: KindDecode, Provider: p.Name(), Err: fmt.Errorf("response has no choices")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", "", &Error{Kind: KindEmpty, Provider: p.Name(), Err: fmt.Errorf("first choice has empty content")}
	}
	model := resp.Model
	if model == "" {
		model = p.model
	}
	return content, model, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestBody struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponseBody struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
