package types

// LLMRequest is a single prompt sent to the configured backend.
type LLMRequest struct {
	Prompt       string
	SystemPrompt string
	TenantID     string
}

// LLMResult is the normalized output of one successful backend call.
type LLMResult struct {
	RawText      string  `json:"raw_text"`
	ModelName    string  `json:"model_name"`
	LatencyMs    float64 `json:"latency_ms"`
	UsedFallback bool    `json:"used_fallback"`
}
