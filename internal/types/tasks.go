package types

// Source tells the caller whether a flow answer came from the model or the fallback.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Flow names, also used as audit flow_name values.
const (
	FlowSummarize = "notary_summarize"
	FlowClassify  = "classify"
	FlowAsk       = "ask"
)

type SummarizeRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Language   string `json:"language,omitempty"`
}

type NotarySummary struct {
	Title           string   `json:"title"`
	KeyPoints       []string `json:"key_points"`
	PartiesInvolved []string `json:"parties_involved"`
	RisksOrWarnings []string `json:"risks_or_warnings"`
	RawSummary      string   `json:"raw_summary"`
}

type SummarizeResponse struct {
	DocumentID string         `json:"document_id,omitempty"`
	Summary    NotarySummary  `json:"summary"`
	Source     Source         `json:"source"`
	Metadata   map[string]any `json:"metadata"`
}

type ClassifyRequest struct {
	DocumentID      string   `json:"document_id,omitempty"`
	Text            string   `json:"text,omitempty"`
	CandidateLabels []string `json:"candidate_labels"`
}

type ClassifyResponse struct {
	Label      string         `json:"label"`
	Confidence *float64       `json:"confidence,omitempty"`
	Source     Source         `json:"source"`
	Model      string         `json:"model,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

type AskRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Context    string `json:"context,omitempty"`
	Question   string `json:"question"`
}

type AskResponse struct {
	Answer   string         `json:"answer"`
	Source   Source         `json:"source"`
	Metadata map[string]any `json:"metadata"`
}
