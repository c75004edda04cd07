package flows

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/types"
)

const maxCandidateLabels = 50

func classifyPrompt(labels []string, text string) string {
	return "You are a document classification assistant for notarial offices. " +
		"Classify the document into exactly one of these labels: " + strings.Join(labels, ", ") + ".\n" +
		`Respond only with JSON of the form {"label": "<one of the labels>", "confidence": <number between 0 and 1>}.` + "\n\n" +
		"DOCUMENT:\n" +
		text
}

// normalizeLabels trims labels and drops blanks and case-insensitive duplicates, keeping order.
func normalizeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		key := strings.ToLower(l)
		if l == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}

// Classify assigns one of the candidate labels to a stored document or inline text.
func (s *Service) Classify(ctx context.Context, tenantID string, req types.ClassifyRequest) (*types.ClassifyResponse, error) {
	labels := normalizeLabels(req.CandidateLabels)
	if len(labels) == 0 {
		return nil, types.NewInvalidRequest("candidate_labels must contain at least one label")
	}
	if len(labels) > maxCandidateLabels {
		return nil, types.NewInvalidRequest("candidate_labels must not contain more than %d labels", maxCandidateLabels)
	}

	text, err := s.resolveText(ctx, tenantID, req.DocumentID, req.Text)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, types.NewInvalidRequest("either text or the id of an existing document is required")
	}
	cfg := s.cfg()
	if _, err := filter.SanitizeUserInput(text, cfg.MaxInputLength, tenantID, cfg.Injection.Enabled); err != nil {
		return nil, err
	}
	if _, err := filter.SanitizeUserInput(strings.Join(labels, ", "), cfg.MaxQuestionLength, tenantID, cfg.Injection.Enabled); err != nil {
		return nil, err
	}
	flagged, err := s.screen(ctx, tenantID, types.FlowClassify, text)
	if err != nil {
		return nil, err
	}

	res, reason, ok := s.complete(ctx, types.FlowClassify, types.LLMRequest{
		Prompt:   classifyPrompt(labels, text),
		TenantID: tenantID,
	})

	resp := &types.ClassifyResponse{
		Label:    labels[0],
		Source:   sourceOf(ok),
		Metadata: baseMetadata(res, ok, reason, flagged),
	}
	if ok {
		resp.Label, resp.Confidence = pickLabel(res.RawText, labels)
		resp.Model = res.ModelName
	}
	s.audit(ctx, tenantID, types.FlowClassify, req, resp, ok)
	return resp, nil
}

type classifyAnswer struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
}

// pickLabel maps model output onto a candidate. The returned label is always one of
// labels; confidence is set only when the model's JSON named a candidate.
func pickLabel(text string, labels []string) (string, *float64) {
	if ans, ok := parseClassifyJSON(text); ok {
		for _, l := range labels {
			if strings.EqualFold(strings.TrimSpace(ans.Label), l) {
				return l, clampConfidence(ans.Confidence)
			}
		}
	}

	lower := strings.ToLower(text)
	best, bestAt := "", -1
	for _, l := range labels {
		if i := strings.Index(lower, strings.ToLower(l)); i >= 0 && (bestAt < 0 || i < bestAt) {
			best, bestAt = l, i
		}
	}
	if best != "" {
		return best, nil
	}
	return labels[0], nil
}

// parseClassifyJSON decodes the outermost {...} in text, tolerating prose or code fences around it.
func parseClassifyJSON(text string) (classifyAnswer, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return classifyAnswer{}, false
	}
	var ans classifyAnswer
	if err := json.Unmarshal([]byte(text[start:end+1]), &ans); err != nil {
		return classifyAnswer{}, false
	}
	return ans, ans.Label != ""
}

func clampConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := min(max(*c, 0), 1)
	return &v
}
