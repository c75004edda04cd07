package flows

import (
	"context"
	"strings"

	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/types"
)

const (
	askSystemPrompt = "You answer questions about documents for Dutch notarial offices. " +
		"Answer only from the given context and say so when the context does not contain the answer. " +
		"Do not give legal advice."
	AskFallbackAnswer = "De vraag kon niet automatisch worden beantwoord. " +
		"Raadpleeg de brontekst of probeer het later opnieuw."
)

func askPrompt(docContext, question string) string {
	var b strings.Builder
	if docContext != "" {
		b.WriteString("CONTEXT:\n")
		b.WriteString(docContext)
		b.WriteString("\n\n")
	}
	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	return b.String()
}

// Ask answers a question, optionally grounded in a stored document or inline context.
func (s *Service) Ask(ctx context.Context, tenantID string, req types.AskRequest) (*types.AskResponse, error) {
	if req.Question == "" {
		return nil, types.NewInvalidRequest("question is required")
	}
	cfg := s.cfg()
	question, err := filter.SanitizeUserInput(req.Question, cfg.MaxQuestionLength, tenantID, cfg.Injection.Enabled)
	if err != nil {
		return nil, err
	}

	docContext, err := s.resolveText(ctx, tenantID, req.DocumentID, req.Context)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(docContext) != "" {
		if _, err := filter.SanitizeUserInput(docContext, cfg.MaxInputLength, tenantID, cfg.Injection.Enabled); err != nil {
			return nil, err
		}
	} else {
		docContext = ""
	}

	screened := question
	if docContext != "" {
		screened = docContext + "\n" + question
	}
	flagged, err := s.screen(ctx, tenantID, types.FlowAsk, screened)
	if err != nil {
		return nil, err
	}

	res, reason, ok := s.complete(ctx, types.FlowAsk, types.LLMRequest{
		Prompt:       askPrompt(docContext, question),
		SystemPrompt: askSystemPrompt,
		TenantID:     tenantID,
	})

	resp := &types.AskResponse{
		Answer:   AskFallbackAnswer,
		Source:   sourceOf(ok),
		Metadata: baseMetadata(res, ok, reason, flagged),
	}
	if ok {
		resp.Answer = strings.TrimSpace(res.RawText)
	}
	s.audit(ctx, tenantID, types.FlowAsk, req, resp, ok)
	return resp, nil
}
