package flows

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/types"
)

const (
	DefaultLanguage     = "nl"
	DefaultSummaryTitle = "Samenvatting notariële akte"
	SummaryFallbackText = "Automatische samenvatting niet beschikbaar. " +
		"Dit is een veilige, generieke samenvatting op basis van de aangeleverde tekst. " +
		"Controleer handmatig de inhoud van de akte."

	keyPointFallbackLength = 200
)

var languagePattern = regexp.MustCompile(`^[A-Za-z]{2,3}([-_][A-Za-z]{2,4})?$`)

func summarizePrompt(language, text string) string {
	return "You are an assistant for Dutch notarial offices. " +
		"Summarize the following document in a structured, neutral way. " +
		"Only summarize; do not give legal advice or speculate. " +
		"Output MUST contain: title; bullet points of key points; parties involved; " +
		"any explicit risks or warnings mentioned.\n\n" +
		"LANGUAGE: " + strings.ToUpper(language) + "\n" +
		"DOCUMENT:\n" +
		text
}

// Summarize produces a structured summary of a stored document or inline text.
func (s *Service) Summarize(ctx context.Context, tenantID string, req types.SummarizeRequest) (*types.SummarizeResponse, error) {
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = DefaultLanguage
	}
	if !languagePattern.MatchString(language) {
		return nil, types.NewInvalidRequest("language must be a language code such as %q", DefaultLanguage)
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
	flagged, err := s.screen(ctx, tenantID, types.FlowSummarize, text)
	if err != nil {
		return nil, err
	}

	res, reason, ok := s.complete(ctx, types.FlowSummarize, types.LLMRequest{
		Prompt:   summarizePrompt(language, text),
		TenantID: tenantID,
	})
	raw := SummaryFallbackText
	if ok {
		raw = res.RawText
	}

	resp := &types.SummarizeResponse{
		DocumentID: req.DocumentID,
		Summary:    parseSummary(raw),
		Source:     sourceOf(ok),
		Metadata:   baseMetadata(res, ok, reason, flagged),
	}
	s.audit(ctx, tenantID, types.FlowSummarize, req, resp, ok)
	return resp, nil
}

type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionKeyPoints
	sectionParties
	sectionRisks
)

var (
	// A header is a known section name, optionally as a markdown heading or in bold,
	// either alone on its line or followed by a colon and inline content.
	headerPattern = regexp.MustCompile(`(?i)^#*\s*\**\s*(title|titel|key points|keypoints|belangrijkste punten|kernpunten|parties involved|parties|partijen|betrokken partijen|risks or warnings|risks and warnings|risks\s*/\s*warnings|risks\s*&\s*warnings|risks|warnings|risico's en waarschuwingen|risico's|risico’s|waarschuwingen)\s*\**\s*(?::\s*\**\s*(.*)|)$`)
	bulletPattern = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+(.*)$`)
)

func sectionFor(name string) section {
	switch strings.ToLower(name) {
	case "title", "titel":
		return sectionTitle
	case "key points", "keypoints", "belangrijkste punten", "kernpunten":
		return sectionKeyPoints
	case "parties involved", "parties", "partijen", "betrokken partijen":
		return sectionParties
	default:
		return sectionRisks
	}
}

// parseSummary splits model output into the summary sections. Unrecognized text
// leaves the lists empty, in which case key points fall back to the text prefix.
func parseSummary(text string) types.NotarySummary {
	summary := types.NotarySummary{
		KeyPoints:       []string{},
		PartiesInvolved: []string{},
		RisksOrWarnings: []string{},
		RawSummary:      text,
	}

	current := sectionNone
	add := func(item string) {
		item = strings.TrimSpace(strings.Trim(strings.TrimSpace(item), "*"))
		if item == "" {
			return
		}
		switch current {
		case sectionTitle:
			if summary.Title == "" {
				summary.Title = item
			}
		case sectionKeyPoints:
			summary.KeyPoints = append(summary.KeyPoints, item)
		case sectionParties:
			summary.PartiesInvolved = append(summary.PartiesInvolved, item)
		case sectionRisks:
			summary.RisksOrWarnings = append(summary.RisksOrWarnings, item)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			current = sectionFor(m[1])
			add(m[2])
			continue
		}
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if current == sectionTitle {
			add(line)
		}
	}

	if summary.Title == "" {
		summary.Title = DefaultSummaryTitle
	}
	if len(summary.KeyPoints) == 0 {
		summary.KeyPoints = []string{truncateRunes(text, keyPointFallbackLength)}
	}
	return summary
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
