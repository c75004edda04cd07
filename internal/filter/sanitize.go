package filter

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/af-corp/aegis-docai/internal/filter/injection"
	"github.com/af-corp/aegis-docai/internal/filter/secrets"
	"github.com/af-corp/aegis-docai/internal/types"
)

// DefaultLogLength is the truncation length used by SanitizeForLogging callers
// that have no better bound.
const DefaultLogLength = 100

var defaultInjection = injection.NewScanner()

// DetectPromptInjection reports whether text matches a known injection pattern and,
// if so, the name of the first matching pattern.
func DetectPromptInjection(text string) (bool, string) {
	f := defaultInjection.Detect(text)
	return f.Suspicious, f.Pattern
}

// SanitizeUserInput validates text before it is embedded in a prompt. It never
// modifies the text: it is returned unchanged or rejected with a *types.ValidationError.
// maxLength counts characters, not bytes.
func SanitizeUserInput(text string, maxLength int, tenantID string, checkInjection bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &types.ValidationError{
			Reason:  types.ReasonEmptyInput,
			Message: "input cannot be empty",
		}
	}
	if n := utf8.RuneCountInString(text); n > maxLength {
		return "", &types.ValidationError{
			Reason:  types.ReasonTooLong,
			Message: fmt.Sprintf("input exceeds maximum length of %d characters", maxLength),
		}
	}
	if checkInjection {
		if f := defaultInjection.Detect(text); f.Suspicious {
			slog.Warn("prompt injection attempt rejected",
				"tenant_id", tenantID,
				"pattern", f.Pattern,
				"input", SanitizeForLogging(text, DefaultLogLength),
			)
			return "", &types.ValidationError{
				Reason:  types.ReasonPotentialInjection,
				Message: "input contains potentially malicious content",
				Pattern: f.Pattern,
			}
		}
	}
	return text, nil
}

// SanitizeForLogging redacts secrets from text and then truncates it to maxLength
// characters, appending "..." when anything was cut.
func SanitizeForLogging(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	redacted := secrets.Redact(text)
	if maxLength < 0 || utf8.RuneCountInString(redacted) <= maxLength {
		return redacted
	}
	runes := []rune(redacted)
	return string(runes[:maxLength]) + "..."
}
