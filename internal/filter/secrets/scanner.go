package secrets

import (
	"context"
	"fmt"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/types"
)

// Detection represents a detected secret in text.
type Detection struct {
	PatternName string // e.g. "AWS Access Key"
	Start       int    // byte offset
	End         int    // byte offset
}

// Scanner scans text for secrets using pre-compiled regex patterns.
type Scanner struct {
	patterns []Pattern
	cfg      func() config.SecretsFilterConfig
}

// NewScanner creates a scanner with the default secret patterns. cfg may be nil
// when the scanner is only used for redaction.
func NewScanner(cfg func() config.SecretsFilterConfig) *Scanner {
	return &Scanner{patterns: DefaultPatterns(), cfg: cfg}
}

// Scan checks a single text string for secrets and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, p := range s.patterns {
		locs := p.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				PatternName: p.Name,
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}
	return detections
}

// Redact replaces every secret in text with its pattern's placeholder.
func (s *Scanner) Redact(text string) string {
	for _, p := range s.patterns {
		text = p.Regex.ReplaceAllLiteralString(text, p.Placeholder)
	}
	return text
}

func (s *Scanner) Name() string { return "secrets" }

func (s *Scanner) Enabled() bool {
	return s.cfg != nil && s.cfg().Enabled
}

// ScanInput flags, or blocks when configured to, flow input that carries credentials.
func (s *Scanner) ScanInput(_ context.Context, in *types.FilterInput) types.FilterResult {
	detections := s.Scan(in.Text)
	if len(detections) == 0 {
		return types.FilterResult{Action: types.FilterPass, FilterName: s.Name()}
	}
	if s.cfg().Block {
		return types.FilterResult{
			Action:     types.FilterBlock,
			FilterName: s.Name(),
			Message:    fmt.Sprintf("input contains a credential (%s)", detections[0].PatternName),
			Detections: len(detections),
		}
	}
	return types.FilterResult{
		Action:     types.FilterFlag,
		FilterName: s.Name(),
		Detections: len(detections),
	}
}

var defaultScanner = NewScanner(nil)

// Redact redacts text with the default patterns.
func Redact(text string) string {
	return defaultScanner.Redact(text)
}
