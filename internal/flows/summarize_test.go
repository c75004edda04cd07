package flows

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseSummary_Sections(t *testing.T) {
	text := `## Title
Koopakte woning Dorpsstraat 1

**Key points:**
- Verkoop van de woning voor EUR 350.000
- Levering op 1 juni 2026

Parties involved:
* A. de Vries (verkoper)
* B. Jansen (koper)

Risks/Warnings
Risks: ontbindende voorwaarde financiering
1. Boeteclausule van 10%`

	got := parseSummary(text)

	if got.Title != "Koopakte woning Dorpsstraat 1" {
		t.Errorf("Title = %q", got.Title)
	}
	wantKeys := []string{"Verkoop van de woning voor EUR 350.000", "Levering op 1 juni 2026"}
	if !reflect.DeepEqual(got.KeyPoints, wantKeys) {
		t.Errorf("KeyPoints = %q", got.KeyPoints)
	}
	wantParties := []string{"A. de Vries (verkoper)", "B. Jansen (koper)"}
	if !reflect.DeepEqual(got.PartiesInvolved, wantParties) {
		t.Errorf("PartiesInvolved = %q", got.PartiesInvolved)
	}
	wantRisks := []string{"ontbindende voorwaarde financiering", "Boeteclausule van 10%"}
	if !reflect.DeepEqual(got.RisksOrWarnings, wantRisks) {
		t.Errorf("RisksOrWarnings = %q", got.RisksOrWarnings)
	}
	if got.RawSummary != text {
		t.Error("RawSummary must be the unmodified text")
	}
}

func TestParseSummary_InlineTitle(t *testing.T) {
	got := parseSummary("Titel: Hypotheekakte\nKernpunten:\n- Lening van 200k")
	if got.Title != "Hypotheekakte" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.KeyPoints) != 1 || got.KeyPoints[0] != "Lening van 200k" {
		t.Errorf("KeyPoints = %q", got.KeyPoints)
	}
}

func TestParseSummary_ProseLineIsNotAHeader(t *testing.T) {
	got := parseSummary("Parties agree to transfer the property.")
	if len(got.PartiesInvolved) != 0 {
		t.Errorf("prose parsed as parties: %q", got.PartiesInvolved)
	}
	if got.KeyPoints[0] != "Parties agree to transfer the property." {
		t.Errorf("KeyPoints = %q", got.KeyPoints)
	}
}

func TestParseSummary_UnstructuredText(t *testing.T) {
	text := strings.Repeat("é", 250)
	got := parseSummary(text)

	if got.Title != DefaultSummaryTitle {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.KeyPoints) != 1 || utf8.RuneCountInString(got.KeyPoints[0]) != keyPointFallbackLength {
		t.Errorf("expected one %d-character key point, got %q", keyPointFallbackLength, got.KeyPoints)
	}
	if got.PartiesInvolved == nil || got.RisksOrWarnings == nil {
		t.Error("lists must be empty, not nil")
	}
}

func TestParseSummary_FallbackText(t *testing.T) {
	got := parseSummary(SummaryFallbackText)
	if len(got.KeyPoints) != 1 || got.KeyPoints[0] != truncateRunes(SummaryFallbackText, keyPointFallbackLength) {
		t.Errorf("unexpected key points %q", got.KeyPoints)
	}
	if got.Title != DefaultSummaryTitle {
		t.Errorf("Title = %q", got.Title)
	}
}
