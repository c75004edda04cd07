package injection

import "regexp"

// Rule defines a prompt injection detection pattern.
type Rule struct {
	Name     string
	Regex    *regexp.Regexp
	Category string // "instruction_override", "role_spoofing", "delimiter_injection"
}

// DefaultRules returns the built-in injection rules in evaluation order.
// Detection reports the first rule that matches.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "ignore_previous_instructions",
			Regex:    regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?(previous|prior|above|earlier)\s+(instructions|prompts?|rules)`),
			Category: "instruction_override",
		},
		{
			Name:     "disregard_above",
			Regex:    regexp.MustCompile(`(?i)disregard\s+(all\s+)?(of\s+)?(the\s+)?(above|previous|prior|earlier)`),
			Category: "instruction_override",
		},
		{
			Name:     "system_role_prefix",
			Regex:    regexp.MustCompile(`(?im)^\s*system\s*:`),
			Category: "role_spoofing",
		},
		{
			Name:     "assistant_role_prefix",
			Regex:    regexp.MustCompile(`(?im)^\s*assistant\s*:`),
			Category: "role_spoofing",
		},
		{
			Name:     "inst_markers",
			Regex:    regexp.MustCompile(`(?i)\[/?INST\]`),
			Category: "delimiter_injection",
		},
		{
			Name:     "code_block_system",
			Regex:    regexp.MustCompile("(?i)```system"),
			Category: "role_spoofing",
		},
		{
			Name:     "developer_mode",
			Regex:    regexp.MustCompile(`(?i)(developer|debug|admin|root)\s+mode\s+(enabled|activated|on)`),
			Category: "role_spoofing",
		},
		{
			Name:     "do_anything_now",
			Regex:    regexp.MustCompile(`(?i)\bdo\s+anything\s+now\b`),
			Category: "role_spoofing",
		},
	}
}
