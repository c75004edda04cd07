package secrets

import "regexp"

// Pattern defines a secret detection pattern and the text that replaces a match
// when the secret is redacted.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Placeholder string
}

// DefaultPatterns returns the built-in secret patterns. Order matters for
// redaction: earlier patterns are replaced first.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:        "API Key",
			Regex:       regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
			Placeholder: "[REDACTED_API_KEY]",
		},
		{
			Name:        "Bearer Token",
			Regex:       regexp.MustCompile(`Bearer\s+[^\s"',;]+`),
			Placeholder: "Bearer [REDACTED]",
		},
		{
			Name:        "AWS Access Key",
			Regex:       regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			Placeholder: "[REDACTED_SECRET]",
		},
		{
			Name:        "GitHub Token",
			Regex:       regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
			Placeholder: "[REDACTED_SECRET]",
		},
		{
			Name:        "Stripe Secret Key",
			Regex:       regexp.MustCompile(`sk_live_[A-Za-z0-9]{24,}`),
			Placeholder: "[REDACTED_SECRET]",
		},
		{
			Name:        "Private Key",
			Regex:       regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA )?PRIVATE KEY-----`),
			Placeholder: "[REDACTED_SECRET]",
		},
		{
			Name:        "Connection String",
			Regex:       regexp.MustCompile(`(?:postgres|mysql|mongodb|redis)://[^\s]+`),
			Placeholder: "[REDACTED_DSN]",
		},
		{
			Name:        "JWT Token",
			Regex:       regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`),
			Placeholder: "[REDACTED_SECRET]",
		},
	}
}
