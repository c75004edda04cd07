package injection

// Finding is the outcome of a single detection pass.
type Finding struct {
	Suspicious bool
	// Pattern is the name of the first matching rule, empty when Suspicious is false.
	Pattern  string
	Category string
}

// Scanner matches text against an ordered rule set. It holds no mutable state
// and is safe for concurrent use.
type Scanner struct {
	rules []Rule
}

// NewScanner creates a scanner with the default rules.
func NewScanner() *Scanner {
	return &Scanner{rules: DefaultRules()}
}

// NewScannerWithRules creates a scanner with a custom rule set.
func NewScannerWithRules(rules []Rule) *Scanner {
	return &Scanner{rules: rules}
}

// Detect returns the first rule matching text, in rule order.
func (s *Scanner) Detect(text string) Finding {
	for _, r := range s.rules {
		if r.Regex.MatchString(text) {
			return Finding{Suspicious: true, Pattern: r.Name, Category: r.Category}
		}
	}
	return Finding{}
}

// Matches returns the names of every rule that matches text.
func (s *Scanner) Matches(text string) []string {
	var names []string
	for _, r := range s.rules {
		if r.Regex.MatchString(text) {
			names = append(names, r.Name)
		}
	}
	return names
}
