package parameter

// didYouMean returns the closest choice to value by Levenshtein distance,
// when that distance is small relative to the word length (otherwise the
// suggestion would be more confusing than helpful).
func didYouMean(value string, choices []string) (string, bool) {
	best := ""
	bestDist := -1
	for _, c := range choices {
		d := levenshtein(value, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist == -1 {
		return "", false
	}
	// A candidate is suggested when its distance is at most max(2, len/3):
	// generous enough for short words (typos in a 3-4 letter choice still
	// suggest) without matching unrelated choices for long ones.
	threshold := len(value) / 3
	if threshold < 2 {
		threshold = 2
	}
	if bestDist > threshold {
		return "", false
	}
	return best, true
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// patternExamples returns representative example values for well-known
// patterns, used to enhance PatternMismatch errors. Unknown patterns yield
// no examples rather than a guess. Email, URL, IPv4, and semver carry 2-4
// example-valid values each; the rest are patterns this codebase's own
// parameters use.
var knownPatterns = map[string][]string{
	`^[a-zA-Z0-9_-]+$`:        {"my-issue-name", "feature_123"},
	`^\d{4}-\d{2}-\d{2}$`:     {"2026-07-29"},
	`^[a-zA-Z][a-zA-Z0-9_]*$`: {"myVariable", "issue_branch"},

	// email
	`^[^\s@]+@[^\s@]+\.[^\s@]+$`:                  {"alice@example.com", "bob.jones@example.co.uk"},
	`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`: {"alice@example.com", "bob.jones@example.co.uk"},

	// URL
	`^(https?://)[^\s]+$`:        {"https://example.com/path", "http://localhost:8080"},
	`^https?://[^\s]+$`:          {"https://example.com/path", "http://localhost:8080"},

	// IPv4
	`^(\d{1,3}\.){3}\d{1,3}$`:                                 {"192.168.1.1", "10.0.0.1", "127.0.0.1"},
	`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`: {"192.168.1.1", "10.0.0.1", "127.0.0.1"},

	// semver
	`^[0-9]+\.[0-9]+\.[0-9]+$`:                        {"1.2.3", "0.1.0"},
	`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`: {"1.2.3", "2.0.0-rc.1", "1.4.2+build.7"},
}

func patternExamples(pattern string) []string {
	if examples, ok := knownPatterns[pattern]; ok {
		return examples
	}
	return nil
}

// patternDescriptions pairs each knownPatterns regex with the human-
// readable description a pattern mismatch carries alongside its example
// values. Named explicitly for email, URL, IPv4, and semver; the
// remaining in-repo patterns get a generic but still descriptive label.
var patternDescriptions = map[string]string{
	`^[a-zA-Z0-9_-]+$`:        "a name using only letters, digits, underscores, and hyphens",
	`^\d{4}-\d{2}-\d{2}$`:     "a date in YYYY-MM-DD format",
	`^[a-zA-Z][a-zA-Z0-9_]*$`: "an identifier starting with a letter",

	`^[^\s@]+@[^\s@]+\.[^\s@]+$`:                       "a valid email address",
	`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`: "a valid email address",

	`^(https?://)[^\s]+$`: "a valid URL",
	`^https?://[^\s]+$`:   "a valid URL",

	`^(\d{1,3}\.){3}\d{1,3}$`:                                 "a valid IPv4 address",
	`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`: "a valid IPv4 address",

	`^[0-9]+\.[0-9]+\.[0-9]+$`:                             "a semantic version (MAJOR.MINOR.PATCH)",
	`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`: "a semantic version (MAJOR.MINOR.PATCH, optional pre-release/build metadata)",
}

func patternDescription(pattern string) string {
	return patternDescriptions[pattern]
}
