package logging

import (
	"regexp"
)

// Sanitizer redacts sensitive information from log messages.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// Player connection addresses, e.g. "Steve[/203.0.113.7:51234] logged in"
		`\b(?:\d{1,3}\.){3}\d{1,3}(?::\d{1,5})?\b`,
		// Bracketed IPv6 endpoints; "[12:34:56]" timestamps must not match
		`\[[0-9a-fA-F:]*::[0-9a-fA-F:]*\](?::\d{1,5})?`,
		`\[(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\](?::\d{1,5})?`,
		// rcon.password=... from server.properties
		`(?i)rcon[._-]?password["'\s:=]+[^\s"']+`,
		// Generic passwords
		`(?i)password["'\s:=]+[^\s"']{8,}`,
		// Generic tokens and secrets
		`(?i)(?:token|secret)["'\s:=]+[a-zA-Z0-9_-]{20,}`,
		// Discord webhook URLs sometimes pasted into chat relays
		`https://(?:ptb\.|canary\.)?discord(?:app)?\.com/api/webhooks/\S+`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

// SetRedactedPlaceholder sets the placeholder text for redacted content.
func (s *Sanitizer) SetRedactedPlaceholder(placeholder string) {
	s.redacted = placeholder
}
