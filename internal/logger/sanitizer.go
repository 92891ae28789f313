package logger

import (
	"fmt"
	"regexp"
	"strings"
)

// Sanitizer masks sensitive parameter values before they are logged. Values
// are matched to sensitive fields by binder name when one is known and by
// the statement text otherwise.
type Sanitizer struct {
	sensitiveFields []string
	maskValue       string
	// Compiled patterns for faster matching
	patterns []*regexp.Regexp
}

// NewSanitizer creates a new sanitizer with the specified sensitive field names.
// If no fields are provided, a default set of common sensitive field names is used.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		// Default sensitive field names (common patterns)
		sensitiveFields = []string{
			"password", "passwd", "pwd",
			"token", "api_key", "apikey", "api_token",
			"secret", "auth", "authorization",
			"credit_card", "card_number", "cvv", "cvc",
			"ssn", "social_security",
			"private_key", "priv_key",
		}
	}

	// Compile patterns for efficient matching
	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		// Match field name in SQL (case-insensitive, with word boundaries)
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(field) + `\b`)
		patterns = append(patterns, pattern)
	}

	return &Sanitizer{
		sensitiveFields: sensitiveFields,
		maskValue:       "***REDACTED***",
		patterns:        patterns,
	}
}

// MaskParams masks parameters by the statement text alone: when sql names a
// sensitive field every parameter is masked. The input slice is not modified.
func (s *Sanitizer) MaskParams(sql string, params []any) []any {
	if len(params) == 0 || !s.containsSensitivePattern(strings.ToLower(sql)) {
		return params
	}
	masked := make([]any, len(params))
	for i := range masked {
		masked[i] = s.maskValue
	}
	return masked
}

// Mask masks values of named binders by name and values of unnamed binders
// by the statement text.
func (s *Sanitizer) Mask(sql string, names []string, values []any) []any {
	masked := s.MaskNamed(names, values)
	byText := s.MaskParams(sql, values)
	for i := range masked {
		if i >= len(names) || names[i] == "" {
			masked[i] = byText[i]
		}
	}
	return masked
}

// MaskNamed masks the values whose binder name is a sensitive field. names
// and values are parallel; extra values are returned unchanged.
func (s *Sanitizer) MaskNamed(names []string, values []any) []any {
	masked := make([]any, len(values))
	copy(masked, values)
	for i := range masked {
		if i < len(names) && s.IsSensitive(names[i]) {
			masked[i] = s.maskValue
		}
	}
	return masked
}

// IsSensitive reports whether name matches a sensitive field.
func (s *Sanitizer) IsSensitive(name string) bool {
	if name == "" {
		return false
	}
	return s.containsSensitivePattern(strings.ToLower(name))
}

// containsSensitivePattern checks if SQL contains any sensitive field patterns.
func (s *Sanitizer) containsSensitivePattern(sql string) bool {
	for _, pattern := range s.patterns {
		if pattern.MatchString(sql) {
			return true
		}
	}
	return false
}

// FormatParams converts parameters to a safe string representation for logging.
// Sensitive values should be masked using MaskParams before calling this.
func (s *Sanitizer) FormatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = s.formatValue(p)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// formatValue formats a single parameter value for logging.
// Truncates very long strings to prevent log pollution.
func (s *Sanitizer) formatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	str := fmt.Sprintf("%v", v)

	// Truncate very long values
	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}

	return str
}
