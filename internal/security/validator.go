// Package security checks the trusted SQL fragments and bound values that
// reach a translated statement.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrDangerousFragment is returned for a fragment matching an injection
	// pattern.
	ErrDangerousFragment = errors.New("security: dangerous SQL fragment")
	// ErrSuspiciousParam is returned for a parameter value that carries SQL.
	ErrSuspiciousParam = errors.New("security: suspicious parameter value")
)

// Validator validates raw fragments and parameters against dangerous patterns.
type Validator struct {
	patterns []*regexp.Regexp
	strict   bool
}

// ValidatorOption configures the Validator.
type ValidatorOption func(*Validator)

// WithStrict enables strict validation mode (more aggressive).
func WithStrict(strict bool) ValidatorOption {
	return func(v *Validator) {
		v.strict = strict
	}
}

// WithPatterns adds patterns to the default set. Patterns are matched
// against the upper-cased fragment; invalid patterns are skipped.
func WithPatterns(patterns ...string) ValidatorOption {
	return func(v *Validator) {
		v.patterns = append(v.patterns, compilePatterns(patterns)...)
	}
}

// NewValidator creates a validator with the default dangerous patterns.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		patterns: compilePatterns(dangerousPatterns),
		strict:   false,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.strict {
		v.patterns = append(v.patterns, compilePatterns(strictPatterns)...)
	}

	return v
}

// Strict reports whether strict mode is on.
func (v *Validator) Strict() bool { return v.strict }

// dangerousPatterns are injection patterns no fragment legitimately needs.
var dangerousPatterns = []string{
	// Comments
	`--`,
	`/\*`,
	`\*/`,
	`#[\s]`,

	// Stacked statements
	`;`,

	// UNION-based attacks
	`UNION\s+ALL\s+SELECT`,
	`UNION\s+SELECT`,

	// Command execution and dynamic SQL
	`XP_CMDSHELL`,
	`\bEXEC\s*\(`,
	`\bEXECUTE\s*\(`,
	`SP_EXECUTESQL`,
	`\bEXEC\s+XP_`,
	`\bEXEC\s+SP_`,

	// Metadata and timing
	`INFORMATION_SCHEMA`,
	`PG_SLEEP\s*\(`,
	`BENCHMARK\s*\(`,
	`WAITFOR\s+DELAY`,
	`DBMS_LOCK\.SLEEP`,

	// Tautologies
	`\s+OR\s+1\s*=\s*1\b`,
	`\s+OR\s+'1'\s*=\s*'1'`,
	`\s+AND\s+1\s*=\s*0\b`,
}

// strictPatterns may reject legitimate fragments.
var strictPatterns = []string{
	`\bOR\b`,
	`\bUNION\b`,
	`\bEXEC\b`,
	`\bEXECUTE\b`,
	`\bSELECT\b`,
}

// ValidateFragment checks a raw SQL fragment or optimizer hint before it is
// spliced into a statement. Fragments must also keep string literals
// balanced.
func (v *Validator) ValidateFragment(fragment string) error {
	if strings.Count(fragment, "'")%2 != 0 {
		return fmt.Errorf("%w: unbalanced quote in %q", ErrDangerousFragment, fragment)
	}
	normalized := strings.ToUpper(fragment)
	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return fmt.Errorf("%w: %q matches %s", ErrDangerousFragment, fragment, pattern)
		}
	}
	return nil
}

// ValidateParams checks string parameters for injection payloads. Values
// are always bound, so this only runs in strict mode.
func (v *Validator) ValidateParams(params []any) error {
	if !v.strict {
		return nil
	}
	for i, param := range params {
		str, ok := param.(string)
		if !ok {
			continue
		}
		if containsSQLInjection(str) {
			return fmt.Errorf("%w at index %d", ErrSuspiciousParam, i)
		}
	}
	return nil
}

// containsSQLInjection checks if a string parameter contains SQL injection patterns.
func containsSQLInjection(value string) bool {
	indicators := []string{
		"'--",
		"';",
		"' OR ",
		"' AND ",
		"/*",
		"*/",
		"' UNION ",
		"' DROP ",
		"XP_",
	}

	upper := strings.ToUpper(value)
	for _, indicator := range indicators {
		if strings.Contains(upper, indicator) {
			return true
		}
	}

	return false
}

// compilePatterns compiles string patterns to regexp.Regexp.
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}
