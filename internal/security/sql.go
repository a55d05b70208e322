// Package security provides identifier and slug helpers for FoxOps
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidIdentifierRegex allows lowercase letters, digits, and underscores,
// starting with a letter or underscore
var ValidIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// ValidateFieldKey checks a stored field key: identifier charset, at most
// maxLen characters. Keys are row values, so SQL keywords are allowed.
func ValidateFieldKey(key string, maxLen int) error {
	if key == "" {
		return fmt.Errorf("field key cannot be empty")
	}
	if len(key) > maxLen {
		return fmt.Errorf("field key too long (max %d characters)", maxLen)
	}
	if !ValidIdentifierRegex.MatchString(key) {
		return fmt.Errorf("invalid field key: must contain only lowercase letters, numbers, and underscores, starting with a letter or underscore")
	}
	return nil
}

// Slugify lowercases s, collapses every run of non-alphanumerics into sep
// and strips leading/trailing separators. "Site Manager!" -> "site_manager".
func Slugify(s, sep string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(s), sep)
	return strings.Trim(slug, sep)
}

// EscapeLikePattern escapes special characters in LIKE patterns
func EscapeLikePattern(pattern string) string {
	// Escape the special characters used in SQL LIKE: %, _, and \
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
