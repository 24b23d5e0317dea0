package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// conditionNameRegex matches condition names usable as settings table keys.
var conditionNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateConditionName validates a condition name from a settings file or
// the command line.
//
// The rules are:
//   - No empty names
//   - No control characters
//   - Letters, digits, '_' and '-' only, starting with a letter
//   - Maximum length of 64 characters
func ValidateConditionName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "condition name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "condition name too long (max 64 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "condition name contains invalid control characters")
		}
	}

	if !conditionNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid condition name: %q", name)
	}

	return nil
}

// ValidateOutputPath validates a file path the CLI is about to write
// (frame images, timelines, event logs).
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "output path contains a null byte")
	}

	clean := filepath.Clean(path)
	if clean == "." || strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidPath, "output path must name a file: %q", path)
	}

	return nil
}

// ValidateKeyName validates a key identifier used for the scanner trigger or
// the abort key. Key names follow the terminal convention ("t", "q", "ctrl+c").
func ValidateKeyName(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "key name cannot be empty")
	}
	if strings.ContainsAny(key, " \t\n") {
		return New(ErrCodeInvalidInput, "key name cannot contain whitespace: %q", key)
	}
	return nil
}
