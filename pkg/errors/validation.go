package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidatePath validates a dump path relative to a served root directory.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateDumpPath validates a served dump path and additionally requires the
// .bgv extension so the server never opens arbitrary files under its root.
func ValidateDumpPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), ".bgv") {
		return New(ErrCodeInvalidPath, "not a .bgv file: %q", path)
	}
	return nil
}

// ValidateOptionKey checks that an annotator option key is a plain
// identifier (letters, digits, underscores).
func ValidateOptionKey(key string) error {
	if key == "" {
		return New(ErrCodeConfiguration, "option key cannot be empty")
	}
	for _, r := range key {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return New(ErrCodeConfiguration, "invalid option key %q", key)
		}
	}
	return nil
}
