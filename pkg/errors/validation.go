package errors

import (
	"strings"
	"unicode"
)

// ValidateSourcePath validates a snapshot source path (database file or
// manifest) for safety and correctness. It rejects paths that could be used
// for traversal tricks or that contain unprintable garbage.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 500 characters
//
// Existence and readability are checked by the provider, not here.
func ValidateSourcePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "source path cannot be empty")
	}

	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "source path too long (max 500 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "source path contains invalid control characters")
		}
	}

	if strings.Contains(path, "\x00") {
		return New(ErrCodeInvalidPath, "source path contains null byte")
	}

	return nil
}

// ValidateEntityName validates an entity name coming from a manifest or an
// API payload. Names are rendering identities (they key cycle suppression),
// so embedded newlines would corrupt the document structure.
func ValidateEntityName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "entity name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "entity name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entity name contains invalid control characters")
		}
	}

	return nil
}
