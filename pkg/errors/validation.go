package errors

import (
	"strings"
	"unicode"
)

// Quality bounds for lossy image encoders.
const (
	MinQuality = 1
	MaxQuality = 100
)

// MaxIndent is the widest space indentation accepted for formatted output.
const MaxIndent = 10

// ValidateQuality checks that an image quality percentage is within [1, 100].
func ValidateQuality(q int) error {
	if q < MinQuality || q > MaxQuality {
		return New(ErrCodeInvalidInput, "quality must be between %d and %d, got %d", MinQuality, MaxQuality, q)
	}
	return nil
}

// ValidateIndent checks an indentation width. Zero means single-line output.
func ValidateIndent(n int) error {
	if n < 0 || n > MaxIndent {
		return New(ErrCodeInvalidInput, "indent must be between 0 and %d spaces, got %d", MaxIndent, n)
	}
	return nil
}

// ValidateFilename validates a base name used to derive output file names.
// It ensures the name is a simple basename without path components.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 255 characters
//   - No control characters or null bytes
//   - No path separators or traversal sequences
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "file name cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "file name too long (max 255 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "file name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "file name cannot contain path separators")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidInput, "file name cannot be %q", name)
	}

	return nil
}
