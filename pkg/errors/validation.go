package errors

import (
	"strings"
	"unicode"
)

// ValidateName validates a person's first name.
// It rejects names that are blank after trimming or contain control characters.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of 200 characters
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeMissingName, "first name is required")
	}

	if len(name) > 200 {
		return New(ErrCodeInvalidInput, "name too long (max 200 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}

	return nil
}

// ValidateID validates an entity identifier supplied by a caller.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if strings.ContainsAny(id, "\x00\n\r") {
		return New(ErrCodeInvalidInput, "id contains invalid characters")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	return nil
}

// ValidateTag validates a single person tag.
func ValidateTag(tag string) error {
	if tag == "" {
		return New(ErrCodeInvalidInput, "tag cannot be empty")
	}
	if len(tag) > 64 {
		return New(ErrCodeInvalidInput, "tag too long (max 64 characters): %q", tag)
	}
	if strings.ContainsAny(tag, ",\n") {
		return New(ErrCodeInvalidInput, "tag contains a separator: %q", tag)
	}
	return nil
}
