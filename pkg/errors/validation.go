package errors

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

// maxPathLength bounds every path the storage layer accepts.
const maxPathLength = 500

// ValidatePath validates a flowchart path relative to a storage root.
// It prevents path traversal and keeps paths portable across backends.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range p {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(p, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(p, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateDir validates a directory listing prefix. Unlike [ValidatePath]
// the empty string and "." are accepted and mean the storage root.
func ValidateDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return ValidatePath(strings.TrimSuffix(dir, "/"))
}

// CleanPath validates p and returns it in canonical slash form.
func CleanPath(p string) (string, error) {
	if err := ValidatePath(p); err != nil {
		return "", err
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", New(ErrCodeInvalidPath, "path must name a file")
	}
	return clean, nil
}

var nodeIDRegex = regexp.MustCompile(`^\w+$`)

// ValidateNodeID validates a node id against the Mermaid identifier
// grammar: one or more ASCII letters, digits or underscores.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "node id cannot be empty")
	}
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid node id %q: use letters, digits and underscores only", id)
	}
	return nil
}
