package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// formatRegex matches Graphviz output format names, including the
// renderer/formatter suffixes dot accepts (e.g. "png:cairo:gd").
var formatRegex = regexp.MustCompile(`^[a-z0-9]+(:[a-z0-9_]+)*$`)

// ValidateFormat validates a picture format name before it is handed to a
// renderer. It is a syntactic check only; renderers decide which formats
// they actually support.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if len(format) > 64 {
		return New(ErrCodeInvalidFormat, "format too long (max 64 characters)")
	}
	if !formatRegex.MatchString(format) {
		return New(ErrCodeInvalidFormat, "invalid format: %q", format)
	}
	return nil
}

// ValidateColor validates a color name or "#rrggbb" value taken from a
// color map. Colors are written verbatim into HTML-like label attributes,
// so anything that could close the attribute or the label is rejected.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if len(color) > 64 {
		return New(ErrCodeInvalidColor, "color too long (max 64 characters)")
	}
	for _, r := range color {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidColor, "color contains invalid characters: %q", color)
		}
	}
	if strings.ContainsAny(color, `"<>&'`) {
		return New(ErrCodeInvalidColor, "color contains reserved characters: %q", color)
	}
	return nil
}

// ValidatePath validates an input or output path given on the command line
// or in the config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
