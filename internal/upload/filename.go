// Package upload stores receipt images attached to transactions.
package upload

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename turns an uploaded file name into a single safe path token.
// Accents are decomposed and non-ASCII is dropped, path separators and whitespace
// become underscores, anything outside [A-Za-z0-9_.-] is removed and leading or
// trailing dots and underscores are trimmed. "../../etc/passwd" becomes "etc_passwd".
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r > unicode.MaxASCII:
			return -1
		case r == '/' || r == '\\':
			return ' '
		}
		return r
	}, name)

	name = strings.Join(strings.Fields(name), "_")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '.' || r == '-':
			return r
		}
		return -1
	}, name)

	return strings.Trim(name, "._")
}

// SafeName returns the sanitized name, or a random token when nothing usable is left.
func SafeName(name string) string {
	if safe := SanitizeFilename(name); safe != "" {
		return safe
	}
	return uuid.NewString()
}

// URLPath is the public path a stored upload is served from.
func URLPath(name string) string {
	return "/uploads/" + name
}
