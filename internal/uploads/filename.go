package uploads

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidExtension is returned for uploads that are not jpg, jpeg or png.
var ErrInvalidExtension = errors.New("file must be a jpg, jpeg or png image")

// AllowedExtensions lists the accepted image extensions, without the dot.
var AllowedExtensions = []string{"jpg", "jpeg", "png"}

const fallbackName = "upload"

// ValidateExtension checks the extension of an uploaded filename case-insensitively.
func ValidateExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return ErrInvalidExtension
}

// SanitizeFilename reduces a client supplied filename to a safe ASCII basename.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			b.WriteRune(r)
		}
	}

	name = strings.Join(strings.Fields(b.String()), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return fallbackName
	}
	return name
}
