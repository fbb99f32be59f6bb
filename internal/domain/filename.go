package domain

import (
	"strings"
	"time"
	"unicode"
)

// AttachmentTimeLayout prefixes stored attachment names.
const AttachmentTimeLayout = "20060102-150405"

// SanitizeFilename reduces an uploaded filename to a safe basename made of
// ASCII letters, digits, '.', '-' and '_'. Whitespace becomes '_' and leading
// dots and underscores are stripped. The result may be empty.
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r == '.' || r == '-' || r == '_' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'):
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// AttachmentName builds the stored name for an upload received at t.
// It returns "" when the sanitized name is empty.
func AttachmentName(t time.Time, original string) string {
	clean := SanitizeFilename(original)
	if clean == "" {
		return ""
	}
	return t.Format(AttachmentTimeLayout) + "_" + clean
}
