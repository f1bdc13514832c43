// Package sanitize normalizes error text before it is persisted or exposed.
// Every error message that reaches a run row or an API response passes
// through Error; nothing else in the codebase formats raw errors for users.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxLength bounds sanitized messages unless the caller overrides it.
const DefaultMaxLength = 1024

// pathPlaceholder replaces anything that looks like a filesystem path.
const pathPlaceholder = "[path]"

// truncationMarker is appended when a message is cut at the length bound.
const truncationMarker = "..."

// maskPattern matches URLs and filesystem paths in a single pass. URLs are
// the first alternative so a path pattern can never match inside one; the
// replacement keeps URL matches verbatim. Path matches require two or more
// segments under a home/tmp/var or Windows-drive prefix.
var maskPattern = regexp.MustCompile(
	`(https?://\S+)` +
		`|(?:/home|/tmp|/var|/Users)(?:[/\\][\w.+~-]+)+` +
		`|[A-Za-z]:[/\\][\w.+~-]+(?:[/\\][\w.+~-]+)+`,
)

// Option adjusts sanitization behavior.
type Option func(*options)

type options struct {
	prefix    string
	maxLength int
}

// WithPrefix prepends a context label, composed as "prefix: message".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithMaxLength overrides the output length bound.
func WithMaxLength(n int) Option {
	return func(o *options) {
		o.maxLength = n
	}
}

// Error normalizes err into a bounded, path-redacted, control-character-free
// string. Passes apply in order: UTF-8 coercion, control-character
// stripping, URL-aware path masking, trimming, composition with the prefix
// and the error's Go type name, and finally truncation to the length bound.
func Error(err error, opts ...Option) string {
	o := options{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(&o)
	}

	msg := ""
	typeName := ""
	if err != nil {
		msg = err.Error()
		typeName = fmt.Sprintf("%T", err)
	}

	msg = strings.ToValidUTF8(msg, "�")
	msg = stripControl(msg)
	msg = maskPaths(msg)
	msg = strings.TrimSpace(msg)

	out := compose(o.prefix, msg, typeName)
	return truncate(out, o.maxLength)
}

// stripControl removes control characters except newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// maskPaths replaces filesystem-path-looking substrings with a fixed
// placeholder while leaving http(s) URLs untouched.
func maskPaths(s string) string {
	return maskPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "http://") || strings.HasPrefix(match, "https://") {
			return match
		}
		return pathPlaceholder
	})
}

// compose assembles "prefix: msg (TypeName)", omitting empty parts.
func compose(prefix, msg, typeName string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		if msg != "" || typeName != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(msg)
	if typeName != "" {
		if msg != "" {
			b.WriteString(" ")
		}
		b.WriteString("(" + typeName + ")")
	}
	return b.String()
}

// truncate cuts s to max bytes at a rune boundary, appending the truncation
// marker only if it fits within the bound.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	if cut > len(truncationMarker) {
		cut = max - len(truncationMarker)
	}
	// Back up to a rune boundary so the cut never splits a character.
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	out := s[:cut]
	if len(out)+len(truncationMarker) <= max {
		out += truncationMarker
	}
	return out
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
