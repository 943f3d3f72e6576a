package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Locale codes ที่ระบบรองรับ
const (
	LocaleEN = "en"
	LocaleDE = "de"
	LocaleFR = "fr"

	// FallbackLocale ถูก guarantee ว่ามี translation เสมอ
	FallbackLocale = LocaleEN
)

// SupportedLocales ordered for deterministic iteration (search clauses, validation)
var SupportedLocales = []string{LocaleEN, LocaleDE, LocaleFR}

// IsSupported ตรวจสอบว่า locale code อยู่ใน supported set
func IsSupported(code string) bool {
	for _, l := range SupportedLocales {
		if l == code {
			return true
		}
	}
	return false
}

// Normalize lowercases a candidate, strips any region/script subtag ("de-AT" -> "de")
// and reports whether the result is a supported locale. Unsupported candidates are
// treated as absent, not as errors.
func Normalize(candidate string) (string, bool) {
	code := strings.ToLower(strings.TrimSpace(candidate))
	if code == "" {
		return "", false
	}
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if !IsSupported(code) {
		return "", false
	}
	return code, true
}

// ParseAcceptLanguage parses an Accept-Language header into supported locale codes,
// ordered by descending quality. Malformed headers yield an empty list.
func ParseAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}

	// tags มาเรียงตาม q แล้ว
	var locales []string
	seen := map[string]bool{}
	for _, tag := range tags {
		base, _ := tag.Base()
		code, ok := Normalize(base.String())
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		locales = append(locales, code)
	}
	return locales
}

type contextKey string

const localeKey contextKey = "locale"

// WithLocale ใส่ resolved locale ลงใน context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, locale)
}

// FromContext returns the resolved locale for the request, or the fallback
// locale when resolution never ran (background jobs, tests).
func FromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey).(string); ok && IsSupported(locale) {
		return locale
	}
	return FallbackLocale
}
