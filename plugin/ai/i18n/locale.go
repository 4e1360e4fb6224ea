// Package i18n provides language detection and the static display string tables.
package i18n

import (
	"strings"
	"unicode"
)

// Locale is a display language tag.
type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
	LocaleJA Locale = "ja"
)

// DefaultLocale is used when nothing else matches.
const DefaultLocale = LocaleEN

// Locales lists every supported locale in detection precedence order.
var Locales = []Locale{LocaleJA, LocaleZH, LocaleEN}

// scriptRule maps a set of unicode ranges to the locale it implies.
type scriptRule struct {
	locale Locale
	table  *unicode.RangeTable
}

// Rules are tested in order; the first rule with any matching rune wins.
var scriptRules = []scriptRule{
	{
		locale: LocaleJA,
		table: &unicode.RangeTable{
			R16: []unicode.Range16{
				{Lo: 0x3040, Hi: 0x309f, Stride: 1}, // Hiragana
				{Lo: 0x30a0, Hi: 0x30ff, Stride: 1}, // Katakana
				{Lo: 0xff66, Hi: 0xff9f, Stride: 1}, // Halfwidth Katakana
			},
		},
	},
	{
		locale: LocaleZH,
		table: &unicode.RangeTable{
			R16: []unicode.Range16{
				{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}, // CJK Unified Ideographs
			},
		},
	},
}

// Detect returns the locale of text. Mixed-script input resolves by the
// fixed precedence ja > zh > en, not by character frequency.
func Detect(text string) Locale {
	for _, rule := range scriptRules {
		if containsScript(text, rule.table) {
			return rule.locale
		}
	}
	return DefaultLocale
}

func containsScript(text string, table *unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}

// ParseLocale converts a tag such as "zh-CN", "ja_JP" or "EN" into a Locale.
// The second return value is false when the tag is not supported.
func ParseLocale(tag string) (Locale, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	switch Locale(tag) {
	case LocaleZH, LocaleEN, LocaleJA:
		return Locale(tag), true
	default:
		return DefaultLocale, false
	}
}

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	switch l {
	case LocaleZH, LocaleEN, LocaleJA:
		return true
	default:
		return false
	}
}

func (l Locale) String() string {
	return string(l)
}
