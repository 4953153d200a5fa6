// Package i18n is the key-based translation and locale formatting utility
// every channel renders through. Language tables are data (embedded YAML),
// not code; lookup is a pure function of (key, lang, params).
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLanguage is the end of every fallback chain.
const DefaultLanguage = "en"

// SupportedLanguages, in menu order.
var SupportedLanguages = []string{"en", "sw", "fr"}

type Translator struct {
	tables map[string]map[string]string
}

// New loads all embedded locale tables.
func New() (*Translator, error) {
	t := &Translator{tables: make(map[string]map[string]string)}
	for _, lang := range SupportedLanguages {
		raw, err := localeFS.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("load locale %s: %w", lang, err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		t.tables[lang] = table
	}
	return t, nil
}

// T looks key up in lang, falling back to English, then to the key itself.
// {param} placeholders are interpolated from params.
func (t *Translator) T(key, lang string, params map[string]string) string {
	text, ok := t.lookup(key, lang)
	if !ok {
		text = key
	}
	return interpolate(text, params)
}

// N is the pluralized lookup: key.one for n==1, key.other otherwise, with
// {count} always available as a parameter.
func (t *Translator) N(key, lang string, n int, params map[string]string) string {
	suffix := ".other"
	if n == 1 {
		suffix = ".one"
	}
	if params == nil {
		params = map[string]string{}
	}
	params["count"] = fmt.Sprintf("%d", n)
	return t.T(key+suffix, lang, params)
}

// Has reports whether key exists for lang or any fallback.
func (t *Translator) Has(key, lang string) bool {
	_, ok := t.lookup(key, lang)
	return ok
}

func (t *Translator) lookup(key, lang string) (string, bool) {
	if table, ok := t.tables[lang]; ok {
		if text, ok := table[key]; ok {
			return text, true
		}
	}
	if lang != DefaultLanguage {
		if text, ok := t.tables[DefaultLanguage][key]; ok {
			return text, true
		}
	}
	return "", false
}

func interpolate(text string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(text, "{") {
		return text
	}
	for k, v := range params {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

// FormatMoney renders an amount in KES with locale-aware digit grouping.
// Fares are whole shillings on every channel; cents don't fit in 160 chars.
func (t *Translator) FormatMoney(amount float64, lang string) string {
	p := message.NewPrinter(langTag(lang))
	return p.Sprintf("KES %v", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// FormatETA renders "N min" pluralized per locale.
func (t *Translator) FormatETA(minutes int, lang string) string {
	return t.N("common.eta_minutes", lang, minutes, nil)
}

func langTag(lang string) language.Tag {
	switch lang {
	case "sw":
		return language.Swahili
	case "fr":
		return language.French
	default:
		return language.English
	}
}
