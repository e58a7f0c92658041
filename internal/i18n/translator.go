package i18n

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var errTranslatorLocalesRequired = errors.New("i18n translator: locales dir is required")

// TranslatorDeps bundles constructor inputs for the translator.
type TranslatorDeps struct {
	LocalesDir    string
	DefaultLocale string
}

// Translator serves the opaque key to string lookup backed by per-locale YAML
// tables. Lookups fall back to the default locale and finally to the key
// itself, so a missing translation never breaks a page.
type Translator struct {
	tables        map[string]map[string]string
	defaultLocale string
	matcher       language.Matcher
	tags          []language.Tag
}

// NewTranslator loads every <locale>.yaml table from the directory.
func NewTranslator(deps TranslatorDeps) (*Translator, error) {
	if deps.LocalesDir == "" {
		return nil, errTranslatorLocalesRequired
	}
	defaultLocale := deps.DefaultLocale
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	entries, err := os.ReadDir(deps.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("i18n translator: reading locales dir: %w", err)
	}

	tables := make(map[string]map[string]string)
	var tags []language.Tag
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		locale := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("i18n translator: locale %q: %w", locale, err)
		}

		raw, err := os.ReadFile(filepath.Join(deps.LocalesDir, name))
		if err != nil {
			return nil, fmt.Errorf("i18n translator: reading %s: %w", name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("i18n translator: parsing %s: %w", name, err)
		}

		table := make(map[string]string)
		flatten("", doc, table)
		tables[tag.String()] = table
		tags = append(tags, tag)
	}

	if _, ok := tables[defaultLocale]; !ok {
		return nil, fmt.Errorf("i18n translator: default locale %q has no table", defaultLocale)
	}

	// The default locale leads the matcher so unknown locales land there.
	ordered := make([]language.Tag, 0, len(tags))
	ordered = append(ordered, language.MustParse(defaultLocale))
	for _, tag := range tags {
		if tag.String() != defaultLocale {
			ordered = append(ordered, tag)
		}
	}

	return &Translator{
		tables:        tables,
		defaultLocale: defaultLocale,
		matcher:       language.NewMatcher(ordered),
		tags:          ordered,
	}, nil
}

// Resolve maps an Accept-Language value onto a loaded locale.
func (t *Translator) Resolve(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLocale
	}
	_, index, _ := t.matcher.Match(tags...)
	return t.tags[index].String()
}

// Translate looks a key up in the locale's table, falling back to the default
// locale and finally echoing the key.
func (t *Translator) Translate(locale, key string) string {
	if table, ok := t.tables[locale]; ok {
		if value, ok := table[key]; ok {
			return value
		}
	}
	if value, ok := t.tables[t.defaultLocale][key]; ok {
		return value
	}
	return key
}

// Strings returns the full table for a locale, with default-locale entries
// filling any gaps.
func (t *Translator) Strings(locale string) map[string]string {
	merged := make(map[string]string, len(t.tables[t.defaultLocale]))
	for key, value := range t.tables[t.defaultLocale] {
		merged[key] = value
	}
	if locale != t.defaultLocale {
		for key, value := range t.tables[locale] {
			merged[key] = value
		}
	}
	return merged
}

// Locales lists the loaded locales, default first.
func (t *Translator) Locales() []string {
	locales := make([]string, len(t.tags))
	for i, tag := range t.tags {
		locales[i] = tag.String()
	}
	return locales
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
