// Package i18n provides the translated text lookup used by the pages.
// Catalogs are embedded TOML files keyed by the English source string.
package i18n

import (
	"embed"
	"fmt"
	"path"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

type catalog struct {
	Lang     string            `toml:"lang"`
	Messages map[string]string `toml:"messages"`
}

// Bundle holds every loaded catalog and picks one per request.
type Bundle struct {
	catalogs []*catalog
	tags     []language.Tag
	matcher  language.Matcher
}

// Load reads the embedded catalogs. defaultLang is used when nothing the
// caller asks for is available; it must be one of the bundled languages.
func Load(defaultLang string) (*Bundle, error) {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: reading locales: %w", err)
	}

	b := &Bundle{}
	def := -1
	for _, entry := range entries {
		data, err := locales.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: reading %s: %w", entry.Name(), err)
		}

		var c catalog
		if err := toml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("i18n: parsing %s: %w", entry.Name(), err)
		}
		tag, err := language.Parse(c.Lang)
		if err != nil {
			return nil, fmt.Errorf("i18n: %s: invalid lang %q: %w", entry.Name(), c.Lang, err)
		}

		if c.Lang == defaultLang {
			def = len(b.catalogs)
		}
		b.catalogs = append(b.catalogs, &c)
		b.tags = append(b.tags, tag)
	}

	if def < 0 {
		return nil, fmt.Errorf("i18n: default language %q not bundled", defaultLang)
	}

	// The matcher falls back to its first tag.
	b.catalogs[0], b.catalogs[def] = b.catalogs[def], b.catalogs[0]
	b.tags[0], b.tags[def] = b.tags[def], b.tags[0]
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Languages returns the bundled language codes, default first.
func (b *Bundle) Languages() []string {
	out := make([]string, len(b.catalogs))
	for i, c := range b.catalogs {
		out[i] = c.Lang
	}
	return out
}

// Match picks a catalog. An explicit choice (query parameter or cookie) wins
// over the Accept-Language header.
func (b *Bundle) Match(explicit, acceptLanguage string) Translator {
	var wanted []language.Tag
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		wanted = append(wanted, tags...)
	}

	_, idx, _ := b.matcher.Match(wanted...)
	return Translator{catalog: b.catalogs[idx]}
}

// Default returns the default catalog.
func (b *Bundle) Default() Translator {
	return Translator{catalog: b.catalogs[0]}
}

// Translator looks up strings in one catalog.
type Translator struct {
	catalog *catalog
}

// T returns the translation of key, or key itself when missing.
func (t Translator) T(key string) string {
	if t.catalog != nil {
		if msg, ok := t.catalog.Messages[key]; ok {
			return msg
		}
	}
	return key
}

// Lang returns the catalog's language code.
func (t Translator) Lang() string {
	if t.catalog == nil {
		return ""
	}
	return t.catalog.Lang
}
