// package locales provides translated CLI strings loaded from embedded TOML
// tables. German is the default and the fallback for unknown locales.
package locales

import (
	"embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed *.toml
var files embed.FS

// DefaultLocale is used when no locale is configured or the requested one is
// unknown.
const DefaultLocale = "de"

// Translator resolves dot-separated keys to strings in one locale.
type Translator struct {
	locale string
	table  map[string]string
}

// Load returns a translator for the given locale, falling back to the default
// when the locale has no embedded table.
func Load(locale string) *Translator {
	if locale == "" {
		locale = DefaultLocale
	}
	table, err := loadTable(locale)
	if err != nil {
		locale = DefaultLocale
		table, err = loadTable(locale)
		if err != nil {
			panic(fmt.Sprintf("embedded default locale is broken: %v", err))
		}
	}
	return &Translator{locale: locale, table: table}
}

// Locale returns the locale this translator serves.
func (tr *Translator) Locale() string {
	return tr.locale
}

// T translates a dot-separated key, substituting {name} placeholders from the
// given key-value pairs. An unknown key is returned verbatim so missing
// translations are visible instead of silent.
func (tr *Translator) T(key string, kv ...string) string {
	value, ok := tr.table[key]
	if !ok {
		return key
	}
	for i := 0; i+1 < len(kv); i += 2 {
		value = strings.ReplaceAll(value, "{"+kv[i]+"}", kv[i+1])
	}
	return value
}

// Supported lists the locales with an embedded table.
func Supported() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	var locales []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".toml") {
			locales = append(locales, strings.TrimSuffix(name, ".toml"))
		}
	}
	return locales
}

func loadTable(locale string) (map[string]string, error) {
	data, err := files.ReadFile(locale + ".toml")
	if err != nil {
		return nil, err
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("failed to parse locale %s: %w", locale, err)
	}

	table := make(map[string]string)
	flatten("", nested, table)
	return table, nil
}

func flatten(prefix string, node map[string]any, into map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			into[full] = v
		case map[string]any:
			flatten(full, v, into)
		}
	}
}
