package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language a supported UI language code.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Tamil   Language = "ta"

	// BaseLanguage is consulted when the active language lacks a key.
	BaseLanguage = English
)

// Supported closed set of UI languages, in selector order.
var Supported = []Language{English, Hindi, Tamil}

// ParseLanguage accepts only supported codes.
func ParseLanguage(v string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(v)))
	for _, s := range Supported {
		if s == lang {
			return lang, true
		}
	}
	return "", false
}

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Name     string            `yaml:"name"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog one language's dictionary.
type Catalog struct {
	Language Language
	Name     string
	Messages map[string]string
}

// Bundle all loaded catalogs. Read-only after loading.
type Bundle struct {
	catalogs map[Language]*Catalog
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedLocales)
}

// LoadFromFS loads locales/*.yaml from fsys. The base language must be present.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{catalogs: map[Language]*Catalog{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, err
		}
	}

	if _, ok := b.catalogs[BaseLanguage]; !ok {
		return nil, fmt.Errorf("base language %s is not defined in catalogs", BaseLanguage)
	}
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
	lang, ok := ParseLanguage(file.Locale)
	if !ok {
		return fmt.Errorf("catalog %s: unsupported locale %q", p, file.Locale)
	}
	if string(lang) != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match file name %q", p, file.Locale, fromPath)
	}
	if _, exists := b.catalogs[lang]; exists {
		return fmt.Errorf("catalog %s: locale %q already loaded", p, lang)
	}

	messages := make(map[string]string, len(file.Messages))
	for k, v := range file.Messages {
		key := strings.TrimSpace(k)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		messages[key] = v
	}

	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = string(lang)
	}
	b.catalogs[lang] = &Catalog{Language: lang, Name: name, Messages: messages}
	return nil
}

// Lookup resolves key for lang: the lang value, then the base language
// value, then the key itself.
func (b *Bundle) Lookup(lang Language, key string) string {
	if b != nil {
		if c, ok := b.catalogs[lang]; ok {
			if v := c.Messages[key]; v != "" {
				return v
			}
		}
		if c, ok := b.catalogs[BaseLanguage]; ok {
			if v := c.Messages[key]; v != "" {
				return v
			}
		}
	}
	return key
}

// Languages loaded languages in Supported order.
func (b *Bundle) Languages() []Language {
	if b == nil {
		return nil
	}
	out := make([]Language, 0, len(b.catalogs))
	for _, lang := range Supported {
		if _, ok := b.catalogs[lang]; ok {
			out = append(out, lang)
		}
	}
	return out
}

// LanguageName native display name for lang.
func (b *Bundle) LanguageName(lang Language) string {
	if b != nil {
		if c, ok := b.catalogs[lang]; ok {
			return c.Name
		}
	}
	return string(lang)
}

// Messages the dictionary for lang merged over the base language.
func (b *Bundle) Messages(lang Language) map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	if base, ok := b.catalogs[BaseLanguage]; ok {
		for k, v := range base.Messages {
			out[k] = v
		}
	}
	if c, ok := b.catalogs[lang]; ok && lang != BaseLanguage {
		for k, v := range c.Messages {
			if v != "" {
				out[k] = v
			}
		}
	}
	return out
}
