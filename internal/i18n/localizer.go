package i18n

// Localizer the active language bound to a bundle. It is passed down
// explicitly to renderers instead of living in a package-level variable.
type Localizer struct {
	bundle *Bundle
	lang   Language
}

// NewLocalizer falls back to the base language for unsupported codes.
func NewLocalizer(bundle *Bundle, lang Language) Localizer {
	if _, ok := ParseLanguage(string(lang)); !ok {
		lang = BaseLanguage
	}
	return Localizer{bundle: bundle, lang: lang}
}

func (l Localizer) Language() Language { return l.lang }

// T looks up key with fallback; always returns a displayable string.
func (l Localizer) T(key string) string {
	return l.bundle.Lookup(l.lang, key)
}

// LanguageOption an entry in the language selector.
type LanguageOption struct {
	Code   Language
	Name   string
	Active bool
}

// Options selector entries with the active language marked.
func (l Localizer) Options() []LanguageOption {
	langs := l.bundle.Languages()
	out := make([]LanguageOption, 0, len(langs))
	for _, lang := range langs {
		out = append(out, LanguageOption{
			Code:   lang,
			Name:   l.bundle.LanguageName(lang),
			Active: lang == l.lang,
		})
	}
	return out
}
