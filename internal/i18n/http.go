package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam query parameter that switches the language.
	LangParam = "lang"
	// LangCookieName stores the session's language choice.
	LangCookieName = "netra_lang"
)

var matcher = language.NewMatcher(supportedTags())

func supportedTags() []language.Tag {
	tags := make([]language.Tag, 0, len(Supported))
	for _, l := range Supported {
		tags = append(tags, language.Make(string(l)))
	}
	return tags
}

// ResolveLanguage picks the request language: query param, cookie,
// Accept-Language, base language. The bool reports whether the choice came
// from the query param and should be persisted.
func ResolveLanguage(r *http.Request) (Language, bool) {
	if r == nil {
		return BaseLanguage, false
	}

	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if lang, ok := ParseLanguage(v); ok {
			return lang, true
		}
	}

	if c, err := r.Cookie(LangCookieName); err == nil {
		if lang, ok := ParseLanguage(c.Value); ok {
			return lang, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if lang, ok := MatchAcceptLanguage(accept); ok {
			return lang, false
		}
	}

	return BaseLanguage, false
}

// MatchAcceptLanguage matches an Accept-Language header against Supported.
func MatchAcceptLanguage(accept string) (Language, bool) {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(Supported) {
		return "", false
	}
	return Supported[idx], true
}

// SetLanguageCookie persists the language choice for the session.
func SetLanguageCookie(w http.ResponseWriter, lang Language) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
