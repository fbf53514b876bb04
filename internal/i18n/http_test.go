package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLanguage_QueryParamWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/reports?lang=hi", nil)
	r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "ta"})
	r.Header.Set("Accept-Language", "en-US")

	lang, persist := ResolveLanguage(r)
	assert.Equal(t, Hindi, lang)
	assert.True(t, persist)
}

func TestResolveLanguage_CookieBeforeHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "ta"})
	r.Header.Set("Accept-Language", "hi-IN")

	lang, persist := ResolveLanguage(r)
	assert.Equal(t, Tamil, lang)
	assert.False(t, persist)
}

func TestResolveLanguage_AcceptLanguage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "hi-IN,hi;q=0.9,en;q=0.5")

	lang, _ := ResolveLanguage(r)
	assert.Equal(t, Hindi, lang)
}

func TestResolveLanguage_Defaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?lang=fr", nil)
	r.Header.Set("Accept-Language", "fr-FR")

	lang, persist := ResolveLanguage(r)
	assert.Equal(t, English, lang)
	assert.False(t, persist)

	lang, _ = ResolveLanguage(nil)
	assert.Equal(t, English, lang)
}

func TestSetLanguageCookie(t *testing.T) {
	w := httptest.NewRecorder()
	SetLanguageCookie(w, Hindi)

	cookies := w.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, LangCookieName, cookies[0].Name)
		assert.Equal(t, "hi", cookies[0].Value)
		assert.Equal(t, "/", cookies[0].Path)
	}
}
