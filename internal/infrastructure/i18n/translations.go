package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"ctfbot/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

// Locales lists the embedded message files.
var Locales = []string{"en", "fr"}

var _ output.T = (*Translator)(nil)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	log             *slog.Logger
}

// NewTranslator builds a Translator backed by go-i18n using the given default
// locale (e.g. "fr"). Unknown locales fall back to English.
func NewTranslator(defaultLocale string, log *slog.Logger) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, locale := range Locales {
		file := "active." + locale + ".toml"
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Error("❌ i18n: failed to load message file", "file", file, "err", err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		log:             log,
	}
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.log.Warn("i18n: localize failed", "key", key, "locales", languages, "err", err)
		return key
	}
	return msg
}

// Has reports whether key is defined for locale itself, without fallback.
func (t *Translator) Has(locale, key string) bool {
	localizer := i18n.NewLocalizer(t.bundle, locale)
	_, tag, err := localizer.LocalizeWithTag(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	want, _ := language.Make(locale).Base()
	return base == want
}
