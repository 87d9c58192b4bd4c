package i18n

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
)

func newTestTranslator() *Translator {
	return NewTranslator("en", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// messageIDs flattens a message file into dotted IDs.
func messageIDs(t *testing.T, locale string) []string {
	t.Helper()
	raw, err := localeFS.ReadFile("active." + locale + ".toml")
	require.NoError(t, err)
	var tables map[string]map[string]string
	require.NoError(t, toml.Unmarshal(raw, &tables))
	var ids []string
	for table, messages := range tables {
		for key := range messages {
			ids = append(ids, table+"."+key)
		}
	}
	return ids
}

func TestLocalesDefineTheSameKeys(t *testing.T) {
	req := require.New(t)

	en := messageIDs(t, "en")
	fr := messageIDs(t, "fr")

	req.NotEmpty(en)
	req.ElementsMatch(en, fr)
}

func TestEveryKeyResolvesInItsLocale(t *testing.T) {
	tr := newTestTranslator()
	for _, locale := range Locales {
		for _, id := range messageIDs(t, locale) {
			require.True(t, tr.Has(locale, id), "%s missing in %s", id, locale)
		}
	}
}

func TestT_RendersTemplateData(t *testing.T) {
	req := require.New(t)
	tr := newTestTranslator()

	req.Equal("📦 **DEF CON** archived.", tr.T("en", "reply.archived", map[string]any{"Name": "DEF CON"}))
	req.Equal("📦 **DEF CON** archivé.", tr.T("fr", "reply.archived", map[string]any{"Name": "DEF CON"}))
}

func TestT_LockedNoticeQuotesConfiguredLead(t *testing.T) {
	req := require.New(t)
	tr := newTestTranslator()
	data := map[string]any{"Name": "DEF CON", "Lead": "1 h"}

	req.Contains(tr.T("en", "notice.locked_dm", data), "closed 1 h before start")
	req.Contains(tr.T("fr", "notice.locked_dm", data), "ont fermé 1 h avant le début")
	req.NotContains(tr.T("en", "notice.locked_dm", data), "30 minutes")
}

func TestT_FallsBack(t *testing.T) {
	req := require.New(t)
	tr := newTestTranslator()

	req.Equal("⚠️ That event is already tracked.", tr.T("de", "errors.event_exists", nil))
	req.Equal("errors.nope", tr.T("en", "errors.nope", nil))
	req.Empty(tr.T("en", "", nil))
}
