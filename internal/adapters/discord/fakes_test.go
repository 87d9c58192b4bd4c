package discord

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v5"

	"ctfbot/internal/application"
	"ctfbot/internal/infrastructure/database"
	"ctfbot/internal/infrastructure/memory"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const botUserID = "bot"

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: http.StatusText(status)},
	}
}

type apiCall struct {
	method string
	args   string
}

// fakeAPI records every call. failures queues errors per method, returned
// (and consumed) before the call succeeds.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []apiCall
	failures map[string][]error
	nextID   int
	perms    int64
	channels map[string]*discordgo.Channel
	sends    map[string][]*discordgo.MessageSend
	edits    []*discordgo.MessageEdit
	created  []discordgo.GuildChannelCreateData
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		failures: map[string][]error{},
		channels: map[string]*discordgo.Channel{},
		sends:    map[string][]*discordgo.MessageSend{},
	}
}

func (f *fakeAPI) record(method string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	f.calls = append(f.calls, apiCall{method: method, args: strings.Join(parts, " ")})
	if queue := f.failures[method]; len(queue) > 0 {
		f.failures[method] = queue[1:]
		return queue[0]
	}
	return nil
}

func (f *fakeAPI) fail(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], errs...)
}

func (f *fakeAPI) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// called returns the argument strings of every call to method.
func (f *fakeAPI) called(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c.args)
		}
	}
	return out
}

func (f *fakeAPI) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err := f.record("Channel", channelID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.channels[channelID]; ok {
		return ch, nil
	}
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.record("ChannelMessageSend", channelID, content); err != nil {
		return nil, err
	}
	return &discordgo.Message{ID: f.id("msg"), ChannelID: channelID, Content: content}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.record("ChannelMessageSendComplex", channelID, data.Content); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sends[channelID] = append(f.sends[channelID], data)
	f.mu.Unlock()
	return &discordgo.Message{ID: f.id("msg"), ChannelID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageSendReply(channelID, content string, _ *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.record("ChannelMessageSendReply", channelID, content); err != nil {
		return nil, err
	}
	return &discordgo.Message{ID: f.id("msg"), ChannelID: channelID, Content: content}, nil
}

func (f *fakeAPI) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.record("ChannelMessageEditComplex", m.Channel, m.ID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.edits = append(f.edits, m)
	f.mu.Unlock()
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeAPI) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	return f.record("ChannelMessageDelete", channelID, messageID)
}

func (f *fakeAPI) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	return f.record("MessageReactionAdd", channelID, messageID, emojiID)
}

func (f *fakeAPI) MessageReactionRemove(channelID, messageID, emojiID, userID string, _ ...discordgo.RequestOption) error {
	return f.record("MessageReactionRemove", channelID, messageID, emojiID, userID)
}

func (f *fakeAPI) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err := f.record("UserChannelCreate", recipientID); err != nil {
		return nil, err
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeAPI) UserChannelPermissions(userID, channelID string, _ ...discordgo.RequestOption) (int64, error) {
	if err := f.record("UserChannelPermissions", userID, channelID); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms, nil
}

func (f *fakeAPI) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err := f.record("GuildChannelCreateComplex", guildID, data.Name); err != nil {
		return nil, err
	}
	ch := &discordgo.Channel{ID: f.id("space"), GuildID: guildID, Name: data.Name, ParentID: data.ParentID, PermissionOverwrites: data.PermissionOverwrites}
	f.mu.Lock()
	f.created = append(f.created, data)
	f.channels[ch.ID] = ch
	f.mu.Unlock()
	return ch, nil
}

func (f *fakeAPI) ChannelEdit(channelID string, data *discordgo.ChannelEdit, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err := f.record("ChannelEdit", channelID, data.Name, data.ParentID); err != nil {
		return nil, err
	}
	return &discordgo.Channel{ID: channelID, Name: data.Name, ParentID: data.ParentID}, nil
}

func (f *fakeAPI) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	return f.record("ChannelPermissionSet", channelID, targetID, targetType, allow, deny)
}

func (f *fakeAPI) ChannelPermissionDelete(channelID, targetID string, _ ...discordgo.RequestOption) error {
	return f.record("ChannelPermissionDelete", channelID, targetID)
}

// keyTranslator renders every message as its key.
// keyTranslator renders every message as its key and remembers the data.
type keyTranslator struct {
	mu   sync.Mutex
	data map[string]map[string]any
}

func (k *keyTranslator) T(_, key string, data map[string]any) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.data == nil {
		k.data = make(map[string]map[string]any)
	}
	k.data[key] = data
	return key
}

func (k *keyTranslator) last(key string) map[string]any {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.data[key]
}

type harness struct {
	api        *fakeAPI
	registry   *memory.EventRegistry
	translator *keyTranslator
	platform   *Platform
	handler    *Handler
}

func newHarness() *harness {
	api := newFakeAPI()
	registry := memory.NewEventRegistry()
	translator := &keyTranslator{}
	selfID := func() string { return botUserID }
	platform := NewPlatform(api, translator, selfID, PlatformOptions{Locale: "en", ArchiveCategoryID: "archive-cat"}, discardLogger)
	platform.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	journal := database.NoopJournal{}
	events := application.NewEventService(registry, platform, platform, platform, journal, nil, translator,
		application.EventOptions{Locale: "en", OrganizerRoleID: "organizers"}, discardLogger)
	rsvp := application.NewRSVPService(registry, platform, platform, journal, nil, discardLogger)
	handler := NewHandler(api, events, rsvp, translator, selfID, HandlerOptions{
		Prefix:         "!",
		Locale:         "en",
		GuildID:        "guild",
		AnnounceRoleID: "pingme",
		ImminentLead:   30 * time.Minute,
	}, discardLogger)
	return &harness{api: api, registry: registry, translator: translator, platform: platform, handler: handler}
}

func command(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "cmd",
		ChannelID: "announcements",
		GuildID:   "guild",
		Content:   content,
		Author:    &discordgo.User{ID: "org", Username: "org"},
		Member:    &discordgo.Member{Roles: []string{"organizers"}},
	}
}
