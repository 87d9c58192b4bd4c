package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChannelName is used when an event name has no usable character.
const DefaultChannelName = "ctf-event"

const maxChannelNameLength = 100

var (
	channelNameStrip = regexp.MustCompile(`[^a-z0-9-]+`)
	channelNameDash  = regexp.MustCompile(`-{2,}`)
)

// ChannelName derives the private channel name from an event name: lowercase,
// whitespace runs become "-", anything outside [a-z0-9-] is dropped and
// repeated dashes collapse.
func ChannelName(eventName string) string {
	s := strings.Join(strings.Fields(strings.ToLower(eventName)), "-")
	s = channelNameStrip.ReplaceAllString(s, "")
	s = channelNameDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxChannelNameLength {
		s = strings.TrimRight(s[:maxChannelNameLength], "-")
	}
	if s == "" {
		return DefaultChannelName
	}
	return s
}

// ArchivedChannelName is the name an archived private channel is renamed to.
func ArchivedChannelName(name string) string {
	if strings.HasPrefix(name, archivedPrefix) {
		return name
	}
	return cutName(archivedPrefix+name, maxChannelNameLength)
}

const archivedPrefix = "archived-"

// cutName shortens s to at most max bytes without splitting a rune. Names
// renamed by hand in Discord may be non-ASCII.
func cutName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
