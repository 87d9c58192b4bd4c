package domain

// Response is a participant's RSVP category for an event.
type Response int

const (
	ResponseAccept Response = iota + 1
	ResponseReject
	ResponseTentative
)

// Responses lists every category in display order.
var Responses = []Response{ResponseAccept, ResponseReject, ResponseTentative}

const (
	EmojiAccept    = "✅"
	EmojiReject    = "❌"
	EmojiTentative = "🤔"
)

// GrantsAccess reports whether the category opens the event's private channel.
func (r Response) GrantsAccess() bool {
	return r == ResponseAccept || r == ResponseTentative
}

func (r Response) Emoji() string {
	switch r {
	case ResponseAccept:
		return EmojiAccept
	case ResponseReject:
		return EmojiReject
	case ResponseTentative:
		return EmojiTentative
	default:
		return ""
	}
}

func (r Response) String() string {
	switch r {
	case ResponseAccept:
		return "accept"
	case ResponseReject:
		return "reject"
	case ResponseTentative:
		return "tentative"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the known categories.
func (r Response) Valid() bool {
	return r >= ResponseAccept && r <= ResponseTentative
}

// ResponseFromEmoji maps a reaction emoji to its category.
func ResponseFromEmoji(emoji string) (Response, bool) {
	switch emoji {
	case EmojiAccept:
		return ResponseAccept, true
	case EmojiReject:
		return ResponseReject, true
	case EmojiTentative:
		return ResponseTentative, true
	default:
		return 0, false
	}
}
