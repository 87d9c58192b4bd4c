package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
)

const (
	embedColor       = 0x5865F2
	embedLockedColor = 0x99AAB5
	maxFieldValue    = 1024
	maxDescription   = 4096
)

// EmbedLabels holds the translated strings of an announcement embed.
type EmbedLabels struct {
	When         string
	Accepted     string
	Rejected     string
	Tentative    string
	Empty        string // value of a category nobody picked
	Footer       string
	LockedFooter string
}

func (l EmbedLabels) category(r domain.Response) string {
	switch r {
	case domain.ResponseAccept:
		return l.Accepted
	case domain.ResponseReject:
		return l.Rejected
	default:
		return l.Tentative
	}
}

// BuildEventEmbed renders the announcement for the current state of event:
// the time window, then one inline field per response category.
func BuildEventEmbed(event *entities.Event, labels EmbedLabels) *discordgo.MessageEmbed {
	color, footer := embedColor, labels.Footer
	if event.Locked {
		color, footer = embedLockedColor, labels.LockedFooter
	}
	fields := []*discordgo.MessageEmbedField{{
		Name:  labels.When,
		Value: formatWindow(event),
	}}
	for _, r := range domain.Responses {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s (%d)", r.Emoji(), labels.category(r), event.Count(r)),
			Value:  FormatParticipants(event.Members(r), labels.Empty),
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title:       "📢 " + event.Name,
		Description: truncate(event.Description, maxDescription),
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

func formatWindow(event *entities.Event) string {
	if event.StartAt.IsZero() {
		return event.DateRange
	}
	return fmt.Sprintf("%s — %s\n<t:%d:R>",
		FormatEventDateTime(event.StartAt), FormatEventDateTime(event.EndAt), event.StartAt.Unix())
}

// FormatParticipants lists members as mentions, one per line, within the
// embed field limit.
func FormatParticipants(participants []entities.Participant, empty string) string {
	if len(participants) == 0 {
		return empty
	}
	mentions := lo.Map(participants, func(p entities.Participant, _ int) string {
		return fmt.Sprintf("<@%s>", p.UserID)
	})
	var b strings.Builder
	for i, m := range mentions {
		more := fmt.Sprintf("… +%d", len(mentions)-i)
		if b.Len()+len(m)+2*len("\n")+len(more) > maxFieldValue {
			b.WriteString("\n" + more)
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	limit := max - len("…")
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut] + "…"
}
