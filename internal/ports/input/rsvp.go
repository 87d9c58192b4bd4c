package input

import (
	"context"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
)

// RSVPOutcome describes what a response change did.
type RSVPOutcome struct {
	Tracked     bool // false when the message is not a tracked announcement
	Previous    domain.Response
	HadPrevious bool
	Current     domain.Response
	HasCurrent  bool
}

// Changed reports whether the participant's category moved.
func (o RSVPOutcome) Changed() bool {
	return o.HadPrevious != o.HasCurrent || o.Previous != o.Current
}

type RSVPUseCase interface {
	SetResponse(ctx context.Context, eventID string, p entities.Participant, r domain.Response) (RSVPOutcome, error)
	ClearResponse(ctx context.Context, eventID, userID string) (RSVPOutcome, error)
	WithdrawResponse(ctx context.Context, eventID, userID string, r domain.Response) (RSVPOutcome, error)
}
