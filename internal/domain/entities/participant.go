package entities

import "time"

// Participant is a member who answered an event announcement.
type Participant struct {
	UserID      string
	DisplayName string
	RespondedAt time.Time
}

// Actor is the member invoking a command.
type Actor struct {
	ID            string
	DisplayName   string
	RoleIDs       []string
	Administrator bool // holds the Administrator permission in the invoking channel
}

// CanManageEvents is the authorization predicate for announcing and archiving
// events: administrators always can, other members need the organizer role
// when one is configured.
func (a Actor) CanManageEvents(organizerRoleID string) bool {
	if a.Administrator {
		return true
	}
	if organizerRoleID == "" {
		return false
	}
	for _, id := range a.RoleIDs {
		if id == organizerRoleID {
			return true
		}
	}
	return false
}
