package services

import (
	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

// ParticipantsByEvent selects the participants of one event.
func ParticipantsByEvent(eventID string) *docstore.Filter {
	return docstore.ByFields(docstore.F("eventId", eventID))
}

// ParticipantsByUser selects the participations of one user.
func ParticipantsByUser(userID string) *docstore.Filter {
	return docstore.ByFields(docstore.F("userId", userID))
}

// ParticipantAPI reads the "event-participants" collection.
type ParticipantAPI struct {
	participants *livequery.CollectionResolver[domain.Participant]
}

func NewParticipantAPI(client docstore.Reader) *ParticipantAPI {
	return &ParticipantAPI{
		participants: livequery.NewCollectionResolver(client, EventParticipantsCollection, domain.ToParticipant),
	}
}

// GetParticipants watches the participants selected by ParticipantsByEvent or ParticipantsByUser.
func (api *ParticipantAPI) GetParticipants(filter *docstore.Filter) *livequery.LiveQuery[[]domain.Participant] {
	return api.participants.Resolve(filter)
}

func (api *ParticipantAPI) ParticipantsResolver() *livequery.CollectionResolver[domain.Participant] {
	return api.participants
}
