package services

import (
	"context"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

// DiscordEventAPI requests Discord event transitions. Documents are keyed by event ID; a bot
// performs the transitions and writes back the final status.
type DiscordEventAPI struct {
	client       docstore.Client
	discordEvent *livequery.EntityResolver[domain.DiscordEvent]
}

func NewDiscordEventAPI(client docstore.Client) *DiscordEventAPI {
	return &DiscordEventAPI{
		client:       client,
		discordEvent: livequery.NewEntityResolver(client, DiscordEventsCollection, domain.ToDiscordEvent),
	}
}

func (api *DiscordEventAPI) CreateDiscordEvent(ctx context.Context, eventID string) error {
	return api.client.Set(ctx, docstore.Doc(DiscordEventsCollection, eventID), docstore.Fields{
		"status":    string(domain.DiscordEventStatusCreating),
		"createdAt": docstore.ServerTimestamp,
	})
}

func (api *DiscordEventAPI) CancelDiscordEvent(ctx context.Context, eventID string) error {
	return api.setStatus(ctx, eventID, domain.DiscordEventStatusCancelling)
}

func (api *DiscordEventAPI) StartDiscordEvent(ctx context.Context, eventID string) error {
	return api.setStatus(ctx, eventID, domain.DiscordEventStatusStarting)
}

func (api *DiscordEventAPI) EndDiscordEvent(ctx context.Context, eventID string) error {
	return api.setStatus(ctx, eventID, domain.DiscordEventStatusEnding)
}

func (api *DiscordEventAPI) setStatus(ctx context.Context, eventID string, status domain.DiscordEventStatus) error {
	return api.client.Update(ctx, docstore.Doc(DiscordEventsCollection, eventID), docstore.Fields{
		"status": string(status),
	})
}

// GetDiscordEvent watches the Discord event of eventID; nil while none exists.
func (api *DiscordEventAPI) GetDiscordEvent(eventID string) *livequery.LiveQuery[*domain.DiscordEvent] {
	return api.discordEvent.Resolve(docstore.ByID(eventID))
}

func (api *DiscordEventAPI) DiscordEventResolver() *livequery.EntityResolver[domain.DiscordEvent] {
	return api.discordEvent
}

// DiscordChallengeAPI requests Discord challenge transitions, keyed by coding challenge ID.
type DiscordChallengeAPI struct {
	client           docstore.Client
	discordChallenge *livequery.EntityResolver[domain.DiscordChallenge]
}

func NewDiscordChallengeAPI(client docstore.Client) *DiscordChallengeAPI {
	return &DiscordChallengeAPI{
		client:           client,
		discordChallenge: livequery.NewEntityResolver(client, DiscordChallengesCollection, domain.ToDiscordChallenge),
	}
}

func (api *DiscordChallengeAPI) CreateDiscordChallenge(ctx context.Context, challengeID string) error {
	return api.client.Set(ctx, docstore.Doc(DiscordChallengesCollection, challengeID), docstore.Fields{
		"status":    string(domain.DiscordChallengeStatusCreating),
		"createdAt": docstore.ServerTimestamp,
	})
}

func (api *DiscordChallengeAPI) StopDiscordChallenge(ctx context.Context, challengeID string) error {
	return api.client.Update(ctx, docstore.Doc(DiscordChallengesCollection, challengeID), docstore.Fields{
		"status": string(domain.DiscordChallengeStatusStopping),
	})
}

// GetDiscordChallenge watches the Discord challenge of challengeID; nil while none exists.
func (api *DiscordChallengeAPI) GetDiscordChallenge(challengeID string) *livequery.LiveQuery[*domain.DiscordChallenge] {
	return api.discordChallenge.Resolve(docstore.ByID(challengeID))
}

func (api *DiscordChallengeAPI) DiscordChallengeResolver() *livequery.EntityResolver[domain.DiscordChallenge] {
	return api.discordChallenge
}
