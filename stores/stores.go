package stores

import (
	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/services"
	"github.com/heavy-duty/docstate/viewstate"
)

func named(name string, reset bool, options []viewstate.Option) []viewstate.Option {
	defaults := []viewstate.Option{viewstate.WithName(name)}
	if reset {
		defaults = append(defaults, viewstate.WithResetOnSwitch())
	}

	return append(defaults, options...)
}

// NewEventStore holds the event selected by id or by name.
func NewEventStore(api *services.EventAPI, options ...viewstate.Option) (*viewstate.Store[*domain.Event], error) {
	return viewstate.NewEntityStore(api.EventResolver(), named("event", true, options)...)
}

// NewEventsStore holds all events. It starts loading immediately.
func NewEventsStore(api *services.EventAPI, options ...viewstate.Option) (*viewstate.Store[[]domain.Event], error) {
	store, err := viewstate.NewCollectionStore(api.EventsResolver(), named("events", false, options)...)
	if err != nil {
		return nil, err
	}

	store.SetFilters(docstore.ByFields())

	return store, nil
}

func NewSeasonStore(api *services.SeasonAPI, options ...viewstate.Option) (*viewstate.Store[*domain.Season], error) {
	return viewstate.NewEntityStore(api.SeasonResolver(), named("season", false, options)...)
}

// NewSeasonsStore holds all seasons. It starts loading immediately.
func NewSeasonsStore(api *services.SeasonAPI, options ...viewstate.Option) (*viewstate.Store[[]domain.Season], error) {
	store, err := viewstate.NewCollectionStore(api.SeasonsResolver(), named("seasons", false, options)...)
	if err != nil {
		return nil, err
	}

	store.SetFilters(docstore.ByFields())

	return store, nil
}

func NewCodingChallengeStore(
	api *services.CodingChallengeAPI,
	options ...viewstate.Option,
) (*viewstate.Store[*domain.CodingChallenge], error) {

	return viewstate.NewEntityStore(api.CodingChallengeResolver(), named("coding-challenge", false, options)...)
}

// NewCodingChallengesStore holds the challenges matching its filters, typically
// services.CodingChallengeFields{Status: ...}.Filter().
func NewCodingChallengesStore(
	api *services.CodingChallengeAPI,
	options ...viewstate.Option,
) (*viewstate.Store[[]domain.CodingChallenge], error) {

	return viewstate.NewCollectionStore(api.CodingChallengesResolver(), named("coding-challenges", false, options)...)
}

func NewCodingChallengeSubmissionStore(
	api *services.CodingChallengeSubmissionAPI,
	options ...viewstate.Option,
) (*viewstate.Store[*domain.CodingChallengeSubmission], error) {

	return viewstate.NewEntityStore(api.SubmissionResolver(), named("coding-challenge-submission", false, options)...)
}

func NewCodingChallengeSubmissionsStore(
	api *services.CodingChallengeSubmissionAPI,
	options ...viewstate.Option,
) (*viewstate.Store[[]domain.CodingChallengeSubmission], error) {

	return viewstate.NewCollectionStore(api.SubmissionsResolver(), named("coding-challenge-submissions", false, options)...)
}

// NewDiscordEventStore holds the Discord event of the event selected with docstore.ByID(eventID).
func NewDiscordEventStore(
	api *services.DiscordEventAPI,
	options ...viewstate.Option,
) (*viewstate.Store[*domain.DiscordEvent], error) {

	return viewstate.NewEntityStore(api.DiscordEventResolver(), named("discord-event", true, options)...)
}

// NewDiscordChallengeStore holds the Discord challenge of the challenge selected with docstore.ByID(challengeID).
func NewDiscordChallengeStore(
	api *services.DiscordChallengeAPI,
	options ...viewstate.Option,
) (*viewstate.Store[*domain.DiscordChallenge], error) {

	return viewstate.NewEntityStore(api.DiscordChallengeResolver(), named("discord-challenge", true, options)...)
}

// NewParticipantsStore holds the participants selected with services.ParticipantsByEvent or
// services.ParticipantsByUser.
func NewParticipantsStore(
	api *services.ParticipantAPI,
	options ...viewstate.Option,
) (*viewstate.Store[[]domain.Participant], error) {

	return viewstate.NewCollectionStore(api.ParticipantsResolver(), named("participants", false, options)...)
}

func NewCodingChallengeRewardStore(
	api *services.CodingChallengeRewardAPI,
	options ...viewstate.Option,
) (*viewstate.Store[*domain.CodingChallengeReward], error) {

	return viewstate.NewEntityStore(api.RewardResolver(), named("coding-challenge-reward", false, options)...)
}
