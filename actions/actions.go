package actions

import (
	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/mutation"
	"github.com/heavy-duty/docstate/services"
)

const PermissionDenied = "Permission denied."

const (
	FallbackCreateEvent                     = "Unknown error creating event."
	FallbackDeleteEvent                     = "Unknown error deleting event."
	FallbackUpdateEventInfo                 = "Unknown error updating event info."
	FallbackCreateDiscordChallenge          = "Unknown error creating discord challenge."
	FallbackUpdateCodingChallenge           = "Unknown error updating coding challenge."
	FallbackUpdateCodingChallengeReward     = "Unknown error updating reward."
	FallbackDeleteCodingChallenge           = "Unknown error deleting coding challenge."
	FallbackCreateCodingChallenge           = "Unknown error creating coding challenge."
	FallbackCreateSeason                    = "Unknown error creating season."
	FallbackUpdateSeason                    = "Unknown error updating season."
	FallbackDeleteSeason                    = "Unknown error deleting season."
	FallbackReviewCodingChallengeSubmission = "Unknown error reviewing submission."
	FallbackCreateDiscordEvent              = "Unknown error creating discord event."
	FallbackCancelDiscordEvent              = "Unknown error cancelling discord event."
)

func guarded(fallback string) mutation.Classifier {
	return mutation.NewClassifier(fallback, map[docstore.Code]string{
		docstore.CodePermissionDenied: PermissionDenied,
	})
}

func unguarded(fallback string) mutation.Classifier {
	return mutation.NewClassifier(fallback, nil)
}

/***** events *****/

func NewCreateEvent(
	api *services.EventAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.CreateEventPayload], error) {

	return mutation.NewRunner("create_event", api.CreateEvent, guarded(FallbackCreateEvent), options...)
}

func NewDeleteEvent(
	api *services.EventAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.DeleteEventPayload], error) {

	return mutation.NewRunner("delete_event", api.DeleteEvent, guarded(FallbackDeleteEvent), options...)
}

func NewUpdateEventInfo(
	api *services.EventAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.UpdateEventInfoPayload], error) {

	return mutation.NewRunner("update_event_info", api.UpdateEventInfo, guarded(FallbackUpdateEventInfo), options...)
}

/***** discord *****/

// NewCreateDiscordEvent runs DiscordEventAPI.CreateDiscordEvent with an event id payload.
func NewCreateDiscordEvent(api *services.DiscordEventAPI, options ...mutation.Option) (*mutation.Runner[string], error) {
	return mutation.NewRunner("create_discord_event", api.CreateDiscordEvent, guarded(FallbackCreateDiscordEvent), options...)
}

func NewCancelDiscordEvent(api *services.DiscordEventAPI, options ...mutation.Option) (*mutation.Runner[string], error) {
	return mutation.NewRunner("cancel_discord_event", api.CancelDiscordEvent, guarded(FallbackCancelDiscordEvent), options...)
}

// NewCreateDiscordChallenge runs DiscordChallengeAPI.CreateDiscordChallenge with a challenge id payload.
func NewCreateDiscordChallenge(api *services.DiscordChallengeAPI, options ...mutation.Option) (*mutation.Runner[string], error) {
	return mutation.NewRunner(
		"create_discord_challenge",
		api.CreateDiscordChallenge,
		guarded(FallbackCreateDiscordChallenge),
		options...,
	)
}

// NewStopDiscordChallenge shares its fallback sentence with NewCreateDiscordChallenge.
func NewStopDiscordChallenge(api *services.DiscordChallengeAPI, options ...mutation.Option) (*mutation.Runner[string], error) {
	return mutation.NewRunner(
		"stop_discord_challenge",
		api.StopDiscordChallenge,
		guarded(FallbackCreateDiscordChallenge),
		options...,
	)
}

/***** coding challenges *****/

func NewCreateCodingChallenge(
	api *services.CodingChallengeAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.CreateCodingChallengePayload], error) {

	return mutation.NewRunner(
		"create_coding_challenge",
		api.CreateCodingChallenge,
		unguarded(FallbackCreateCodingChallenge),
		options...,
	)
}

func NewUpdateCodingChallenge(
	api *services.CodingChallengeAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.UpdateCodingChallengePayload], error) {

	return mutation.NewRunner(
		"update_coding_challenge",
		api.UpdateCodingChallenge,
		unguarded(FallbackUpdateCodingChallenge),
		options...,
	)
}

func NewDeleteCodingChallenge(
	api *services.CodingChallengeAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.DeleteCodingChallengePayload], error) {

	return mutation.NewRunner(
		"delete_coding_challenge",
		api.DeleteCodingChallenge,
		unguarded(FallbackDeleteCodingChallenge),
		options...,
	)
}

func NewUpdateCodingChallengeReward(
	api *services.CodingChallengeRewardAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.UpdateCodingChallengeRewardPayload], error) {

	return mutation.NewRunner(
		"update_coding_challenge_reward",
		api.UpdateCodingChallengeReward,
		unguarded(FallbackUpdateCodingChallengeReward),
		options...,
	)
}

func NewReviewCodingChallengeSubmission(
	api *services.CodingChallengeSubmissionAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.ReviewCodingChallengeSubmissionPayload], error) {

	return mutation.NewRunner(
		"review_coding_challenge_submission",
		api.ReviewCodingChallengeSubmission,
		unguarded(FallbackReviewCodingChallengeSubmission),
		options...,
	)
}

/***** seasons *****/

func NewCreateSeason(
	api *services.SeasonAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.CreateSeasonPayload], error) {

	return mutation.NewRunner("create_season", api.CreateSeason, unguarded(FallbackCreateSeason), options...)
}

func NewUpdateSeason(
	api *services.SeasonAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.UpdateSeasonPayload], error) {

	return mutation.NewRunner("update_season", api.UpdateSeason, unguarded(FallbackUpdateSeason), options...)
}

func NewDeleteSeason(
	api *services.SeasonAPI,
	options ...mutation.Option,
) (*mutation.Runner[services.DeleteSeasonPayload], error) {

	return mutation.NewRunner("delete_season", api.DeleteSeason, unguarded(FallbackDeleteSeason), options...)
}
