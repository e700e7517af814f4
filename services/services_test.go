package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/memengine"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/services"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newClient(t *testing.T) *memengine.Client {
	t.Helper()

	client, err := memengine.New(memengine.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	return client
}

func ptr[T any](v T) *T {
	return &v
}

func Test_EventAPI_Create_Update_Get_Delete(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	api := services.NewEventAPI(client)

	require.NoError(t, api.CreateEvent(ctx, services.CreateEventPayload{
		Name:        "launch",
		Title:       "Launch",
		Description: "We ship",
		Type:        domain.EventTypeMeetup,
	}))

	events, err := api.GetEvents().Get(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	created := events[0]
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "launch", created.Name)
	assert.False(t, created.IsDiscordEventLinked)
	require.NotNil(t, created.CreatedAt)
	assert.True(t, fixedNow.Equal(*created.CreatedAt))

	start := fixedNow.Add(24 * time.Hour)
	require.NoError(t, api.UpdateEventInfo(ctx, services.UpdateEventInfoPayload{
		EventID:        created.ID,
		Title:          "Launch party",
		Description:    "We ship it",
		Location:       ptr("Lisbon"),
		IsDiscordEvent: true,
		Tags:           "solana",
		StartDate:      start,
		EndDate:        start.Add(3 * time.Hour),
	}))
	require.NoError(t, api.UpdateEventAdvanced(ctx, services.UpdateEventAdvancedPayload{EventID: created.ID, JoinCode: ptr("JOIN")}))
	require.NoError(t, api.UpdateImage(ctx, services.UpdateEventImagePayload{EventID: created.ID, ImageURL: "https://img/1.png"}))

	byID, err := api.GetEvent(docstore.ByID(created.ID)).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Launch party", byID.Title)
	assert.Equal(t, "https://img/1.png", byID.ImageURL)
	require.NotNil(t, byID.Info)
	assert.True(t, start.Equal(byID.Info.StartDate))
	assert.Equal(t, "Lisbon", *byID.Info.Location)
	require.NotNil(t, byID.Advanced)
	assert.Equal(t, "JOIN", *byID.Advanced.JoinCode)

	byName, err := api.GetEvent(services.EventFields{Name: ptr("launch")}.Filter()).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	require.NoError(t, api.DeleteEvent(ctx, services.DeleteEventPayload{EventID: created.ID}))

	gone, err := api.GetEvent(docstore.ByID(created.ID)).Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func Test_EventAPI_UpdateEventInfo_When_Event_Is_Missing_Then_Not_Found(t *testing.T) {
	api := services.NewEventAPI(newClient(t))

	err := api.UpdateEventInfo(context.Background(), services.UpdateEventInfoPayload{EventID: "missing"})

	assert.True(t, docstore.IsCode(err, docstore.CodeNotFound))
}

func Test_SeasonAPI_Lifecycle(t *testing.T) {
	ctx := context.Background()
	api := services.NewSeasonAPI(newClient(t))

	require.NoError(t, api.CreateSeason(ctx, services.CreateSeasonPayload{Name: "s1", Title: "Season 1"}))

	season, err := api.GetSeason(services.SeasonFields{Name: ptr("s1")}.Filter()).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, season)
	assert.False(t, season.IsActive)
	assert.Empty(t, season.Attributes)

	require.NoError(t, api.UpdateSeason(ctx, services.UpdateSeasonPayload{
		ID:         season.ID,
		Title:      "Season One",
		Website:    "https://s1",
		Symbol:     "S1",
		Attributes: []domain.SeasonAttribute{{Name: "tier", Value: "gold"}},
	}))
	require.NoError(t, api.UpdateSeasonIsActive(ctx, services.UpdateSeasonIsActivePayload{ID: season.ID, IsActive: true}))
	require.NoError(t, api.UpdateSeasonImage(ctx, services.UpdateSeasonImagePayload{ID: season.ID, ImageURL: "https://img/s1.png"}))

	seasons, err := api.GetSeasons().Get(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.True(t, seasons[0].IsActive)
	assert.Equal(t, "S1", seasons[0].Symbol)
	assert.Equal(t, []domain.SeasonAttribute{{Name: "tier", Value: "gold"}}, seasons[0].Attributes)

	require.NoError(t, api.DeleteSeason(ctx, services.DeleteSeasonPayload{ID: season.ID}))

	seasons, err = api.GetSeasons().Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, seasons)
}

func Test_CodingChallengeAPI_Filters_By_Status(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	api := services.NewCodingChallengeAPI(client)

	require.NoError(t, client.Set(ctx, docstore.Doc(services.CodingChallengesCollection, "c1"), docstore.Fields{"name": "a", "status": "draft"}))
	require.NoError(t, client.Set(ctx, docstore.Doc(services.CodingChallengesCollection, "c2"), docstore.Fields{"name": "b", "status": "published"}))
	require.NoError(t, client.Set(ctx, docstore.Doc(services.CodingChallengesCollection, "c3"), docstore.Fields{"name": "b", "status": "closed"}))

	published := domain.CodingChallengeStatusPublished
	challenges, err := api.GetCodingChallenges(services.CodingChallengeFields{Status: &published}).Get(ctx)
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, "c2", challenges[0].ID)

	all, err := api.GetCodingChallenges(services.CodingChallengeFields{Name: ptr("ignored")}).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	closed := domain.CodingChallengeStatusClosed
	single, err := api.GetCodingChallenge(services.CodingChallengeFields{Name: ptr("b"), Status: &closed}.Filter()).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, "c3", single.ID)
}

func Test_CodingChallengeAPI_Writes(t *testing.T) {
	ctx := context.Background()
	api := services.NewCodingChallengeAPI(newClient(t))

	require.NoError(t, api.CreateCodingChallenge(ctx, services.CreateCodingChallengePayload{Name: "two-sum", Title: "Two Sum"}))

	challenge, err := api.GetCodingChallenge(services.CodingChallengeFields{Name: ptr("two-sum")}.Filter()).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, challenge)
	assert.Equal(t, "", challenge.Body)
	assert.False(t, challenge.IsDiscordChallengeLinked)

	require.NoError(t, api.UpdateCodingChallenge(ctx, services.UpdateCodingChallengePayload{
		ID:         challenge.ID,
		Title:      "Two Sum II",
		Difficulty: domain.CodingChallengeDifficultyMedium,
		StartDate:  fixedNow,
		EndDate:    fixedNow.Add(time.Hour),
	}))
	require.NoError(t, api.UpdateCodingChallengeBody(ctx, services.UpdateCodingChallengeBodyPayload{ID: challenge.ID, Body: "# Task"}))
	require.NoError(t, api.UpdateCodingChallengeImage(ctx, services.UpdateCodingChallengeImagePayload{ID: challenge.ID, ImageURL: "https://img/c.png"}))

	updated, err := api.GetCodingChallenge(docstore.ByID(challenge.ID)).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Two Sum II", updated.Title)
	assert.Equal(t, "# Task", updated.Body)
	require.NotNil(t, updated.Info)
	assert.Equal(t, domain.CodingChallengeDifficultyMedium, updated.Info.Difficulty)

	require.NoError(t, api.DeleteCodingChallenge(ctx, services.DeleteCodingChallengePayload{ID: challenge.ID}))
}

func Test_CodingChallengeSubmissionAPI_Review_Marks_Done(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	api := services.NewCodingChallengeSubmissionAPI(client)

	require.NoError(t, client.Set(ctx, docstore.Doc(services.CodingChallengeSubmissionsCollection, "s1"), docstore.Fields{
		"codingChallengeId": "c1", "userId": "u1", "status": "pending",
	}))
	require.NoError(t, client.Set(ctx, docstore.Doc(services.CodingChallengeSubmissionsCollection, "s2"), docstore.Fields{
		"codingChallengeId": "c1", "userId": "u2", "status": "pending",
	}))

	require.NoError(t, api.ReviewCodingChallengeSubmission(ctx, services.ReviewCodingChallengeSubmissionPayload{ID: "s1", IsApproved: true}))

	pending := domain.CodingChallengeSubmissionStatusPending
	stillPending, err := api.GetCodingChallengeSubmissions(services.SubmissionFields{Status: &pending, CodingChallengeID: ptr("c1")}).Get(ctx)
	require.NoError(t, err)
	require.Len(t, stillPending, 1)
	assert.Equal(t, "s2", stillPending[0].ID)

	reviewed, err := api.GetCodingChallengeSubmission(services.SubmissionFields{UserID: ptr("u1")}.Filter()).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, reviewed)
	assert.Equal(t, domain.CodingChallengeSubmissionStatusDone, reviewed.Status)
	require.NotNil(t, reviewed.IsApproved)
	assert.True(t, *reviewed.IsApproved)
	require.NotNil(t, reviewed.DoneAt)
	assert.True(t, fixedNow.Equal(*reviewed.DoneAt))
}

func Test_DiscordEventAPI_Status_Transitions(t *testing.T) {
	ctx := context.Background()
	api := services.NewDiscordEventAPI(newClient(t))

	missing, err := api.GetDiscordEvent("e1").Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.True(t, docstore.IsCode(api.StartDiscordEvent(ctx, "e1"), docstore.CodeNotFound))

	require.NoError(t, api.CreateDiscordEvent(ctx, "e1"))
	assertDiscordEventStatus(t, api, domain.DiscordEventStatusCreating)

	require.NoError(t, api.StartDiscordEvent(ctx, "e1"))
	assertDiscordEventStatus(t, api, domain.DiscordEventStatusStarting)

	require.NoError(t, api.EndDiscordEvent(ctx, "e1"))
	assertDiscordEventStatus(t, api, domain.DiscordEventStatusEnding)

	require.NoError(t, api.CancelDiscordEvent(ctx, "e1"))
	assertDiscordEventStatus(t, api, domain.DiscordEventStatusCancelling)
}

func assertDiscordEventStatus(t *testing.T, api *services.DiscordEventAPI, expected domain.DiscordEventStatus) {
	t.Helper()

	discordEvent, err := api.GetDiscordEvent("e1").Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, discordEvent)
	assert.Equal(t, expected, discordEvent.Status)
}

func Test_DiscordChallengeAPI_Create_Then_Stop(t *testing.T) {
	ctx := context.Background()
	api := services.NewDiscordChallengeAPI(newClient(t))

	require.NoError(t, api.CreateDiscordChallenge(ctx, "c1"))
	require.NoError(t, api.StopDiscordChallenge(ctx, "c1"))

	challenge, err := api.GetDiscordChallenge("c1").Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, challenge)
	assert.Equal(t, domain.DiscordChallengeStatusStopping, challenge.Status)
	require.NotNil(t, challenge.CreatedAt)
}

func Test_ParticipantAPI_By_Event_And_By_User(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	api := services.NewParticipantAPI(client)

	for id, fields := range map[string]docstore.Fields{
		"p1": {"eventId": "e1", "userId": "u1"},
		"p2": {"eventId": "e1", "userId": "u2"},
		"p3": {"eventId": "e2", "userId": "u1"},
	} {
		require.NoError(t, client.Set(ctx, docstore.Doc(services.EventParticipantsCollection, id), fields))
	}

	byEvent, err := api.GetParticipants(services.ParticipantsByEvent("e1")).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)

	byUser, err := api.GetParticipants(services.ParticipantsByUser("u1")).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	none, err := api.GetParticipants(services.ParticipantsByUser("nobody")).Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func Test_CodingChallengeRewardAPI_Update(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	api := services.NewCodingChallengeRewardAPI(client)

	require.NoError(t, client.Set(ctx, docstore.Doc(services.CodingChallengeRewardsCollection, "r1"), docstore.Fields{"title": "old"}))

	require.NoError(t, api.UpdateCodingChallengeReward(ctx, services.UpdateCodingChallengeRewardPayload{
		ID:         "r1",
		Title:      "Gold badge",
		Symbol:     "GOLD",
		Attributes: []domain.SeasonAttribute{{Name: "rarity", Value: "rare"}},
	}))

	reward, err := api.GetCodingChallengeReward("r1").Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, "Gold badge", reward.Title)
	assert.Equal(t, []domain.SeasonAttribute{{Name: "rarity", Value: "rare"}}, reward.Attributes)
}
