package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/memengine"
	"github.com/heavy-duty/docstate/domain"
)

func Test_ToEvent_Maps_Full_Document(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	start := time.Date(2024, 4, 1, 18, 0, 0, 0, time.UTC)

	event, err := domain.ToEvent("e1", docstore.Fields{
		"name":                 "launch",
		"title":                "Launch party",
		"description":          "We ship",
		"type":                 "meetup",
		"imageUrl":             "https://img/e1.png",
		"isDiscordEventLinked": true,
		"createdAt":            createdAt,
		"info": docstore.Fields{
			"tags":           "solana,rust",
			"startDate":      start.Format(time.RFC3339Nano),
			"endDate":        start.Add(2 * time.Hour),
			"location":       nil,
			"isDiscordEvent": true,
		},
		"advanced": docstore.Fields{"joinCode": "XYZ"},
	})

	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)
	assert.Equal(t, domain.EventTypeMeetup, event.Type)
	assert.True(t, event.IsDiscordEventLinked)
	require.NotNil(t, event.CreatedAt)
	assert.True(t, createdAt.Equal(*event.CreatedAt))
	require.NotNil(t, event.Info)
	assert.True(t, start.Equal(event.Info.StartDate))
	assert.True(t, start.Add(2*time.Hour).Equal(event.Info.EndDate))
	assert.Nil(t, event.Info.Location)
	require.NotNil(t, event.Advanced)
	require.NotNil(t, event.Advanced.JoinCode)
	assert.Equal(t, "XYZ", *event.Advanced.JoinCode)
}

func Test_ToEvent_Tolerates_Partial_Documents(t *testing.T) {
	event, err := domain.ToEvent("e1", docstore.Fields{"name": "launch"})

	require.NoError(t, err)
	assert.Equal(t, domain.Event{ID: "e1", Name: "launch"}, event)
}

func Test_Mappers_Reject_Mistyped_Fields(t *testing.T) {
	_, err := domain.ToEvent("e1", docstore.Fields{"title": 42})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	_, err = domain.ToSeason("s1", docstore.Fields{"createdAt": "yesterday"})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	_, err = domain.ToCodingChallenge("c1", docstore.Fields{"info": docstore.Fields{"startDate": true}})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	_, err = domain.ToCodingChallengeReward("r1", docstore.Fields{"attributes": []any{"not a map"}})
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func Test_ToSeason_Maps_Attributes(t *testing.T) {
	season, err := domain.ToSeason("s1", docstore.Fields{
		"name":       "s1",
		"isActive":   true,
		"attributes": domain.AttributeFields([]domain.SeasonAttribute{{Name: "tier", Value: "gold"}}),
	})

	require.NoError(t, err)
	assert.True(t, season.IsActive)
	assert.Equal(t, []domain.SeasonAttribute{{Name: "tier", Value: "gold"}}, season.Attributes)
}

func Test_ToSeason_Without_Attributes_Yields_Empty_Slice(t *testing.T) {
	season, err := domain.ToSeason("s1", docstore.Fields{})

	require.NoError(t, err)
	assert.NotNil(t, season.Attributes)
	assert.Empty(t, season.Attributes)
}

func Test_ToCodingChallengeSubmission_Keeps_Unreviewed_Approval_Absent(t *testing.T) {
	pending, err := domain.ToCodingChallengeSubmission("sub1", docstore.Fields{
		"codingChallengeId": "c1",
		"userId":            "u1",
		"status":            "pending",
	})
	require.NoError(t, err)
	assert.Nil(t, pending.IsApproved)
	assert.Equal(t, domain.CodingChallengeSubmissionStatusPending, pending.Status)

	done, err := domain.ToCodingChallengeSubmission("sub1", docstore.Fields{"status": "done", "isApproved": false})
	require.NoError(t, err)
	require.NotNil(t, done.IsApproved)
	assert.False(t, *done.IsApproved)
}

func Test_Mappers_Read_Documents_Normalized_By_An_Engine(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	client, err := memengine.New(memengine.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	ref := docstore.Doc("coding-challenges", "c1")
	require.NoError(t, client.Set(context.Background(), ref, docstore.Fields{
		"name":      "two-sum",
		"createdAt": docstore.ServerTimestamp,
		"info": docstore.Fields{
			"difficulty": domain.CodingChallengeDifficultyHard,
			"startDate":  now.Add(time.Hour),
			"endDate":    now.Add(48 * time.Hour),
		},
	}))

	snapshot, err := client.GetDocument(context.Background(), ref)
	require.NoError(t, err)

	challenge, err := domain.ToCodingChallenge(snapshot.ID, snapshot.Data)
	require.NoError(t, err)
	require.NotNil(t, challenge.CreatedAt)
	assert.True(t, now.Equal(*challenge.CreatedAt))
	require.NotNil(t, challenge.Info)
	assert.Equal(t, domain.CodingChallengeDifficultyHard, challenge.Info.Difficulty)
	assert.True(t, now.Add(time.Hour).Equal(challenge.Info.StartDate))
}

func Test_Small_Mappers(t *testing.T) {
	discordEvent, err := domain.ToDiscordEvent("e1", docstore.Fields{"status": "creating"})
	require.NoError(t, err)
	assert.Equal(t, domain.DiscordEventStatusCreating, discordEvent.Status)

	discordChallenge, err := domain.ToDiscordChallenge("c1", docstore.Fields{"status": "stopping"})
	require.NoError(t, err)
	assert.Equal(t, domain.DiscordChallengeStatusStopping, discordChallenge.Status)

	participant, err := domain.ToParticipant("p1", docstore.Fields{"eventId": "e1", "userId": "u1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Participant{ID: "p1", EventID: "e1", UserID: "u1"}, participant)
}
