package services

import (
	"context"
	"time"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

type CreateCodingChallengePayload struct {
	Name        string
	Title       string
	Description string
}

type UpdateCodingChallengePayload struct {
	ID          string
	Title       string
	Description string
	Difficulty  domain.CodingChallengeDifficulty
	Tags        string
	StartDate   time.Time
	EndDate     time.Time
}

type UpdateCodingChallengeBodyPayload struct {
	ID   string
	Body string
}

type UpdateCodingChallengeImagePayload struct {
	ID       string
	ImageURL string
}

type DeleteCodingChallengePayload struct {
	ID string
}

// CodingChallengeFields selects coding challenges by their fields; nil fields are not constrained.
type CodingChallengeFields struct {
	Name   *string
	Status *domain.CodingChallengeStatus
}

func (f CodingChallengeFields) Filter() *docstore.Filter {
	return docstore.ByFields(docstore.Opt("name", f.Name), docstore.Opt("status", f.Status))
}

// CodingChallengeAPI reads and writes the "coding-challenges" collection.
type CodingChallengeAPI struct {
	client     docstore.Client
	challenge  *livequery.EntityResolver[domain.CodingChallenge]
	challenges *livequery.CollectionResolver[domain.CodingChallenge]
}

func NewCodingChallengeAPI(client docstore.Client) *CodingChallengeAPI {
	return &CodingChallengeAPI{
		client:     client,
		challenge:  livequery.NewEntityResolver(client, CodingChallengesCollection, domain.ToCodingChallenge),
		challenges: livequery.NewCollectionResolver(client, CodingChallengesCollection, domain.ToCodingChallenge),
	}
}

// CreateCodingChallenge adds a challenge with an empty body, not linked to Discord yet.
func (api *CodingChallengeAPI) CreateCodingChallenge(ctx context.Context, payload CreateCodingChallengePayload) error {
	_, err := api.client.Add(ctx, CodingChallengesCollection, docstore.Fields{
		"name":                     payload.Name,
		"title":                    payload.Title,
		"description":              payload.Description,
		"body":                     "",
		"isDiscordChallengeLinked": false,
		"createdAt":                docstore.ServerTimestamp,
	})

	return err
}

// UpdateCodingChallenge replaces the title, description and the whole info block.
func (api *CodingChallengeAPI) UpdateCodingChallenge(ctx context.Context, payload UpdateCodingChallengePayload) error {
	return api.client.Update(ctx, docstore.Doc(CodingChallengesCollection, payload.ID), docstore.Fields{
		"title":       payload.Title,
		"description": payload.Description,
		"info": docstore.Fields{
			"difficulty": string(payload.Difficulty),
			"tags":       payload.Tags,
			"startDate":  payload.StartDate.UTC(),
			"endDate":    payload.EndDate.UTC(),
		},
	})
}

func (api *CodingChallengeAPI) UpdateCodingChallengeBody(ctx context.Context, payload UpdateCodingChallengeBodyPayload) error {
	return api.client.Update(ctx, docstore.Doc(CodingChallengesCollection, payload.ID), docstore.Fields{
		"body": payload.Body,
	})
}

func (api *CodingChallengeAPI) UpdateCodingChallengeImage(
	ctx context.Context,
	payload UpdateCodingChallengeImagePayload,
) error {

	return api.client.Update(ctx, docstore.Doc(CodingChallengesCollection, payload.ID), docstore.Fields{
		"imageUrl": payload.ImageURL,
	})
}

func (api *CodingChallengeAPI) DeleteCodingChallenge(ctx context.Context, payload DeleteCodingChallengePayload) error {
	return api.client.Delete(ctx, docstore.Doc(CodingChallengesCollection, payload.ID))
}

// GetCodingChallenges watches all challenges matching fields. Only Status is applied.
func (api *CodingChallengeAPI) GetCodingChallenges(fields CodingChallengeFields) *livequery.LiveQuery[[]domain.CodingChallenge] {
	return api.challenges.Resolve(CodingChallengeFields{Status: fields.Status}.Filter())
}

// GetCodingChallenge watches one challenge selected by docstore.ByID or CodingChallengeFields.Filter.
func (api *CodingChallengeAPI) GetCodingChallenge(filter *docstore.Filter) *livequery.LiveQuery[*domain.CodingChallenge] {
	return api.challenge.Resolve(filter)
}

func (api *CodingChallengeAPI) CodingChallengeResolver() *livequery.EntityResolver[domain.CodingChallenge] {
	return api.challenge
}

func (api *CodingChallengeAPI) CodingChallengesResolver() *livequery.CollectionResolver[domain.CodingChallenge] {
	return api.challenges
}
