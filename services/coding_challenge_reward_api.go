package services

import (
	"context"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

type UpdateCodingChallengeRewardPayload struct {
	ID          string
	Title       string
	Description string
	Website     string
	Symbol      string
	Attributes  []domain.SeasonAttribute
}

// CodingChallengeRewardAPI reads and writes the "coding-challenge-rewards" collection.
type CodingChallengeRewardAPI struct {
	client docstore.Client
	reward *livequery.EntityResolver[domain.CodingChallengeReward]
}

func NewCodingChallengeRewardAPI(client docstore.Client) *CodingChallengeRewardAPI {
	return &CodingChallengeRewardAPI{
		client: client,
		reward: livequery.NewEntityResolver(client, CodingChallengeRewardsCollection, domain.ToCodingChallengeReward),
	}
}

func (api *CodingChallengeRewardAPI) UpdateCodingChallengeReward(
	ctx context.Context,
	payload UpdateCodingChallengeRewardPayload,
) error {

	return api.client.Update(ctx, docstore.Doc(CodingChallengeRewardsCollection, payload.ID), docstore.Fields{
		"title":       payload.Title,
		"description": payload.Description,
		"website":     payload.Website,
		"symbol":      payload.Symbol,
		"attributes":  domain.AttributeFields(payload.Attributes),
	})
}

func (api *CodingChallengeRewardAPI) GetCodingChallengeReward(id string) *livequery.LiveQuery[*domain.CodingChallengeReward] {
	return api.reward.Resolve(docstore.ByID(id))
}

func (api *CodingChallengeRewardAPI) RewardResolver() *livequery.EntityResolver[domain.CodingChallengeReward] {
	return api.reward
}
