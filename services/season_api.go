package services

import (
	"context"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

type CreateSeasonPayload struct {
	Name        string
	Title       string
	Description string
}

type UpdateSeasonPayload struct {
	ID          string
	Title       string
	Description string
	Website     string
	Symbol      string
	Attributes  []domain.SeasonAttribute
}

type UpdateSeasonImagePayload struct {
	ID       string
	ImageURL string
}

type UpdateSeasonIsActivePayload struct {
	ID       string
	IsActive bool
}

type DeleteSeasonPayload struct {
	ID string
}

// SeasonFields selects a single season by its fields; nil fields are not constrained.
type SeasonFields struct {
	Name *string
}

func (f SeasonFields) Filter() *docstore.Filter {
	return docstore.ByFields(docstore.Opt("name", f.Name))
}

// SeasonAPI reads and writes the "seasons" collection.
type SeasonAPI struct {
	client  docstore.Client
	season  *livequery.EntityResolver[domain.Season]
	seasons *livequery.CollectionResolver[domain.Season]
}

func NewSeasonAPI(client docstore.Client) *SeasonAPI {
	return &SeasonAPI{
		client:  client,
		season:  livequery.NewEntityResolver(client, SeasonsCollection, domain.ToSeason),
		seasons: livequery.NewCollectionResolver(client, SeasonsCollection, domain.ToSeason),
	}
}

// CreateSeason adds an inactive season without attributes.
func (api *SeasonAPI) CreateSeason(ctx context.Context, payload CreateSeasonPayload) error {
	_, err := api.client.Add(ctx, SeasonsCollection, docstore.Fields{
		"name":        payload.Name,
		"title":       payload.Title,
		"description": payload.Description,
		"createdAt":   docstore.ServerTimestamp,
		"attributes":  []any{},
		"isActive":    false,
	})

	return err
}

func (api *SeasonAPI) UpdateSeason(ctx context.Context, payload UpdateSeasonPayload) error {
	return api.client.Update(ctx, docstore.Doc(SeasonsCollection, payload.ID), docstore.Fields{
		"title":       payload.Title,
		"description": payload.Description,
		"website":     payload.Website,
		"symbol":      payload.Symbol,
		"attributes":  domain.AttributeFields(payload.Attributes),
	})
}

func (api *SeasonAPI) UpdateSeasonImage(ctx context.Context, payload UpdateSeasonImagePayload) error {
	return api.client.Update(ctx, docstore.Doc(SeasonsCollection, payload.ID), docstore.Fields{
		"imageUrl": payload.ImageURL,
	})
}

func (api *SeasonAPI) UpdateSeasonIsActive(ctx context.Context, payload UpdateSeasonIsActivePayload) error {
	return api.client.Update(ctx, docstore.Doc(SeasonsCollection, payload.ID), docstore.Fields{
		"isActive": payload.IsActive,
	})
}

func (api *SeasonAPI) DeleteSeason(ctx context.Context, payload DeleteSeasonPayload) error {
	return api.client.Delete(ctx, docstore.Doc(SeasonsCollection, payload.ID))
}

func (api *SeasonAPI) GetSeasons() *livequery.LiveQuery[[]domain.Season] {
	return api.seasons.Resolve(docstore.ByFields())
}

// GetSeason watches one season selected by docstore.ByID or SeasonFields.Filter.
func (api *SeasonAPI) GetSeason(filter *docstore.Filter) *livequery.LiveQuery[*domain.Season] {
	return api.season.Resolve(filter)
}

func (api *SeasonAPI) SeasonResolver() *livequery.EntityResolver[domain.Season] {
	return api.season
}

func (api *SeasonAPI) SeasonsResolver() *livequery.CollectionResolver[domain.Season] {
	return api.seasons
}
