package services

import (
	"context"
	"time"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

type CreateEventPayload struct {
	Name        string
	Title       string
	Description string
	Type        domain.EventType
}

type UpdateEventInfoPayload struct {
	EventID        string
	Title          string
	Description    string
	Location       *string
	IsDiscordEvent bool
	Tags           string
	StartDate      time.Time
	EndDate        time.Time
}

type UpdateEventAdvancedPayload struct {
	EventID  string
	JoinCode *string
}

type DeleteEventPayload struct {
	EventID string
}

type UpdateEventImagePayload struct {
	EventID  string
	ImageURL string
}

// EventFields selects a single event by its fields; nil fields are not constrained.
type EventFields struct {
	Name *string
}

func (f EventFields) Filter() *docstore.Filter {
	return docstore.ByFields(docstore.Opt("name", f.Name))
}

// EventAPI reads and writes the "events" collection.
type EventAPI struct {
	client docstore.Client
	event  *livequery.EntityResolver[domain.Event]
	events *livequery.CollectionResolver[domain.Event]
}

func NewEventAPI(client docstore.Client) *EventAPI {
	return &EventAPI{
		client: client,
		event:  livequery.NewEntityResolver(client, EventsCollection, domain.ToEvent),
		events: livequery.NewCollectionResolver(client, EventsCollection, domain.ToEvent),
	}
}

// CreateEvent adds an event that is not linked to a Discord event yet.
func (api *EventAPI) CreateEvent(ctx context.Context, payload CreateEventPayload) error {
	_, err := api.client.Add(ctx, EventsCollection, docstore.Fields{
		"title":                payload.Title,
		"description":          payload.Description,
		"name":                 payload.Name,
		"type":                 string(payload.Type),
		"isDiscordEventLinked": false,
		"createdAt":            docstore.ServerTimestamp,
	})

	return err
}

// UpdateEventInfo replaces the title, description and the whole info block.
func (api *EventAPI) UpdateEventInfo(ctx context.Context, payload UpdateEventInfoPayload) error {
	return api.client.Update(ctx, docstore.Doc(EventsCollection, payload.EventID), docstore.Fields{
		"title":       payload.Title,
		"description": payload.Description,
		"info": docstore.Fields{
			"tags":           payload.Tags,
			"startDate":      payload.StartDate.UTC(),
			"endDate":        payload.EndDate.UTC(),
			"location":       payload.Location,
			"isDiscordEvent": payload.IsDiscordEvent,
		},
	})
}

func (api *EventAPI) UpdateEventAdvanced(ctx context.Context, payload UpdateEventAdvancedPayload) error {
	return api.client.Update(ctx, docstore.Doc(EventsCollection, payload.EventID), docstore.Fields{
		"advanced": docstore.Fields{"joinCode": payload.JoinCode},
	})
}

func (api *EventAPI) DeleteEvent(ctx context.Context, payload DeleteEventPayload) error {
	return api.client.Delete(ctx, docstore.Doc(EventsCollection, payload.EventID))
}

func (api *EventAPI) UpdateImage(ctx context.Context, payload UpdateEventImagePayload) error {
	return api.client.Update(ctx, docstore.Doc(EventsCollection, payload.EventID), docstore.Fields{
		"imageUrl": payload.ImageURL,
	})
}

// GetEvents watches every event in natural order.
func (api *EventAPI) GetEvents() *livequery.LiveQuery[[]domain.Event] {
	return api.events.Resolve(docstore.ByFields())
}

// GetEvent watches one event selected by docstore.ByID or EventFields.Filter.
func (api *EventAPI) GetEvent(filter *docstore.Filter) *livequery.LiveQuery[*domain.Event] {
	return api.event.Resolve(filter)
}

func (api *EventAPI) EventResolver() *livequery.EntityResolver[domain.Event] {
	return api.event
}

func (api *EventAPI) EventsResolver() *livequery.CollectionResolver[domain.Event] {
	return api.events
}
