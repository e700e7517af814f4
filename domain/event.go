package domain

import (
	"time"

	"github.com/heavy-duty/docstate/docstore"
)

// EventType classifies an event.
type EventType string

const (
	EventTypeWorkshop  EventType = "workshop"
	EventTypeHackathon EventType = "hackathon"
	EventTypeMeetup    EventType = "meetup"
)

type EventInfo struct {
	Tags           string
	StartDate      time.Time
	EndDate        time.Time
	Location       *string
	IsDiscordEvent bool
}

type EventAdvanced struct {
	JoinCode *string
}

type Event struct {
	ID                   string
	Name                 string
	Title                string
	Description          string
	Type                 EventType
	ImageURL             string
	IsDiscordEventLinked bool
	CreatedAt            *time.Time
	Info                 *EventInfo
	Advanced             *EventAdvanced
}

// ToEvent maps an "events" document.
func ToEvent(id string, data docstore.Fields) (Event, error) {
	r := read(data)

	event := Event{
		ID:                   id,
		Name:                 r.str("name"),
		Title:                r.str("title"),
		Description:          r.str("description"),
		Type:                 EventType(r.str("type")),
		ImageURL:             r.str("imageUrl"),
		IsDiscordEventLinked: r.boolean("isDiscordEventLinked"),
		CreatedAt:            r.timestamp("createdAt"),
	}

	if info := r.nested("info"); info != nil {
		location, _ := info.optStr("location")
		event.Info = &EventInfo{
			Tags:           info.str("tags"),
			StartDate:      info.timeValue("startDate"),
			EndDate:        info.timeValue("endDate"),
			Location:       location,
			IsDiscordEvent: info.boolean("isDiscordEvent"),
		}
		r.merge(info)
	}

	if advanced := r.nested("advanced"); advanced != nil {
		joinCode, _ := advanced.optStr("joinCode")
		event.Advanced = &EventAdvanced{JoinCode: joinCode}
		r.merge(advanced)
	}

	return event, r.err
}

// DiscordEventStatus is the lifecycle state of the Discord event linked to an event. The bot
// moves requested states (creating, cancelling, starting, ending) into their final ones.
type DiscordEventStatus string

const (
	DiscordEventStatusCreating   DiscordEventStatus = "creating"
	DiscordEventStatusCreated    DiscordEventStatus = "created"
	DiscordEventStatusCancelling DiscordEventStatus = "cancelling"
	DiscordEventStatusCancelled  DiscordEventStatus = "cancelled"
	DiscordEventStatusStarting   DiscordEventStatus = "starting"
	DiscordEventStatusStarted    DiscordEventStatus = "started"
	DiscordEventStatusEnding     DiscordEventStatus = "ending"
	DiscordEventStatusEnded      DiscordEventStatus = "ended"
)

// DiscordEvent is stored under the ID of its event.
type DiscordEvent struct {
	ID        string
	Status    DiscordEventStatus
	CreatedAt *time.Time
}

// ToDiscordEvent maps a "discord-events" document.
func ToDiscordEvent(id string, data docstore.Fields) (DiscordEvent, error) {
	r := read(data)

	return DiscordEvent{
		ID:        id,
		Status:    DiscordEventStatus(r.str("status")),
		CreatedAt: r.timestamp("createdAt"),
	}, r.err
}

// Participant links a user to an event.
type Participant struct {
	ID        string
	EventID   string
	UserID    string
	CreatedAt *time.Time
}

// ToParticipant maps an "event-participants" document.
func ToParticipant(id string, data docstore.Fields) (Participant, error) {
	r := read(data)

	return Participant{
		ID:        id,
		EventID:   r.str("eventId"),
		UserID:    r.str("userId"),
		CreatedAt: r.timestamp("createdAt"),
	}, r.err
}
