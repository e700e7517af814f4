// Package services translates domain payloads into document reads and writes.
//
// Every API takes its docstore.Client in the constructor. Write methods perform exactly one
// remote write. Get methods return live queries; the resolvers behind them are exposed for
// view-state stores.
package services

// Collection names.
const (
	EventsCollection                     = "events"
	SeasonsCollection                    = "seasons"
	CodingChallengesCollection           = "coding-challenges"
	CodingChallengeSubmissionsCollection = "coding-challenge-submissions"
	DiscordEventsCollection              = "discord-events"
	DiscordChallengesCollection          = "discord-challenges"
	EventParticipantsCollection          = "event-participants"
	CodingChallengeRewardsCollection     = "coding-challenge-rewards"
)
