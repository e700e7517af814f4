package domain

import (
	"time"

	"github.com/heavy-duty/docstate/docstore"
)

type CodingChallengeStatus string

const (
	CodingChallengeStatusDraft     CodingChallengeStatus = "draft"
	CodingChallengeStatusPublished CodingChallengeStatus = "published"
	CodingChallengeStatusClosed    CodingChallengeStatus = "closed"
)

type CodingChallengeDifficulty string

const (
	CodingChallengeDifficultyEasy   CodingChallengeDifficulty = "easy"
	CodingChallengeDifficultyMedium CodingChallengeDifficulty = "medium"
	CodingChallengeDifficultyHard   CodingChallengeDifficulty = "hard"
)

type CodingChallengeInfo struct {
	Difficulty CodingChallengeDifficulty
	Tags       string
	StartDate  time.Time
	EndDate    time.Time
}

type CodingChallenge struct {
	ID                       string
	Name                     string
	Title                    string
	Description              string
	Body                     string
	ImageURL                 string
	Status                   CodingChallengeStatus
	IsDiscordChallengeLinked bool
	CreatedAt                *time.Time
	Info                     *CodingChallengeInfo
}

// ToCodingChallenge maps a "coding-challenges" document.
func ToCodingChallenge(id string, data docstore.Fields) (CodingChallenge, error) {
	r := read(data)

	challenge := CodingChallenge{
		ID:                       id,
		Name:                     r.str("name"),
		Title:                    r.str("title"),
		Description:              r.str("description"),
		Body:                     r.str("body"),
		ImageURL:                 r.str("imageUrl"),
		Status:                   CodingChallengeStatus(r.str("status")),
		IsDiscordChallengeLinked: r.boolean("isDiscordChallengeLinked"),
		CreatedAt:                r.timestamp("createdAt"),
	}

	if info := r.nested("info"); info != nil {
		challenge.Info = &CodingChallengeInfo{
			Difficulty: CodingChallengeDifficulty(info.str("difficulty")),
			Tags:       info.str("tags"),
			StartDate:  info.timeValue("startDate"),
			EndDate:    info.timeValue("endDate"),
		}
		r.merge(info)
	}

	return challenge, r.err
}

type CodingChallengeSubmissionStatus string

const (
	CodingChallengeSubmissionStatusPending CodingChallengeSubmissionStatus = "pending"
	CodingChallengeSubmissionStatusDone    CodingChallengeSubmissionStatus = "done"
)

type CodingChallengeSubmission struct {
	ID                string
	CodingChallengeID string
	UserID            string
	Status            CodingChallengeSubmissionStatus
	IsApproved        *bool
	CreatedAt         *time.Time
	DoneAt            *time.Time
}

// ToCodingChallengeSubmission maps a "coding-challenge-submissions" document.
func ToCodingChallengeSubmission(id string, data docstore.Fields) (CodingChallengeSubmission, error) {
	r := read(data)

	return CodingChallengeSubmission{
		ID:                id,
		CodingChallengeID: r.str("codingChallengeId"),
		UserID:            r.str("userId"),
		Status:            CodingChallengeSubmissionStatus(r.str("status")),
		IsApproved:        r.optBool("isApproved"),
		CreatedAt:         r.timestamp("createdAt"),
		DoneAt:            r.timestamp("doneAt"),
	}, r.err
}

type DiscordChallengeStatus string

const (
	DiscordChallengeStatusCreating DiscordChallengeStatus = "creating"
	DiscordChallengeStatusCreated  DiscordChallengeStatus = "created"
	DiscordChallengeStatusStopping DiscordChallengeStatus = "stopping"
	DiscordChallengeStatusStopped  DiscordChallengeStatus = "stopped"
)

// DiscordChallenge is stored under the ID of its coding challenge.
type DiscordChallenge struct {
	ID        string
	Status    DiscordChallengeStatus
	CreatedAt *time.Time
}

// ToDiscordChallenge maps a "discord-challenges" document.
func ToDiscordChallenge(id string, data docstore.Fields) (DiscordChallenge, error) {
	r := read(data)

	return DiscordChallenge{
		ID:        id,
		Status:    DiscordChallengeStatus(r.str("status")),
		CreatedAt: r.timestamp("createdAt"),
	}, r.err
}

// CodingChallengeReward is the collectible granted for a coding challenge.
type CodingChallengeReward struct {
	ID          string
	Title       string
	Description string
	Website     string
	Symbol      string
	ImageURL    string
	Attributes  []SeasonAttribute
}

// ToCodingChallengeReward maps a "coding-challenge-rewards" document.
func ToCodingChallengeReward(id string, data docstore.Fields) (CodingChallengeReward, error) {
	r := read(data)

	return CodingChallengeReward{
		ID:          id,
		Title:       r.str("title"),
		Description: r.str("description"),
		Website:     r.str("website"),
		Symbol:      r.str("symbol"),
		ImageURL:    r.str("imageUrl"),
		Attributes:  r.attributes("attributes"),
	}, r.err
}
