package services

import (
	"context"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/domain"
	"github.com/heavy-duty/docstate/livequery"
)

type ReviewCodingChallengeSubmissionPayload struct {
	ID         string
	IsApproved bool
}

// SubmissionFields selects submissions by their fields; nil fields are not constrained.
type SubmissionFields struct {
	Status            *domain.CodingChallengeSubmissionStatus
	CodingChallengeID *string
	UserID            *string
}

func (f SubmissionFields) Filter() *docstore.Filter {
	return docstore.ByFields(
		docstore.Opt("status", f.Status),
		docstore.Opt("codingChallengeId", f.CodingChallengeID),
		docstore.Opt("userId", f.UserID),
	)
}

// CodingChallengeSubmissionAPI reads and reviews the "coding-challenge-submissions" collection.
type CodingChallengeSubmissionAPI struct {
	client      docstore.Client
	submission  *livequery.EntityResolver[domain.CodingChallengeSubmission]
	submissions *livequery.CollectionResolver[domain.CodingChallengeSubmission]
}

func NewCodingChallengeSubmissionAPI(client docstore.Client) *CodingChallengeSubmissionAPI {
	return &CodingChallengeSubmissionAPI{
		client: client,
		submission: livequery.NewEntityResolver(
			client, CodingChallengeSubmissionsCollection, domain.ToCodingChallengeSubmission,
		),
		submissions: livequery.NewCollectionResolver(
			client, CodingChallengeSubmissionsCollection, domain.ToCodingChallengeSubmission,
		),
	}
}

// ReviewCodingChallengeSubmission approves or rejects a submission and marks it done.
func (api *CodingChallengeSubmissionAPI) ReviewCodingChallengeSubmission(
	ctx context.Context,
	payload ReviewCodingChallengeSubmissionPayload,
) error {

	return api.client.Update(ctx, docstore.Doc(CodingChallengeSubmissionsCollection, payload.ID), docstore.Fields{
		"isApproved": payload.IsApproved,
		"doneAt":     docstore.ServerTimestamp,
		"status":     string(domain.CodingChallengeSubmissionStatusDone),
	})
}

func (api *CodingChallengeSubmissionAPI) GetCodingChallengeSubmissions(
	fields SubmissionFields,
) *livequery.LiveQuery[[]domain.CodingChallengeSubmission] {

	return api.submissions.Resolve(fields.Filter())
}

// GetCodingChallengeSubmission watches one submission selected by docstore.ByID or SubmissionFields.Filter.
func (api *CodingChallengeSubmissionAPI) GetCodingChallengeSubmission(
	filter *docstore.Filter,
) *livequery.LiveQuery[*domain.CodingChallengeSubmission] {

	return api.submission.Resolve(filter)
}

func (api *CodingChallengeSubmissionAPI) SubmissionResolver() *livequery.EntityResolver[domain.CodingChallengeSubmission] {
	return api.submission
}

func (api *CodingChallengeSubmissionAPI) SubmissionsResolver() *livequery.CollectionResolver[domain.CodingChallengeSubmission] {
	return api.submissions
}
