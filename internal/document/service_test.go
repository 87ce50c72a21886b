// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/paperchat/internal/auth"
	"github.com/taibuivan/paperchat/internal/document"
	"github.com/taibuivan/paperchat/internal/ingest"
	"github.com/taibuivan/paperchat/internal/platform/apperr"
)

// # Fakes

type fakeRepository struct {
	created []document.Document
	deleted []string
	listed  []document.Document
}

func (repository *fakeRepository) Create(_ context.Context, doc *document.Document) error {
	doc.ID = int64(len(repository.created) + 1)
	doc.UploadedAt = time.Now()
	repository.created = append(repository.created, *doc)
	return nil
}

func (repository *fakeRepository) Delete(_ context.Context, docID string) (bool, error) {
	repository.deleted = append(repository.deleted, docID)
	for _, doc := range repository.created {
		if doc.DocID == docID {
			return true, nil
		}
	}
	return false, nil
}

func (repository *fakeRepository) List(_ context.Context) ([]document.Document, error) {
	return repository.listed, nil
}

type fakeRetriever struct {
	ingested   []string
	deleted    []string
	queries    []ingest.QueryInput
	ingestErr  error
	deleteErr  error
	queryErr   error
	queryReply json.RawMessage
}

func (retriever *fakeRetriever) Ingest(_ context.Context, docID, _, _ string, file io.Reader) (json.RawMessage, error) {
	if retriever.ingestErr != nil {
		return nil, retriever.ingestErr
	}
	io.Copy(io.Discard, file)
	retriever.ingested = append(retriever.ingested, docID)
	return json.RawMessage(`{"status":"ok"}`), nil
}

func (retriever *fakeRetriever) Delete(_ context.Context, docID string) error {
	if retriever.deleteErr != nil {
		return retriever.deleteErr
	}
	retriever.deleted = append(retriever.deleted, docID)
	return nil
}

func (retriever *fakeRetriever) Query(_ context.Context, input ingest.QueryInput) (json.RawMessage, error) {
	if retriever.queryErr != nil {
		return nil, retriever.queryErr
	}
	retriever.queries = append(retriever.queries, input)
	return retriever.queryReply, nil
}

type fakeUserFinder struct {
	user *auth.User
}

func (finder *fakeUserFinder) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if finder.user != nil && finder.user.ID == id {
		clone := *finder.user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (finder *fakeUserFinder) FindByEmail(_ context.Context, _ string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (finder *fakeUserFinder) Create(_ context.Context, _ *auth.User) error { return nil }

func (finder *fakeUserFinder) MarkVerified(_ context.Context, _ string) error { return nil }

type serviceFixture struct {
	repository *fakeRepository
	retriever  *fakeRetriever
	users      *fakeUserFinder
	service    *document.Service
}

func newServiceFixture() *serviceFixture {
	repository := &fakeRepository{}
	retriever := &fakeRetriever{queryReply: json.RawMessage(`{"answer":"42"}`)}
	users := &fakeUserFinder{}

	return &serviceFixture{
		repository: repository,
		retriever:  retriever,
		users:      users,
		service:    document.NewService(repository, users, retriever),
	}
}

// # Upload

/*
TestService_Upload verifies the ingest-then-catalogue ordering and the
assigned public ID.
*/
func TestService_Upload(t *testing.T) {
	fixture := newServiceFixture()

	result, err := fixture.service.Upload(context.Background(), document.UploadInput{
		FileName:    "report.pdf",
		File:        strings.NewReader("file-bytes"),
		Description: "Q3 report",
		UploadedBy:  7,
	})

	require.NoError(t, err)
	assert.Equal(t, document.MsgUploaded, result.Message)
	assert.Equal(t, "Q3 report", result.Description)
	assert.JSONEq(t, `{"status":"ok"}`, string(result.ServiceResponse))

	// The public ID is a UUID and the same one reached the retrieval service.
	_, err = uuid.Parse(result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []string{result.DocumentID}, fixture.retriever.ingested)

	require.Len(t, fixture.repository.created, 1)
	stored := fixture.repository.created[0]
	assert.Equal(t, result.DocumentID, stored.DocID)
	assert.Equal(t, "report.pdf", stored.Title)
	assert.Equal(t, int64(7), stored.UploadedBy)
}

/*
TestService_Upload_IngestFailure verifies that a rejected ingestion leaves no
catalogue trace.
*/
func TestService_Upload_IngestFailure(t *testing.T) {
	fixture := newServiceFixture()
	fixture.retriever.ingestErr = errors.New("embedding backend down")

	_, err := fixture.service.Upload(context.Background(), document.UploadInput{
		FileName:   "report.pdf",
		File:       strings.NewReader("file-bytes"),
		UploadedBy: 7,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 503, ae.HTTPStatus)
	assert.Empty(t, fixture.repository.created)
}

// # Delete

/*
TestService_Delete_UnknownID verifies the 404 contract when the retrieval
service accepted the delete but no catalogue row matched.
*/
func TestService_Delete_UnknownID(t *testing.T) {
	fixture := newServiceFixture()

	err := fixture.service.Delete(context.Background(), "missing-id")

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.HTTPStatus)
	assert.Equal(t, "No document found with id missing-id", ae.Message)
}

/*
TestService_Delete_RetrievalFailure verifies that the catalogue row survives
when the retrieval service rejects the delete.
*/
func TestService_Delete_RetrievalFailure(t *testing.T) {
	fixture := newServiceFixture()
	fixture.retriever.deleteErr = errors.New("service unreachable")

	err := fixture.service.Delete(context.Background(), "doc-1")

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 503, ae.HTTPStatus)
	assert.Empty(t, fixture.repository.deleted)
}

/*
TestService_Delete_Success verifies the full two-store removal.
*/
func TestService_Delete_Success(t *testing.T) {
	fixture := newServiceFixture()
	doc := &document.Document{DocID: "doc-1", Title: "report.pdf", UploadedBy: 7}
	require.NoError(t, fixture.repository.Create(context.Background(), doc))

	err := fixture.service.Delete(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, fixture.retriever.deleted)
	assert.Equal(t, []string{"doc-1"}, fixture.repository.deleted)
}

// # Query

/*
TestService_Query verifies the relay of question and scope.
*/
func TestService_Query(t *testing.T) {
	fixture := newServiceFixture()

	results, err := fixture.service.Query(context.Background(), "what changed?", []string{"doc-1", "doc-2"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"42"}`, string(results))
	require.Len(t, fixture.retriever.queries, 1)
	assert.Equal(t, "what changed?", fixture.retriever.queries[0].Query)
	assert.Equal(t, []string{"doc-1", "doc-2"}, fixture.retriever.queries[0].DocIDs)
}

/*
TestService_Query_Failure verifies the 503 mapping.
*/
func TestService_Query_Failure(t *testing.T) {
	fixture := newServiceFixture()
	fixture.retriever.queryErr = errors.New("timeout")

	_, err := fixture.service.Query(context.Background(), "what changed?", []string{"doc-1"})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 503, ae.HTTPStatus)
}

// # Profile

/*
TestService_Profile verifies the sanitized account view.
*/
func TestService_Profile(t *testing.T) {
	fixture := newServiceFixture()
	fixture.users.user = &auth.User{
		ID:           7,
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "secret-hash",
		AuthType:     auth.AuthTypeCredentials,
		CreatedAt:    time.Now(),
	}

	profile, err := fixture.service.Profile(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@x.com", profile.Email)
	assert.Equal(t, string(auth.AuthTypeCredentials), profile.AuthType)

	_, err = fixture.service.Profile(context.Background(), 99)
	require.Error(t, err)
}
