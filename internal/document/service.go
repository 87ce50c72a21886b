// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/paperchat/internal/auth"
	"github.com/taibuivan/paperchat/internal/ingest"
	"github.com/taibuivan/paperchat/internal/platform/apperr"
)

// Response messages frozen by the existing API contract.
const (
	MsgUploaded = "Document uploaded successfully "
	MsgDeleted  = "Document deleted successfully"
)

// Retriever is the slice of the retrieval-service client this package needs.
type Retriever interface {
	Ingest(context context.Context, docID, title, fileName string, file io.Reader) (json.RawMessage, error)
	Delete(context context.Context, docID string) error
	Query(context context.Context, input ingest.QueryInput) (json.RawMessage, error)
}

// Service orchestrates the document catalogue against the retrieval service.
//
// Ordering rule for writes: the retrieval service is updated first, the
// metadata row second. A catalogue row therefore never points at content the
// retrieval service does not hold.
type Service struct {
	documentRepository Repository
	userRepository     auth.UserRepository
	retriever          Retriever
}

// NewService constructs a document [Service] with its collaborators.
func NewService(documentRepo Repository, userRepo auth.UserRepository, retriever Retriever) *Service {
	return &Service{
		documentRepository: documentRepo,
		userRepository:     userRepo,
		retriever:          retriever,
	}
}

// # Upload

// UploadInput carries one multipart file plus its submitter.
type UploadInput struct {
	FileName    string
	File        io.Reader
	Description string
	UploadedBy  int64
}

// UploadResult is the success payload of an upload.
type UploadResult struct {
	Message         string          `json:"message"`
	DocumentID      string          `json:"documentId"`
	Description     string          `json:"description"`
	ServiceResponse json.RawMessage `json:"pythonResponse"`
}

/*
Upload ingests a file into the retrieval service and catalogues it.

Description: Assigns a fresh UUID as the document's public ID, streams the
file to the retrieval service for embedding, and only then records the
metadata row. An ingestion failure leaves no catalogue trace.

Parameters:
  - context: context.Context
  - input: UploadInput

Returns:
  - *UploadResult: Public ID plus the retrieval service's own response
  - error: apperr.ServiceUnavailable when ingestion fails, or storage errors
*/
func (service *Service) Upload(context context.Context, input UploadInput) (*UploadResult, error) {
	docID := uuid.NewString()

	serviceResponse, err := service.retriever.Ingest(context, docID, input.FileName, input.FileName, input.File)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Failed to process document").WithCause(err)
	}

	document := &Document{
		DocID:       docID,
		Title:       input.FileName,
		Description: input.Description,
		UploadedBy:  input.UploadedBy,
	}
	if err := service.documentRepository.Create(context, document); err != nil {
		return nil, fmt.Errorf("document_service_catalogue_failed: %w", err)
	}

	return &UploadResult{
		Message:         MsgUploaded,
		DocumentID:      docID,
		Description:     input.Description,
		ServiceResponse: serviceResponse,
	}, nil
}

// # Delete

/*
Delete removes a document from the retrieval service and the catalogue.

Parameters:
  - context: context.Context
  - docID: string

Returns:
  - error: apperr.ServiceUnavailable when the retrieval service rejects the
    delete, apperr 404 when no catalogue row matched, or storage errors
*/
func (service *Service) Delete(context context.Context, docID string) error {
	if err := service.retriever.Delete(context, docID); err != nil {
		return apperr.ServiceUnavailable("Failed to delete document").WithCause(err)
	}

	deleted, err := service.documentRepository.Delete(context, docID)
	if err != nil {
		return fmt.Errorf("document_service_delete_failed: %w", err)
	}
	if !deleted {
		return apperr.New("NOT_FOUND", fmt.Sprintf("No document found with id %s", docID), 404)
	}

	return nil
}

// # Reads

/*
List returns the document catalogue visible to every authenticated user.

Parameters:
  - context: context.Context

Returns:
  - []Document: Possibly empty slice
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context) ([]Document, error) {
	return service.documentRepository.List(context)
}

/*
Query relays a question scoped to a set of document IDs.

Parameters:
  - context: context.Context
  - query: string
  - docIDs: []string

Returns:
  - json.RawMessage: The retrieval service's answer, relayed untouched
  - error: apperr.ServiceUnavailable when the retrieval service fails
*/
func (service *Service) Query(context context.Context, query string, docIDs []string) (json.RawMessage, error) {
	results, err := service.retriever.Query(context, ingest.QueryInput{Query: query, DocIDs: docIDs})
	if err != nil {
		return nil, apperr.ServiceUnavailable("Failed to process query").WithCause(err)
	}
	return results, nil
}

// # Profile

// ProfileView is the sanitized account detail returned to its owner.
type ProfileView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	AuthType  string    `json:"auth_type"`
}

/*
Profile returns the authenticated user's own account detail.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *ProfileView: Sanitized account fields
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Profile(context context.Context, userID int64) (*ProfileView, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		AuthType:  string(user.AuthType),
	}, nil
}
