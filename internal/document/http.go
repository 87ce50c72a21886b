// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// HTTP delivery layer for the document catalogue and the retrieval proxy.
// Admin routes mutate the catalogue; user routes read it and ask questions.
package document

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
	requestutil "github.com/taibuivan/paperchat/internal/platform/request"
	"github.com/taibuivan/paperchat/internal/platform/respond"
	"github.com/taibuivan/paperchat/internal/platform/validate"
)

// maxUploadBytes bounds the in-memory portion of a multipart upload.
const maxUploadBytes = 32 << 20

// Handler implements the document HTTP endpoints.
type Handler struct {
	documentService *Service
}

// NewHandler constructs a new [Handler] around the document service.
func NewHandler(service *Service) *Handler {
	return &Handler{documentService: service}
}

// AdminRoutes returns the catalogue mutation routes. The caller mounts them
// behind the admin guard.
//
// # Endpoints
//   - POST   /upload           : Ingests a file and catalogues its metadata.
//   - DELETE /delete/{doc_id}  : Removes a document everywhere.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/upload", handler.upload)
	router.Delete("/delete/{doc_id}", handler.delete)

	return router
}

// UserRoutes returns the read and query routes. The caller mounts them
// behind the user guard.
//
// # Endpoints
//   - GET  /documents : Lists the catalogue.
//   - GET  /profile   : Returns the caller's own account detail.
//   - POST /query     : Relays a question to the retrieval service.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/documents", handler.list)
	router.Get("/profile", handler.profile)
	router.Post("/query", handler.query)

	return router
}

/*
Upload ingests a new document.

POST /api/admin/upload

Request:
  - Multipart form: file (required), description (optional)

Response:
  - 200: UploadResult with the assigned document ID
  - 400: No file present in the form
  - 503: The retrieval service rejected the ingestion
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(writer, request, apperr.ValidationError("No file uploaded"))
		return
	}

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("No file uploaded"))
		return
	}
	defer file.Close()

	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.documentService.Upload(request.Context(), UploadInput{
		FileName:    header.Filename,
		File:        file,
		Description: request.FormValue("description"),
		UploadedBy:  userID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
Delete removes a document everywhere.

DELETE /api/admin/delete/{doc_id}

Response:
  - 200: Deletion confirmation message
  - 404: No catalogue row matched the ID
  - 503: The retrieval service rejected the delete
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	docID := requestutil.Param(request, "doc_id")
	if docID == "" {
		respond.Error(writer, request, apperr.ValidationError("Document ID is required"))
		return
	}

	if err := handler.documentService.Delete(request.Context(), docID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": MsgDeleted})
}

/*
List returns the full document catalogue.

GET /api/user/documents

Response:
  - 200: {documents: [...]}
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	documents, err := handler.documentService.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if documents == nil {
		documents = []Document{}
	}

	respond.OK(writer, map[string]any{"documents": documents})
}

/*
Profile returns the caller's own account detail.

GET /api/user/profile

Response:
  - 200: {userDetails: ProfileView}
  - 401: Missing or invalid token
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.documentService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"userDetails": profile})
}

type queryRequest struct {
	Query  string   `json:"query"`
	DocIDs []string `json:"doc_id"`
}

/*
Query relays a question scoped to a set of documents.

POST /api/user/query

Request:
  - Body: queryRequest (Query, DocIDs)

Response:
  - 200: {results: <retrieval service payload>}
  - 400: Missing query or empty document list
  - 503: The retrieval service failed
*/
func (handler *Handler) query(writer http.ResponseWriter, request *http.Request) {
	var input queryRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Query == "" || len(input.DocIDs) == 0 {
		respond.Error(writer, request, apperr.ValidationError("Invalid input"))
		return
	}

	results, err := handler.documentService.Query(request.Context(), input.Query, input.DocIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"results": results})
}
