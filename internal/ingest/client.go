// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ingest is the HTTP client for the external retrieval service that
owns embedding, chunk storage, and answer generation. This backend only
proxies bytes and questions to it; no retrieval logic lives here.
*/
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Ingestion covers embedding of a whole document, so its ceiling is far
// above the interactive query ceiling.
const (
	ingestTimeout = 120 * time.Second
	queryTimeout  = 30 * time.Second
)

// Client talks to the retrieval service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a [Client] for the given service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Per-call deadlines are set via context; the transport-level
		// timeout is a hard backstop for the slowest call.
		httpClient: &http.Client{Timeout: ingestTimeout},
	}
}

/*
Ingest streams a document to the retrieval service for embedding.

Description: Sends a multipart form with the file bytes plus the doc_id and
title fields. The raw response body is returned for the caller to relay.

Parameters:
  - context: context.Context
  - docID: string (UUID assigned by the caller)
  - title: string (original filename)
  - fileName: string
  - file: io.Reader

Returns:
  - json.RawMessage: The service's response body
  - error: Transport failures or non-200 statuses
*/
func (client *Client) Ingest(context context.Context, docID, title, fileName string, file io.Reader) (json.RawMessage, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("ingest_client_form_failed: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("ingest_client_copy_failed: %w", err)
	}
	if err := form.WriteField("doc_id", docID); err != nil {
		return nil, fmt.Errorf("ingest_client_form_failed: %w", err)
	}
	if err := form.WriteField("title", title); err != nil {
		return nil, fmt.Errorf("ingest_client_form_failed: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("ingest_client_form_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, client.baseURL+"/ingest", &body)
	if err != nil {
		return nil, fmt.Errorf("ingest_client_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", form.FormDataContentType())

	return client.do(request, "ingest")
}

/*
Delete removes a document's chunks from the retrieval service.

Parameters:
  - context: context.Context
  - docID: string

Returns:
  - error: Transport failures or non-200 statuses
*/
func (client *Client) Delete(context context.Context, docID string) error {
	request, err := http.NewRequestWithContext(context, http.MethodDelete, client.baseURL+"/delete/"+docID, nil)
	if err != nil {
		return fmt.Errorf("ingest_client_request_failed: %w", err)
	}

	_, err = client.do(request, "delete")
	return err
}

// QueryInput is the retrieval request relayed verbatim to the service.
type QueryInput struct {
	Query  string   `json:"query"`
	DocIDs []string `json:"doc_id"`
}

/*
Query relays a question scoped to a set of document IDs.

Parameters:
  - context: context.Context
  - input: QueryInput

Returns:
  - json.RawMessage: The service's answer payload, relayed untouched
  - error: Transport failures or non-200 statuses
*/
func (client *Client) Query(parent context.Context, input QueryInput) (json.RawMessage, error) {
	queryContext, cancel := context.WithTimeout(parent, queryTimeout)
	defer cancel()

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("ingest_client_encode_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(queryContext, http.MethodPost, client.baseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ingest_client_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	return client.do(request, "query")
}

// do executes the request and enforces the 200-only success contract.
func (client *Client) do(request *http.Request, operation string) (json.RawMessage, error) {
	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("ingest_client_%s_failed: %w", operation, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ingest_client_%s_read_failed: %w", operation, err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest_client_%s_failed: status %d", operation, response.StatusCode)
	}

	return json.RawMessage(body), nil
}
