// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package document owns the metadata catalogue of uploaded documents and the
proxying of uploads, deletions, and questions to the external retrieval
service. The catalogue is the source of truth for what exists; the retrieval
service is the source of truth for content.
*/
package document

import "time"

// Document is the metadata row for one uploaded file. The content itself
// lives in the retrieval service, keyed by DocID.
type Document struct {
	ID          int64     `json:"-"`
	DocID       string    `json:"doc_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UploadedBy  int64     `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
