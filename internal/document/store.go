// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import "context"

// Repository defines the data access contract for document metadata.
type Repository interface {

	/*
		Create persists the metadata row for a freshly ingested document.

		Parameters:
		  - context: context.Context
		  - document: *Document

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, document *Document) error

	/*
		Delete removes the metadata row for a document ID.

		Parameters:
		  - context: context.Context
		  - docID: string

		Returns:
		  - bool: true if a row existed and was removed
		  - error: Persistence failures
	*/
	Delete(context context.Context, docID string) (bool, error)

	/*
		List returns the catalogue of all documents, newest first.

		Parameters:
		  - context: context.Context

		Returns:
		  - []Document: Possibly empty slice
		  - error: Retrieval failures
	*/
	List(context context.Context) ([]Document, error)
}
