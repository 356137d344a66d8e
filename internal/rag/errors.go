package rag

import "errors"

var (
	// ErrUploadLimit is returned when a session already holds the
	// maximum number of documents. Session state is left unchanged.
	ErrUploadLimit = errors.New("upload limit reached")

	// ErrUnsupportedFormat is returned for non-PDF input.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoDocuments is returned by Ask before any successful upload.
	ErrNoDocuments = errors.New("no documents uploaded")

	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)
