package models

import "fmt"

// ParseError reports a document the parse service rejected or could not read.
// In batch mode the caller logs it and moves to the next file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmbeddingError reports a failed embedding API call. Source names the
// filing being embedded, or "query" for search-time embeddings.
type EmbeddingError struct {
	Source string
	Err    error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed %s: %v", e.Source, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexError reports a rejected vector store read or write.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }
