package domain

import "errors"

var (
	// ErrQueryTooShort signals a query shorter than the minimum after trimming.
	ErrQueryTooShort = errors.New("query too short")
	// ErrQueryTooLong signals a query above the maximum length.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidFilter signals an out-of-range caller filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrCorpusUnavailable signals that no corpus snapshot could be loaded.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrAllTiersFailed signals that every attempted retrieval tier failed internally.
	ErrAllTiersFailed = errors.New("all search tiers failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that no query vector could be produced.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrExtractionFailed signals a structured intent extraction failure.
	ErrExtractionFailed = errors.New("intent extraction failed")
	// ErrMalformedRecord signals a destination record that cannot be decoded.
	ErrMalformedRecord = errors.New("malformed destination record")
)
