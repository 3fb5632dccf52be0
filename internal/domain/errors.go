package domain

import (
	"errors"
)

// Common domain errors
var (
	ErrNotFound = errors.New("not found")

	// ErrPrepareDownload is returned by the catalog client when the remote
	// side cannot issue a download URL for an item.
	ErrPrepareDownload = errors.New("download url not obtainable")

	// ErrChecksumMismatch is returned when downloaded bytes hash to a value
	// different from the checksum the catalog reported.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// FailureKind classifies where in the per-item pipeline a download failed.
// Every kind is isolated to its item: it never aborts the worker pool or
// the sync pass.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureURLIssuance
	FailureTransport
	FailureIntegrity
	FailureFilesystem
	FailureCacheStore
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureURLIssuance:
		return "url_issuance"
	case FailureTransport:
		return "transport"
	case FailureIntegrity:
		return "integrity"
	case FailureFilesystem:
		return "filesystem"
	case FailureCacheStore:
		return "cache_store"
	default:
		return "unknown"
	}
}

// ItemFailure wraps a per-item pipeline error with its failure kind.
type ItemFailure struct {
	Kind FailureKind
	Err  error
}

func (e *ItemFailure) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *ItemFailure) Unwrap() error {
	return e.Err
}

// NewItemFailure creates a new per-item failure of the given kind.
func NewItemFailure(kind FailureKind, err error) *ItemFailure {
	return &ItemFailure{Kind: kind, Err: err}
}

// KindOf returns the failure kind carried by err, or FailureNone when err
// is nil or not an item failure.
func KindOf(err error) FailureKind {
	var f *ItemFailure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureNone
}
