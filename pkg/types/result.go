// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// FetchKind tags the variant held by a FetchResult.
type FetchKind int

const (
	FetchSuccess FetchKind = iota
	FetchHTTPError
	FetchNetworkError
	FetchTimeout
)

func (k FetchKind) String() string {
	switch k {
	case FetchSuccess:
		return "success"
	case FetchHTTPError:
		return "http_error"
	case FetchNetworkError:
		return "network_error"
	case FetchTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// FetchResult is the outcome of fetching one identifier. Only the fields
// belonging to Kind are meaningful.
type FetchResult struct {
	Kind FetchKind

	// Body and ContentType are set for FetchSuccess.
	Body        []byte
	ContentType string

	// URL is the final URL after redirects, when known.
	URL string

	// StatusCode is set for FetchHTTPError.
	StatusCode int

	// Err is set for FetchNetworkError and FetchTimeout.
	Err error
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool { return r.Kind == FetchSuccess }

// Reason returns a short description of a failed fetch.
func (r FetchResult) Reason() string {
	switch r.Kind {
	case FetchSuccess:
		return ""
	case FetchHTTPError:
		return fmt.Sprintf("HTTP %d", r.StatusCode)
	case FetchTimeout:
		if r.Err != nil {
			return fmt.Sprintf("timeout: %v", r.Err)
		}
		return "timeout"
	default:
		if r.Err != nil {
			return fmt.Sprintf("network error: %v", r.Err)
		}
		return "network error"
	}
}

// ExtractionKind tags the variant held by an ExtractionResult.
type ExtractionKind int

const (
	ExtractionFound ExtractionKind = iota
	ExtractionNotFound
	ExtractionError
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractionFound:
		return "found"
	case ExtractionNotFound:
		return "not_found"
	case ExtractionError:
		return "error"
	default:
		return "unknown"
	}
}

// ExtractionResult distinguishes "looked and found nothing" (NotFound)
// from "could not look" (Error).
type ExtractionResult struct {
	Kind ExtractionKind
	Text string
	Err  error
}

// Found returns a result carrying text.
func Found(text string) ExtractionResult {
	return ExtractionResult{Kind: ExtractionFound, Text: text}
}

// NotFound returns an empty result.
func NotFound() ExtractionResult {
	return ExtractionResult{Kind: ExtractionNotFound}
}

// ExtractorError returns a result carrying the cause of a failed lookup.
func ExtractorError(err error) ExtractionResult {
	return ExtractionResult{Kind: ExtractionError, Err: err}
}
