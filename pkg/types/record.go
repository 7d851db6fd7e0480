// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RecordStatus is the harvesting state of a record.
type RecordStatus string

const (
	StatusPending          RecordStatus = "pending"
	StatusFetched          RecordStatus = "fetched"
	StatusExtractionFailed RecordStatus = "extraction_failed"
	StatusFetchFailed      RecordStatus = "fetch_failed"
)

// Terminal reports whether the status ends the record's harvest.
func (s RecordStatus) Terminal() bool {
	return s != StatusPending && s != ""
}

// Record is one scholarly work read from the input list. Identity is the
// Identifier (usually a DOI); DisplayName is advisory.
type Record struct {
	// ID is the 1-based ordinal of the input row. It is the internal
	// identifier used for deterministic tie-breaks.
	ID int64 `json:"id" yaml:"id"`

	// Identifier is the DOI or other opaque identifier.
	Identifier string `json:"identifier" yaml:"identifier"`

	// DisplayName is the title as given in the input.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Abstract is the harvested abstract, empty when none was found.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	Status RecordStatus `json:"status" yaml:"status"`

	// Err describes why the record failed, if it did.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the record ended in a failure state.
func (r Record) Failed() bool {
	return r.Status == StatusFetchFailed || r.Status == StatusExtractionFailed
}
