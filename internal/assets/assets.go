// Package assets validates clip→asset references against an external asset
// registry. A document may only be persisted when every asset it references
// exists within the owning project and has finished uploading.
package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/haldane/cutroom/internal/timeline"
)

// Status is the upload lifecycle state of an asset.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusUploaded  Status = "uploaded"
	StatusFailed    Status = "failed"
)

// ValidStatuses defines the allowed asset statuses.
var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusUploading: true,
	StatusUploaded:  true,
	StatusFailed:    true,
}

// Usable reports whether clips may reference an asset in this status.
func (s Status) Usable() bool {
	return s == StatusUploaded
}

// Lookup resolves asset statuses within a project scope.
// Implemented by the SQLite/Postgres stores in production and by map-backed
// fakes in tests. Ids absent from the returned map do not exist in the
// project.
type Lookup interface {
	Statuses(ctx context.Context, projectID string, assetIDs []string) (map[string]Status, error)
}

// ReferenceCode categorizes asset reference failures.
type ReferenceCode string

const (
	// CodeInvalidReference indicates a referenced asset id that does not
	// exist within the project.
	CodeInvalidReference ReferenceCode = "INVALID_ASSET_REFERENCE"

	// CodeNotReady indicates an asset that exists but has not finished
	// uploading.
	CodeNotReady ReferenceCode = "ASSET_NOT_READY"
)

// ReferenceError reports a clip→asset reference that cannot be satisfied.
// Like structural validation errors, it is always raised before any version
// row is written.
type ReferenceError struct {
	Code    ReferenceCode
	AssetID string
	Status  Status
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	if e.Code == CodeNotReady {
		return fmt.Sprintf("%s: asset %s has status %q", e.Code, e.AssetID, e.Status)
	}
	return fmt.Sprintf("%s: asset %s not found in project", e.Code, e.AssetID)
}

// IsInvalidReference returns true if the error reports a missing asset.
// Uses errors.As to handle wrapped errors.
func IsInvalidReference(err error) bool {
	var re *ReferenceError
	return errors.As(err, &re) && re.Code == CodeInvalidReference
}

// IsNotReady returns true if the error reports an unusable asset status.
// Uses errors.As to handle wrapped errors.
func IsNotReady(err error) bool {
	var re *ReferenceError
	return errors.As(err, &re) && re.Code == CodeNotReady
}

// Validator checks a document's asset references against a Lookup.
type Validator struct {
	lookup Lookup
}

// NewValidator creates a Validator backed by the given lookup.
func NewValidator(lookup Lookup) *Validator {
	return &Validator{lookup: lookup}
}

// Validate confirms that every asset referenced by the document exists in
// the project and is usable. A document with no asset references succeeds
// without touching the lookup.
func (v *Validator) Validate(ctx context.Context, projectID string, doc *timeline.Document) error {
	ids := timeline.ReferencedAssetIDs(doc)
	if len(ids) == 0 {
		return nil
	}

	statuses, err := v.lookup.Statuses(ctx, projectID, ids)
	if err != nil {
		return fmt.Errorf("lookup asset statuses: %w", err)
	}

	for _, id := range ids {
		status, ok := statuses[id]
		if !ok {
			return &ReferenceError{Code: CodeInvalidReference, AssetID: id}
		}
		if !status.Usable() {
			return &ReferenceError{Code: CodeNotReady, AssetID: id, Status: status}
		}
	}
	return nil
}
