package asset

import "errors"

// Domain errors for the asset package.
//
//	if errors.Is(err, asset.ErrAssetNotFound) {
//	    // 404
//	}
var (
	// ErrAssetNotFound is returned when an asset ID does not exist.
	ErrAssetNotFound = errors.New("asset: not found")

	// ErrSerialNumberExists is returned when a serial number is already
	// used by another asset.
	ErrSerialNumberExists = errors.New("asset: serial number already exists")

	// ErrInvalidAsset is the sentinel wrapped by every ValidationError.
	ErrInvalidAsset = errors.New("asset: invalid")
)

// ValidationError describes the first payload check that failed.
// Message is safe to return to API callers verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrInvalidAsset) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidAsset
}
