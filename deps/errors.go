package deps

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMetadata = errors.New("malformed package metadata")
	ErrIndeterminate     = errors.New("version match is indeterminate")
	ErrUnknownSource     = errors.New("unknown dependency metadata source")
)

// MalformedMetadataError means the metadata itself is broken, as opposed to
// the package being absent or mismatched.
type MalformedMetadataError struct {
	Package string
	Version string
	Reason  string
}

func (e *MalformedMetadataError) Error() string {
	return fmt.Sprintf("malformed metadata for %s: %s (got %q)", e.Package, e.Reason, e.Version)
}

func (e *MalformedMetadataError) Is(target error) bool {
	return target == ErrMalformedMetadata
}
