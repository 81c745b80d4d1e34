package sra

import (
	"errors"
	"fmt"
)

// ErrMalformedMetadata marks archive responses whose structure does not match
// any handled shape. Lookup failures during tree construction wrap it and
// abort the whole fetch.
var ErrMalformedMetadata = errors.New("malformed metadata")

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMetadata, fmt.Sprintf(format, args...))
}
