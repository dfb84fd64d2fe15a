package downloader

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is returned when the transport
	// fails to retrieve the resource.
	ErrNetwork = errors.New("fetching resource")
	// ErrEmptyResponse is returned when the resource
	// was retrieved but contained no data.
	ErrEmptyResponse = errors.New("empty response")
	// ErrIntegrity is returned when the retrieved data
	// does not hash to the expected value.
	ErrIntegrity = errors.New("sha256 hash does not match")
)

// IntegrityError describes a digest mismatch.
type IntegrityError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s: expected '%s' but got '%s'", ErrIntegrity, e.URL, e.Expected, e.Actual)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}
