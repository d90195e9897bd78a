package export

import (
	"errors"
	"fmt"
)

// AlertMessage is the single user-facing message for a failed export.
const AlertMessage = "Could not export the image. Please try again."

// ErrExportInProgress is returned when the card already has an export in flight.
var ErrExportInProgress = errors.New("currently exporting")

// ErrRemoteNotConfigured is returned by a remote renderer without an endpoint.
var ErrRemoteNotConfigured = errors.New("remote renderer not configured")

// ExportError is a fatal local-tier failure. Message is safe to show to users.
type ExportError struct {
	Message string
	Cause   error
}

func (e *ExportError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

func newExportError(cause error) *ExportError {
	return &ExportError{Message: AlertMessage, Cause: cause}
}
