package reconciler

import (
	"github.com/crmarques/intersync/faults"
)

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func validationErrorf(format string, args ...any) error {
	return faults.NewTypedErrorf(faults.ValidationError, format, args...)
}

func ambiguousMatchError(format string, args ...any) error {
	return faults.NewTypedErrorf(faults.AmbiguousMatchError, format, args...)
}
