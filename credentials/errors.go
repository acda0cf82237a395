package credentials

import "github.com/crmarques/intersync/faults"

func malformedKeyError(message string, cause error) error {
	return faults.NewTypedError(faults.MalformedKeyError, message, cause)
}

func unsupportedKeyError(format string, args ...any) error {
	return faults.NewTypedErrorf(faults.UnsupportedKeyError, format, args...)
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
