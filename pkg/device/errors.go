package device

import "errors"

var (
	// ErrNotFound indicates a device or preset was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates a device name is already registered
	ErrDuplicateName = errors.New("device name already registered")

	// ErrInvalidConfig indicates required connection parameters are missing
	ErrInvalidConfig = errors.New("invalid device config")

	// ErrUnreachable indicates a transport failure talking to the device
	ErrUnreachable = errors.New("device unreachable")

	// ErrUnsupported indicates an operation is not supported by the device
	ErrUnsupported = errors.New("operation not supported")
)
