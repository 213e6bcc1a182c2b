package opts

// Error reports problems while loading and validating invocation options.
type Error string

// Error implements error interface.
func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidRegister  = Error("register is not an unsigned 32-bit number")
	ErrInvalidValue     = Error("value is not an unsigned 64-bit number")
	ErrMissingValues    = Error("no values to write")
	ErrInvalidProcessor = Error("processor is not a number")
	ErrProcessorRange   = Error("processor out of range 0-255")
	ErrEmptyDevicePath  = Error("empty device path")
)
