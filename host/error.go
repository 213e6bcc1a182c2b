package host

import "system-transparency.org/wrmsr/sterror"

// ErrScope marks errors originating from the host environment.
const ErrScope = sterror.Host

// Error reports problems regarding the host environment and hardware.
type Error string

// Error implements error interface.
func (e Error) Error() string {
	return string(e)
}

// ErrUnsupported is returned by operations the running
// platform does not provide.
const ErrUnsupported = Error("not supported on this platform")
