package resolver

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching across the error taxonomy.
var (
	ErrNotFound             = errors.New("application not found")
	ErrPlatformNotSupported = errors.New("platform not supported")
	ErrLaunchFailed         = errors.New("launch failed")

	// errAccessDenied marks probe-level permission failures. It is always
	// recovered locally by skipping the item and never reaches callers.
	errAccessDenied = errors.New("access denied")
)

// NotFoundError reports that no probe, cache entry, or fallback produced a
// runnable target for a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("application %q not found", e.Name)
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PlatformNotSupportedError reports that the factory was invoked on an
// unrecognized operating system.
type PlatformNotSupportedError struct {
	OS string
}

func (e *PlatformNotSupportedError) Error() string {
	return fmt.Sprintf("platform %q not supported", e.OS)
}

// Is makes PlatformNotSupportedError match ErrPlatformNotSupported.
func (e *PlatformNotSupportedError) Is(target error) bool {
	return target == ErrPlatformNotSupported
}

// LaunchFailedError reports that the OS refused to start a resolved or
// fallback target.
type LaunchFailedError struct {
	Target string
	Err    error
}

func (e *LaunchFailedError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Target, e.Err)
}

func (e *LaunchFailedError) Unwrap() error {
	return e.Err
}

// Is makes LaunchFailedError match ErrLaunchFailed.
func (e *LaunchFailedError) Is(target error) bool {
	return target == ErrLaunchFailed
}
