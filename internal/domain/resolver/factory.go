package resolver

import "runtime"

// New creates the Resolver for the running operating system. Shared logic
// never branches on the OS again after this point.
func New(opts Options) (Resolver, error) {
	return newForOS(runtime.GOOS, opts)
}

func newForOS(goos string, opts Options) (Resolver, error) {
	var p platform
	switch goos {
	case "windows":
		p = newWindowsPlatform(opts)
	case "linux":
		p = newLinuxPlatform(opts)
	case "darwin":
		p = newDarwinPlatform(opts)
	default:
		return nil, &PlatformNotSupportedError{OS: goos}
	}
	return newEngine(p, opts), nil
}
