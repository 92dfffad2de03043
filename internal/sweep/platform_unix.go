//go:build unix

// internal/sweep/platform_unix.go
package sweep

import (
	"golang.org/x/sys/unix"
)

// platform renders uname as <sysname>-<release>-<machine>.
func platform() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "unknown"
	}
	return unix.ByteSliceToString(u.Sysname[:]) + "-" +
		unix.ByteSliceToString(u.Release[:]) + "-" +
		unix.ByteSliceToString(u.Machine[:])
}

// childUsage reports the resources consumed by every child process that
// has been waited for so far.
func childUsage() (Usage, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &ru); err != nil {
		return Usage{}, err
	}
	return Usage{
		MaxRSS: int64(ru.Maxrss),
		User:   float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6,
		System: float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6,
	}, nil
}
