//go:build !unix

// internal/sweep/platform_other.go
package sweep

import (
	"errors"
	"runtime"
)

func platform() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}

func childUsage() (Usage, error) {
	return Usage{}, errors.New("resource usage is not available on " + runtime.GOOS)
}
