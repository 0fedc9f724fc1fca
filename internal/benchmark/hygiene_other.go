//go:build !linux

package benchmark

import (
	"fmt"
	"runtime"
)

func pinThread(cpu int) (func(), error) {
	return nil, fmt.Errorf("cpu pinning is not supported on %s", runtime.GOOS)
}
