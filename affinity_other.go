//go:build !linux

package workerpool

import "errors"

// ErrPinUnsupported is returned by PinToCPU on platforms without
// thread affinity support.
var ErrPinUnsupported = errors.New("workerpool: cpu pinning is only supported on linux")

func PinToCPU(cpu int) error { return ErrPinUnsupported }
