//go:build linux

package workerpool

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrInvalidCPU is returned by PinToCPU for a CPU the calling thread is
// not allowed to run on, e.g. one outside the container's cpuset.
var ErrInvalidCPU = errors.New("workerpool: cpu not in the allowed set")

// PinToCPU restricts the calling OS thread to a single CPU.
// The caller must hold runtime.LockOSThread.
func PinToCPU(cpu int) error {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return fmt.Errorf("sched_getaffinity: %w", err)
	}
	if cpu < 0 || !allowed.IsSet(cpu) {
		return fmt.Errorf("%w: cpu %d (allowed %d)", ErrInvalidCPU, cpu, allowed.Count())
	}

	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
	}
	return nil
}
