package cpu

import "fmt"

// errUnhandledCop0Read/Write cover COP0 sub-register accesses spec 4.6
// doesn't attach an architectural exception to; treated as taxon-2
// unimplemented behavior (spec 7), fatal-for-now up the call stack.
func errUnhandledCop0Read(reg uint32) error {
	return fmt.Errorf("cpu: unhandled COP0 read of register %d", reg)
}

func errUnhandledCop0Write(reg uint32) error {
	return fmt.Errorf("cpu: unhandled COP0 write to register %d", reg)
}
