package system

import (
	"context"
	"fmt"
)

// readAddress reads a hex address from stdin, styled on
// console/bus.go's readAddress helper.
func readAddress(prompt string) uint32 {
	var a uint32
	fmt.Print(prompt)
	fmt.Scanf("%x\n", &a)
	return a
}

// DebugConsole runs the interactive debugger loop described in
// SPEC_FULL.md section 4.8: breakpoints, single step, memory dump,
// register dump, reset, run-to-completion (or to the next breakpoint).
// It is reachable from the CLI behind --debug-console and carries no
// invariants of its own.
func (s *System) DebugConsole(ctx context.Context) {
	breaks := make(map[uint32]struct{})

	for {
		fmt.Printf("%s\n\n", s)
		fmt.Println("(B)reak - add breakpoint")
		fmt.Println("(C)lear - clear breakpoints")
		fmt.Println("(R)un - run to completion or next breakpoint")
		fmt.Println("(S)tep - step one instruction")
		fmt.Println("R(e)set - reset PC to the BIOS entry point")
		fmt.Println("(M)emory - dump a memory range")
		fmt.Println("(P)C - set program counter")
		fmt.Println("(Q)uit - exit the debug console")
		fmt.Print("Choice: ")

		var in rune
		fmt.Scanf("%c\n", &in)

		switch in {
		case 'b', 'B':
			breaks[readAddress("Breakpoint (hex, e.g. bfc00100): ")] = struct{}{}
		case 'c', 'C':
			breaks = make(map[uint32]struct{})
		case 'r', 'R':
			s.runToBreakpoint(ctx, breaks)
		case 's', 'S':
			if err := s.Step(); err != nil {
				fmt.Printf("fatal: %v\n", err)
			}
		case 'e', 'E':
			s.CPU.SetPC(0xBFC0_0000)
		case 'p', 'P':
			s.CPU.SetPC(readAddress("Set PC to (hex): "))
		case 'm', 'M':
			low := readAddress("Low address (hex): ")
			high := readAddress("High address (hex): ")
			s.dumpMemory(low, high)
		case 'q', 'Q':
			return
		}
	}
}

func (s *System) runToBreakpoint(ctx context.Context, breaks map[uint32]struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, hit := breaks[s.CPU.PC()]; hit {
			fmt.Printf("breakpoint hit at 0x%08x\n", s.CPU.PC())
			return
		}
		if err := s.Step(); err != nil {
			fmt.Printf("fatal: %v\n", err)
			return
		}
	}
}

func (s *System) dumpMemory(low, high uint32) {
	fmt.Println()
	x := 0
	for addr := low; ; addr++ {
		v, err := s.Bus.LoadByte(addr)
		if err != nil {
			fmt.Printf("0x%08x: <error: %v> ", addr, err)
		} else {
			fmt.Printf("0x%08x: 0x%02x ", addr, v)
		}
		x++
		if x%4 == 0 {
			fmt.Println()
		}
		if addr == high {
			break
		}
	}
	fmt.Printf("\n\n")
}
