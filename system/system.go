// Package system wires the CPU, Bus, DMA, and GPU together into a
// bootable machine, the PSX analogue of the teacher's console.New/Bus
// pairing. It owns the step loop and the optional interactive debug
// console (SPEC_FULL.md section 4.8), grounded on console/bus.go's
// BIOS(ctx) REPL.
package system

import (
	"context"
	"log/slog"

	"github.com/lptafa/rstationx/bios"
	"github.com/lptafa/rstationx/bus"
	"github.com/lptafa/rstationx/cpu"
	"github.com/lptafa/rstationx/gpu"
	"github.com/lptafa/rstationx/renderer"
)

// System is the assembled machine: a CPU driving a Bus that owns RAM,
// BIOS, the DMA controller, and the GPU.
type System struct {
	CPU *cpu.CPU
	Bus *bus.Bus
	log *slog.Logger
}

// New wires a fresh machine around biosImage, rendering through r.
func New(biosImage *bios.BIOS, r renderer.Renderer, log *slog.Logger) *System {
	b := bus.New(biosImage, gpu.New(r), log)
	return &System{
		CPU: cpu.New(b),
		Bus: b,
		log: log,
	}
}

// Run steps the CPU until ctx is cancelled, logging and halting on a
// fatal (taxon-2) error per spec section 7.
func (s *System) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := s.CPU.Step(); err != nil {
				s.log.Error("fatal interpreter error", "err", err, "cpu", s.CPU.String())
				return
			}
		}
	}
}

// Step advances the machine by exactly one instruction, surfacing any
// fatal error to the caller instead of logging it — used by the debug
// console's single-step command.
func (s *System) Step() error {
	return s.CPU.Step()
}

// String renders the CPU's one-line diagnostic dump.
func (s *System) String() string {
	return s.CPU.String()
}
