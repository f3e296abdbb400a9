// Package machine glues Memory, MMU, CPU and the Bus into one running
// system and owns the single execution-thread run loop.
//
// A goroutine loops the CPU's fetch/execute step behind a done channel
// and a command channel, with Start/Stop lifecycle methods and a
// WaitGroup for clean shutdown. Command plays the role of dispatching
// operator requests into that loop, sized to what this system actually
// needs.
package machine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcornwell/pdp1170/internal/bus"
	"github.com/rcornwell/pdp1170/internal/cpu"
	"github.com/rcornwell/pdp1170/internal/device"
	"github.com/rcornwell/pdp1170/internal/memory"
	"github.com/rcornwell/pdp1170/internal/mmu"
)

// StopEvent is the process-wide cancellation enumeration polled by the
// run loop between instructions. A CPU parked in WAIT does not see it
// until an interrupt or a CPU-level stop request (as Stop issues)
// wakes the CPU.
type StopEvent int32

const (
	StopNone StopEvent = iota
	StopHalt
	StopOperatorInterrupt
	StopTerminate
)

// CommandKind names the operator/device-thread requests the run loop
// accepts on its command channel.
type CommandKind int

const (
	CmdRun CommandKind = iota
	CmdStop
	CmdReset
)

// Command is one request enqueued to the running machine.
type Command struct {
	Kind CommandKind
}

// Machine owns every PDP-11/70 subsystem instance. Nothing here is a
// package-level singleton either.
type Machine struct {
	Mem *memory.Memory
	MMU *mmu.MMU
	CPU *cpu.CPU
	Bus *bus.Bus

	stop    atomic.Int32
	running atomic.Bool

	wg   sync.WaitGroup
	done chan struct{}
	cmds chan Command

	log *slog.Logger
}

// New constructs a machine with the given memory size in pages
// (memory.PageSize bytes each). Devices are attached afterward via
// m.Bus.RegisterDevice.
func New(pages int, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	mem := memory.New(pages)
	mmuRef := mmu.New()
	cpuRef := cpu.New(mmuRef)
	busRef := bus.New(mem, mmuRef, cpuRef)
	cpuRef.AttachBus(busRef)

	return &Machine{
		Mem:  mem,
		MMU:  mmuRef,
		CPU:  cpuRef,
		Bus:  busRef,
		done: make(chan struct{}),
		cmds: make(chan Command, 16),
		log:  log,
	}
}

// RaiseStop sets the stop event from any goroutine (operator console,
// a device thread, a signal handler). The run loop observes it at the
// next instruction boundary; RaiseStop does not wake a CPU parked in
// WAIT, so there it is observed only after the CPU wakes.
func (m *Machine) RaiseStop(ev StopEvent) {
	m.stop.Store(int32(ev))
}

// Submit enqueues an operator command (run/stop/reset) for the run loop
// to process between instructions.
func (m *Machine) Submit(c Command) {
	select {
	case m.cmds <- c:
	case <-m.done:
	}
}

// Start runs the CPU on its own goroutine, looping Step until a stop
// event fires or the machine is shut down. Only one Start/Stop pair may
// be in flight at a time.
func (m *Machine) Start() {
	m.wg.Add(1)
	go m.loop()
}

func (m *Machine) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			m.log.Info("machine shutdown")
			return
		case cmd := <-m.cmds:
			m.processCommand(cmd)
		default:
		}

		if !m.running.Load() {
			time.Sleep(time.Millisecond)
			continue
		}

		switch StopEvent(m.stop.Load()) {
		case StopTerminate:
			m.log.Info("machine terminate")
			return
		case StopHalt, StopOperatorInterrupt:
			m.running.Store(false)
			continue
		}

		m.CPU.Step()

		// WAIT parks the execution goroutine on the interrupt
		// controller's condition variable instead of spinning Step.
		if m.CPU.Waiting() && m.CPU.StopReason() == cpu.StopNone {
			m.CPU.BlockUntilInterrupt()
		}

		switch m.CPU.StopReason() {
		case cpu.StopHalt:
			m.log.Warn("CPU halted", "pc", m.CPU.PC())
			m.running.Store(false)
			m.CPU.ClearStop()
		case cpu.StopTerminate:
			m.CPU.ClearStop()
			m.RaiseStop(StopTerminate)
		}
	}
}

func (m *Machine) processCommand(cmd Command) {
	switch cmd.Kind {
	case CmdRun:
		m.stop.Store(int32(StopNone))
		m.running.Store(true)
	case CmdStop:
		m.running.Store(false)
	case CmdReset:
		m.running.Store(false)
		m.Bus.Reset()
		m.CPU.Reset()
	}
}

// Stop signals shutdown and waits (up to one second) for the run loop
// goroutine to exit. The CPU-level stop request wakes a WAIT-parked
// execution goroutine so it can observe the closed done channel.
func (m *Machine) Stop() {
	m.CPU.RequestStop(cpu.StopTerminate)
	close(m.done)
	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(time.Second):
		m.log.Warn("timed out waiting for CPU goroutine to stop")
	}
}

// RegisterDevice attaches dev to the normalized I/O-page window
// [start, end) on the bus. It does no other wiring: a device that
// posts interrupts takes InterruptSink() at construction, and a
// device.Ticker is not connected to any tick source here.
func (m *Machine) RegisterDevice(start, end uint32, dev device.Register) {
	m.Bus.RegisterDevice(start, end, dev)
}

// InterruptSink exposes the CPU's interrupt controller to devices, so
// constructors can wire device threads without reaching into m.CPU's
// other methods.
func (m *Machine) InterruptSink() device.InterruptSink {
	return m.CPU
}
