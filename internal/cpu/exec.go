package cpu

import (
	"log/slog"

	"github.com/rcornwell/pdp1170/internal/mmu"
)

// Step runs one cycle: it either delivers a pending interrupt or does
// one instruction's opcode fetch, decode and execute, with any bus/MMU fault along the way routed
// through trap() instead of a language-level exception; every fallible
// step here returns a *mmu.Fault instead of panicking.
func (c *CPU) Step() {
	if !c.mmuRef.Locked() {
		c.mmuRef.ClearMMR1()
		c.mmuRef.SetMMR2(c.pc)
	}

	if _, vec, ok := c.nextInterrupt(); ok {
		c.waiting = false
		// The interrupt's new IPL comes from the PSW word at vector+2,
		// not from the device's request level.
		c.trap(uint16(vec), -1)
		return
	}
	if c.waiting {
		return
	}

	trace := c.psw&pswT != 0 && !c.tSuppress
	c.tSuppress = false

	word, flt := c.fetchWord()
	if flt != nil {
		c.handleFault(flt)
		return
	}
	if c.debug&debugTrace != 0 {
		slog.Debug("step", "pc", c.pc-2, "opcode", word)
	}

	if flt := c.execute(word); flt != nil {
		c.handleFault(flt)
		return
	}

	// T-bit trace: one trap through vector 014 after each instruction
	// executed with T set, unless the instruction was RTT.
	if trace && !c.tSuppress {
		c.trap(vecBPT, -1)
	}
}

func (c *CPU) handleFault(flt *mmu.Fault) {
	if c.debug&debugTrap != 0 {
		slog.Debug("cpu fault", "kind", flt.Error(), "vector", flt.Vector, "pc", c.pc)
	}
	c.trap(flt.Vector, -1)
}

// trap pushes PSW/PC onto the kernel stack and loads the new PC/PSW
// from vector. It captures the pre-trap PSW/PC once and carries them
// through any nested re-entry caused by a fault during trap processing
// itself.
func (c *CPU) trap(vector uint16, newIPL int) {
	c.enterVector(vector, newIPL, c.psw, c.pc, 1)
}

// enterVector is the trap sequence: read the new PC/PSW pair from the
// vector, push the old PSW then PC onto the new (kernel) stack, then
// switch. depth counts trap nesting: depth>=3 halts the machine (triple
// fault); depth==2 forces the vector-4 double-fault redirect with the
// stack pointer pinned to a known-good low address, since whatever
// stack caused the first fault cannot be trusted for a second push.
//
// The mode switch to kernel happens before the vector reads so they
// (and the stack pushes) translate through the kernel map; a fault in
// any of them re-enters with the original pre-trap PSW/PC and an
// incremented depth.
func (c *CPU) enterVector(vector uint16, newIPL int, savedPSW, savedPC uint16, depth int) {
	if depth >= 3 {
		c.stop = StopHalt
		return
	}

	forceDoubleFault := depth == 2
	if forceDoubleFault {
		vector = vecBus
	}

	c.pushModes(mmu.Kernel)
	if forceDoubleFault {
		c.setSP(4)
	}

	newPC, flt := c.bus.Read(vector, Word, CurMode, false, mmu.DSpace)
	if flt != nil {
		c.enterVector(vecBus, newIPL, savedPSW, savedPC, depth+1)
		return
	}
	newPSWWord, flt := c.bus.Read(vector+2, Word, CurMode, false, mmu.DSpace)
	if flt != nil {
		c.enterVector(vecBus, newIPL, savedPSW, savedPC, depth+1)
		return
	}

	if flt := c.pushWord(savedPSW); flt != nil {
		c.enterVector(vecBus, newIPL, savedPSW, savedPC, depth+1)
		return
	}
	if flt := c.pushWord(savedPC); flt != nil {
		c.enterVector(vecBus, newIPL, savedPSW, savedPC, depth+1)
		return
	}

	c.pc = newPC
	newPSW := newPSWWord
	newPSW &^= pswCurMask | pswPrevMask
	newPSW |= uint16(mmu.Kernel) << pswCurShift
	newPSW |= uint16(modeFromPSW(savedPSW)) << pswPrevShift
	if newIPL >= 0 {
		newPSW = (newPSW &^ pswIPLMask) | (uint16(newIPL&7) << pswIPLShift)
	}
	c.psw = newPSW
}

func modeFromPSW(psw uint16) mmu.Mode {
	return mmu.Mode((psw & pswCurMask) >> pswCurShift)
}

// pushWord decrements the active stack pointer and stores v. A kernel
// push below the stack-limit register's boundary faults to vector 4;
// there is no yellow/red zone distinction, and a limit of zero never
// trips (SP wraparound aside), so trap processing at the pinned SP=4
// still works.
func (c *CPU) pushWord(v uint16) *mmu.Fault {
	sp := c.SP() - 2
	c.setSP(sp)
	if limit := c.stackLimit & 0xff00; limit != 0 && c.curMode() == mmu.Kernel && sp < limit {
		return &mmu.Fault{Kind: mmu.FaultAbort, Vector: vecBus}
	}
	_, flt := c.bus.Write(sp, Word, v, CurMode, mmu.DSpace)
	return flt
}

func (c *CPU) popWord() (uint16, *mmu.Fault) {
	sp := c.SP()
	v, flt := c.bus.Read(sp, Word, CurMode, false, mmu.DSpace)
	if flt != nil {
		return 0, flt
	}
	c.setSP(sp + 2)
	return v, nil
}

// -- interrupt controller ---------------------------------------------

// QueueInterrupt implements device.InterruptSink: a device goroutine
// posts a pending request at a priority level and vector; the run loop
// picks it up on the next Step if no higher/equal pending local
// request preempts it and the CPU's IPL permits it. Devices call this
// from arbitrary goroutines, so it is synchronized and wakes a
// WAIT-blocked CPU.
func (c *CPU) QueueInterrupt(level int, vector uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < 0 || level > 7 {
		return
	}
	if c.debug&debugIRQ != 0 {
		slog.Debug("interrupt queued", "level", level, "vector", vector)
	}
	c.pending[level][vector] = true
	c.cond.Broadcast()
}

// nextInterrupt returns the highest-priority pending interrupt whose
// level exceeds the CPU's current IPL, removing it from the pending
// set. Ties within a level are broken by ascending vector, matching
// SIMH/most references' arbitrary-but-stable tie-break.
func (c *CPU) nextInterrupt() (level int, vector uint8, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	curIPL := c.IPL()
	for lvl := 7; lvl > curIPL; lvl-- {
		set := c.pending[lvl]
		if len(set) == 0 {
			continue
		}
		var best uint8
		first := true
		for v := range set {
			if first || v < best {
				best = v
				first = false
			}
		}
		delete(set, best)
		return lvl, best, true
	}
	return 0, 0, false
}

// enterWait flags the WAIT instruction's idle state. The actual park
// happens in BlockUntilInterrupt, which the run loop calls once Step
// returns with Waiting() true; QueueInterrupt wakes it via the
// condition variable.
func (c *CPU) enterWait() {
	c.waiting = true
}

// BlockUntilInterrupt parks the calling goroutine until an interrupt
// is queued, for use by the run loop when enterWait has set c.waiting.
// Exported so package machine's run loop can avoid a spin poll.
func (c *CPU) BlockUntilInterrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.waiting && !c.anyPendingLocked() && c.stop == StopNone {
		c.cond.Wait()
	}
}

func (c *CPU) anyPendingLocked() bool {
	curIPL := c.IPL()
	for lvl := 7; lvl > curIPL; lvl-- {
		if len(c.pending[lvl]) > 0 {
			return true
		}
	}
	return false
}

// Waiting reports whether the CPU is idling in a WAIT instruction, so
// the run loop can park in BlockUntilInterrupt instead of spinning.
func (c *CPU) Waiting() bool {
	return c.waiting
}

// RequestStop asks the run loop to halt for reason r, waking a
// WAIT-blocked CPU so it can observe the request promptly.
func (c *CPU) RequestStop(r StopReason) {
	c.mu.Lock()
	c.stop = r
	c.cond.Broadcast()
	c.mu.Unlock()
}
