package cpu

import "github.com/rcornwell/pdp1170/internal/mmu"

// Breakpoint is a composable predicate over CPU/memory state, checked
// before each instruction executes, with PC at that instruction's
// address. It is optional: a CPU with no
// breakpoint tree attached pays no per-step cost beyond the nil check
// in Step.
type Breakpoint interface {
	Match(c *CPU) bool
}

type breakpointTree struct {
	root Breakpoint
	hits []uint16
	onHit func(pc uint16)
}

// AtPC matches when PC equals addr.
type AtPC uint16

func (a AtPC) Match(c *CPU) bool { return c.pc == uint16(a) }

// RegEquals matches when general register n holds value.
type RegEquals struct {
	Reg   uint8
	Value uint16
}

func (r RegEquals) Match(c *CPU) bool { return c.reg(r.Reg) == r.Value }

// MemEquals matches when the word at a virtual D-space address,
// translated under the CPU's current mode, equals Value. A fault
// during the peek (unmapped page, etc.) is treated as no-match rather
// than raised, since breakpoint evaluation must never itself trap.
type MemEquals struct {
	Addr  uint16
	Value uint16
}

func (m MemEquals) Match(c *CPU) bool {
	if c.bus == nil {
		return false
	}
	v, flt := c.bus.Read(m.Addr, Word, CurMode, true, mmu.DSpace)
	if flt != nil {
		return false
	}
	return v == m.Value
}

// And/Or compose sub-predicates.
type And []Breakpoint

func (a And) Match(c *CPU) bool {
	for _, b := range a {
		if !b.Match(c) {
			return false
		}
	}
	return true
}

type Or []Breakpoint

func (o Or) Match(c *CPU) bool {
	for _, b := range o {
		if b.Match(c) {
			return true
		}
	}
	return false
}

// SetBreakpoint installs root as the CPU's breakpoint predicate, and
// onHit as the callback invoked (on the execution thread, before the
// instruction at the matching PC runs) when it matches. A nil root
// disables breakpoint checking.
func (c *CPU) SetBreakpoint(root Breakpoint, onHit func(pc uint16)) {
	if root == nil {
		c.bp = nil
		return
	}
	c.bp = &breakpointTree{root: root, onHit: onHit}
}

func (t *breakpointTree) onFetch(c *CPU, _ uint16) {
	if t.root.Match(c) {
		t.hits = append(t.hits, c.pc)
		if t.onHit != nil {
			t.onHit(c.pc)
		}
	}
}
