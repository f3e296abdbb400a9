// Package device declares the contracts the bus uses to dispatch I/O-page
// register accesses to peripherals, and the external-collaborator
// interfaces: disks, tape, terminals and the line clock are never
// implemented here, only consumed through these interfaces.
package device

// Register is the interface a bus-mapped I/O device register handler
// implements. ReadWord/WriteWord receive the I/O-page address of the
// access, normalized by the bus into the 0160000-0177777 window. Reset reinitializes device register state
// (not attached media) on a CPU RESET instruction or bus reset.
type Register interface {
	ReadWord(ioAddr uint32) (value uint16, ok bool)
	WriteWord(ioAddr uint32, value uint16) (ok bool)
	Reset()
}

// Ticker is implemented by devices that need to observe the passage of
// emulated time, such as the KW11-L line clock. Tick is called once per
// scheduler quantum with the number of elapsed units.
type Ticker interface {
	Tick(units int)
}

// BlockStore is the interface disk backends (RK05, RL02, RP06) present to
// the core. Sector size is device specific; offset and n are in bytes.
type BlockStore interface {
	ReadAt(offsetBytes int64, n int) ([]byte, error)
	WriteAt(offsetBytes int64, data []byte) error
	Size() int64
}

// TapeImage is the interface the TM11 tape drive consumes: sequential,
// record oriented access with seek-by-records and rewind.
type TapeImage interface {
	Read(n int) ([]byte, error)
	Write(data []byte) error
	Seek(records int) error
	Rewind()
}

// ByteChannel is the interface consoles and serial lines (DL11, DC11)
// present to the core. Line discipline (telnet IAC negotiation, CRLF
// mapping) is the caller's problem, not the channel's.
type ByteChannel interface {
	Poll() bool
	Recv() (byte, error)
	Send(data []byte) error
}

// TickSource is the interface the KW11-L line-frequency clock consumes:
// a periodic external caller that advances emulated line-clock ticks.
type TickSource interface {
	Subscribe(fn func())
}

// InterruptSink is implemented by anything that can accept a vectored
// interrupt request from a device thread. The CPU implements this;
// devices hold a reference to post interrupts.
type InterruptSink interface {
	QueueInterrupt(level int, vector uint8)
}

// NoDevice marks "no device present".
const NoDevice uint16 = 0xffff
