// Package papertape reads and writes the BIC/LDA paper-tape loader
// record stream: a sequence of records, each framed by a sync byte and
// a checksum, carrying a load address and a payload to be poked
// directly into memory.
//
// A single *os.File is wrapped with explicit Attach/Detach rather than
// taking an io.Reader at construction, so callers can report the
// attached file name. The stream is forward-only (no seek), since
// BIC/LDA is a bootstrap loader format, not a record-delimited magtape
// container.
package papertape

import (
	"bufio"
	"errors"
	"io"
	"os"
)

const (
	syncByte byte = 0x01
	zeroByte byte = 0x00

	// startAddr is the load address (1) that marks the terminating
	// record; a length-6 (header-only) record with any other address
	// sets the start PC instead of loading a block.
	startAddr uint16 = 1
)

var (
	// ErrChecksum is returned by ReadRecord when a record's checksum
	// byte does not make the running sum zero mod 256.
	ErrChecksum = errors.New("papertape: checksum error")
	// ErrShortRecord is returned for a record whose declared length
	// is too small to hold its own 6-byte header.
	ErrShortRecord = errors.New("papertape: record shorter than header")
)

// Record is one decoded BIC/LDA record.
type Record struct {
	Address uint16 // load address, or the start PC if IsStart
	Data    []byte // payload, empty for a start-PC record
	IsStart bool   // true if this record sets the start PC instead of loading data
}

// Reader decodes a BIC/LDA stream from an underlying file, wrapping
// *os.File with explicit Attach/Detach rather than taking an io.Reader
// at construction, so callers can report the attached file name.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

// Attach opens path for reading a BIC/LDA paper-tape image.
func Attach(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, r: bufio.NewReader(f)}, nil
}

// Detach closes the underlying file.
func (r *Reader) Detach() error {
	return r.f.Close()
}

// FileName returns the attached file's path, or "" if not attached.
func (r *Reader) FileName() string {
	if r.f == nil {
		return ""
	}
	return r.f.Name()
}

// ReadRecord decodes the next record from the stream. It skips
// leading filler bytes (anything other than the sync byte) the way
// real paper-tape readers tolerate leader/trailer blank tape, per the
// BIC/LDA convention.
func (r *Reader) ReadRecord() (Record, error) {
	// Scan for sync byte; anything else before it is leader filler.
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return Record{}, err
		}
		if b == syncByte {
			break
		}
	}

	b0, err := r.r.ReadByte()
	if err != nil {
		return Record{}, err
	}
	if b0 != zeroByte {
		// Not a real record header; keep scanning for the next sync.
		return r.ReadRecord()
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(r.r, header); err != nil {
		return Record{}, err
	}
	length := uint16(header[0]) | uint16(header[1])<<8
	addr := uint16(header[2]) | uint16(header[3])<<8

	if length < 6 {
		return Record{}, ErrShortRecord
	}

	sum := int(header[0]) + int(header[1]) + int(header[2]) + int(header[3])

	payload := make([]byte, int(length)-6)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r.r, payload); err != nil {
			return Record{}, err
		}
		for _, b := range payload {
			sum += int(b)
		}
	}

	checksum, err := r.r.ReadByte()
	if err != nil {
		return Record{}, err
	}
	sum += int(checksum)
	if sum&0xff != 0 {
		return Record{}, ErrChecksum
	}

	if length == 6 && addr != startAddr {
		return Record{Address: addr, IsStart: true}, nil
	}
	return Record{Address: addr, Data: payload}, nil
}

// IsTerminator reports whether rec is the address=1 record that ends
// the stream.
func IsTerminator(rec Record) bool {
	return rec.Address == startAddr && len(rec.Data) == 0 && !rec.IsStart
}

// Writer encodes a BIC/LDA stream, the inverse of Reader, used by
// tests and by any future tool that packages a memory image as a
// loadable tape.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Create opens path for writing a BIC/LDA paper-tape image.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// WriteRecord encodes a data-load record for addr/data.
func (w *Writer) WriteRecord(addr uint16, data []byte) error {
	length := 6 + len(data)
	header := []byte{
		byte(length & 0xff), byte(length >> 8 & 0xff),
		byte(addr & 0xff), byte(addr >> 8 & 0xff),
	}
	sum := 0
	for _, b := range header {
		sum += int(b)
	}
	for _, b := range data {
		sum += int(b)
	}
	checksum := byte((256 - sum&0xff) & 0xff)

	if _, err := w.w.Write([]byte{syncByte, zeroByte}); err != nil {
		return err
	}
	if _, err := w.w.Write(header); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	return w.w.WriteByte(checksum)
}

// WriteStart writes the length-6 record that sets the start PC.
func (w *Writer) WriteStart(pc uint16) error {
	return w.WriteRecord(pc, nil)
}

// WriteTerminator writes the address=1 record ending the stream.
func (w *Writer) WriteTerminator() error {
	return w.WriteRecord(startAddr, nil)
}
