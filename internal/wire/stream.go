package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBuffer is returned by Reader/Writer operations that would
// read or write past the end of the underlying span. Per spec.md §4.1,
// out-of-bounds access fails the current operation and propagates as a
// fatal frame error — callers should treat it as such and drop the
// connection.
var ErrShortBuffer = errors.New("wire: short buffer")

// Reader is a read-only cursor over a byte span: the source stream of
// spec.md §4.1. All multi-byte values are little-endian.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for typed reads starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Cursor returns the current read offset.
func (r *Reader) Cursor() int { return r.off }

// Size returns the total length of the underlying span.
func (r *Reader) Size() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Seek repositions the cursor to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.buf) {
		return ErrShortBuffer
	}
	r.off = offset
	return nil
}

func (r *Reader) need(n int) error {
	if r.off+n > len(r.buf) {
		return ErrShortBuffer
	}
	return nil
}

// ReadByte reads one unsigned byte (spec.md §3: "Integers: ... fixed
// width (8/16/32/64)").
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// ReadBool reads one byte and reports it as a boolean: 0 is false,
// anything else is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadByte()
	return v != 0, err
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// ReadI32 reads a little-endian signed int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 float32.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

// ReadString reads a null-terminated string and returns the bytes
// before the terminator, bounded by the remaining payload (spec.md
// §3: "Strings: null-terminated, read until the zero byte; bounded by
// the remaining payload").
func (r *Reader) ReadString() (string, error) {
	start := r.off
	for r.off < len(r.buf) {
		if r.buf[r.off] == 0 {
			s := string(r.buf[start:r.off])
			r.off++
			return s, nil
		}
		r.off++
	}
	// Ran off the end without a terminator: bounded by what remains.
	return string(r.buf[start:r.off]), nil
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.off:r.off+n])
	r.off += n
	return b, nil
}

// Writer is a write cursor over a byte span: the sink stream of
// spec.md §4.1. It grows its backing slice as needed.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with a small initial capacity.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 128)}
}

// Bytes returns the written bytes so far.
func (w *Writer) Bytes() []byte { return w.buf }

// Cursor returns the current write length (there is no separate
// cursor concept for an append-only sink; Seek truncates/reserves).
func (w *Writer) Cursor() int { return len(w.buf) }

// Seek grows (zero-filling) or truncates the buffer to the given
// length.
func (w *Writer) Seek(offset int) {
	if offset <= len(w.buf) {
		w.buf = w.buf[:offset]
		return
	}
	w.buf = append(w.buf, make([]byte, offset-len(w.buf))...)
}

// WriteByte writes one byte.
func (w *Writer) WriteByte(v byte) { w.buf = append(w.buf, v) }

// WriteBool writes one byte: 1 for true, 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteI32 writes a little-endian signed int32.
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

// WriteF32 writes a little-endian IEEE-754 float32.
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteString writes the string bytes followed by a NUL terminator.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteAt overwrites len(b) bytes starting at offset without moving
// the end of the buffer.
func (w *Writer) WriteAt(offset int, b []byte) error {
	if offset+len(b) > len(w.buf) {
		return ErrShortBuffer
	}
	copy(w.buf[offset:offset+len(b)], b)
	return nil
}
