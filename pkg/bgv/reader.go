package bgv

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/matzehuels/seafoam/pkg/errors"
)

const maxVarintLen = binary.MaxVarintLen64

// Reader decodes big-endian primitives from a byte stream and tracks how
// many bytes it has consumed. It is forward only.
type Reader struct {
	r   *bufio.Reader
	off int64
	buf [8]byte
}

// NewReader wraps r in a buffered Reader starting at offset 0.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.off }

// AtEOF reports whether the stream has no more bytes. It does not consume
// anything.
func (r *Reader) AtEOF() (bool, error) {
	_, err := r.r.Peek(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, r.ioError(err)
	}
	return false, nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, r.ioError(err)
	}
	r.off++
	return b, nil
}

// Bool reads one byte that must be 0 or 1.
func (r *Reader) Bool() (bool, error) {
	start := r.off
	b, err := r.U8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.New(errors.ErrCodeDecode, "invalid boolean byte 0x%02x", b).WithOffset(start)
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.fill(2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

// S16 reads a big-endian int16.
func (r *Reader) S16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// S32 reads a big-endian int32.
func (r *Reader) S32() (int32, error) {
	if err := r.fill(4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(r.buf[:4])), nil
}

// S64 reads a big-endian int64.
func (r *Reader) S64() (int64, error) {
	if err := r.fill(8); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(r.buf[:8])), nil
}

// F32 reads a big-endian IEEE 754 single.
func (r *Reader) F32() (float32, error) {
	if err := r.fill(4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(r.buf[:4])), nil
}

// F64 reads a big-endian IEEE 754 double.
func (r *Reader) F64() (float64, error) {
	if err := r.fill(8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(r.buf[:8])), nil
}

// Uvarint reads an unsigned LEB128 integer of at most ten bytes.
func (r *Reader) Uvarint() (uint64, error) {
	start := r.off
	var x uint64
	var s uint
	for i := 0; i < maxVarintLen; i++ {
		b, err := r.U8()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			if i == maxVarintLen-1 && b > 1 {
				break
			}
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, errors.New(errors.ErrCodeDecode, "malformed varint").WithOffset(start)
}

// Varint reads a zigzag-encoded signed LEB128 integer.
func (r *Reader) Varint() (int64, error) {
	ux, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	x := int64(ux >> 1)
	if ux&1 != 0 {
		x = ^x
	}
	return x, nil
}

// Bytes reads exactly n bytes into a new slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	got, err := io.ReadFull(r.r, b)
	r.off += int64(got)
	if err != nil {
		return nil, r.ioError(err)
	}
	return b, nil
}

// Discard skips exactly n bytes without copying them.
func (r *Reader) Discard(n int) error {
	got, err := r.r.Discard(n)
	r.off += int64(got)
	if err != nil {
		return r.ioError(err)
	}
	return nil
}

func (r *Reader) fill(n int) error {
	got, err := io.ReadFull(r.r, r.buf[:n])
	r.off += int64(got)
	if err != nil {
		return r.ioError(err)
	}
	return nil
}

func (r *Reader) ioError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.New(errors.ErrCodeDecode, "truncated input").WithOffset(r.off)
	}
	return errors.Wrap(errors.ErrCodeDecode, err, "read").WithOffset(r.off)
}
