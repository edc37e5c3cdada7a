package nbt

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Reader is a position-tracked cursor over a byte buffer. Every read checks
// bounds first and fails with ErrUnexpectedEOF instead of slicing past the
// end. Multi-byte integers are little-endian, with the Bedrock quirk that a
// 64-bit value is stored as two 4-byte little-endian halves with the high
// half first; switching the reader to big-endian (used only by the recovery
// scanner) drops the quirk and reads plain big-endian.
type Reader struct {
	data []byte
	pos  int
	big  bool
}

// NewReader returns a little-endian cursor positioned at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current read position.
func (r *Reader) Pos() int { return r.pos }

// SetPos moves the cursor. Positions past the end are allowed; the next read
// fails with ErrUnexpectedEOF.
func (r *Reader) SetPos(pos int) { r.pos = pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

func (r *Reader) require(n int) error {
	if r.pos < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%w: need %d bytes at offset 0x%x", ErrUnexpectedEOF, n, r.pos)
	}
	return nil
}

// ReadByte reads one byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadInt8 reads one byte as a signed integer.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadInt16 reads a 16-bit integer.
func (r *Reader) ReadInt16() (int16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	var v uint16
	if r.big {
		v = binary.BigEndian.Uint16(r.data[r.pos:])
	} else {
		v = binary.LittleEndian.Uint16(r.data[r.pos:])
	}
	r.pos += 2
	return int16(v), nil
}

// ReadUint16 reads a 16-bit unsigned integer (string length prefixes).
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadInt16()
	return uint16(v), err
}

// ReadInt32 reads a 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	var v uint32
	if r.big {
		v = binary.BigEndian.Uint32(r.data[r.pos:])
	} else {
		v = binary.LittleEndian.Uint32(r.data[r.pos:])
	}
	r.pos += 4
	return int32(v), nil
}

// ReadInt64 reads a 64-bit integer. Bedrock stores longs as two 4-byte
// little-endian halves with the halves swapped relative to a plain
// little-endian int64: the half holding bits 32..63 comes first on disk.
// TestReadInt64SwappedHalves pins this rule against a known fixture.
func (r *Reader) ReadInt64() (int64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	b := r.data[r.pos:]
	var v uint64
	if r.big {
		v = binary.BigEndian.Uint64(b)
	} else {
		high := binary.LittleEndian.Uint32(b)
		low := binary.LittleEndian.Uint32(b[4:])
		v = uint64(high)<<32 | uint64(low)
	}
	r.pos += 8
	return int64(v), nil
}

// ReadFloat32 reads an IEEE 754 single.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadInt32()
	return math.Float32frombits(uint32(v)), err
}

// ReadFloat64 reads an IEEE 754 double. Doubles do not use the swapped-half
// scheme; the payload is a plain little-endian 64-bit pattern.
func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	var v uint64
	if r.big {
		v = binary.BigEndian.Uint64(r.data[r.pos:])
	} else {
		v = binary.LittleEndian.Uint64(r.data[r.pos:])
	}
	r.pos += 8
	return math.Float64frombits(v), nil
}

// ReadBytes reads n raw bytes. The returned slice aliases the buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at offset 0x%x", ErrMalformedRoot, n, r.pos)
	}
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadString reads a uint16 length prefix followed by that many bytes of
// UTF-8. Invalid sequences are replaced rather than failing; world files in
// the wild carry the odd mangled player name.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

// Writer is the append-only counterpart of Reader, mirroring its endianness
// rules exactly.
type Writer struct {
	buf []byte
	big bool
}

// NewWriter returns an empty little-endian writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteByte appends one byte.
func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteRaw appends raw bytes.
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteInt16 appends a 16-bit integer.
func (w *Writer) WriteInt16(v int16) {
	var b [2]byte
	if w.big {
		binary.BigEndian.PutUint16(b[:], uint16(v))
	} else {
		binary.LittleEndian.PutUint16(b[:], uint16(v))
	}
	w.buf = append(w.buf, b[:]...)
}

// WriteInt32 appends a 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	var b [4]byte
	if w.big {
		binary.BigEndian.PutUint32(b[:], uint32(v))
	} else {
		binary.LittleEndian.PutUint32(b[:], uint32(v))
	}
	w.buf = append(w.buf, b[:]...)
}

// WriteInt64 appends a 64-bit integer using the swapped-half scheme Reader
// decodes.
func (w *Writer) WriteInt64(v int64) {
	var b [8]byte
	if w.big {
		binary.BigEndian.PutUint64(b[:], uint64(v))
	} else {
		binary.LittleEndian.PutUint32(b[:], uint32(uint64(v)>>32))
		binary.LittleEndian.PutUint32(b[4:], uint32(uint64(v)))
	}
	w.buf = append(w.buf, b[:]...)
}

// WriteFloat32 appends an IEEE 754 single.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteInt32(int32(math.Float32bits(v)))
}

// WriteFloat64 appends an IEEE 754 double as a plain (non-swapped) pattern.
func (w *Writer) WriteFloat64(v float64) {
	var b [8]byte
	if w.big {
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	} else {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	}
	w.buf = append(w.buf, b[:]...)
}

// WriteString appends a uint16 length prefix and the string bytes.
func (w *Writer) WriteString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("nbt: string of %d bytes exceeds length prefix", len(s))
	}
	w.WriteInt16(int16(uint16(len(s))))
	w.buf = append(w.buf, s...)
	return nil
}
