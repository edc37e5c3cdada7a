package nbt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// HeaderSize is the length of the opaque header preceding the NBT body in a
// Bedrock level.dat. The editor never interprets it, only copies it through.
const HeaderSize = 8

// Document is a decoded level.dat: the preserved header plus the root
// compound. RootName is almost always empty in real files.
type Document struct {
	Header   []byte
	RootName string
	Root     *Compound

	// Recovered is set when the document came from the permissive scanner
	// rather than a strict decode. Recovered documents are best-effort and
	// should be treated as read-only salvage.
	Recovered bool

	// Java is set when the document was gunzipped from a Java Edition
	// file. Such documents have no Header and cannot be written back.
	Java bool
}

// Decode strictly parses a Bedrock level.dat buffer: an 8-byte header, a
// root compound tag, its name, its entries, and a terminating End tag. A
// buffer starting with the gzip magic (a Java-Edition file opened by
// mistake) is transparently decompressed and parsed as a headerless root
// instead.
func Decode(data []byte) (*Document, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return decodeGzipped(data)
	}
	if len(data) < HeaderSize+1 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a header", ErrUnexpectedEOF, len(data))
	}

	r := NewReader(data)
	r.SetPos(HeaderSize)
	name, root, err := decodeRoot(r)
	if err != nil {
		return nil, err
	}

	header := make([]byte, HeaderSize)
	copy(header, data[:HeaderSize])
	return &Document{Header: header, RootName: name, Root: root}, nil
}

// DecodeAuto tries a strict decode and escalates to the permissive recovery
// scanner on failure. The strict error is returned if recovery also finds
// nothing; a partial result is never returned silently — check
// Document.Recovered.
func DecodeAuto(data []byte) (*Document, error) {
	doc, err := Decode(data)
	if err == nil {
		return doc, nil
	}
	rec, rerr := Recover(data)
	if rerr != nil {
		return nil, err
	}
	return rec, nil
}

// decodeGzipped handles the gzip sniff path. Java Edition writes big-endian
// NBT with no Bedrock header; big-endian is tried first and little-endian
// second, purely as a read convenience for files opened by mistake.
func decodeGzipped(data []byte) (*Document, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: bad gzip stream: %v", ErrMalformedRoot, err)
	}
	raw, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: bad gzip stream: %v", ErrMalformedRoot, err)
	}

	for _, big := range []bool{true, false} {
		r := NewReader(raw)
		r.big = big
		name, root, derr := decodeRoot(r)
		if derr == nil {
			return &Document{RootName: name, Root: root, Java: true}, nil
		}
		err = derr
	}
	return nil, err
}

// decodeRoot reads one root tag at the cursor: the compound tag byte, the
// root name, and the compound body. Anything other than a compound at the
// root means this is not Bedrock NBT.
func decodeRoot(r *Reader) (string, *Compound, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return "", nil, err
	}
	if TagType(tag) != TagCompound {
		return "", nil, fmt.Errorf("%w: root tag is %s, want Compound", ErrMalformedRoot, TagType(tag))
	}
	name, err := r.ReadString()
	if err != nil {
		return "", nil, fmt.Errorf("root name: %w", err)
	}
	root, err := readCompound(r)
	if err != nil {
		return "", nil, err
	}
	return name, root, nil
}

// readCompound reads (tag, name, payload) triples until an End byte.
func readCompound(r *Reader) (*Compound, error) {
	c := NewCompound()
	for {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		t := TagType(tag)
		if t == TagEnd {
			return c, nil
		}
		if !t.Valid() {
			return nil, fmt.Errorf("%w 0x%02x at offset 0x%x", ErrUnknownTag, tag, r.Pos()-1)
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if _, dup := c.Get(name); dup {
			return nil, fmt.Errorf("%w: duplicate key %q at offset 0x%x", ErrMalformedRoot, name, r.Pos())
		}
		v, err := readValue(r, t)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		c.Set(name, v)
	}
}

// readValue reads one payload of the given type.
func readValue(r *Reader, t TagType) (Value, error) {
	switch t {
	case TagByte:
		return r.ReadInt8()
	case TagShort:
		return r.ReadInt16()
	case TagInt:
		return r.ReadInt32()
	case TagLong:
		return r.ReadInt64()
	case TagFloat:
		return r.ReadFloat32()
	case TagDouble:
		return r.ReadFloat64()
	case TagByteArray:
		n, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case TagString:
		return r.ReadString()
	case TagList:
		return readList(r)
	case TagCompound:
		return readCompound(r)
	case TagIntArray:
		n, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative array length %d", ErrMalformedRoot, n)
		}
		if int64(n)*4 > int64(r.Remaining()) {
			return nil, fmt.Errorf("%w: array claims %d elements with %d bytes left", ErrUnexpectedEOF, n, r.Remaining())
		}
		out := make([]int32, n)
		for i := range out {
			if out[i], err = r.ReadInt32(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case TagLongArray:
		n, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative array length %d", ErrMalformedRoot, n)
		}
		if int64(n)*8 > int64(r.Remaining()) {
			return nil, fmt.Errorf("%w: array claims %d elements with %d bytes left", ErrUnexpectedEOF, n, r.Remaining())
		}
		out := make([]int64, n)
		for i := range out {
			if out[i], err = r.ReadInt64(); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w %s at offset 0x%x", ErrUnknownTag, t, r.Pos())
}

// readList reads the element type byte, the element count, and that many
// homogeneous payloads. An End element type with length 0 is the canonical
// empty list and round-trips as such.
func readList(r *Reader) (*List, error) {
	elem, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	et := TagType(elem)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative list length %d", ErrMalformedRoot, n)
	}
	if et == TagEnd {
		if n != 0 {
			return nil, fmt.Errorf("%w: list of End with %d elements", ErrMalformedRoot, n)
		}
		return &List{ElemType: TagEnd}, nil
	}
	if !et.Valid() {
		return nil, fmt.Errorf("%w 0x%02x in list header", ErrUnknownTag, elem)
	}
	// Each element payload is at least one byte, so a length prefix larger
	// than the unread tail cannot be satisfied. Checking before allocating
	// keeps a hostile prefix from sizing the backing array.
	if int64(n) > int64(r.Remaining()) {
		return nil, fmt.Errorf("%w: list claims %d elements with %d bytes left", ErrUnexpectedEOF, n, r.Remaining())
	}
	l := &List{ElemType: et, Items: make([]Value, 0, n)}
	for i := int32(0); i < n; i++ {
		v, err := readValue(r, et)
		if err != nil {
			return nil, fmt.Errorf("list index %d: %w", i, err)
		}
		l.Items = append(l.Items, v)
	}
	return l, nil
}
