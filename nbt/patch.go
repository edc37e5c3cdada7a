package nbt

import (
	"fmt"
)

// Location describes where one field's payload sits inside the raw file
// bytes.
type Location struct {
	Path   string
	Type   TagType
	Offset int // first byte of the payload
	Length int // payload length in bytes
}

// Locate re-walks the compound structure from the header boundary and
// returns the byte span of the named field's payload. Fields the walk
// passes over are skipped with skipValue, which knows every tag's on-disk
// width and length-prefix rule.
func Locate(data []byte, path string) (Location, error) {
	segs, err := parsePath(path)
	if err != nil {
		return Location{}, err
	}
	r := NewReader(data)
	r.SetPos(HeaderSize)
	tag, err := r.ReadByte()
	if err != nil {
		return Location{}, err
	}
	if TagType(tag) != TagCompound {
		return Location{}, fmt.Errorf("%w: root tag is %s", ErrMalformedRoot, TagType(tag))
	}
	if _, err := r.ReadString(); err != nil {
		return Location{}, err
	}
	return locateInCompound(r, path, segs)
}

func locateInCompound(r *Reader, path string, segs []pathSeg) (Location, error) {
	seg := segs[0]
	if seg.isIndex {
		return Location{}, fmt.Errorf("%w: %q indexes into a compound", ErrFieldNotFound, path)
	}
	for {
		tag, err := r.ReadByte()
		if err != nil {
			return Location{}, err
		}
		t := TagType(tag)
		if t == TagEnd {
			return Location{}, fmt.Errorf("%w: %q", ErrFieldNotFound, path)
		}
		if !t.Valid() {
			return Location{}, fmt.Errorf("%w 0x%02x at offset 0x%x", ErrUnknownTag, tag, r.Pos()-1)
		}
		name, err := r.ReadString()
		if err != nil {
			return Location{}, err
		}
		if name != seg.key {
			if err := skipValue(r, t); err != nil {
				return Location{}, err
			}
			continue
		}
		return locateValue(r, t, path, segs[1:])
	}
}

// locateValue resolves the remaining segments against the value whose
// payload starts at the cursor.
func locateValue(r *Reader, t TagType, path string, rest []pathSeg) (Location, error) {
	if len(rest) == 0 {
		start := r.Pos()
		if err := skipValue(r, t); err != nil {
			return Location{}, err
		}
		return Location{Path: path, Type: t, Offset: start, Length: r.Pos() - start}, nil
	}
	switch t {
	case TagCompound:
		return locateInCompound(r, path, rest)
	case TagList:
		seg := rest[0]
		if !seg.isIndex {
			return Location{}, fmt.Errorf("%w: %q names a key inside a list", ErrFieldNotFound, path)
		}
		elem, err := r.ReadByte()
		if err != nil {
			return Location{}, err
		}
		et := TagType(elem)
		n, err := r.ReadInt32()
		if err != nil {
			return Location{}, err
		}
		if int32(seg.index) >= n {
			return Location{}, fmt.Errorf("%w: %q index %d out of %d", ErrFieldNotFound, path, seg.index, n)
		}
		for i := 0; i < seg.index; i++ {
			if err := skipValue(r, et); err != nil {
				return Location{}, err
			}
		}
		return locateValue(r, et, path, rest[1:])
	default:
		return Location{}, fmt.Errorf("%w: %q descends into a leaf", ErrFieldNotFound, path)
	}
}

// skipValue advances the cursor past one payload of the given type without
// materializing it.
func skipValue(r *Reader, t TagType) error {
	if w := t.payloadWidth(); w > 0 {
		_, err := r.ReadBytes(w)
		return err
	}
	switch t {
	case TagByteArray:
		n, err := r.ReadInt32()
		if err != nil {
			return err
		}
		_, err = r.ReadBytes(int(n))
		return err
	case TagString:
		n, err := r.ReadUint16()
		if err != nil {
			return err
		}
		_, err = r.ReadBytes(int(n))
		return err
	case TagList:
		elem, err := r.ReadByte()
		if err != nil {
			return err
		}
		et := TagType(elem)
		n, err := r.ReadInt32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if err := skipValue(r, et); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		for {
			tag, err := r.ReadByte()
			if err != nil {
				return err
			}
			it := TagType(tag)
			if it == TagEnd {
				return nil
			}
			if !it.Valid() {
				return fmt.Errorf("%w 0x%02x at offset 0x%x", ErrUnknownTag, tag, r.Pos()-1)
			}
			if _, err := r.ReadString(); err != nil {
				return err
			}
			if err := skipValue(r, it); err != nil {
				return err
			}
		}
	case TagIntArray:
		n, err := r.ReadInt32()
		if err != nil {
			return err
		}
		_, err = r.ReadBytes(int(n) * 4)
		return err
	case TagLongArray:
		n, err := r.ReadInt32()
		if err != nil {
			return err
		}
		_, err = r.ReadBytes(int(n) * 8)
		return err
	}
	return fmt.Errorf("%w %s", ErrUnknownTag, t)
}

// Patch overwrites the payload bytes of one field in place. The new value
// is encoded at the field's original tag type; if the encoded bytes are not
// exactly as wide as the bytes they replace the patch fails with
// ErrWidthMismatch and the buffer is left untouched — callers fall back to
// a full rebuild instead of corrupting every offset after the field.
func Patch(data []byte, path string, v Value) (Location, error) {
	loc, err := Locate(data, path)
	if err != nil {
		return loc, &PatchError{Path: path, Err: err}
	}
	vt, ok := TypeOf(v)
	if !ok {
		return loc, &PatchError{Path: path, Offset: loc.Offset, Err: fmt.Errorf("unencodable value %T", v)}
	}
	if vt != loc.Type {
		// The value's own type differs from the one on disk. Coerce back to
		// the stored type only when nothing is lost; a value that no longer
		// fits (an Int promoted to Long by its magnitude) also needs its tag
		// byte rewritten, which in-place patching cannot do.
		coerced, cerr := Coerce(v, loc.Type)
		if cerr != nil || !ValuesEqual(coerced, v) {
			return loc, &PatchError{
				Path:   path,
				Offset: loc.Offset,
				Err:    fmt.Errorf("%w: value is %s, field is %s", ErrWidthMismatch, vt, loc.Type),
			}
		}
		v = coerced
	}
	w := NewWriter()
	if err := writeValue(w, loc.Type, v); err != nil {
		return loc, &PatchError{Path: path, Offset: loc.Offset, Err: err}
	}
	encoded := w.Bytes()
	if len(encoded) != loc.Length {
		return loc, &PatchError{
			Path:   path,
			Offset: loc.Offset,
			Err:    fmt.Errorf("%w: %d bytes over %d", ErrWidthMismatch, len(encoded), loc.Length),
		}
	}
	copy(data[loc.Offset:loc.Offset+loc.Length], encoded)
	return loc, nil
}
