package nbt

import (
	"fmt"
	"math"
	"strconv"
)

// Encode serializes the document as a full rebuild: the original header
// bytes copied verbatim, then every compound entry re-emitted in decode
// order, then the terminating End. For an unedited document the output is
// byte-identical to the input.
func Encode(doc *Document) ([]byte, error) {
	w := NewWriter()
	w.WriteRaw(doc.Header)
	w.WriteByte(byte(TagCompound))
	if err := w.WriteString(doc.RootName); err != nil {
		return nil, err
	}
	if err := writeCompound(w, doc.Root); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writeCompound(w *Writer, c *Compound) error {
	for _, name := range c.Names() {
		v, _ := c.Get(name)
		t, ok := TypeOf(v)
		if !ok {
			return fmt.Errorf("nbt: field %q holds unencodable %T", name, v)
		}
		w.WriteByte(byte(t))
		if err := w.WriteString(name); err != nil {
			return err
		}
		if err := writeValue(w, t, v); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	w.WriteByte(byte(TagEnd))
	return nil
}

func writeValue(w *Writer, t TagType, v Value) error {
	switch t {
	case TagByte:
		w.WriteByte(byte(v.(int8)))
	case TagShort:
		w.WriteInt16(v.(int16))
	case TagInt:
		w.WriteInt32(v.(int32))
	case TagLong:
		w.WriteInt64(v.(int64))
	case TagFloat:
		w.WriteFloat32(v.(float32))
	case TagDouble:
		w.WriteFloat64(v.(float64))
	case TagByteArray:
		b := v.([]byte)
		w.WriteInt32(int32(len(b)))
		w.WriteRaw(b)
	case TagString:
		return w.WriteString(v.(string))
	case TagList:
		return writeList(w, v.(*List))
	case TagCompound:
		return writeCompound(w, v.(*Compound))
	case TagIntArray:
		a := v.([]int32)
		w.WriteInt32(int32(len(a)))
		for _, e := range a {
			w.WriteInt32(e)
		}
	case TagLongArray:
		a := v.([]int64)
		w.WriteInt32(int32(len(a)))
		for _, e := range a {
			w.WriteInt64(e)
		}
	default:
		return fmt.Errorf("%w %s", ErrUnknownTag, t)
	}
	return nil
}

// writeList emits the element type byte, the length, and the payloads. The
// element type comes from the first element; NBT lists are homogeneous, so
// any element that encodes differently is coerced to the first element's
// type rather than failing the save.
func writeList(w *Writer, l *List) error {
	if len(l.Items) == 0 {
		et := l.ElemType
		if !et.Valid() {
			et = TagEnd
		}
		w.WriteByte(byte(et))
		w.WriteInt32(0)
		return nil
	}
	et, ok := TypeOf(l.Items[0])
	if !ok {
		return fmt.Errorf("nbt: list element holds unencodable %T", l.Items[0])
	}
	w.WriteByte(byte(et))
	w.WriteInt32(int32(len(l.Items)))
	for i, item := range l.Items {
		it, _ := TypeOf(item)
		if it != et {
			coerced, err := Coerce(item, et)
			if err != nil {
				return fmt.Errorf("list index %d: %w", i, err)
			}
			item = coerced
		}
		if err := writeValue(w, et, item); err != nil {
			return fmt.Errorf("list index %d: %w", i, err)
		}
	}
	return nil
}

// Coerce converts v to the representation tag type t expects. Numeric types
// convert across widths, anything stringifies, and strings parse back into
// numerics where the text allows it.
func Coerce(v Value, t TagType) (Value, error) {
	if vt, ok := TypeOf(v); ok && vt == t {
		return v, nil
	}
	switch t {
	case TagByte:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return int8(n), nil
	case TagShort:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return int16(n), nil
	case TagInt:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case TagLong:
		return asInt64(v)
	case TagFloat:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case TagDouble:
		return asFloat64(v)
	case TagString:
		return DisplayValue(v), nil
	}
	return nil, fmt.Errorf("nbt: cannot coerce %T to %s", v, t)
}

func asInt64(v Value) (int64, error) {
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("nbt: %T is not numeric", v)
}

func asFloat64(v Value) (float64, error) {
	switch n := v.(type) {
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("nbt: %T is not numeric", v)
}

// formatFloat renders a float the shortest way that round-trips.
func formatFloat(f float64, bits int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Sprint(f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
