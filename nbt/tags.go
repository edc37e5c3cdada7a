// Package nbt implements the NBT (Named Binary Tag) binary codec used by
// Minecraft Bedrock Edition world metadata files such as level.dat. Bedrock
// stores NBT little-endian and uncompressed, prefixed with an 8-byte header
// that this package preserves as opaque bytes. The package decodes a byte
// buffer into a typed tree, re-encodes the tree byte-for-byte, and can patch
// individual field payloads in place without rewriting the rest of the file.
package nbt

import "fmt"

// TagType is the one-byte discriminator identifying an NBT value's type.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{
	"End", "Byte", "Short", "Int", "Long", "Float", "Double",
	"ByteArray", "String", "List", "Compound", "IntArray", "LongArray",
}

func (t TagType) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(0x%02x)", byte(t))
}

// Valid reports whether t is one of the thirteen defined tag types.
func (t TagType) Valid() bool { return t <= TagLongArray }

// payloadWidth returns the fixed on-disk payload size of t, or 0 for
// variable-length types.
func (t TagType) payloadWidth() int {
	switch t {
	case TagByte:
		return 1
	case TagShort:
		return 2
	case TagInt, TagFloat:
		return 4
	case TagLong, TagDouble:
		return 8
	}
	return 0
}

// Value is one decoded NBT value. The concrete type is one of:
//
//	int8, int16, int32, int64, float32, float64,
//	[]byte, string, *List, *Compound, []int32, []int64
//
// TypeOf maps a Value back to its tag type.
type Value interface{}

// TypeOf returns the tag type a Value encodes as. ok is false for types
// outside the closed set above.
func TypeOf(v Value) (TagType, bool) {
	switch v.(type) {
	case int8:
		return TagByte, true
	case int16:
		return TagShort, true
	case int32:
		return TagInt, true
	case int64:
		return TagLong, true
	case float32:
		return TagFloat, true
	case float64:
		return TagDouble, true
	case []byte:
		return TagByteArray, true
	case string:
		return TagString, true
	case *List:
		return TagList, true
	case *Compound:
		return TagCompound, true
	case []int32:
		return TagIntArray, true
	case []int64:
		return TagLongArray, true
	}
	return TagEnd, false
}

// List is an NBT list: a homogeneous sequence with one declared element type.
// An empty list read from disk keeps whatever element type the file declared
// (normally End) so it round-trips losslessly.
type List struct {
	ElemType TagType
	Items    []Value
}

// Compound is an NBT compound: a string-keyed map whose iteration order is
// the order keys were first inserted. Rewritten files must stay diffable, so
// decode order is never lost or re-sorted.
type Compound struct {
	names  []string
	values map[string]Value
}

// NewCompound returns an empty compound.
func NewCompound() *Compound {
	return &Compound{values: make(map[string]Value)}
}

// Len returns the number of entries.
func (c *Compound) Len() int { return len(c.names) }

// Names returns the keys in insertion order. The slice is shared; callers
// must not modify it.
func (c *Compound) Names() []string { return c.names }

// Get returns the value stored under name.
func (c *Compound) Get(name string) (Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Set stores v under name, appending the key if it is new and keeping its
// position if it already exists.
func (c *Compound) Set(name string, v Value) {
	if _, ok := c.values[name]; !ok {
		c.names = append(c.names, name)
	}
	c.values[name] = v
}

// Remove deletes name from the compound, preserving the order of the
// remaining keys.
func (c *Compound) Remove(name string) bool {
	if _, ok := c.values[name]; !ok {
		return false
	}
	delete(c.values, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	return true
}
