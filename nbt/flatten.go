package nbt

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one entry of the flattened tree: a dot/bracket path, a display
// string, the tag type, and the nesting depth. Container rows carry a
// summary display ("{N entries}" / "[N entries]") and precede their
// children, which sit one depth lower; a table UI can render collapsible
// rows from this without a tree widget.
type Row struct {
	Path    string
	Display string
	Type    TagType
	Depth   int
}

// Flatten walks the tree depth-first and returns one row per field in
// decode order. Nothing is ever re-sorted.
func Flatten(root *Compound) []Row {
	var rows []Row
	flattenCompound(root, "", 0, &rows)
	return rows
}

func flattenCompound(c *Compound, prefix string, depth int, rows *[]Row) {
	for _, name := range c.Names() {
		v, _ := c.Get(name)
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		flattenValue(v, path, depth, rows)
	}
}

func flattenValue(v Value, path string, depth int, rows *[]Row) {
	t, _ := TypeOf(v)
	switch tv := v.(type) {
	case *Compound:
		*rows = append(*rows, Row{path, fmt.Sprintf("{%d entries}", tv.Len()), t, depth})
		flattenCompound(tv, path, depth+1, rows)
	case *List:
		*rows = append(*rows, Row{path, fmt.Sprintf("[%d entries]", len(tv.Items)), t, depth})
		for i, item := range tv.Items {
			flattenValue(item, fmt.Sprintf("%s[%d]", path, i), depth+1, rows)
		}
	default:
		*rows = append(*rows, Row{path, DisplayValue(v), t, depth})
	}
}

// DisplayValue renders a leaf value for tabular display.
func DisplayValue(v Value) string {
	switch n := v.(type) {
	case int8:
		return strconv.FormatInt(int64(n), 10)
	case int16:
		return strconv.FormatInt(int64(n), 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case float32:
		return formatFloat(float64(n), 32)
	case float64:
		return formatFloat(n, 64)
	case string:
		return n
	case []byte:
		return fmt.Sprint(n)
	case []int32:
		return fmt.Sprint(n)
	case []int64:
		return fmt.Sprint(n)
	case *Compound:
		return fmt.Sprintf("{%d entries}", n.Len())
	case *List:
		return fmt.Sprintf("[%d entries]", len(n.Items))
	}
	return fmt.Sprint(v)
}

// pathSeg is one step of a parsed field path: a compound key or a list
// index.
type pathSeg struct {
	key     string
	index   int
	isIndex bool
}

// parsePath splits a dot/bracket path like "abilities.flying" or
// "experiments[0].name" into segments.
func parsePath(path string) ([]pathSeg, error) {
	if path == "" {
		return nil, fmt.Errorf("nbt: empty field path")
	}
	var segs []pathSeg
	rest := path
	for rest != "" {
		if rest[0] == '.' {
			rest = rest[1:]
			if rest == "" {
				return nil, fmt.Errorf("nbt: trailing dot in path %q", path)
			}
			continue
		}
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("nbt: unterminated index in path %q", path)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("nbt: bad list index %q in path %q", rest[1:end], path)
			}
			segs = append(segs, pathSeg{index: idx, isIndex: true})
			rest = rest[end+1:]
			continue
		}
		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			end = len(rest)
		}
		segs = append(segs, pathSeg{key: rest[:end]})
		rest = rest[end:]
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("nbt: empty field path")
	}
	return segs, nil
}

// Get resolves a field path against the tree.
func Get(root *Compound, path string) (Value, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	var cur Value = root
	for _, seg := range segs {
		switch holder := cur.(type) {
		case *Compound:
			if seg.isIndex {
				return nil, false
			}
			v, ok := holder.Get(seg.key)
			if !ok {
				return nil, false
			}
			cur = v
		case *List:
			if !seg.isIndex || seg.index >= len(holder.Items) {
				return nil, false
			}
			cur = holder.Items[seg.index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SetValue replaces the value at an existing field path. Paths that do not
// resolve fail with ErrFieldNotFound; this never creates new fields.
func SetValue(root *Compound, path string, v Value) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	var cur Value = root
	for i, seg := range segs {
		last := i == len(segs)-1
		switch holder := cur.(type) {
		case *Compound:
			if seg.isIndex {
				return fmt.Errorf("%w: %q indexes into a compound", ErrFieldNotFound, path)
			}
			existing, ok := holder.Get(seg.key)
			if !ok {
				return fmt.Errorf("%w: %q", ErrFieldNotFound, path)
			}
			if last {
				holder.Set(seg.key, v)
				return nil
			}
			cur = existing
		case *List:
			if !seg.isIndex {
				return fmt.Errorf("%w: %q names a key inside a list", ErrFieldNotFound, path)
			}
			if seg.index >= len(holder.Items) {
				return fmt.Errorf("%w: %q index out of range", ErrFieldNotFound, path)
			}
			if last {
				holder.Items[seg.index] = v
				return nil
			}
			cur = holder.Items[seg.index]
		default:
			return fmt.Errorf("%w: %q descends into a leaf", ErrFieldNotFound, path)
		}
	}
	return fmt.Errorf("%w: %q", ErrFieldNotFound, path)
}
