package nbt

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Inference classifies the tag type a field should carry. Policies are
// consulted in order and the first match wins:
//
//  1. an explicit override table for fields with known fixed semantics,
//  2. boolean-name heuristics (with an exclusion list that beats them),
//  3. a per-file vocabulary learned from the decoded tree's own types,
//  4. a width-based default.
//
// An Inference is owned by the document it was built from and is never
// shared across files; each file teaches its own vocabulary.
type Inference struct {
	boolWords    map[string]bool
	floatWords   map[string]bool
	versionWords map[string]bool
}

// explicitTypes maps lower-cased field names with fixed, known semantics to
// their tag type, regardless of what the current value looks like.
var explicitTypes = map[string]TagType{
	"gametype":                TagInt,
	"generator":               TagInt,
	"difficulty":              TagInt,
	"storageversion":          TagInt,
	"networkversion":          TagInt,
	"worldversion":            TagInt,
	"platform":                TagInt,
	"permissionslevel":        TagInt,
	"playerpermissionslevel":  TagInt,
	"xblbroadcastintent":      TagInt,
	"platformbroadcastintent": TagInt,
	"limitedworldwidth":       TagInt,
	"limitedworlddepth":       TagInt,
	"spawnx":                  TagInt,
	"spawny":                  TagInt,
	"spawnz":                  TagInt,
	"raintime":                TagInt,
	"lightningtime":           TagInt,
	"randomseed":              TagLong,
	"time":                    TagLong,
	"currenttick":             TagLong,
	"lastplayed":              TagLong,
	"worldstartcount":         TagLong,
	"rainlevel":               TagFloat,
	"lightninglevel":          TagFloat,
}

// explicitContains is the substring pass behind the exact table.
var explicitContains = []struct {
	sub string
	t   TagType
}{
	{"seed", TagLong},
	{"tick", TagLong},
	{"timestamp", TagLong},
}

// boolPrefixes and boolSuffixes mark names whose 0/1 values are almost
// certainly flags.
var boolPrefixes = []string{"is", "has", "can", "do", "show", "allow", "use"}
var boolSuffixes = []string{"enabled", "disabled", "allowed", "active", "locked"}

// boolNames is a curated word list for flag names the affix rules miss.
var boolNames = map[string]bool{
	"flying":          true,
	"mayfly":          true,
	"maybuild":        true,
	"instabuild":      true,
	"invulnerable":    true,
	"teleport":        true,
	"op":              true,
	"lightning":       true,
	"pvp":             true,
	"cheats":          true,
	"commandsenabled": true,
	"immutableworld":  true,
	"multiplayergame": true,
}

// boolExclusions lists names that legitimately hold 0/1 as small integers
// (version counters, permission levels, mode selectors). Exclusions beat
// every inclusion rule, learned or hardcoded.
var boolExclusions = map[string]bool{
	"randomseed":              true,
	"seed":                    true,
	"gametype":                true,
	"gamemode":                true,
	"generator":               true,
	"difficulty":              true,
	"version":                 true,
	"storageversion":          true,
	"networkversion":          true,
	"platform":                true,
	"permissionslevel":        true,
	"playerpermissionslevel":  true,
	"xblbroadcastintent":      true,
	"platformbroadcastintent": true,
}

// NewInference scans the decoded tree once and buckets every leaf name's
// words by the type the file actually stored: words only ever seen on Byte
// 0/1 fields become boolean vocabulary, words only seen on Float fields
// become float vocabulary, and so on. Words seen in both buckets are
// ambiguous and discarded, so the classifier adapts to each file without a
// hand-list covering every world.
func NewInference(root *Compound) *Inference {
	inf := &Inference{
		boolWords:    make(map[string]bool),
		floatWords:   make(map[string]bool),
		versionWords: make(map[string]bool),
	}
	if root == nil {
		return inf
	}
	nonBool := make(map[string]bool)
	nonFloat := make(map[string]bool)
	inf.scan(root, nonBool, nonFloat)
	for w := range nonBool {
		delete(inf.boolWords, w)
	}
	for w := range nonFloat {
		delete(inf.floatWords, w)
	}
	return inf
}

func (inf *Inference) scan(c *Compound, nonBool, nonFloat map[string]bool) {
	for _, name := range c.Names() {
		v, _ := c.Get(name)
		switch tv := v.(type) {
		case *Compound:
			inf.scan(tv, nonBool, nonFloat)
			continue
		case *List:
			if strings.Contains(strings.ToLower(name), "version") {
				for _, w := range splitWords(name) {
					inf.versionWords[w] = true
				}
			}
			for _, item := range tv.Items {
				if sub, ok := item.(*Compound); ok {
					inf.scan(sub, nonBool, nonFloat)
				}
			}
			continue
		case []int32:
			if strings.Contains(strings.ToLower(name), "version") {
				for _, w := range splitWords(name) {
					inf.versionWords[w] = true
				}
			}
			continue
		}
		words := splitWords(name)
		t, _ := TypeOf(v)
		switch t {
		case TagByte:
			b := v.(int8)
			if b == 0 || b == 1 {
				for _, w := range words {
					inf.boolWords[w] = true
				}
			}
			for _, w := range words {
				nonFloat[w] = true
			}
		case TagFloat:
			for _, w := range words {
				inf.floatWords[w] = true
				nonBool[w] = true
			}
		case TagShort, TagInt, TagLong:
			for _, w := range words {
				nonBool[w] = true
				nonFloat[w] = true
			}
		case TagDouble:
			for _, w := range words {
				nonBool[w] = true
			}
		}
	}
}

// Infer classifies the target tag type for a field holding v. The decision
// never changes an untouched field's wire type — callers consult it only
// for freshly edited or created values.
func (inf *Inference) Infer(name string, v Value) TagType {
	lname := strings.ToLower(name)

	// Policy 1: explicit overrides, exact key then substring.
	if t, ok := explicitTypes[lname]; ok {
		return t
	}
	for _, e := range explicitContains {
		if strings.Contains(lname, e.sub) {
			return e.t
		}
	}

	// Policy 2/3: boolean heuristics gated on a 0/1 value, consulting both
	// the hardcoded affix rules and the file's learned vocabulary.
	// Exclusions always win.
	if n, err := asInt64(v); err == nil && isIntegral(v) && (n == 0 || n == 1) {
		if !inf.excludedBool(name, lname) && inf.looksBoolean(name, lname) {
			return TagByte
		}
	}

	// Policy 3: learned float vocabulary.
	if isNumeric(v) {
		if words := splitWords(name); len(words) > 0 {
			all := true
			for _, w := range words {
				if !inf.floatWords[w] {
					all = false
					break
				}
			}
			if all {
				return TagFloat
			}
		}
	}

	// Policy 4: width-based default.
	return widthDefault(v)
}

// excludedBool and looksBoolean take both spellings of the field name:
// affix and exact-key checks run on the lowercased form, while word-level
// checks split the original so camelCase humps survive as separate words.

func (inf *Inference) excludedBool(name, lname string) bool {
	if boolExclusions[lname] {
		return true
	}
	for _, w := range splitWords(name) {
		if boolExclusions[w] {
			return true
		}
	}
	return false
}

func (inf *Inference) looksBoolean(name, lname string) bool {
	for _, p := range boolPrefixes {
		if strings.HasPrefix(lname, p) {
			return true
		}
	}
	for _, s := range boolSuffixes {
		if strings.HasSuffix(lname, s) {
			return true
		}
	}
	if boolNames[lname] {
		return true
	}
	for _, w := range splitWords(name) {
		if boolNames[w] || inf.boolWords[w] {
			return true
		}
	}
	return false
}

// VersionArrayName reports whether a field name matches the per-file
// version-array vocabulary (fields like MinimumCompatibleClientVersion).
func (inf *Inference) VersionArrayName(name string) bool {
	for _, w := range splitWords(name) {
		if inf.versionWords[w] {
			return true
		}
	}
	return false
}

// widthDefault is the last-resort classification: integers inside the
// signed 32-bit range are Int, anything wider is Long. The boundary is
// exactly [-2147483648, 2147483647].
func widthDefault(v Value) TagType {
	switch n := v.(type) {
	case int8, int16, int32:
		return TagInt
	case int64:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return TagInt
		}
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case []byte:
		return TagByteArray
	case []int32:
		return TagIntArray
	case []int64:
		return TagLongArray
	case *List:
		return TagList
	case *Compound:
		return TagCompound
	}
	return TagString
}

func isIntegral(v Value) bool {
	switch v.(type) {
	case int8, int16, int32, int64:
		return true
	}
	return false
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case int8, int16, int32, int64, float32, float64:
		return true
	}
	return false
}

// splitWords lowercases a field name and splits it on camelCase humps,
// underscores, and other separators.
func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			// A hump starts a new word. An acronym run like "XBL" stays one
			// word until a lowercase rune follows ("XBLBroadcast" splits
			// before the second B).
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				flush()
			}
			cur.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}

// ParseValue parses user-supplied text into the target tag type. Integer
// targets honor the Int/Long promotion rule: a value outside the signed
// 32-bit range always comes back as int64 even when the target was Int,
// repairing the common case of a large seed stored narrow upstream. On
// failure a *ConvertError is returned and nothing is modified.
func ParseValue(text string, target TagType) (Value, error) {
	fail := func(err error) (Value, error) {
		return nil, &ConvertError{Text: text, Target: target, Err: err}
	}
	trimmed := strings.TrimSpace(text)
	switch target {
	case TagByte:
		switch strings.ToLower(trimmed) {
		case "true":
			return int8(1), nil
		case "false":
			return int8(0), nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 8)
		if err != nil {
			return fail(err)
		}
		return int8(n), nil
	case TagShort:
		n, err := strconv.ParseInt(trimmed, 10, 16)
		if err != nil {
			return fail(err)
		}
		return int16(n), nil
	case TagInt, TagLong:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return fail(err)
		}
		if target == TagInt && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
		return n, nil
	case TagFloat:
		f, err := strconv.ParseFloat(trimmed, 32)
		if err != nil {
			return fail(err)
		}
		return float32(f), nil
	case TagDouble:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return fail(err)
		}
		return f, nil
	case TagString:
		return text, nil
	case TagByteArray:
		ints, err := parseIntList(trimmed, 8)
		if err != nil {
			return fail(err)
		}
		out := make([]byte, len(ints))
		for i, n := range ints {
			out[i] = byte(n)
		}
		return out, nil
	case TagIntArray:
		ints, err := parseIntList(trimmed, 32)
		if err != nil {
			return fail(err)
		}
		out := make([]int32, len(ints))
		for i, n := range ints {
			out[i] = int32(n)
		}
		return out, nil
	case TagLongArray:
		ints, err := parseIntList(trimmed, 64)
		if err != nil {
			return fail(err)
		}
		return ints, nil
	}
	return fail(fmt.Errorf("%s fields cannot be edited as text", target))
}

func parseIntList(text string, bits int) ([]int64, error) {
	trimmed := strings.Trim(text, "[]")
	if strings.TrimSpace(trimmed) == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, bits)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// ValuesEqual compares two values with numeric and string coercion, so a
// textually different but semantically equal edit ("1" into an int8 1) does
// not dirty the session.
func ValuesEqual(a, b Value) bool {
	if ta, ok := TypeOf(a); ok {
		if tb, _ := TypeOf(b); ta == tb {
			switch va := a.(type) {
			case string:
				return va == b.(string)
			case *Compound, *List:
				return a == b
			case []byte:
				return bytes.Equal(va, b.([]byte))
			case []int32:
				vb := b.([]int32)
				if len(va) != len(vb) {
					return false
				}
				for i := range va {
					if va[i] != vb[i] {
						return false
					}
				}
				return true
			case []int64:
				vb := b.([]int64)
				if len(va) != len(vb) {
					return false
				}
				for i := range va {
					if va[i] != vb[i] {
						return false
					}
				}
				return true
			}
		}
	}
	if isIntegral(a) && isIntegral(b) {
		na, _ := asInt64(a)
		nb, _ := asInt64(b)
		return na == nb
	}
	if isNumeric(a) && isNumeric(b) {
		fa, _ := asFloat64(a)
		fb, _ := asFloat64(b)
		return fa == fb
	}
	if sa, ok := a.(string); ok {
		return sa == DisplayValue(b)
	}
	if sb, ok := b.(string); ok {
		return DisplayValue(a) == sb
	}
	return false
}
