package nbt

// The permissive scanner exists to salvage partially corrupt files after a
// strict decode has failed. It is heuristic by construction and is never
// the primary path; documents it produces are flagged Recovered and should
// be treated as read-only salvage, not as evidence about the format.

// recoverWindow bounds how far into the buffer candidate tag starts are
// tried. Real headers are 8 bytes, so a generous window covers headers of
// unexpected sizes without scanning megabytes of payload.
const recoverWindow = 128

// recoverMaxName rejects interpretations whose "name" length prefix is
// implausibly large, which quickly prunes wrong offsets and byte orders.
const recoverMaxName = 256

// Recover walks every byte offset in the window, treats any byte matching a
// known tag type as a candidate field start, and tries to parse
// (type, name, value) triples from there in both byte orders. The
// interpretation yielding the most successfully parsed fields wins. Returns
// ErrRecoveryFailed when no offset produces a single field.
func Recover(data []byte) (*Document, error) {
	var (
		bestRoot *Compound
		bestKeys int
	)
	limit := len(data)
	if limit > recoverWindow {
		limit = recoverWindow
	}
	for off := 0; off < limit; off++ {
		t := TagType(data[off])
		if t == TagEnd || !t.Valid() {
			continue
		}
		for _, big := range []bool{false, true} {
			root, keys := scanTriples(data, off, big)
			if keys > bestKeys {
				bestRoot, bestKeys = root, keys
			}
		}
	}
	if bestKeys == 0 {
		return nil, ErrRecoveryFailed
	}

	doc := &Document{Root: bestRoot, Recovered: true}
	// A scan that landed on the real root tag parses exactly one triple: the
	// root compound itself. Unwrap it so callers see the same shape a strict
	// decode produces.
	if bestRoot.Len() == 1 {
		name := bestRoot.Names()[0]
		if inner, _ := bestRoot.Get(name); inner != nil {
			if c, ok := inner.(*Compound); ok {
				doc.RootName = name
				doc.Root = c
			}
		}
	}
	return doc, nil
}

// scanTriples best-effort parses a run of (tag, name, value) triples
// starting at off. Unknown tags, implausible name lengths, and short reads
// end the run; everything parsed up to that point is kept. The key count is
// the number of leaf fields recovered, so deep correct interpretations beat
// shallow accidental ones.
func scanTriples(data []byte, off int, big bool) (*Compound, int) {
	r := NewReader(data)
	r.big = big
	r.SetPos(off)
	c := NewCompound()
	keys := 0
	for {
		tag, err := r.ReadByte()
		if err != nil {
			break
		}
		t := TagType(tag)
		if t == TagEnd || !t.Valid() {
			break
		}
		n, err := r.ReadUint16()
		if err != nil || int(n) > recoverMaxName || int(n) > r.Remaining() {
			break
		}
		nameBytes, err := r.ReadBytes(int(n))
		if err != nil {
			break
		}
		name := string(nameBytes)
		if _, dup := c.Get(name); dup {
			break
		}
		v, err := readValue(r, t)
		if err != nil {
			break
		}
		c.Set(name, v)
		keys += leafCount(v)
	}
	return c, keys
}

func leafCount(v Value) int {
	switch tv := v.(type) {
	case *Compound:
		n := 0
		for _, name := range tv.Names() {
			child, _ := tv.Get(name)
			n += leafCount(child)
		}
		return n
	case *List:
		n := 0
		for _, item := range tv.Items {
			n += leafCount(item)
		}
		if n == 0 {
			n = 1
		}
		return n
	default:
		return 1
	}
}
