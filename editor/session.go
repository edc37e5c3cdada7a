// Package editor tracks an edit session over one decoded level.dat: which
// fields changed, what their original values and wire types were, and how
// to get the changes back onto disk without disturbing any unrelated byte.
package editor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/AdamJauhari/Bedrock-Editor-sub000/nbt"
)

var (
	// ErrNoPath indicates the session was loaded from bytes and Save has no
	// file to write; use SaveAs.
	ErrNoPath = errors.New("editor: session is not backed by a file")

	// ErrRecovered indicates the document came from the permissive recovery
	// scanner. Recovered views are salvage and are never written back.
	ErrRecovered = errors.New("editor: recovered documents are read-only")

	// ErrJavaEdition indicates the document was gunzipped from a Java
	// Edition file. Those have no Bedrock header and the original bytes are
	// compressed, so there is nothing to patch or rebuild against.
	ErrJavaEdition = errors.New("editor: gzipped Java Edition documents are read-only")
)

// Change is one modification ledger entry: the value a field held when it
// was first edited this session, and the value it holds now.
type Change struct {
	Original nbt.Value
	New      nbt.Value
}

// FieldInfo is the per-field metadata captured when the file is decoded.
// The on-disk tag type recorded here is the authority for what type an
// edited value must encode as; heuristics never reclassify an untouched
// field.
type FieldInfo struct {
	Type       nbt.TagType
	Nested     bool
	Experiment bool
	Edited     bool
}

// Options configures save behavior.
type Options struct {
	// Backup duplicates the prior file contents to <path>.backup before a
	// destructive save. Plain byte copy, not versioned.
	Backup bool

	// ForceRebuild skips byte-level patching and regenerates the whole NBT
	// body on every save.
	ForceRebuild bool
}

// Session owns everything mutable about one open file: the original bytes,
// the decoded tree, the per-file inference vocabulary, the field records,
// and the modification ledger. Sessions are not safe for concurrent use;
// callers serialize opens and saves of a given path themselves.
type Session struct {
	path      string
	opts      Options
	original  []byte
	doc       *nbt.Document
	inference *nbt.Inference
	fields    map[string]*FieldInfo
	pending   map[string]*Change
	order     []string
}

// Open reads and decodes path into a new session.
func Open(path string, opts Options) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.path = path
	glog.V(1).Infof("loaded %s: %d fields, recovered=%v", path, len(s.fields), s.doc.Recovered)
	return s, nil
}

// Load decodes an in-memory buffer into a new session with no backing file.
func Load(data []byte, opts Options) (*Session, error) {
	doc, err := nbt.DecodeAuto(data)
	if err != nil {
		return nil, err
	}
	if doc.Recovered {
		glog.Warning("strict decode failed; showing best-effort recovered view")
	}
	s := &Session{
		opts:      opts,
		original:  append([]byte(nil), data...),
		doc:       doc,
		inference: nbt.NewInference(doc.Root),
		fields:    make(map[string]*FieldInfo),
		pending:   make(map[string]*Change),
	}
	s.captureFields()
	return s, nil
}

// captureFields records every field's on-disk type and position metadata
// from a fresh flatten of the tree.
func (s *Session) captureFields() {
	s.fields = make(map[string]*FieldInfo)
	for _, row := range nbt.Flatten(s.doc.Root) {
		s.fields[row.Path] = &FieldInfo{
			Type:       row.Type,
			Nested:     row.Depth > 0,
			Experiment: strings.HasPrefix(strings.ToLower(row.Path), "experiments."),
		}
	}
}

// Document exposes the decoded document.
func (s *Session) Document() *nbt.Document { return s.doc }

// Rows returns the flattened field table in decode order.
func (s *Session) Rows() []nbt.Row { return nbt.Flatten(s.doc.Root) }

// Get resolves a field path against the current tree.
func (s *Session) Get(path string) (nbt.Value, bool) {
	return nbt.Get(s.doc.Root, path)
}

// Field returns the load-time metadata for a field path.
func (s *Session) Field(path string) (FieldInfo, bool) {
	f, ok := s.fields[path]
	if !ok {
		return FieldInfo{}, false
	}
	return *f, true
}

// InferType exposes the session's per-file inference engine.
func (s *Session) InferType(name string, v nbt.Value) nbt.TagType {
	return s.inference.Infer(name, v)
}

// Set parses text into the field's target type and applies it to the tree,
// recording the change in the ledger. The target type is the field's
// original on-disk type — editing never silently changes a wire type,
// except that an Int field given a value outside the signed 32-bit range is
// promoted to Long. A value that coerces equal to the current one is a
// no-op and does not dirty the session; a value that restores the original
// un-dirties the field. A text that fails to parse rejects the edit and
// leaves the tree unmodified.
func (s *Session) Set(path, text string) error {
	cur, ok := nbt.Get(s.doc.Root, path)
	if !ok {
		return fmt.Errorf("%w: %q", nbt.ErrFieldNotFound, path)
	}
	target := s.targetType(path, cur)
	v, err := nbt.ParseValue(text, target)
	if err != nil {
		return err
	}
	if nbt.ValuesEqual(cur, v) {
		return nil
	}
	if err := nbt.SetValue(s.doc.Root, path, v); err != nil {
		return err
	}
	if ch, exists := s.pending[path]; exists {
		if nbt.ValuesEqual(ch.Original, v) {
			s.dropPending(path)
			return nil
		}
		ch.New = v
		return nil
	}
	s.pending[path] = &Change{Original: cur, New: v}
	s.order = append(s.order, path)
	if f := s.fields[path]; f != nil {
		f.Edited = true
	}
	return nil
}

// targetType picks the type an edit to path must encode as: the recorded
// original type when the field was loaded from disk, otherwise whatever the
// tree currently holds, otherwise inference on the leaf name.
func (s *Session) targetType(path string, cur nbt.Value) nbt.TagType {
	if f, ok := s.fields[path]; ok {
		return f.Type
	}
	if t, ok := nbt.TypeOf(cur); ok {
		return t
	}
	return s.inference.Infer(leafName(path), cur)
}

func leafName(path string) string {
	if i := strings.LastIndexAny(path, ".]"); i >= 0 && i+1 < len(path) {
		return path[i+1:]
	}
	return path
}

// Revert undoes a pending edit, restoring the field's original value in the
// tree and removing its ledger entry.
func (s *Session) Revert(path string) error {
	ch, ok := s.pending[path]
	if !ok {
		return fmt.Errorf("%w: %q has no pending change", nbt.ErrFieldNotFound, path)
	}
	if err := nbt.SetValue(s.doc.Root, path, ch.Original); err != nil {
		return err
	}
	s.dropPending(path)
	return nil
}

func (s *Session) dropPending(path string) {
	delete(s.pending, path)
	for i, p := range s.order {
		if p == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if f := s.fields[path]; f != nil {
		f.Edited = false
	}
}

// HasPendingChanges reports whether the session is dirty.
func (s *Session) HasPendingChanges() bool { return len(s.pending) > 0 }

// PendingPaths returns the dirty field paths in first-edit order.
func (s *Session) PendingPaths() []string {
	return append([]string(nil), s.order...)
}

// Change returns the ledger entry for a pending path.
func (s *Session) Change(path string) (Change, bool) {
	ch, ok := s.pending[path]
	if !ok {
		return Change{}, false
	}
	return *ch, true
}
