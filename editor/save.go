package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/AdamJauhari/Bedrock-Editor-sub000/nbt"
)

// SaveBytes produces the bytes a save would write, without touching disk.
// Every pending change is patched into a scratch copy of the original
// buffer; a width mismatch on any field abandons patching and rebuilds the
// whole body from the tree instead. Any other patch failure, such as an
// unresolvable path, fails the whole save, so a caller is never told an
// edit persisted when it did not. The result is re-decoded
// as a final verification before it is returned.
func (s *Session) SaveBytes() ([]byte, error) {
	if s.doc.Recovered {
		return nil, ErrRecovered
	}
	if s.doc.Java {
		return nil, ErrJavaEdition
	}

	scratch := append([]byte(nil), s.original...)
	rebuild := s.opts.ForceRebuild
	if !rebuild {
		for _, path := range s.order {
			ch := s.pending[path]
			loc, err := nbt.Patch(scratch, path, ch.New)
			if err != nil {
				if errors.Is(err, nbt.ErrWidthMismatch) {
					glog.V(1).Infof("patch %s: width changed, falling back to full rebuild", path)
					rebuild = true
					break
				}
				return nil, err
			}
			glog.V(2).Infof("patched %s: %d bytes at offset 0x%x", path, loc.Length, loc.Offset)
		}
	}
	if rebuild {
		out, err := nbt.Encode(s.doc)
		if err != nil {
			return nil, err
		}
		scratch = out
	}

	if _, err := nbt.Decode(scratch); err != nil {
		return nil, fmt.Errorf("editor: output failed verification decode: %w", err)
	}
	return scratch, nil
}

// Save writes pending changes back to the file the session was opened from.
// A clean session is a successful no-op that never touches the file. The
// write goes to a temporary file in the same directory which replaces the
// original only after a successful sync, so a failed save leaves the file
// exactly as it was. On success the ledger commits: original bytes become
// the just-written bytes and the dirty set clears.
func (s *Session) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	if !s.HasPendingChanges() && !s.opts.ForceRebuild {
		glog.V(1).Infof("save %s: no pending changes", s.path)
		return nil
	}
	return s.SaveAs(s.path)
}

// SaveAs writes the session's current state to path, then commits the
// ledger and adopts path as the session's backing file.
func (s *Session) SaveAs(path string) error {
	out, err := s.SaveBytes()
	if err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
		if s.opts.Backup {
			prior, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("editor: backup read: %w", err)
			}
			if err := os.WriteFile(path+".backup", prior, mode); err != nil {
				return fmt.Errorf("editor: backup write: %w", err)
			}
			glog.V(1).Infof("backed up %s to %s.backup", path, path)
		}
	}

	if err := writeAtomic(path, out, mode); err != nil {
		return err
	}

	s.commit(path, out)
	glog.V(1).Infof("saved %s: %d bytes", path, len(out))
	return nil
}

// writeAtomic writes data to a temp file in path's directory, syncs it, and
// renames it over path. Partial writes never reach the live file.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, mode)
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// commit finalizes a successful save: the just-written bytes become the
// session's original, the ledger empties, and field records refresh so a
// later save cannot reapply stale type info.
func (s *Session) commit(path string, out []byte) {
	s.path = path
	s.original = out
	s.pending = make(map[string]*Change)
	s.order = nil
	s.captureFields()
}

// ExportJSON writes the flattened field table as a JSON array, one object
// per row. Display convenience for tooling; never a load format.
func (s *Session) ExportJSON(w io.Writer) error {
	type jsonRow struct {
		Path  string `json:"path"`
		Value string `json:"value"`
		Type  string `json:"type"`
		Depth int    `json:"depth"`
	}
	rows := s.Rows()
	out := make([]jsonRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, jsonRow{row.Path, row.Display, row.Type.String(), row.Depth})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
