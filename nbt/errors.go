package nbt

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF indicates a read would have run past the end of the
	// buffer. Always fatal to the current decode attempt.
	ErrUnexpectedEOF = errors.New("nbt: unexpected end of data")

	// ErrMalformedRoot indicates the root tag is not a compound or a
	// name/length prefix is inconsistent with the buffer.
	ErrMalformedRoot = errors.New("nbt: malformed root compound")

	// ErrUnknownTag indicates a tag-type byte outside the defined range.
	ErrUnknownTag = errors.New("nbt: unknown tag type")

	// ErrFieldNotFound indicates a field path does not resolve against the
	// tree or the original byte layout.
	ErrFieldNotFound = errors.New("nbt: field not found")

	// ErrWidthMismatch indicates a new value's encoded width differs from
	// the bytes it would replace; in-place patching would corrupt every
	// offset after it, so the caller must fall back to a full rebuild.
	ErrWidthMismatch = errors.New("nbt: encoded width differs from original")

	// ErrRecoveryFailed indicates the permissive scanner found nothing it
	// could interpret as NBT fields.
	ErrRecoveryFailed = errors.New("nbt: recovery found no parsable fields")
)

// PatchError describes a failed byte-level patch of one field.
type PatchError struct {
	Path   string
	Offset int
	Err    error
}

func (e *PatchError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("patch %q at offset 0x%x: %v", e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("patch %q: %v", e.Path, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// ConvertError describes a textual value that could not be parsed into a
// field's target tag type. The tree is never modified when one is returned.
type ConvertError struct {
	Text   string
	Target TagType
	Err    error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s: %v", e.Text, e.Target, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }
