// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into one of the three families used by the
// metadata decoder: structural failures in the container/root/streams,
// schema failures in the table stream, and out-of-range index lookups.
type Kind int

// Error kinds.
const (
	KindStructural Kind = iota
	KindSchema
	KindIndexing
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindSchema:
		return "schema"
	case KindIndexing:
		return "indexing"
	default:
		return "unknown"
	}
}

// Error is the typed error value returned by the metadata-decoding parts of
// this package (clr.go, heap.go, indexsize.go, tablestream.go, assembly.go).
// The decoder never panics on malformed input and never logs; it returns an
// Error.
type Error struct {
	Kind Kind
	Err  error
	// Offset, when >= 0, is the file offset being read at the time of
	// failure; for an RVA that could not be resolved it holds the RVA.
	Offset int64
	// Table, when >= 0, is the metadata table kind involved.
	Table int
	// Row, when > 0, is the 1-based row index involved.
	Row uint32
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Table >= 0 && e.Row > 0 {
		return fmt.Sprintf("%s: table %s row %d", msg, MetadataTableIndexToString(e.Table), e.Row)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: offset 0x%x", msg, e.Offset)
	}
	return msg
}

// Unwrap exposes the wrapped sentinel so errors.Is(err, ErrRVAUnmapped) and
// friends keep working for callers that don't care about Kind/context.
func (e *Error) Unwrap() error { return e.Err }

func wrapErr(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err, Offset: -1, Table: -1}
}

func wrapOffset(k Kind, err error, offset uint32) *Error {
	return &Error{Kind: k, Err: err, Offset: int64(offset), Table: -1}
}

func wrapRow(err error, table int, row uint32) *Error {
	return &Error{Kind: KindIndexing, Err: err, Offset: -1, Table: table, Row: row}
}

// Structural sentinels introduced for the metadata pipeline. The PE
// container layer keeps the teacher's own sentinel names (helper.go); these
// cover the CLI header / metadata root / stream layer that is new.
var (
	ErrRVAUnmapped           = errors.New("RVA is not covered by any section")
	ErrRVAPastRawData        = errors.New("RVA resolves past the section's raw data")
	ErrNotManagedAssembly    = errors.New("image has no CLI runtime header")
	ErrBadMetadataSignature  = errors.New("metadata root signature is not BSJB")
	ErrStreamOutOfBounds     = errors.New("stream offset+size exceeds the metadata root")
	ErrStreamNameTooLong     = errors.New("metadata stream name longer than 32 bytes")
	ErrMissingRequiredStream = errors.New("required metadata stream is absent")
)

// Schema sentinels, table-stream construction (tablestream.go).
var (
	ErrUnknownTableKind     = errors.New("valid-bit set for an undefined table kind")
	ErrTableOverrun         = errors.New("table stream body shorter than the computed row layout")
	ErrInconsistentRowCount = errors.New("table stream consumption does not match its declared size")
	ErrBadCodedTag          = errors.New("coded index tag outside its defined range")
)

// Indexing sentinels, heap/table row accessors (heap.go, tablestream.go).
var (
	ErrStringIndexOutOfRange = errors.New("string heap index out of range")
	ErrBlobIndexOutOfRange   = errors.New("blob heap index out of range")
	ErrGuidIndexOutOfRange   = errors.New("guid heap index out of range")
	ErrRowIndexOutOfRange    = errors.New("table row index out of range")
)

// ErrEndOfInput is the sentinel used by the byte-reader cursor (reader.go);
// helper.go's File-level accessors use the pre-existing ErrOutsideBoundary
// for the same condition over the whole image.
var ErrEndOfInput = errors.New("unexpected end of input")

// Soft, non-fatal observations recorded on File.Anomalies alongside the ones
// already defined in helper.go (AnoImageBaseOverflow, AnoInvalidSizeOfImage).
// These are strings, not errors: they are appended directly to
// File.Anomalies ([]string), matching helper.go's adjustFileAlignment /
// adjustSectionAlignment and dosheader.go / file.go's own usage.
const (
	AnoPEHeaderOverlapDOSHeader   = "PE header overlaps the DOS header"
	AnoReservedDataDirectoryEntry = "reserved data directory entry is non-zero"
	ErrInvalidFileAlignment       = "file alignment is not valid"
	ErrInvalidSectionAlignment    = "section alignment is not valid"
)
