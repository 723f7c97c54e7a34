// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// Reader is a cursored view over a byte slice, used to decode the
// self-contained blobs found in the heaps (signatures, custom attribute
// values, user strings) once their bounds have already been carved out of
// the mapped file by the File-level, absolute-offset accessors in
// helper.go. Every read copies a primitive or returns a borrowed
// sub-slice; nothing here allocates.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total number of bytes in the underlying view.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns how many bytes are left to read.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) require(n int) error {
	if r.Remaining() < n {
		return ErrEndOfInput
	}
	return nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadU64LE reads a little-endian uint64.
func (r *Reader) ReadU64LE() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes returns a borrowed sub-slice of the next n bytes and advances
// the cursor past them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// PeekU32LE reads a little-endian uint32 without advancing the cursor.
func (r *Reader) PeekU32LE() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.data[r.pos:]), nil
}

// AlignTo advances the cursor to the next multiple of n bytes measured
// from the view's origin (offset 0), failing with ErrEndOfInput if that
// would move past the end of the view.
func (r *Reader) AlignTo(n int) error {
	aligned := (r.pos + n - 1) / n * n
	if aligned > len(r.data) {
		return ErrEndOfInput
	}
	r.pos = aligned
	return nil
}

// ReadCompressedUint decodes an ECMA-335 §II.23.2 compressed unsigned
// integer at the current cursor position and advances past it.
func (r *Reader) ReadCompressedUint() (uint32, error) {
	v, n, err := decodeCompressedUint(r.data[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}
