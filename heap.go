// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"fmt"
)

// References
// ECMA-335, 6th edition, partition II, §23.2 (blobs and signatures),
// §24.2.3 (#Strings), §24.2.4 (#US), §24.2.5 (#GUID), §24.2.4 (#Blob)

// decodeCompressedUint decodes an ECMA-335 §II.23.2 compressed unsigned
// integer starting at b[0]. It returns the decoded value and the number of
// bytes consumed (1, 2 or 4).
func decodeCompressedUint(b []byte) (value uint32, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrEndOfInput
	}

	first := b[0]
	switch {
	case first&0x80 == 0:
		// 0xxxxxxx, one byte, value 0..0x7f.
		return uint32(first), 1, nil

	case first&0xc0 == 0x80:
		// 10xxxxxx xxxxxxxx, two bytes, value 0x80..0x3fff.
		if len(b) < 2 {
			return 0, 0, ErrEndOfInput
		}
		v := (uint32(first&0x3f) << 8) | uint32(b[1])
		return v, 2, nil

	case first&0xe0 == 0xc0:
		// 110xxxxx xxxxxxxx xxxxxxxx xxxxxxxx, four bytes, value
		// 0x4000..0x1fffffff.
		if len(b) < 4 {
			return 0, 0, ErrEndOfInput
		}
		v := (uint32(first&0x1f) << 24) | (uint32(b[1]) << 16) |
			(uint32(b[2]) << 8) | uint32(b[3])
		return v, 4, nil

	default:
		return 0, 0, wrapErr(KindSchema, fmt.Errorf("invalid compressed integer prefix 0x%x", first))
	}
}

// StringHeap is the #Strings stream: a sequence of null-terminated UTF-8
// strings, indexed by byte offset from the start of the heap. Index 0 is
// always the empty string.
type StringHeap struct {
	pe     *File
	offset uint32
	size   uint32
}

// Get returns the string at byte offset idx within the heap.
func (h *StringHeap) Get(idx uint32) (string, error) {
	if h == nil || idx >= h.size {
		return "", wrapErr(KindIndexing, ErrStringIndexOutOfRange)
	}

	base := h.offset + idx
	end := h.offset + h.size
	n := uint32(0)
	for base+n < end && h.pe.data[base+n] != 0 {
		n++
	}
	return string(h.pe.data[base : base+n]), nil
}

// GuidHeap is the #GUID stream: a sequence of 16-byte GUIDs, indexed
// 1-based (index 0 means "no GUID").
type GuidHeap struct {
	pe     *File
	offset uint32
	size   uint32
}

// Get returns the GUID at the given 1-based index, formatted in the
// canonical 8-4-4-4-12 hyphenated hex representation.
func (h *GuidHeap) Get(idx uint32) (string, error) {
	if h == nil || idx == 0 {
		return "", nil
	}

	off := h.offset + (idx-1)*16
	if idx == 0 || (idx-1)*16+16 > h.size {
		return "", wrapErr(KindIndexing, ErrGuidIndexOutOfRange)
	}

	// A GUID's first three fields are little-endian integers; the last two
	// are raw byte sequences. ReadUint64 gives us each 8-byte half
	// bounds-checked in one shot; since it decodes bytes least-significant
	// first, shifting back out by byte recovers the original byte order for
	// the raw-sequence half without a second, unchecked slice into pe.data.
	lo, err := h.pe.ReadUint64(off)
	if err != nil {
		return "", wrapErr(KindIndexing, ErrGuidIndexOutOfRange)
	}
	hi, err := h.pe.ReadUint64(off + 8)
	if err != nil {
		return "", wrapErr(KindIndexing, ErrGuidIndexOutOfRange)
	}

	data1 := uint32(lo)
	data2 := uint16(lo >> 32)
	data3 := uint16(lo >> 48)
	data4 := make([]byte, 8)
	for i := range data4 {
		data4[i] = byte(hi >> (8 * i))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		data1, data2, data3, data4[0:2], data4[2:8]), nil
}

// BlobHeap is the #Blob stream: length-prefixed byte blobs (the length is a
// compressed unsigned integer, §II.23.2), indexed by byte offset.
type BlobHeap struct {
	pe     *File
	offset uint32
	size   uint32
}

// Get returns the blob's bytes (not including its length prefix) at byte
// offset idx within the heap.
func (h *BlobHeap) Get(idx uint32) ([]byte, error) {
	if h == nil || idx >= h.size {
		return nil, wrapErr(KindIndexing, ErrBlobIndexOutOfRange)
	}

	base := h.offset + idx
	end := h.offset + h.size
	if base >= end {
		return nil, wrapErr(KindIndexing, ErrBlobIndexOutOfRange)
	}

	r := NewReader(h.pe.data[base:end])
	length, err := r.ReadCompressedUint()
	if err != nil {
		return nil, wrapErr(KindIndexing, ErrBlobIndexOutOfRange)
	}
	blob, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, wrapErr(KindIndexing, ErrBlobIndexOutOfRange)
	}
	return blob, nil
}

// UserStringHeap is the #US stream: length-prefixed UTF-16LE strings,
// indexed by byte offset. Each entry's final byte carries no codepoint; it
// is a trailing flag indicating whether any UTF-16 code unit has its high
// byte set or is one of a handful of punctuation code points, used by the
// runtime to pick a fast marshaling path. This package does not expose that
// flag; it only surfaces the decoded text.
type UserStringHeap struct {
	pe     *File
	offset uint32
	size   uint32
}

// Get returns the decoded UTF-16 string at byte offset idx within the heap.
func (h *UserStringHeap) Get(idx uint32) (string, error) {
	if h == nil || idx >= h.size {
		return "", wrapErr(KindIndexing, ErrStringIndexOutOfRange)
	}

	base := h.offset + idx
	end := h.offset + h.size
	if base >= end {
		return "", wrapErr(KindIndexing, ErrStringIndexOutOfRange)
	}

	r := NewReader(h.pe.data[base:end])
	length, err := r.ReadCompressedUint()
	if err != nil {
		return "", wrapErr(KindIndexing, ErrStringIndexOutOfRange)
	}
	if length == 0 {
		return "", nil
	}
	raw, err := r.ReadBytes(int(length))
	if err != nil {
		return "", wrapErr(KindIndexing, ErrStringIndexOutOfRange)
	}

	// Drop the trailing flag byte before decoding; a well-formed entry has
	// an even byte count remaining (UTF-16 code units) plus that one byte.
	text := raw
	if len(text)%2 == 1 {
		text = text[:len(text)-1]
	}
	return DecodeUTF16String(append(text, 0, 0))
}
