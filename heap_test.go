// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestDecodeCompressedUint(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  uint32
		wantN int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"max one byte", []byte{0x7f}, 0x7f, 1},
		{"min two bytes", []byte{0x80, 0x80}, 0x80, 2},
		{"max two bytes", []byte{0xbf, 0xff}, 0x3fff, 2},
		{"min four bytes", []byte{0xc0, 0x00, 0x40, 0x00}, 0x4000, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := decodeCompressedUint(tt.in)
			if err != nil {
				t.Fatalf("decodeCompressedUint(%v) failed, reason: %v", tt.in, err)
			}
			if got != tt.want || n != tt.wantN {
				t.Errorf("decodeCompressedUint(%v) got (0x%x, %d), want (0x%x, %d)", tt.in, got, n, tt.want, tt.wantN)
			}
		})
	}
}

func TestDecodeCompressedUintRejectsBadPrefix(t *testing.T) {
	if _, _, err := decodeCompressedUint([]byte{0xf0}); err == nil {
		t.Errorf("decodeCompressedUint([0xf0]) should reject the reserved 111xxxxx prefix")
	}
}

func TestStringHeapGet(t *testing.T) {
	f := &File{data: []byte{0x00, 'h', 'i', 0x00, 'x'}}
	h := &StringHeap{pe: f, offset: 0, size: 5}

	if got, err := h.Get(0); err != nil || got != "" {
		t.Errorf("Get(0) got (%q, %v), want (\"\", nil)", got, err)
	}
	if got, err := h.Get(1); err != nil || got != "hi" {
		t.Errorf("Get(1) got (%q, %v), want (\"hi\", nil)", got, err)
	}
	if _, err := h.Get(5); err == nil {
		t.Errorf("Get(5) past the heap's size should fail")
	}
}

func TestGuidHeapGet(t *testing.T) {
	guidBytes := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}
	f := &File{data: guidBytes, size: uint32(len(guidBytes))}
	h := &GuidHeap{pe: f, offset: 0, size: 16}

	if got, err := h.Get(0); err != nil || got != "" {
		t.Errorf("Get(0) got (%q, %v), want (\"\", nil)", got, err)
	}
	want := "04030201-0605-0807-090a-0b0c0d0e0f10"
	if got, err := h.Get(1); err != nil || got != want {
		t.Errorf("Get(1) got (%q, %v), want (%q, nil)", got, err, want)
	}
	if _, err := h.Get(2); err == nil {
		t.Errorf("Get(2) past the heap's size should fail")
	}
}

func TestBlobHeapGet(t *testing.T) {
	f := &File{data: []byte{0x03, 0xde, 0xad, 0xbe}}
	h := &BlobHeap{pe: f, offset: 0, size: 4}

	got, err := h.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed, reason: %v", err)
	}
	want := []byte{0xde, 0xad, 0xbe}
	if len(got) != len(want) {
		t.Fatalf("Get(0) got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Get(0) got %v, want %v", got, want)
		}
	}
}

func TestUserStringHeapGet(t *testing.T) {
	// "hi" as UTF-16LE (4 bytes) plus the trailing marshaling flag byte,
	// prefixed by its compressed length (5).
	f := &File{data: []byte{0x05, 'h', 0x00, 'i', 0x00, 0x00}}
	h := &UserStringHeap{pe: f, offset: 0, size: 6}

	got, err := h.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed, reason: %v", err)
	}
	if got != "hi" {
		t.Errorf("Get(0) got %q, want %q", got, "hi")
	}
}
