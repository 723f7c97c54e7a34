// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestReaderPrimitives(t *testing.T) {
	r := NewReader([]byte{0x2a, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	if v, err := r.ReadU8(); err != nil || v != 0x2a {
		t.Fatalf("ReadU8() got (%v, %v), want (0x2a, nil)", v, err)
	}
	if v, err := r.ReadU32LE(); err != nil || v != 0x04030201 {
		t.Fatalf("ReadU32LE() got (0x%x, %v), want (0x04030201, nil)", v, err)
	}
	if v, err := r.ReadU16LE(); err != nil || v != 0x0605 {
		t.Fatalf("ReadU16LE() got (0x%x, %v), want (0x0605, nil)", v, err)
	}
	if got, want := r.Remaining(), 2; got != want {
		t.Errorf("Remaining() got %d, want %d", got, want)
	}
	b, err := r.ReadBytes(2)
	if err != nil || b[0] != 0x07 || b[1] != 0x08 {
		t.Fatalf("ReadBytes(2) got (%v, %v)", b, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() after full consumption got %d, want 0", r.Remaining())
	}
}

func TestReaderBoundsChecking(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})

	if _, err := r.ReadU32LE(); err != ErrEndOfInput {
		t.Errorf("ReadU32LE() past end got %v, want ErrEndOfInput", err)
	}
	if err := r.Skip(10); err != ErrEndOfInput {
		t.Errorf("Skip(10) got %v, want ErrEndOfInput", err)
	}
}

func TestReaderAlignTo(t *testing.T) {
	r := NewReader(make([]byte, 16))
	r.Skip(1)

	if err := r.AlignTo(4); err != nil {
		t.Fatalf("AlignTo(4) failed, reason: %v", err)
	}
	if got, want := r.Pos(), 4; got != want {
		t.Errorf("Pos() after AlignTo(4) got %d, want %d", got, want)
	}

	r2 := NewReader(make([]byte, 4))
	r2.Skip(3)
	if err := r2.AlignTo(8); err == nil {
		t.Errorf("AlignTo(8) past the end of a 4-byte view should fail")
	}
}

func TestReaderReadCompressedUint(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		want   uint32
		wantN  int
	}{
		{"one byte", []byte{0x03}, 0x03, 1},
		{"two bytes", []byte{0x80, 0x80}, 0x80, 2},
		{"four bytes", []byte{0xc0, 0x00, 0x40, 0x00}, 0x4000, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.in)
			got, err := r.ReadCompressedUint()
			if err != nil {
				t.Fatalf("ReadCompressedUint() failed, reason: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadCompressedUint() got 0x%x, want 0x%x", got, tt.want)
			}
			if r.Pos() != tt.wantN {
				t.Errorf("Pos() after ReadCompressedUint() got %d, want %d", r.Pos(), tt.wantN)
			}
		})
	}
}
