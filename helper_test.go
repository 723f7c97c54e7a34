// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"testing"
)

func TestMax(t *testing.T) {
	tests := []struct {
		x, y, want uint32
	}{
		{1, 2, 2},
		{2, 1, 2},
		{5, 5, 5},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Max(tt.x, tt.y); got != tt.want {
			t.Errorf("Max(%d, %d) got %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestMin(t *testing.T) {
	tests := []struct {
		values []uint32
		want   uint32
	}{
		{[]uint32{3, 1, 2}, 1},
		{[]uint32{7}, 7},
		{[]uint32{0, 0xffffffff}, 0},
	}
	for _, tt := range tests {
		if got := Min(tt.values); got != tt.want {
			t.Errorf("Min(%v) got %d, want %d", tt.values, got, tt.want)
		}
	}
}

func TestIsBitSet(t *testing.T) {
	tests := []struct {
		n    uint64
		pos  int
		want bool
	}{
		{0b0001, 0, true},
		{0b0001, 1, false},
		{0b1000, 3, true},
		{1 << 44, 44, true},
		{1 << 44, 43, false},
	}
	for _, tt := range tests {
		if got := IsBitSet(tt.n, tt.pos); got != tt.want {
			t.Errorf("IsBitSet(%b, %d) got %v, want %v", tt.n, tt.pos, got, tt.want)
		}
	}
}

func TestDecodeUTF16String(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{0x00, 0x00}, ""},
		{[]byte{'h', 0x00, 'i', 0x00, 0x00, 0x00}, "hi"},
	}
	for _, tt := range tests {
		got, err := DecodeUTF16String(tt.in)
		if err != nil {
			t.Errorf("DecodeUTF16String(%v) failed, reason: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DecodeUTF16String(%v) got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetAbsoluteFilePath(t *testing.T) {
	got := getAbsoluteFilePath("foo.bin")
	if got == "" || got == "foo.bin" {
		t.Errorf("getAbsoluteFilePath(%q) got %q, want an absolute path", "foo.bin", got)
	}
}
