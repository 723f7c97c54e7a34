// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"testing"
)

func TestParseDOSHeader(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	want := ImageDOSHeader{
		Magic:                 ImageDOSSignature,
		AddressOfNewEXEHeader: 0x80,
	}

	file, err := NewBytes(data, &Options{Fast: true})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer file.Close()

	if err := file.ParseDOSHeader(); err != nil {
		t.Fatalf("ParseDOSHeader failed, reason: %v", err)
	}

	if got := file.DOSHeader; got != want {
		t.Errorf("parse DOS header assertion failed, got %v, want %v", got, want)
	}
}

func TestParseDOSHeaderRejectsBadMagic(t *testing.T) {
	data := buildMinimalManagedAssembly(t)
	data[0] = 'X'
	data[1] = 'X'

	file, err := NewBytes(data, &Options{Fast: true})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer file.Close()

	if err := file.ParseDOSHeader(); err != ErrDOSMagicNotFound {
		t.Errorf("ParseDOSHeader() got %v, want %v", err, ErrDOSMagicNotFound)
	}
}
