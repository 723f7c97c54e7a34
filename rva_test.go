// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestResolveRVA(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	f, err := NewBytes(data, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	// The CLI header lives at the start of the .cormeta section, RVA 0x2000,
	// backed by file offset 0x400.
	got, err := ResolveRVA(f, testCLIHeaderRVA)
	if err != nil {
		t.Fatalf("ResolveRVA(0x%x) failed, reason: %v", testCLIHeaderRVA, err)
	}
	if want := uint32(0x400); got != want {
		t.Errorf("ResolveRVA(0x%x) got 0x%x, want 0x%x", testCLIHeaderRVA, got, want)
	}
}

func TestResolveRVAIntoHeaders(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	f, err := NewBytes(data, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	got, err := ResolveRVA(f, 0x10)
	if err != nil {
		t.Fatalf("ResolveRVA(0x10) failed, reason: %v", err)
	}
	if got != 0x10 {
		t.Errorf("ResolveRVA(0x10) got 0x%x, want 0x10 (falls within the header range)", got)
	}
}

func TestResolveRVAUnmapped(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	f, err := NewBytes(data, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	if _, err := ResolveRVA(f, 0xffffff); err == nil {
		t.Errorf("ResolveRVA(0xffffff) should fail, no section covers that RVA")
	}
}
