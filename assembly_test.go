// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestLoadBytes(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	asm, err := LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes failed, reason: %v", err)
	}
	defer asm.Close()

	module, err := asm.Module()
	if err != nil {
		t.Fatalf("Module() failed, reason: %v", err)
	}
	name, err := asm.String(module.Name)
	if err != nil {
		t.Fatalf("String(%d) failed, reason: %v", module.Name, err)
	}
	if name != "Test.dll" {
		t.Errorf("Module name got %q, want %q", name, "Test.dll")
	}
}

func TestLoadBytesRejectsNonManagedImage(t *testing.T) {
	data := buildMinimalManagedAssembly(t)
	// The CLR data directory's VirtualAddress field sits at
	// e_lfanew(0x80) + "PE\0\0"(4) + FileHeader(20) +
	// DataDirectory[ImageDirectoryEntryCLR].offset-within-OptionalHeader32
	// (96 fixed fields + 14*8 = 208), i.e. absolute offset 0x168. Blank it
	// out so the image no longer declares a CLI header.
	const clrDataDirVA = 0x80 + 4 + 20 + 208
	data[clrDataDirVA] = 0
	data[clrDataDirVA+1] = 0
	data[clrDataDirVA+2] = 0
	data[clrDataDirVA+3] = 0

	if _, err := LoadBytes(data); err == nil {
		t.Errorf("LoadBytes() should fail when the CLR data directory entry is empty")
	}
}

func TestRowsOnAbsentTable(t *testing.T) {
	data := buildMinimalManagedAssembly(t)
	asm, err := LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes failed, reason: %v", err)
	}
	defer asm.Close()

	rows, err := asm.Rows(TypeDef)
	if err != nil {
		t.Fatalf("Rows(TypeDef) failed, reason: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Rows(TypeDef) got %d rows, want 0 (table absent from this assembly)", len(rows))
	}
	if got := asm.RowCount(TypeDef); got != 0 {
		t.Errorf("RowCount(TypeDef) got %d, want 0", got)
	}
}

func TestRowCountModule(t *testing.T) {
	data := buildMinimalManagedAssembly(t)
	asm, err := LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes failed, reason: %v", err)
	}
	defer asm.Close()

	if got, want := asm.RowCount(Module), uint32(1); got != want {
		t.Errorf("RowCount(Module) got %d, want %d", got, want)
	}

	rows, err := asm.Rows(Module)
	if err != nil {
		t.Fatalf("Rows(Module) failed, reason: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Rows(Module) got %d rows, want 1", len(rows))
	}
	if rows[0].Kind != Module {
		t.Errorf("Rows(Module)[0].Kind got %d, want %d", rows[0].Kind, Module)
	}
}

func TestAssemblyAbsent(t *testing.T) {
	data := buildMinimalManagedAssembly(t)
	asm, err := LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes failed, reason: %v", err)
	}
	defer asm.Close()

	_, ok, err := asm.Assembly()
	if err != nil {
		t.Fatalf("Assembly() failed, reason: %v", err)
	}
	if ok {
		t.Errorf("Assembly() reported a row present, but the synthetic fixture has no Assembly table")
	}
}
