// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	data := buildMinimalManagedAssembly(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "synthetic.dll")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	file, err := New(path, nil)
	if err != nil {
		t.Fatalf("New(%s) failed, reason: %v", path, err)
	}
	defer file.Close()

	if err := file.Parse(); err != nil {
		t.Fatalf("Parse(%s) failed, reason: %v", path, err)
	}

	if !file.HasCLR {
		t.Fatalf("Parse(%s) did not detect a CLR header", path)
	}

	module, err := file.Module()
	if err != nil {
		t.Fatalf("Module() failed, reason: %v", err)
	}
	name, err := file.String(module.Name)
	if err != nil {
		t.Fatalf("String(%d) failed, reason: %v", module.Name, err)
	}
	if name != "Test.dll" {
		t.Errorf("Module name got %q, want %q", name, "Test.dll")
	}
}

func TestNewBytes(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	file, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer file.Close()

	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	if !file.HasCLR {
		t.Fatalf("Parse did not detect a CLR header")
	}
	if got, want := file.RowCount(Module), uint32(1); got != want {
		t.Errorf("RowCount(Module) got %d, want %d", got, want)
	}
}

func TestParseFastSkipsCLR(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	file, err := NewBytes(data, &Options{Fast: true})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer file.Close()

	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	if file.HasCLR {
		t.Errorf("fast Parse unexpectedly walked the CLR data directory")
	}
	if len(file.Sections) != 2 {
		t.Errorf("Sections count got %d, want 2", len(file.Sections))
	}
}
