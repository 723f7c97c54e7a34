// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"reflect"
	"sort"
	"testing"
)

func TestParseSectionHeaders(t *testing.T) {
	data := buildMinimalManagedAssembly(t)

	f, err := NewBytes(data, &Options{})
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	sections := f.Sections
	if len(sections) != 2 {
		t.Fatalf("sections count assertion failed, got %v, want %v", len(sections), 2)
	}

	wantHeader := ImageSectionHeader{
		Name:             [8]uint8{'.', 't', 'e', 'x', 't'},
		VirtualSize:      0x10,
		VirtualAddress:   0x1000,
		SizeOfRawData:    0x200,
		PointerToRawData: 0x200,
		Characteristics:  ImageScnCntInitializedData | ImageScnMemRead,
	}

	section := sections[0]
	if !reflect.DeepEqual(section.Header, wantHeader) {
		t.Errorf("section header assertion failed, got %v, want %v", section.Header, wantHeader)
	}

	if sectionName := section.String(); sectionName != ".text" {
		t.Errorf("section name assertion failed, got %v, want %v", sectionName, ".text")
	}

	wantFlags := []string{"Initialized Data", "Readable"}
	prettySectionFlags := section.PrettySectionFlags()
	sort.Strings(prettySectionFlags)
	sort.Strings(wantFlags)
	if !reflect.DeepEqual(prettySectionFlags, wantFlags) {
		t.Errorf("pretty section flags assertion failed, got %v, want %v", prettySectionFlags, wantFlags)
	}

	if entropy := section.CalculateEntropy(f); entropy != 0.0 {
		t.Errorf("entropy calculation failed, got %v, want %v", entropy, 0.0)
	}
}
