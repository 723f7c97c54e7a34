// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestDecodeCodedIndexHeapIndex(t *testing.T) {
	kind, rid, err := decodeCodedIndex(idxString, 0x1234)
	if err != nil {
		t.Fatalf("decodeCodedIndex(idxString) failed, reason: %v", err)
	}
	if kind != idxStringStream || rid != 0x1234 {
		t.Errorf("decodeCodedIndex(idxString) got (%d, %d), want (%d, 0x1234)", kind, rid, idxStringStream)
	}
}

func TestDecodeCodedIndexTagSelectsTable(t *testing.T) {
	// idxTypeDefOrRef: tagbits 2, idx = [TypeDef, TypeRef, TypeSpec]. Raw
	// value 0b101 = tag 1 (TypeRef), row 1.
	kind, rid, err := decodeCodedIndex(idxTypeDefOrRef, 0b101)
	if err != nil {
		t.Fatalf("decodeCodedIndex(idxTypeDefOrRef) failed, reason: %v", err)
	}
	if kind != TypeRef || rid != 1 {
		t.Errorf("decodeCodedIndex(idxTypeDefOrRef, 0b101) got (%d, %d), want (%d, 1)", kind, rid, TypeRef)
	}
}

func TestDecodeCodedIndexRejectsBadTag(t *testing.T) {
	// idxCustomAttributeType has unused tag slots at 0, 1 and 4.
	if _, _, err := decodeCodedIndex(idxCustomAttributeType, 0); err == nil {
		t.Errorf("decodeCodedIndex(idxCustomAttributeType, tag 0) should reject an unused tag slot")
	}
}

func TestCodedIndexSizeHeapsByte(t *testing.T) {
	f := &File{}
	f.CLR.TableStreamHeader.Heaps = 0

	if got := f.codedIndexSize(idxString); got != 2 {
		t.Errorf("codedIndexSize(idxString) with Heaps=0 got %d, want 2", got)
	}

	f.CLR.TableStreamHeader.Heaps = 1 << StringStream
	if got := f.codedIndexSize(idxString); got != 4 {
		t.Errorf("codedIndexSize(idxString) with the #Strings-is-wide bit set got %d, want 4", got)
	}
}

func TestCodedIndexSizeSimpleTableOffByOne(t *testing.T) {
	f := &File{}
	f.CLR.Tables = map[int]*Table{
		Field: {RowCount: 65535},
	}

	// idxField is a plain single-table index (tagbits 0): spec.md's
	// simple-table rule widens once row_count exceeds 65535, one row
	// sooner than the general coded-index formula (65536>>0) would.
	if got := f.codedIndexSize(idxField); got != 2 {
		t.Errorf("codedIndexSize(idxField) at 65535 rows got %d, want 2", got)
	}

	f.CLR.Tables[Field].RowCount = 65536
	if got := f.codedIndexSize(idxField); got != 4 {
		t.Errorf("codedIndexSize(idxField) at 65536 rows got %d, want 4", got)
	}
}

func TestCodedIndexSizeWidensOnRowCount(t *testing.T) {
	f := &File{}
	f.CLR.Tables = map[int]*Table{
		TypeDef: {RowCount: 1 << 14},
	}

	// idxTypeDefOrRef has 2 tag bits, so its small-index ceiling is
	// 1<<(16-2) = 0x4000 rows; a TypeDef table with exactly that many rows
	// still fits, one beyond it does not.
	if got := f.codedIndexSize(idxTypeDefOrRef); got != 2 {
		t.Errorf("codedIndexSize(idxTypeDefOrRef) at the small-index ceiling got %d, want 2", got)
	}

	f.CLR.Tables[TypeDef].RowCount = 1<<14 + 1
	if got := f.codedIndexSize(idxTypeDefOrRef); got != 4 {
		t.Errorf("codedIndexSize(idxTypeDefOrRef) one row past the ceiling got %d, want 4", got)
	}
}
