// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// ResolveRVA converts a relative virtual address into an absolute file
// offset by finding the section whose virtual address range covers rva and
// translating through that section's PointerToRawData. It replaces the
// teacher's GetOffsetFromRva, which this package drops along with the
// general-purpose directory parsers it only existed to serve.
func ResolveRVA(pe *File, rva uint32) (uint32, error) {
	for i := range pe.Sections {
		sec := &pe.Sections[i]
		if !sec.Contains(rva, pe) {
			continue
		}

		sectionAlignedVA := pe.adjustSectionAlignment(sec.Header.VirtualAddress)
		sectionAlignedPointerToRawData := pe.adjustFileAlignment(sec.Header.PointerToRawData)
		offset := (rva - sectionAlignedVA) + sectionAlignedPointerToRawData

		if offset > pe.size {
			return 0, wrapOffset(KindStructural, ErrRVAPastRawData, rva)
		}
		return offset, nil
	}

	// An RVA lower than the size of the headers maps directly onto the
	// headers themselves, as if they were the first section.
	if rva < uint32(len(pe.Header)) {
		return rva, nil
	}

	return 0, wrapOffset(KindStructural, ErrRVAUnmapped, rva)
}
