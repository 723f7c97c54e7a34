// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// pe_testutil_test.go builds a minimal, fully synthetic managed assembly in
// memory: a two-section PE32 image whose CLR data directory points at a CLI
// header and, from there, a BSJB metadata root carrying a #~ stream with a
// single Module row plus #Strings/#GUID/#Blob/#US heaps. No real assembly
// ships with this repo, so every test that needs bytes on disk or in memory
// builds them here instead of reading a fixture.

const (
	testCLIHeaderRVA    = 0x2000
	testMetadataRootRVA = testCLIHeaderRVA + 72
)

// buildMetadataStream lays out the fixed #~ header (ECMA-335 §II.24.2.6)
// followed by one row-count and one Module row. HeapSizes is left at 0, so
// every heap index in the row is 2 bytes wide.
func buildMetadataStream(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // reserved
	buf.WriteByte(2)                                    // major version
	buf.WriteByte(0)                                    // minor version
	buf.WriteByte(0)                                    // heap sizes: all 2-byte indices
	buf.WriteByte(1)                                    // rid
	binary.Write(&buf, binary.LittleEndian, uint64(1)<<uint(Module))
	binary.Write(&buf, binary.LittleEndian, uint64(0)) // sorted

	binary.Write(&buf, binary.LittleEndian, uint32(1)) // Module row count

	binary.Write(&buf, binary.LittleEndian, uint16(0)) // generation
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // name -> #Strings[1]
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mvid -> #GUID[1]
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // enc_id
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // enc_base_id

	return buf.Bytes()
}

// padStreamName null-pads a stream name to a multiple of 4 bytes,
// terminated, per ECMA-335 §II.24.2.2.
func padStreamName(name string) []byte {
	n := len(name) + 1
	if n%4 != 0 {
		n += 4 - n%4
	}
	b := make([]byte, n)
	copy(b, name)
	return b
}

// buildMetadataRoot assembles the storage signature, storage header,
// version string, stream headers and stream bodies into one contiguous
// metadata root blob (ECMA-335 §II.24.2.1-24.2.2).
func buildMetadataRoot(t *testing.T) []byte {
	t.Helper()

	type namedStream struct {
		name string
		data []byte
	}
	streams := []namedStream{
		{"#~", buildMetadataStream(t)},
		{"#Strings", append([]byte{0x00}, append([]byte("Test.dll"), 0x00)...)},
		{"#GUID", []byte{
			0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
		}},
		{"#Blob", []byte{0x00}},
		{"#US", []byte{0x00}},
	}

	var root bytes.Buffer
	root.Write([]byte{0x42, 0x53, 0x4a, 0x42}) // "BSJB"
	binary.Write(&root, binary.LittleEndian, uint16(1))
	binary.Write(&root, binary.LittleEndian, uint16(1))
	binary.Write(&root, binary.LittleEndian, uint32(0))

	version := append([]byte("v4.0.30319"), 0x00, 0x00)
	binary.Write(&root, binary.LittleEndian, uint32(len(version)))
	root.Write(version)

	root.WriteByte(0) // flags
	root.WriteByte(0) // reserved pad byte
	binary.Write(&root, binary.LittleEndian, uint16(len(streams)))

	headerSize := 0
	for _, s := range streams {
		headerSize += 8 + len(padStreamName(s.name))
	}

	bodyOffset := root.Len() + headerSize
	var headers, bodies bytes.Buffer
	offset := bodyOffset
	for _, s := range streams {
		binary.Write(&headers, binary.LittleEndian, uint32(offset))
		binary.Write(&headers, binary.LittleEndian, uint32(len(s.data)))
		headers.Write(padStreamName(s.name))

		bodies.Write(s.data)
		offset += len(s.data)
	}

	root.Write(headers.Bytes())
	root.Write(bodies.Bytes())
	return root.Bytes()
}

// buildMinimalManagedAssembly returns the raw bytes of a two-section PE32
// image: a zero-filled ".text" (so its entropy is exactly 0) and a
// ".cormeta" section carrying the CLI header and the metadata root built
// above.
func buildMinimalManagedAssembly(t *testing.T) []byte {
	t.Helper()

	mdRoot := buildMetadataRoot(t)

	cor20 := ImageCOR20Header{
		Cb:                   72,
		MajorRuntimeVersion:  2,
		MinorRuntimeVersion:  5,
		MetaData:             ImageDataDirectory{VirtualAddress: testMetadataRootRVA, Size: uint32(len(mdRoot))},
		Flags:                COMImageFlagsILOnly,
		EntryPointRVAorToken: 0,
	}
	var cliBuf bytes.Buffer
	if err := binary.Write(&cliBuf, binary.LittleEndian, cor20); err != nil {
		t.Fatalf("encode CLI header: %v", err)
	}

	cormeta := append([]byte{}, cliBuf.Bytes()...)
	cormeta = append(cormeta, mdRoot...)
	if len(cormeta) > 0x200 {
		t.Fatalf("synthetic .cormeta section overflowed its reserved 0x200 bytes (got %d)", len(cormeta))
	}
	cormeta = append(cormeta, make([]byte, 0x200-len(cormeta))...)

	text := make([]byte, 0x200) // zero-filled: CalculateEntropy() == 0.0

	var dosBuf bytes.Buffer
	binary.Write(&dosBuf, binary.LittleEndian, ImageDOSHeader{
		Magic:                 ImageDOSSignature,
		AddressOfNewEXEHeader: 0x80,
	})
	dosBytes := append(dosBuf.Bytes(), make([]byte, 0x80-dosBuf.Len())...)

	fh := ImageFileHeader{
		Machine:              ImageFileHeaderMachineType(ImageFileMachineI386),
		NumberOfSections:     2,
		SizeOfOptionalHeader: 224,
		Characteristics:      ImageFileExecutableImage | ImageFile32BitMachine,
	}

	oh := ImageOptionalHeader32{
		Magic:                 ImageNtOptionalHeader32Magic,
		MajorLinkerVersion:    14,
		SizeOfCode:            0x200,
		SizeOfInitializedData: 0x200,
		BaseOfCode:            0x1000,
		BaseOfData:            0x2000,
		ImageBase:             0x400000,
		SectionAlignment:      0x1000,
		FileAlignment:         0x200,
		MajorSubsystemVersion: 4,
		SizeOfImage:           0x3000,
		SizeOfHeaders:         0x200,
		Subsystem:             ImageSubsystemWindowsCUI,
		SizeOfStackReserve:    0x100000,
		SizeOfStackCommit:     0x1000,
		SizeOfHeapReserve:     0x100000,
		SizeOfHeapCommit:      0x1000,
		NumberOfRvaAndSizes:   16,
	}
	oh.DataDirectory[ImageDirectoryEntryCLR] = DataDirectory{VirtualAddress: testCLIHeaderRVA, Size: 72}

	secText := ImageSectionHeader{
		Name:             [8]uint8{'.', 't', 'e', 'x', 't'},
		VirtualSize:      0x10,
		VirtualAddress:   0x1000,
		SizeOfRawData:    0x200,
		PointerToRawData: 0x200,
		Characteristics:  ImageScnCntInitializedData | ImageScnMemRead,
	}
	secCor := ImageSectionHeader{
		Name:             [8]uint8{'.', 'c', 'o', 'r', 'm', 'e', 't', 'a'},
		VirtualSize:      0x200,
		VirtualAddress:   0x2000,
		SizeOfRawData:    0x200,
		PointerToRawData: 0x400,
		Characteristics:  ImageScnCntInitializedData | ImageScnMemRead,
	}

	var buf bytes.Buffer
	buf.Write(dosBytes)
	buf.Write([]byte{'P', 'E', 0, 0})
	binary.Write(&buf, binary.LittleEndian, fh)
	binary.Write(&buf, binary.LittleEndian, oh)
	binary.Write(&buf, binary.LittleEndian, secText)
	binary.Write(&buf, binary.LittleEndian, secCor)
	buf.Write(make([]byte, 0x200-buf.Len()))
	buf.Write(text)
	buf.Write(cormeta)

	return buf.Bytes()
}
