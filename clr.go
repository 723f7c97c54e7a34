// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// References
// ECMA-335, 6th edition, partition II, §25.3.3 (CLI header)
// ECMA-335, 6th edition, partition II, §24.2.1 (metadata root)

// parseCLRHeaderDirectory parses the CLI header (IMAGE_COR20_HEADER) found
// through the ImageDirectoryEntryCLR data directory, then walks the
// metadata root it points to: the BSJB signature, the stream headers, and
// finally the #~/#- table stream via buildTables. This replaces the
// teacher's parseCLRHeaderDirectory, which only ever decoded the Module
// table and called the package's removed RVA resolver four times over.
func (pe *File) parseCLRHeaderDirectory(rva, size uint32) error {
	fileOffset, err := ResolveRVA(pe, rva)
	if err != nil {
		return err
	}

	clrHeader := ImageCOR20Header{}
	headerSize := uint32(binary.Size(clrHeader))
	if err := pe.structUnpack(&clrHeader, fileOffset, headerSize); err != nil {
		return err
	}
	pe.CLR.CLRHeader = clrHeader
	pe.HasCLR = true

	if clrHeader.MetaData.VirtualAddress == 0 {
		return wrapErr(KindStructural, ErrNotManagedAssembly)
	}

	mdRootOffset, err := ResolveRVA(pe, clrHeader.MetaData.VirtualAddress)
	if err != nil {
		return err
	}

	mdHeader, next, err := pe.parseMetadataHeader(mdRootOffset)
	if err != nil {
		return err
	}
	pe.CLR.MetadataHeader = mdHeader

	streamHeaders, err := pe.parseMetadataStreamHeaders(next, mdHeader.Streams)
	if err != nil {
		return err
	}
	pe.CLR.MetadataStreamHeaders = streamHeaders

	streams := make(map[string][]byte, len(streamHeaders))
	streamAbsOffset := make(map[string]uint32, len(streamHeaders))
	for _, sh := range streamHeaders {
		if uint64(sh.Offset)+uint64(sh.Size) > uint64(clrHeader.MetaData.Size) {
			return wrapErr(KindStructural, ErrStreamOutOfBounds)
		}
		abs := mdRootOffset + sh.Offset
		data, err := pe.ReadBytesAtOffset(abs, sh.Size)
		if err != nil {
			return err
		}
		streams[sh.Name] = data
		streamAbsOffset[sh.Name] = abs
	}
	pe.CLR.MetadataStreams = streams

	tableStreamName := "#~"
	tableAbsOffset, ok := streamAbsOffset[tableStreamName]
	if !ok {
		tableStreamName = "#-"
		tableAbsOffset, ok = streamAbsOffset[tableStreamName]
	}
	if !ok {
		return wrapErr(KindStructural, ErrMissingRequiredStream)
	}

	var tableStreamSize uint32
	for _, sh := range streamHeaders {
		if sh.Name == tableStreamName {
			tableStreamSize = sh.Size
			break
		}
	}

	if err := buildTables(pe, tableAbsOffset, tableStreamSize); err != nil {
		return err
	}

	pe.CLR.StringStreamIndexSize = pe.GetMetadataStreamIndexSize(StringStream)
	pe.CLR.GUIDStreamIndexSize = pe.GetMetadataStreamIndexSize(GUIDStream)
	pe.CLR.BlobStreamIndexSize = pe.GetMetadataStreamIndexSize(BlobStream)

	if off, ok := streamAbsOffset["#Strings"]; ok {
		pe.CLR.Strings = &StringHeap{pe: pe, offset: off, size: uint32(len(streams["#Strings"]))}
	}
	if off, ok := streamAbsOffset["#GUID"]; ok {
		pe.CLR.GUIDs = &GuidHeap{pe: pe, offset: off, size: uint32(len(streams["#GUID"]))}
	}
	if off, ok := streamAbsOffset["#Blob"]; ok {
		pe.CLR.Blobs = &BlobHeap{pe: pe, offset: off, size: uint32(len(streams["#Blob"]))}
	}
	if off, ok := streamAbsOffset["#US"]; ok {
		pe.CLR.UserStrings = &UserStringHeap{pe: pe, offset: off, size: uint32(len(streams["#US"]))}
	}

	return nil
}

// parseMetadataHeader parses the fixed storage signature and storage
// header of the metadata root (ECMA-335 §II.24.2.1) and returns the
// absolute file offset immediately following it, where the stream headers
// begin.
func (pe *File) parseMetadataHeader(offset uint32) (MetadataHeader, uint32, error) {
	hdr := MetadataHeader{}

	sig, err := pe.ReadUint32(offset)
	if err != nil {
		return hdr, 0, err
	}
	if sig != 0x424A5342 {
		return hdr, 0, wrapOffset(KindStructural, ErrBadMetadataSignature, offset)
	}
	hdr.Signature = sig

	if hdr.MajorVersion, err = pe.ReadUint16(offset + 4); err != nil {
		return hdr, 0, err
	}
	if hdr.MinorVersion, err = pe.ReadUint16(offset + 6); err != nil {
		return hdr, 0, err
	}
	if hdr.ExtraData, err = pe.ReadUint32(offset + 8); err != nil {
		return hdr, 0, err
	}
	if hdr.VersionString, err = pe.ReadUint32(offset + 12); err != nil {
		return hdr, 0, err
	}

	verStr, err := pe.getStringAtOffset(offset+16, hdr.VersionString)
	if err != nil {
		return hdr, 0, err
	}
	hdr.Version = verStr

	pos := offset + 16 + hdr.VersionString
	if hdr.Flags, err = pe.ReadUint8(pos); err != nil {
		return hdr, 0, err
	}
	if hdr.Streams, err = pe.ReadUint16(pos + 2); err != nil {
		return hdr, 0, err
	}

	return hdr, pos + 4, nil
}

// parseMetadataStreamHeaders parses count consecutive stream headers
// (ECMA-335 §II.24.2.2) starting at the absolute offset next.
func (pe *File) parseMetadataStreamHeaders(next uint32, count uint16) ([]MetadataStreamHeader, error) {
	headers := make([]MetadataStreamHeader, 0, count)

	off := next
	for i := uint16(0); i < count; i++ {
		shOffset, err := pe.ReadUint32(off)
		if err != nil {
			return nil, err
		}
		shSize, err := pe.ReadUint32(off + 4)
		if err != nil {
			return nil, err
		}

		namePos := off + 8
		var name []byte
		j := uint32(0)
		for {
			c, err := pe.ReadUint8(namePos + j)
			if err != nil {
				return nil, err
			}
			if c != 0 {
				name = append(name, c)
			}
			j++
			if c == 0 && j%4 == 0 {
				break
			}
			if j > 32 {
				return nil, wrapOffset(KindStructural, ErrStreamNameTooLong, namePos)
			}
		}

		headers = append(headers, MetadataStreamHeader{
			Offset: shOffset,
			Size:   shSize,
			Name:   string(name),
		})
		off = namePos + j
	}

	return headers, nil
}
