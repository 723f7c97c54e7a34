// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// References
// ECMA-335, 6th edition, partition II, §22 (metadata logical format: tables)
// https://www.ecma-international.org/wp-content/uploads/ECMA-335_6th_edition_june_2012.pdf

// COMImageFlagsType represents a COM+ header entry point flag type.
type COMImageFlagsType uint32

// COM+ Header entry point flags.
const (
	// The image file contains IL code only, with no embedded native unmanaged
	// code except the start-up stub (which simply executes an indirect jump to
	// the CLR entry point).
	COMImageFlagsILOnly = 0x00000001

	// The image file can be loaded only into a 32-bit process.
	COMImageFlags32BitRequired = 0x00000002

	// This flag is obsolete and should not be set. Setting it will render the
	// module un-loadable.
	COMImageFlagILLibrary = 0x00000004

	// The image file is protected with a strong name signature.
	COMImageFlagsStrongNameSigned = 0x00000008

	// The executable's entry point is an unmanaged method. The
	// EntryPointToken/EntryPointRVA field of the CLR header contains the RVA
	// of this native method. Introduced in CLR v2.0.
	COMImageFlagsNativeEntrypoint = 0x00000010

	// The CLR loader and the JIT compiler are required to track debug
	// information about the methods. Not used.
	COMImageFlagsTrackDebugData = 0x00010000

	// The image file can be loaded into any process, but preferably into a
	// 32-bit process. Only meaningful together with
	// COMImageFlags32BitRequired; means the image is platform-neutral but
	// prefers loading as 32-bit when possible. Introduced in CLR v4.0.
	COMImageFlags32BitPreferred = 0x00020000
)

// V-table constants.
const (
	// V-table slots are 32-bits in size.
	CORVTable32Bit = 0x01

	// V-table slots are 64-bits in size.
	CORVTable64Bit = 0x02

	// The thunk created by the runtime must provide data marshaling between
	// managed and unmanaged code.
	CORVTableFromUnmanaged = 0x04

	// Same as above, but the current appdomain should be selected to
	// dispatch the call.
	CORVTableFromUnmanagedRetainAppDomain = 0x08

	// Call the most derived method described by the slot.
	CORVTableCallMostDerived = 0x10
)

// Metadata table kinds. Names follow ECMA-335 §II.22 exactly (MethodDef, not
// the teacher's historical "Method"), since the coded-index tables in
// indexsize.go reference tables named MethodDef/TypeDef/etc. The "Ptr"
// indirection tables and the ENCLog/ENCMap/AssemblyProcessor/AssemblyOS/
// AssemblyRefProcessor/AssemblyRefOS/FileMD kinds only ever appear in an
// edit-and-continue or non-optimized (#-) metadata stream; this package
// decodes them the same way as any other table when their valid bit is set.
const (
	Module                 = 0x00
	TypeRef                = 0x01
	TypeDef                = 0x02
	FieldPtr               = 0x03
	Field                  = 0x04
	MethodPtr              = 0x05
	MethodDef              = 0x06
	ParamPtr               = 0x07
	Param                  = 0x08
	InterfaceImpl          = 0x09
	MemberRef              = 0x0a
	Constant               = 0x0b
	CustomAttribute        = 0x0c
	FieldMarshal           = 0x0d
	DeclSecurity           = 0x0e
	ClassLayout            = 0x0f
	FieldLayout            = 0x10
	StandAloneSig          = 0x11
	EventMap               = 0x12
	EventPtr               = 0x13
	Event                  = 0x14
	PropertyMap            = 0x15
	PropertyPtr            = 0x16
	Property               = 0x17
	MethodSemantics        = 0x18
	MethodImpl             = 0x19
	ModuleRef              = 0x1a
	TypeSpec               = 0x1b
	ImplMap                = 0x1c
	FieldRVA               = 0x1d
	ENCLog                 = 0x1e
	ENCMap                 = 0x1f
	Assembly               = 0x20
	AssemblyProcessor      = 0x21
	AssemblyOS             = 0x22
	AssemblyRef            = 0x23
	AssemblyRefProcessor   = 0x24
	AssemblyRefOS          = 0x25
	FileMD                 = 0x26
	ExportedType           = 0x27
	ManifestResource       = 0x28
	NestedClass            = 0x29
	GenericParam           = 0x2a
	MethodSpec             = 0x2b
	GenericParamConstraint = 0x2c
)

// MetadataTableIndexToString returns the string representation of the
// metadata table kind.
func MetadataTableIndexToString(k int) string {
	names := map[int]string{
		Module:                 "Module",
		TypeRef:                "TypeRef",
		TypeDef:                "TypeDef",
		FieldPtr:               "FieldPtr",
		Field:                  "Field",
		MethodPtr:              "MethodPtr",
		MethodDef:              "MethodDef",
		ParamPtr:               "ParamPtr",
		Param:                  "Param",
		InterfaceImpl:          "InterfaceImpl",
		MemberRef:              "MemberRef",
		Constant:               "Constant",
		CustomAttribute:        "CustomAttribute",
		FieldMarshal:           "FieldMarshal",
		DeclSecurity:           "DeclSecurity",
		ClassLayout:            "ClassLayout",
		FieldLayout:            "FieldLayout",
		StandAloneSig:          "StandAloneSig",
		EventMap:               "EventMap",
		EventPtr:               "EventPtr",
		Event:                  "Event",
		PropertyMap:            "PropertyMap",
		PropertyPtr:            "PropertyPtr",
		Property:               "Property",
		MethodSemantics:        "MethodSemantics",
		MethodImpl:             "MethodImpl",
		ModuleRef:              "ModuleRef",
		TypeSpec:               "TypeSpec",
		ImplMap:                "ImplMap",
		FieldRVA:               "FieldRVA",
		ENCLog:                 "ENCLog",
		ENCMap:                 "ENCMap",
		Assembly:               "Assembly",
		AssemblyProcessor:      "AssemblyProcessor",
		AssemblyOS:             "AssemblyOS",
		AssemblyRef:            "AssemblyRef",
		AssemblyRefProcessor:   "AssemblyRefProcessor",
		AssemblyRefOS:          "AssemblyRefOS",
		FileMD:                 "File",
		ExportedType:           "ExportedType",
		ManifestResource:       "ManifestResource",
		NestedClass:            "NestedClass",
		GenericParam:           "GenericParam",
		MethodSpec:             "MethodSpec",
		GenericParamConstraint: "GenericParamConstraint",
	}
	return names[k]
}

// Heaps Streams Bit Positions, for the HeapSizes byte in the #~/#- header.
const (
	StringStream = 0
	GUIDStream   = 1
	BlobStream   = 2
)

// ImageDataDirectory represents the RVA/size pair format shared by every PE
// data directory entry, reused here for the CLR header's own directory-like
// fields (MetaData, Resources, StrongNameSignature, ...).
type ImageDataDirectory struct {
	// The relative virtual address of the table.
	VirtualAddress uint32 `json:"virtual_address"`

	// The size of the table, in bytes.
	Size uint32 `json:"size"`
}

// ImageCOR20Header represents the CLR 2.0 header structure (IMAGE_COR20_HEADER).
type ImageCOR20Header struct {
	// Size of the header in bytes.
	Cb uint32 `json:"cb"`

	// Major number of the minimum version of the runtime required to run the
	// program.
	MajorRuntimeVersion uint16 `json:"major_runtime_version"`

	// Minor number of the version of the runtime required to run the program.
	MinorRuntimeVersion uint16 `json:"minor_runtime_version"`

	// RVA and size of the metadata.
	MetaData ImageDataDirectory `json:"meta_data"`

	// Bitwise flags indicating attributes of this executable.
	Flags COMImageFlagsType `json:"flags"`

	// Metadata token of the entry point for the image file; can be 0 for DLL
	// images. If COMImageFlagsNativeEntrypoint is set, this is instead an
	// RVA to a native entry point.
	EntryPointRVAorToken uint32 `json:"entry_point_rva_or_token"`

	// RVA and size of the embedded managed resources blob.
	Resources ImageDataDirectory `json:"resources"`

	// RVA and size of the hash data used by the loader for strong-name
	// binding and versioning.
	StrongNameSignature ImageDataDirectory `json:"strong_name_signature"`

	// Reserved; must be 0 in current runtime releases.
	CodeManagerTable ImageDataDirectory `json:"code_manager_table"`

	// RVA and size in bytes of an array of v-table fixups.
	VTableFixups ImageDataDirectory `json:"vtable_fixups"`

	// Obsolete since CLR v2.0; must be 0.
	ExportAddressTableJumps ImageDataDirectory `json:"export_address_table_jumps"`

	// Reserved for precompiled (NGEN) images; points at a
	// CORCOMPILE_HEADER structure when present.
	ManagedNativeHeader ImageDataDirectory `json:"managed_native_header"`
}

// ImageCORVTableFixup describes one contiguous array of v-table slots that
// the CLR loader rewrites from metadata tokens into machine code pointers
// at load time.
type ImageCORVTableFixup struct {
	RVA   uint32 `json:"rva"`   // Offset of v-table array in image.
	Count uint16 `json:"count"` // How many entries at location.
	Type  uint16 `json:"type"`  // COR_VTABLE_xxx type of entries.
}

// MetadataHeader consists of a storage signature and a storage header (the
// fixed part of the metadata root, ECMA-335 §II.24.2.1).
type MetadataHeader struct {
	// "Magic" signature, must be 0x424A5342 ("BSJB").
	Signature uint32 `json:"signature"`

	// Major version.
	MajorVersion uint16 `json:"major_version"`

	// Minor version.
	MinorVersion uint16 `json:"minor_version"`

	// Reserved; set to 0.
	ExtraData uint32 `json:"extra_data"`

	// Length of the version string, rounded up to a multiple of 4.
	VersionString uint32 `json:"version_string"`

	// Version string.
	Version string `json:"version"`

	// Reserved; set to 0.
	Flags uint8 `json:"flags"`

	// Number of streams.
	Streams uint16 `json:"streams"`
}

// MetadataStreamHeader represents a single stream header (ECMA-335 §II.24.2.2).
type MetadataStreamHeader struct {
	// Offset relative to the metadata root.
	Offset uint32 `json:"offset"`

	// Size of the stream in bytes.
	Size uint32 `json:"size"`

	// Name of the stream, e.g. "#Strings", "#US", "#GUID", "#Blob", "#~"/"#-".
	Name string `json:"name"`
}

// MetadataTableStreamHeader represents the fixed part of the #~/#- stream
// (ECMA-335 §II.24.2.6).
type MetadataTableStreamHeader struct {
	// Reserved; set to 0.
	Reserved uint32 `json:"reserved"`

	// Major version of the table schema (1 for v1.0/v1.1; 2 for v2.0+).
	MajorVersion uint8 `json:"major_version"`

	// Minor version of the table schema (0 for all versions).
	MinorVersion uint8 `json:"minor_version"`

	// HeapSizes: bit 0x01 => #Strings indices are 4 bytes, 0x02 => #GUID
	// indices are 4 bytes, 0x04 => #Blob indices are 4 bytes. A #- stream
	// can additionally set 0x20 (edit-and-continue delta only) or 0x80
	// (deleted items present); neither bit changes how this package reads
	// the stream.
	Heaps uint8 `json:"heaps"`

	// Reserved; must be 1.
	RID uint8 `json:"rid"`

	// Bit vector of present tables, one bit per table kind.
	MaskValid uint64 `json:"mask_valid"`

	// Bit vector of sorted tables. Not relied upon anywhere in this
	// package: nothing here assumes row ordering.
	Sorted uint64 `json:"sorted"`
}

// Row schemas, ECMA-335 §II.22.*. Each struct's field order and json tag
// matches the wire column order; the comment above each field documents the
// column's logical type.

// ModuleTableRow is table 0x00.
type ModuleTableRow struct {
	Generation uint16 `json:"generation"` // reserved, shall be zero
	Name       uint32 `json:"name"`       // an index into the String heap
	Mvid       uint32 `json:"mvid"`       // an index into the GUID heap
	EncID      uint32 `json:"enc_id"`     // an index into the GUID heap; reserved
	EncBaseID  uint32 `json:"enc_base_id"`
}

// TypeRefTableRow is table 0x01.
type TypeRefTableRow struct {
	ResolutionScope uint32 `json:"resolution_scope"` // ResolutionScope coded index
	TypeName        uint32 `json:"type_name"`        // an index into the String heap
	TypeNamespace   uint32 `json:"type_namespace"`   // an index into the String heap
}

// TypeDefTableRow is table 0x02.
type TypeDefTableRow struct {
	Flags         uint32 `json:"flags"`          // TypeAttributes bitmask, §II.23.1.15
	TypeName      uint32 `json:"type_name"`      // an index into the String heap
	TypeNamespace uint32 `json:"type_namespace"` // an index into the String heap
	Extends       uint32 `json:"extends"`        // TypeDefOrRef coded index
	FieldList     uint32 `json:"field_list"`     // an index into the Field table
	MethodList    uint32 `json:"method_list"`    // an index into the MethodDef table
}

// FieldPtrTableRow is table 0x03, an indirection table present only in
// edit-and-continue (#-) metadata.
type FieldPtrTableRow struct {
	Field uint32 `json:"field"` // an index into the Field table
}

// FieldTableRow is table 0x04.
type FieldTableRow struct {
	Flags     uint16 `json:"flags"`     // FieldAttributes bitmask, §II.23.1.5
	Name      uint32 `json:"name"`      // an index into the String heap
	Signature uint32 `json:"signature"` // an index into the Blob heap
}

// MethodPtrTableRow is table 0x05, an indirection table present only in
// edit-and-continue (#-) metadata.
type MethodPtrTableRow struct {
	Method uint32 `json:"method"` // an index into the MethodDef table
}

// MethodDefTableRow is table 0x06.
type MethodDefTableRow struct {
	RVA       uint32 `json:"rva"`        // entry point RVA, 0 if abstract/pinvoke
	ImplFlags uint16 `json:"impl_flags"` // MethodImplAttributes, §II.23.1.10
	Flags     uint16 `json:"flags"`      // MethodAttributes, §II.23.1.10
	Name      uint32 `json:"name"`       // an index into the String heap
	Signature uint32 `json:"signature"`  // an index into the Blob heap
	ParamList uint32 `json:"param_list"` // an index into the Param table
}

// ParamPtrTableRow is table 0x07, an indirection table present only in
// edit-and-continue (#-) metadata.
type ParamPtrTableRow struct {
	Param uint32 `json:"param"` // an index into the Param table
}

// ParamTableRow is table 0x08.
type ParamTableRow struct {
	Flags    uint16 `json:"flags"`    // ParamAttributes bitmask, §II.23.1.13
	Sequence uint16 `json:"sequence"` // 0 for the return value, 1..n otherwise
	Name     uint32 `json:"name"`     // an index into the String heap
}

// InterfaceImplTableRow is table 0x09.
type InterfaceImplTableRow struct {
	Class     uint32 `json:"class"`     // an index into the TypeDef table
	Interface uint32 `json:"interface"` // TypeDefOrRef coded index
}

// MemberRefTableRow is table 0x0a.
type MemberRefTableRow struct {
	Class     uint32 `json:"class"`     // MemberRefParent coded index
	Name      uint32 `json:"name"`      // an index into the String heap
	Signature uint32 `json:"signature"` // an index into the Blob heap
}

// ConstantTableRow is table 0x0b.
type ConstantTableRow struct {
	Type    uint8  `json:"type"`    // a 1-byte constant type code
	Padding uint8  `json:"padding"` // zero
	Parent  uint32 `json:"parent"`  // HasConstant coded index
	Value   uint32 `json:"value"`   // an index into the Blob heap
}

// CustomAttributeTableRow is table 0x0c.
type CustomAttributeTableRow struct {
	Parent uint32 `json:"parent"` // HasCustomAttribute coded index
	Type   uint32 `json:"type"`   // CustomAttributeType coded index
	Value  uint32 `json:"value"`  // an index into the Blob heap
}

// FieldMarshalTableRow is table 0x0d.
type FieldMarshalTableRow struct {
	Parent     uint32 `json:"parent"`      // HasFieldMarshal coded index
	NativeType uint32 `json:"native_type"` // an index into the Blob heap
}

// DeclSecurityTableRow is table 0x0e.
type DeclSecurityTableRow struct {
	Action        uint16 `json:"action"`         // a 2-byte security action code
	Parent        uint32 `json:"parent"`         // HasDeclSecurity coded index
	PermissionSet uint32 `json:"permission_set"` // an index into the Blob heap
}

// ClassLayoutTableRow is table 0x0f.
type ClassLayoutTableRow struct {
	PackingSize uint16 `json:"packing_size"`
	ClassSize   uint32 `json:"class_size"`
	Parent      uint32 `json:"parent"` // an index into the TypeDef table
}

// FieldLayoutTableRow is table 0x10.
type FieldLayoutTableRow struct {
	Offset uint32 `json:"offset"`
	Field  uint32 `json:"field"` // an index into the Field table
}

// StandAloneSigTableRow is table 0x11.
type StandAloneSigTableRow struct {
	Signature uint32 `json:"signature"` // an index into the Blob heap
}

// EventMapTableRow is table 0x12.
type EventMapTableRow struct {
	Parent    uint32 `json:"parent"`     // an index into the TypeDef table
	EventList uint32 `json:"event_list"` // an index into the Event table
}

// EventPtrTableRow is table 0x13, an indirection table present only in
// edit-and-continue (#-) metadata.
type EventPtrTableRow struct {
	Event uint32 `json:"event"` // an index into the Event table
}

// EventTableRow is table 0x14.
type EventTableRow struct {
	EventFlags uint16 `json:"event_flags"` // EventAttributes, §II.23.1.4
	Name       uint32 `json:"name"`        // an index into the String heap
	EventType  uint32 `json:"event_type"`  // TypeDefOrRef coded index
}

// PropertyMapTableRow is table 0x15.
type PropertyMapTableRow struct {
	Parent       uint32 `json:"parent"`        // an index into the TypeDef table
	PropertyList uint32 `json:"property_list"` // an index into the Property table
}

// PropertyPtrTableRow is table 0x16, an indirection table present only in
// edit-and-continue (#-) metadata.
type PropertyPtrTableRow struct {
	Property uint32 `json:"property"` // an index into the Property table
}

// PropertyTableRow is table 0x17.
type PropertyTableRow struct {
	Flags uint16 `json:"flags"` // PropertyAttributes, §II.23.1.14
	Name  uint32 `json:"name"`  // an index into the String heap
	Type  uint32 `json:"type"`  // an index into the Blob heap (a PropertySig)
}

// MethodSemanticsTableRow is table 0x18.
type MethodSemanticsTableRow struct {
	Semantics   uint16 `json:"semantics"`   // MethodSemanticsAttributes, §II.23.1.12
	Method      uint32 `json:"method"`      // an index into the MethodDef table
	Association uint32 `json:"association"` // HasSemantics coded index
}

// MethodImplTableRow is table 0x19.
type MethodImplTableRow struct {
	Class             uint32 `json:"class"`              // an index into the TypeDef table
	MethodBody        uint32 `json:"method_body"`        // MethodDefOrRef coded index
	MethodDeclaration uint32 `json:"method_declaration"` // MethodDefOrRef coded index
}

// ModuleRefTableRow is table 0x1a.
type ModuleRefTableRow struct {
	Name uint32 `json:"name"` // an index into the String heap
}

// TypeSpecTableRow is table 0x1b.
type TypeSpecTableRow struct {
	Signature uint32 `json:"signature"` // an index into the Blob heap
}

// ImplMapTableRow is table 0x1c.
type ImplMapTableRow struct {
	MappingFlags    uint16 `json:"mapping_flags"`    // PInvokeAttributes, §II.23.1.8
	MemberForwarded uint32 `json:"member_forwarded"` // MemberForwarded coded index
	ImportName      uint32 `json:"import_name"`      // an index into the String heap
	ImportScope     uint32 `json:"import_scope"`     // an index into the ModuleRef table
}

// FieldRVATableRow is table 0x1d.
type FieldRVATableRow struct {
	RVA   uint32 `json:"rva"`
	Field uint32 `json:"field"` // an index into the Field table
}

// ENCLogTableRow is table 0x1e, present only during an edit-and-continue
// session; absent from optimized (#~) metadata.
type ENCLogTableRow struct {
	Token     uint32 `json:"token"`
	FuncCode  uint32 `json:"func_code"`
}

// ENCMapTableRow is table 0x1f, same edit-and-continue-only caveat as ENCLog.
type ENCMapTableRow struct {
	Token uint32 `json:"token"`
}

// AssemblyTableRow is table 0x20.
type AssemblyTableRow struct {
	HashAlgId      uint32 `json:"hash_alg_id"`     // AssemblyHashAlgorithm, §II.23.1.1
	MajorVersion   uint16 `json:"major_version"`
	MinorVersion   uint16 `json:"minor_version"`
	BuildNumber    uint16 `json:"build_number"`
	RevisionNumber uint16 `json:"revision_number"`
	Flags          uint32 `json:"flags"` // AssemblyFlags bitmask, §II.23.1.2
	PublicKey      uint32 `json:"public_key"` // an index into the Blob heap
	Name           uint32 `json:"name"`       // an index into the String heap
	Culture        uint32 `json:"culture"`    // an index into the String heap
}

// AssemblyProcessorTableRow is table 0x21. Unused by any current runtime,
// but still a valid, decodable table kind.
type AssemblyProcessorTableRow struct {
	Processor uint32 `json:"processor"`
}

// AssemblyOSTableRow is table 0x22. Unused by any current runtime.
type AssemblyOSTableRow struct {
	OSPlatformID   uint32 `json:"os_platform_id"`
	OSMajorVersion uint32 `json:"os_major_version"`
	OSMinorVersion uint32 `json:"os_minor_version"`
}

// AssemblyRefTableRow is table 0x23.
type AssemblyRefTableRow struct {
	MajorVersion     uint16 `json:"major_version"`
	MinorVersion     uint16 `json:"minor_version"`
	BuildNumber      uint16 `json:"build_number"`
	RevisionNumber   uint16 `json:"revision_number"`
	Flags            uint32 `json:"flags"`
	PublicKeyOrToken uint32 `json:"public_key_or_token"` // an index into the Blob heap
	Name             uint32 `json:"name"`                // an index into the String heap
	Culture          uint32 `json:"culture"`              // an index into the String heap
	HashValue        uint32 `json:"hash_value"`           // an index into the Blob heap
}

// AssemblyRefProcessorTableRow is table 0x24. Unused by any current runtime.
type AssemblyRefProcessorTableRow struct {
	Processor   uint32 `json:"processor"`
	AssemblyRef uint32 `json:"assembly_ref"` // an index into the AssemblyRef table
}

// AssemblyRefOSTableRow is table 0x25. Unused by any current runtime.
type AssemblyRefOSTableRow struct {
	OSPlatformID   uint32 `json:"os_platform_id"`
	OSMajorVersion uint32 `json:"os_major_version"`
	OSMinorVersion uint32 `json:"os_minor_version"`
	AssemblyRef    uint32 `json:"assembly_ref"` // an index into the AssemblyRef table
}

// FileTableRow is table 0x26.
type FileTableRow struct {
	Flags     uint32 `json:"flags"`      // FileAttributes bitmask, §II.23.1.6
	Name      uint32 `json:"name"`       // an index into the String heap
	HashValue uint32 `json:"hash_value"` // an index into the Blob heap
}

// ExportedTypeTableRow is table 0x27.
type ExportedTypeTableRow struct {
	Flags          uint32 `json:"flags"`          // TypeAttributes bitmask, §II.23.1.15
	TypeDefId      uint32 `json:"type_def_id"`    // a TypeDef row index in another module
	TypeName       uint32 `json:"type_name"`      // an index into the String heap
	TypeNamespace  uint32 `json:"type_namespace"` // an index into the String heap
	Implementation uint32 `json:"implementation"` // Implementation coded index
}

// ManifestResourceTableRow is table 0x28.
type ManifestResourceTableRow struct {
	Offset         uint32 `json:"offset"`
	Flags          uint32 `json:"flags"` // ManifestResourceAttributes, §II.23.1.9
	Name           uint32 `json:"name"`  // an index into the String heap
	Implementation uint32 `json:"implementation"` // Implementation coded index
}

// NestedClassTableRow is table 0x29.
type NestedClassTableRow struct {
	NestedClass    uint32 `json:"nested_class"`    // an index into the TypeDef table
	EnclosingClass uint32 `json:"enclosing_class"` // an index into the TypeDef table
}

// GenericParamTableRow is table 0x2a.
type GenericParamTableRow struct {
	Number uint16 `json:"number"` // left-to-right generic parameter index, 0-based
	Flags  uint16 `json:"flags"`  // GenericParamAttributes, §II.23.1.7
	Owner  uint32 `json:"owner"`  // TypeOrMethodDef coded index
	Name   uint32 `json:"name"`   // an index into the String heap
}

// MethodSpecTableRow is table 0x2b.
type MethodSpecTableRow struct {
	Method        uint32 `json:"method"`        // MethodDefOrRef coded index
	Instantiation uint32 `json:"instantiation"` // an index into the Blob heap
}

// GenericParamConstraintTableRow is table 0x2c.
type GenericParamConstraintTableRow struct {
	Owner      uint32 `json:"owner"`      // an index into the GenericParam table
	Constraint uint32 `json:"constraint"` // TypeDefOrRef coded index
}

// CLRData embeds the Common Language Runtime Header structure, the metadata
// root, and the decoded table stream.
type CLRData struct {
	CLRHeader             ImageCOR20Header          `json:"clr_header"`
	MetadataHeader        MetadataHeader            `json:"metadata_header"`
	MetadataStreamHeaders []MetadataStreamHeader    `json:"metadata_stream_headers"`
	MetadataStreams       map[string][]byte         `json:"-"`
	TableStreamHeader     MetadataTableStreamHeader `json:"table_stream_header"`
	Tables                map[int]*Table            `json:"tables"`
	StringStreamIndexSize int                       `json:"-"`
	GUIDStreamIndexSize   int                       `json:"-"`
	BlobStreamIndexSize   int                       `json:"-"`
	Strings               *StringHeap     `json:"-"`
	UserStrings           *UserStringHeap `json:"-"`
	GUIDs                 *GuidHeap       `json:"-"`
	Blobs                 *BlobHeap       `json:"-"`
}

// String returns a string interpretation of a COMImageFlags type.
func (flags COMImageFlagsType) String() []string {
	all := map[COMImageFlagsType]string{
		COMImageFlagsILOnly:           "IL Only",
		COMImageFlags32BitRequired:    "32-Bit Required",
		COMImageFlagILLibrary:         "IL Library",
		COMImageFlagsStrongNameSigned: "Strong Name Signed",
		COMImageFlagsNativeEntrypoint: "Native Entrypoint",
		COMImageFlagsTrackDebugData:   "Track Debug Data",
		COMImageFlags32BitPreferred:   "32-Bit Preferred",
	}

	var values []string
	for k, v := range all {
		if (k & flags) == k {
			values = append(values, v)
		}
	}
	return values
}

// GetMetadataStreamIndexSize returns the size, in bytes, of indexes into the
// heap identified by bitPosition (StringStream, GUIDStream or BlobStream).
func (pe *File) GetMetadataStreamIndexSize(bitPosition int) int {
	heaps := pe.CLR.TableStreamHeader.Heaps
	if IsBitSet(uint64(heaps), bitPosition) {
		return 4
	}
	return 2
}
