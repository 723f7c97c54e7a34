// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// References
// ECMA-335, 6th edition, partition II, §24.2.6 (the #~ stream)
//
// The table stream is decoded in two passes, unlike the teacher's own
// eager, single-table (Module only) decoder:
//
//  1. Row-count pass: one uint32 per table kind whose bit is set in
//     MaskValid, in ascending kind order. This alone determines every
//     table's RowCount.
//  2. Layout pass: now that every table's RowCount is known, each coded
//     index's width (2 or 4 bytes, §II.24.2.6) can be computed, which in
//     turn gives every table's fixed RowSize, which in turn gives every
//     table's starting file Offset (laid out contiguously, ascending kind
//     order). A row is then a random-access decode at
//     Offset + (rid-1)*RowSize -- no table is ever decoded eagerly in full.

// maxTableKind is the highest defined table kind (GenericParamConstraint).
// The teacher's own row-count loop stopped at `i < GenericParamConstraint`,
// silently skipping this table kind whenever its valid bit was set; this
// package iterates inclusive of it.
const maxTableKind = GenericParamConstraint

// column describes one fixed-layout column of a metadata table row. A
// literal column (width > 0) is read as a 1/2/4-byte little-endian integer.
// A coded column (width == 0) is a codedidx whose actual byte width depends
// on the row counts of its candidate tables, or on the HeapSizes flags for
// a plain heap index.
type column struct {
	name  string
	width uint32
	coded codedidx
}

func lit(name string, width uint32) column   { return column{name: name, width: width} }
func idx(name string, c codedidx) column      { return column{name: name, coded: c} }

// schemas gives the column layout of every metadata table kind, ECMA-335
// §II.22. The column names match the json tags of the corresponding row
// struct in tables.go.
var schemas = map[int][]column{
	Module: {
		lit("generation", 2), idx("name", idxString), idx("mvid", idxGUID),
		idx("enc_id", idxGUID), idx("enc_base_id", idxGUID),
	},
	TypeRef: {
		idx("resolution_scope", idxResolutionScope),
		idx("type_name", idxString), idx("type_namespace", idxString),
	},
	TypeDef: {
		lit("flags", 4), idx("type_name", idxString), idx("type_namespace", idxString),
		idx("extends", idxTypeDefOrRef), idx("field_list", idxField), idx("method_list", idxMethodDef),
	},
	FieldPtr: {idx("field", idxField)},
	Field: {
		lit("flags", 2), idx("name", idxString), idx("signature", idxBlob),
	},
	MethodPtr: {idx("method", idxMethodDef)},
	MethodDef: {
		lit("rva", 4), lit("impl_flags", 2), lit("flags", 2),
		idx("name", idxString), idx("signature", idxBlob), idx("param_list", idxParam),
	},
	ParamPtr: {idx("param", idxParam)},
	Param: {
		lit("flags", 2), lit("sequence", 2), idx("name", idxString),
	},
	InterfaceImpl: {
		idx("class", idxTypeDef), idx("interface", idxTypeDefOrRef),
	},
	MemberRef: {
		idx("class", idxMemberRefParent), idx("name", idxString), idx("signature", idxBlob),
	},
	Constant: {
		lit("type", 1), lit("padding", 1), idx("parent", idxHasConstant), idx("value", idxBlob),
	},
	CustomAttribute: {
		idx("parent", idxHasCustomAttribute), idx("type", idxCustomAttributeType), idx("value", idxBlob),
	},
	FieldMarshal: {
		idx("parent", idxHasFieldMarshal), idx("native_type", idxBlob),
	},
	DeclSecurity: {
		lit("action", 2), idx("parent", idxHasDeclSecurity), idx("permission_set", idxBlob),
	},
	ClassLayout: {
		lit("packing_size", 2), lit("class_size", 4), idx("parent", idxTypeDef),
	},
	FieldLayout: {
		lit("offset", 4), idx("field", idxField),
	},
	StandAloneSig: {idx("signature", idxBlob)},
	EventMap: {
		idx("parent", idxTypeDef), idx("event_list", idxEvent),
	},
	EventPtr: {idx("event", idxEvent)},
	Event: {
		lit("event_flags", 2), idx("name", idxString), idx("event_type", idxTypeDefOrRef),
	},
	PropertyMap: {
		idx("parent", idxTypeDef), idx("property_list", idxProperty),
	},
	PropertyPtr: {idx("property", idxProperty)},
	Property: {
		lit("flags", 2), idx("name", idxString), idx("type", idxBlob),
	},
	MethodSemantics: {
		lit("semantics", 2), idx("method", idxMethodDef), idx("association", idxHasSemantics),
	},
	MethodImpl: {
		idx("class", idxTypeDef), idx("method_body", idxMethodDefOrRef), idx("method_declaration", idxMethodDefOrRef),
	},
	ModuleRef: {idx("name", idxString)},
	TypeSpec:  {idx("signature", idxBlob)},
	ImplMap: {
		lit("mapping_flags", 2), idx("member_forwarded", idxMemberForwarded),
		idx("import_name", idxString), idx("import_scope", idxModuleRef),
	},
	FieldRVA: {
		lit("rva", 4), idx("field", idxField),
	},
	ENCLog: {lit("token", 4), lit("func_code", 4)},
	ENCMap: {lit("token", 4)},
	Assembly: {
		lit("hash_alg_id", 4), lit("major_version", 2), lit("minor_version", 2),
		lit("build_number", 2), lit("revision_number", 2), lit("flags", 4),
		idx("public_key", idxBlob), idx("name", idxString), idx("culture", idxString),
	},
	AssemblyProcessor: {lit("processor", 4)},
	AssemblyOS: {
		lit("os_platform_id", 4), lit("os_major_version", 4), lit("os_minor_version", 4),
	},
	AssemblyRef: {
		lit("major_version", 2), lit("minor_version", 2), lit("build_number", 2), lit("revision_number", 2),
		lit("flags", 4), idx("public_key_or_token", idxBlob), idx("name", idxString),
		idx("culture", idxString), idx("hash_value", idxBlob),
	},
	AssemblyRefProcessor: {
		lit("processor", 4), idx("assembly_ref", idxAssemblyRef),
	},
	AssemblyRefOS: {
		lit("os_platform_id", 4), lit("os_major_version", 4), lit("os_minor_version", 4),
		idx("assembly_ref", idxAssemblyRef),
	},
	FileMD: {
		lit("flags", 4), idx("name", idxString), idx("hash_value", idxBlob),
	},
	ExportedType: {
		lit("flags", 4), lit("type_def_id", 4), idx("type_name", idxString),
		idx("type_namespace", idxString), idx("implementation", idxImplementation),
	},
	ManifestResource: {
		lit("offset", 4), lit("flags", 4), idx("name", idxString), idx("implementation", idxImplementation),
	},
	NestedClass: {
		idx("nested_class", idxTypeDef), idx("enclosing_class", idxTypeDef),
	},
	GenericParam: {
		lit("number", 2), lit("flags", 2), idx("owner", idxTypeOrMethodDef), idx("name", idxString),
	},
	MethodSpec: {
		idx("method", idxMethodDefOrRef), idx("instantiation", idxBlob),
	},
	GenericParamConstraint: {
		idx("owner", idxGenericParam), idx("constraint", idxTypeDefOrRef),
	},
}

// columnWidth returns the width, in bytes, that column c occupies for this
// particular file (coded/heap columns vary per-assembly).
func columnWidth(pe *File, c column) uint32 {
	if c.width != 0 {
		return c.width
	}
	return pe.codedIndexSize(c.coded)
}

// rowSize returns the fixed byte width of one row of table kind, given the
// current row counts recorded on pe.CLR.Tables.
func rowSize(pe *File, kind int) (uint32, error) {
	cols, ok := schemas[kind]
	if !ok {
		return 0, wrapErr(KindSchema, ErrUnknownTableKind)
	}

	var size uint32
	for _, c := range cols {
		size += columnWidth(pe, c)
	}
	return size, nil
}

// Table describes one metadata table's row count and its row layout within
// the file, enabling O(1) random-access row decoding.
type Table struct {
	Kind     int    `json:"kind"`
	RowCount uint32 `json:"row_count"`
	RowSize  uint32 `json:"row_size"`
	Offset   uint32 `json:"-"`
}

// Row is a single decoded metadata table row. Values holds every column by
// name, as a raw little-endian integer: a literal field value, a heap byte
// offset, or a table row index/coded index tag+rid already folded into a
// single machine word by decodeCodedIndex's caller (tablestream.go itself
// stores the encoded form; callers needing the split representation should
// use decodeCodedIndex on the coded column's codedidx).
type Row struct {
	Kind   int
	Values map[string]uint64
}

// Uint32 returns the named column truncated to 32 bits, 0 if absent.
func (r Row) Uint32(name string) uint32 { return uint32(r.Values[name]) }

// Uint64 returns the named column, 0 if absent.
func (r Row) Uint64(name string) uint64 { return r.Values[name] }

func rowErr(err error, kind int, rid uint32) *Error {
	return &Error{Kind: KindSchema, Err: err, Offset: -1, Table: kind, Row: rid}
}

// Row decodes row number rid (1-based) of the table.
func (t *Table) Row(pe *File, rid uint32) (Row, error) {
	if rid == 0 || rid > t.RowCount {
		return Row{}, wrapRow(ErrRowIndexOutOfRange, t.Kind, rid)
	}

	cols := schemas[t.Kind]
	cur := t.Offset + (rid-1)*t.RowSize
	values := make(map[string]uint64, len(cols))

	for _, c := range cols {
		w := columnWidth(pe, c)
		var v uint64
		switch w {
		case 1:
			b, err := pe.ReadUint8(cur)
			if err != nil {
				return Row{}, rowErr(err, t.Kind, rid)
			}
			v = uint64(b)
		case 2:
			x, err := pe.ReadUint16(cur)
			if err != nil {
				return Row{}, rowErr(err, t.Kind, rid)
			}
			v = uint64(x)
		default:
			x, err := pe.ReadUint32(cur)
			if err != nil {
				return Row{}, rowErr(err, t.Kind, rid)
			}
			v = uint64(x)
		}
		values[c.name] = v
		cur += w
	}

	return Row{Kind: t.Kind, Values: values}, nil
}

// Coded looks up a coded-index column by name on a decoded row and splits
// it into the table kind it addresses and the 1-based row index (or heap
// byte offset) within it.
func (r Row) Coded(name string, c codedidx) (kind int, rid uint32, err error) {
	return decodeCodedIndex(c, r.Values[name])
}

// buildTables performs the two-pass decode of the #~/#- table stream
// starting at absolute file offset absOffset and spanning streamSize
// bytes, populating pe.CLR.TableStreamHeader and pe.CLR.Tables.
func buildTables(pe *File, absOffset, streamSize uint32) error {
	hdr := MetadataTableStreamHeader{}
	if err := pe.structUnpack(&hdr, absOffset, 24); err != nil {
		return wrapOffset(KindStructural, err, absOffset)
	}

	for kind := 0; kind < 64; kind++ {
		if kind > maxTableKind && IsBitSet(hdr.MaskValid, kind) {
			return wrapErr(KindSchema, ErrUnknownTableKind)
		}
	}

	pe.CLR.TableStreamHeader = hdr

	cursor := absOffset + 24
	tables := make(map[int]*Table)
	for kind := 0; kind <= maxTableKind; kind++ {
		if !IsBitSet(hdr.MaskValid, kind) {
			continue
		}
		rc, err := pe.ReadUint32(cursor)
		if err != nil {
			return wrapOffset(KindStructural, err, cursor)
		}
		cursor += 4
		tables[kind] = &Table{Kind: kind, RowCount: rc}
	}

	// Row counts are now known for every present table: assign early so
	// codedIndexSize (called from rowSize below) can see them while sizing
	// coded-index columns that reference tables later in kind order.
	pe.CLR.Tables = tables

	for kind, t := range tables {
		size, err := rowSize(pe, kind)
		if err != nil {
			return err
		}
		t.RowSize = size
	}

	running := cursor
	for kind := 0; kind <= maxTableKind; kind++ {
		t, ok := tables[kind]
		if !ok {
			continue
		}
		t.Offset = running
		running += t.RowSize * t.RowCount
	}

	streamEnd := absOffset + streamSize
	if running > streamEnd {
		return wrapErr(KindSchema, ErrTableOverrun)
	}
	// ECMA-335 leaves trailing bytes after the last table's rows
	// unspecified; some producers pad with up to 3 zero bytes. Anything
	// beyond that tolerance, or a non-zero padding byte, means the row
	// counts/widths above don't match what's actually in the stream.
	if streamEnd-running > 3 {
		return wrapErr(KindSchema, ErrInconsistentRowCount)
	}
	for off := running; off < streamEnd; off++ {
		b, err := pe.ReadUint8(off)
		if err != nil {
			return wrapOffset(KindStructural, err, off)
		}
		if b != 0 {
			return wrapErr(KindSchema, ErrInconsistentRowCount)
		}
	}

	return nil
}
