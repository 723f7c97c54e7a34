// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// assembly.go is the external-facing façade over the PE container, the CLI
// header and the metadata root: it composes what file.go/clr.go/
// tablestream.go decode into the typed views a caller actually wants,
// without asking them to know column names or coded-index tag layouts.

// ManagedAssembly is a fully parsed .NET managed assembly.
type ManagedAssembly struct {
	*File
}

// Load opens, memory-maps and fully parses a managed assembly from disk.
func Load(name string) (*ManagedAssembly, error) {
	f, err := New(name, nil)
	if err != nil {
		return nil, err
	}
	if err := f.Parse(); err != nil {
		f.Close()
		return nil, err
	}
	if !f.HasCLR {
		f.Close()
		return nil, wrapErr(KindStructural, ErrNotManagedAssembly)
	}
	return &ManagedAssembly{File: f}, nil
}

// LoadBytes parses a managed assembly already resident in memory.
func LoadBytes(data []byte) (*ManagedAssembly, error) {
	f, err := NewBytes(data, nil)
	if err != nil {
		return nil, err
	}
	if err := f.Parse(); err != nil {
		return nil, err
	}
	if !f.HasCLR {
		return nil, wrapErr(KindStructural, ErrNotManagedAssembly)
	}
	return &ManagedAssembly{File: f}, nil
}

// Rows decodes and returns every row of the given table kind, in ascending
// row-index order. It returns an empty slice, not an error, for a table
// kind that is simply absent from this assembly's table stream.
func (pe *File) Rows(kind int) ([]Row, error) {
	t, ok := pe.CLR.Tables[kind]
	if !ok {
		return nil, nil
	}

	rows := make([]Row, 0, t.RowCount)
	for rid := uint32(1); rid <= t.RowCount; rid++ {
		row, err := t.Row(pe, rid)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RowCount returns how many rows table kind has, 0 if the table is absent.
func (pe *File) RowCount(kind int) uint32 {
	t, ok := pe.CLR.Tables[kind]
	if !ok {
		return 0
	}
	return t.RowCount
}

// String resolves a #Strings heap index to text.
func (pe *File) String(index uint32) (string, error) {
	return pe.CLR.Strings.Get(index)
}

// Blob resolves a #Blob heap index to its raw bytes.
func (pe *File) Blob(index uint32) ([]byte, error) {
	return pe.CLR.Blobs.Get(index)
}

// GUID resolves a #GUID heap 1-based index to its canonical string form.
func (pe *File) GUID(index uint32) (string, error) {
	return pe.CLR.GUIDs.Get(index)
}

// UserString resolves a #US heap index to its decoded text.
func (pe *File) UserString(index uint32) (string, error) {
	return pe.CLR.UserStrings.Get(index)
}

// Module returns this assembly's single Module table row (ECMA-335 requires
// exactly one).
func (pe *File) Module() (ModuleTableRow, error) {
	t, ok := pe.CLR.Tables[Module]
	if !ok || t.RowCount == 0 {
		return ModuleTableRow{}, wrapErr(KindIndexing, ErrRowIndexOutOfRange)
	}
	row, err := t.Row(pe, 1)
	if err != nil {
		return ModuleTableRow{}, err
	}
	return ModuleTableRow{
		Generation: uint16(row.Uint32("generation")),
		Name:       row.Uint32("name"),
		Mvid:       row.Uint32("mvid"),
		EncID:      row.Uint32("enc_id"),
		EncBaseID:  row.Uint32("enc_base_id"),
	}, nil
}

// TypeRefs returns every TypeRef table row.
func (pe *File) TypeRefs() ([]TypeRefTableRow, error) {
	rows, err := pe.Rows(TypeRef)
	if err != nil {
		return nil, err
	}
	out := make([]TypeRefTableRow, len(rows))
	for i, r := range rows {
		out[i] = TypeRefTableRow{
			ResolutionScope: r.Uint32("resolution_scope"),
			TypeName:        r.Uint32("type_name"),
			TypeNamespace:   r.Uint32("type_namespace"),
		}
	}
	return out, nil
}

// TypeDefs returns every TypeDef table row.
func (pe *File) TypeDefs() ([]TypeDefTableRow, error) {
	rows, err := pe.Rows(TypeDef)
	if err != nil {
		return nil, err
	}
	out := make([]TypeDefTableRow, len(rows))
	for i, r := range rows {
		out[i] = TypeDefTableRow{
			Flags:         r.Uint32("flags"),
			TypeName:      r.Uint32("type_name"),
			TypeNamespace: r.Uint32("type_namespace"),
			Extends:       r.Uint32("extends"),
			FieldList:     r.Uint32("field_list"),
			MethodList:    r.Uint32("method_list"),
		}
	}
	return out, nil
}

// Fields returns every Field table row.
func (pe *File) Fields() ([]FieldTableRow, error) {
	rows, err := pe.Rows(Field)
	if err != nil {
		return nil, err
	}
	out := make([]FieldTableRow, len(rows))
	for i, r := range rows {
		out[i] = FieldTableRow{
			Flags:     uint16(r.Uint32("flags")),
			Name:      r.Uint32("name"),
			Signature: r.Uint32("signature"),
		}
	}
	return out, nil
}

// MethodDefs returns every MethodDef table row.
func (pe *File) MethodDefs() ([]MethodDefTableRow, error) {
	rows, err := pe.Rows(MethodDef)
	if err != nil {
		return nil, err
	}
	out := make([]MethodDefTableRow, len(rows))
	for i, r := range rows {
		out[i] = MethodDefTableRow{
			RVA:       r.Uint32("rva"),
			ImplFlags: uint16(r.Uint32("impl_flags")),
			Flags:     uint16(r.Uint32("flags")),
			Name:      r.Uint32("name"),
			Signature: r.Uint32("signature"),
			ParamList: r.Uint32("param_list"),
		}
	}
	return out, nil
}

// Params returns every Param table row.
func (pe *File) Params() ([]ParamTableRow, error) {
	rows, err := pe.Rows(Param)
	if err != nil {
		return nil, err
	}
	out := make([]ParamTableRow, len(rows))
	for i, r := range rows {
		out[i] = ParamTableRow{
			Flags:    uint16(r.Uint32("flags")),
			Sequence: uint16(r.Uint32("sequence")),
			Name:     r.Uint32("name"),
		}
	}
	return out, nil
}

// MemberRefs returns every MemberRef table row.
func (pe *File) MemberRefs() ([]MemberRefTableRow, error) {
	rows, err := pe.Rows(MemberRef)
	if err != nil {
		return nil, err
	}
	out := make([]MemberRefTableRow, len(rows))
	for i, r := range rows {
		out[i] = MemberRefTableRow{
			Class:     r.Uint32("class"),
			Name:      r.Uint32("name"),
			Signature: r.Uint32("signature"),
		}
	}
	return out, nil
}

// CustomAttributes returns every CustomAttribute table row.
func (pe *File) CustomAttributes() ([]CustomAttributeTableRow, error) {
	rows, err := pe.Rows(CustomAttribute)
	if err != nil {
		return nil, err
	}
	out := make([]CustomAttributeTableRow, len(rows))
	for i, r := range rows {
		out[i] = CustomAttributeTableRow{
			Parent: r.Uint32("parent"),
			Type:   r.Uint32("type"),
			Value:  r.Uint32("value"),
		}
	}
	return out, nil
}

// Assembly returns this assembly's single Assembly table row. A module
// (rather than a top-level assembly) legitimately has zero rows here; ok
// reports whether one was present.
func (pe *File) Assembly() (row AssemblyTableRow, ok bool, err error) {
	t, has := pe.CLR.Tables[Assembly]
	if !has || t.RowCount == 0 {
		return AssemblyTableRow{}, false, nil
	}
	r, err := t.Row(pe, 1)
	if err != nil {
		return AssemblyTableRow{}, false, err
	}
	return AssemblyTableRow{
		HashAlgId:      r.Uint32("hash_alg_id"),
		MajorVersion:   uint16(r.Uint32("major_version")),
		MinorVersion:   uint16(r.Uint32("minor_version")),
		BuildNumber:    uint16(r.Uint32("build_number")),
		RevisionNumber: uint16(r.Uint32("revision_number")),
		Flags:          r.Uint32("flags"),
		PublicKey:      r.Uint32("public_key"),
		Name:           r.Uint32("name"),
		Culture:        r.Uint32("culture"),
	}, true, nil
}

// AssemblyRefs returns every AssemblyRef table row: the assemblies this one
// declares a dependency on.
func (pe *File) AssemblyRefs() ([]AssemblyRefTableRow, error) {
	rows, err := pe.Rows(AssemblyRef)
	if err != nil {
		return nil, err
	}
	out := make([]AssemblyRefTableRow, len(rows))
	for i, r := range rows {
		out[i] = AssemblyRefTableRow{
			MajorVersion:     uint16(r.Uint32("major_version")),
			MinorVersion:     uint16(r.Uint32("minor_version")),
			BuildNumber:      uint16(r.Uint32("build_number")),
			RevisionNumber:   uint16(r.Uint32("revision_number")),
			Flags:            r.Uint32("flags"),
			PublicKeyOrToken: r.Uint32("public_key_or_token"),
			Name:             r.Uint32("name"),
			Culture:          r.Uint32("culture"),
			HashValue:        r.Uint32("hash_value"),
		}
	}
	return out, nil
}

// TypeDefFullName resolves a TypeDef row's namespace+name into a single
// dotted display name, e.g. "System.Collections.Generic.List`1".
func (pe *File) TypeDefFullName(t TypeDefTableRow) (string, error) {
	name, err := pe.String(t.TypeName)
	if err != nil {
		return "", err
	}
	ns, err := pe.String(t.TypeNamespace)
	if err != nil {
		return "", err
	}
	if ns == "" {
		return name, nil
	}
	return ns + "." + name, nil
}
