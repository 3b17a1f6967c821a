// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package fory

import (
	"sort"

	"github.com/spaolacci/murmur3"
)

// FieldType is the field-level type descriptor: a wire type id plus
// nullability/ref-tracking flags and, for LIST/SET/MAP fields, the child
// element (and value) descriptors.
type FieldType struct {
	TypeID   TypeId
	Nullable bool
	TrackRef bool
	Generics []FieldType
}

// FieldInfo describes one field of a struct-like schema on the wire.
type FieldInfo struct {
	FieldID      int32 // -1 when absent; tag-id fields use it as the wire id
	FieldName    string
	FieldType    FieldType
	DeclaringIdx int // tie-break only: position among fields from the same declaring type
}

// TypeMeta is the on-wire schema descriptor for a struct-like type.
type TypeMeta struct {
	TypeID         TypeId
	UserTypeID     uint32
	HasUserTypeID  bool
	Namespace      string
	TypeName       string
	RegisterByName bool
	Fields         []FieldInfo
	HasFieldsMeta  bool
	Compressed     bool
	HeaderHash     uint64 // low 50 bits significant
}

// primitive element sizes used to drive the canonical field ordering rule.
var fieldTypeSize = map[TypeId]int{
	BOOL: 1, INT8: 1, UINT8: 1,
	INT16: 2, UINT16: 2,
	INT32: 4, UINT32: 4, VAR_INT32: 4, FLOAT: 4,
	INT64: 8, UINT64: 8, VAR_INT64: 8, SLI_INT64: 8, DOUBLE: 8,
	HALF_FLOAT: 2,
}

func isScalarPrimitive(id TypeId) bool {
	_, ok := fieldTypeSize[id]
	return ok
}

func isBoxedPrimitive(ft FieldType) bool {
	return isScalarPrimitive(ft.TypeID) && ft.Nullable
}

func isContainerType(id TypeId) bool {
	return id == LIST || id == SET || id == MAP
}

// fieldOrderClass buckets a field into the canonical ordering groups:
// primitives (by descending size) first, then boxed primitives, then
// final/monomorphic user fields, then other scalars, then containers.
func fieldOrderClass(f FieldInfo) int {
	switch {
	case isScalarPrimitive(f.FieldType.TypeID) && !f.FieldType.Nullable && !f.FieldType.TrackRef:
		return 0
	case isBoxedPrimitive(f.FieldType):
		return 1
	case f.FieldType.TypeID == STRUCT || f.FieldType.TypeID == COMPATIBLE_STRUCT:
		return 2
	case isContainerType(f.FieldType.TypeID):
		return 4
	default:
		return 3
	}
}

// SortFields applies the canonical field order: primitive fields
// descending by size (ties by type id, then field name/tag id, then
// declaring-type position), then boxed primitives, then final user
// fields, then other scalars, then containers.
func SortFields(fields []FieldInfo) []FieldInfo {
	sorted := make([]FieldInfo, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ca, cb := fieldOrderClass(a), fieldOrderClass(b)
		if ca != cb {
			return ca < cb
		}
		if ca == 0 {
			sa, sb := fieldTypeSize[a.FieldType.TypeID], fieldTypeSize[b.FieldType.TypeID]
			if sa != sb {
				return sa > sb // descending size
			}
			if a.FieldType.TypeID != b.FieldType.TypeID {
				return a.FieldType.TypeID < b.FieldType.TypeID
			}
		}
		if a.FieldID >= 0 && b.FieldID >= 0 && a.FieldID != b.FieldID {
			return a.FieldID < b.FieldID
		}
		if a.FieldName != b.FieldName {
			return a.FieldName < b.FieldName
		}
		return a.DeclaringIdx < b.DeclaringIdx
	})
	return sorted
}

// EncodeBody writes the TypeMeta body (everything inside the envelope) and
// returns it so the caller can also hash it.
func (tm *TypeMeta) EncodeBody(namespaceEnc, typeNameEnc, fieldNameEnc *msEncoder) []byte {
	buf := NewByteBuffer(nil)
	fieldCount := len(tm.Fields)
	header := byte(fieldCount)
	if fieldCount >= 31 {
		header = 31
	}
	if tm.RegisterByName {
		header |= 1 << 5
	}
	buf.WriteByte_(header)
	if fieldCount >= 31 {
		buf.WriteVarUint32(uint32(fieldCount - 31))
	}

	if tm.RegisterByName {
		namespaceEnc.writeString(buf, tm.Namespace)
		typeNameEnc.writeString(buf, tm.TypeName)
	} else {
		buf.WriteByte_(byte(tm.TypeID))
		buf.WriteVarUint32(tm.UserTypeID)
	}

	sorted := SortFields(tm.Fields)
	tm.Fields = sorted
	for _, f := range sorted {
		writeFieldInfo(buf, f, fieldNameEnc)
	}
	return buf.GetByteSlice(0, buf.WriterIndex())
}

func writeFieldInfo(buf *ByteBuffer, f FieldInfo, fieldNameEnc *msEncoder) {
	var header byte
	if f.FieldType.TrackRef {
		header |= 1
	}
	if f.FieldType.Nullable {
		header |= 1 << 1
	}
	isTagID := f.FieldID >= 0 && f.FieldName == ""
	var nameLen int
	var encSelector byte
	var packedName []byte
	if isTagID {
		encSelector = 3
		nameLen = int(f.FieldID) + 1
	} else {
		ms, _ := fieldNameEnc.enc.Encode(f.FieldName)
		packedName = ms.Bytes
		encSelector = byte(ms.Encoding)
		nameLen = len(f.FieldName)
	}
	lenField := nameLen - 1
	extended := lenField >= 15
	if extended {
		header |= 15 << 2
	} else {
		header |= byte(lenField) << 2
	}
	header |= encSelector << 6
	buf.WriteByte_(header)
	if extended {
		buf.WriteVarUint32(uint32(lenField - 15))
	}
	writeFieldTypeDescriptor(buf, f.FieldType)
	if !isTagID {
		buf.WriteVarUint32(uint32(len(packedName)))
		buf.WriteBinary(packedName)
	}
}

func writeFieldTypeDescriptor(buf *ByteBuffer, ft FieldType) {
	buf.WriteVarUint32(uint32(ft.TypeID))
	var flags byte
	if ft.Nullable {
		flags |= 1
	}
	if ft.TrackRef {
		flags |= 2
	}
	buf.WriteByte_(flags)
	for _, g := range ft.Generics {
		writeFieldTypeDescriptor(buf, g)
	}
}

func readFieldTypeDescriptor(buf *ByteBuffer) FieldType {
	typeID := TypeId(buf.ReadVarUint32())
	flags := buf.ReadByte_()
	ft := FieldType{TypeID: typeID, Nullable: flags&1 != 0, TrackRef: flags&2 != 0}
	n := 0
	if typeID == LIST || typeID == SET {
		n = 1
	} else if typeID == MAP {
		n = 2
	}
	for i := 0; i < n; i++ {
		ft.Generics = append(ft.Generics, readFieldTypeDescriptor(buf))
	}
	return ft
}

func readFieldInfo(buf *ByteBuffer, fieldNameDec *msDecoder) FieldInfo {
	header := buf.ReadByte_()
	trackRef := header&1 != 0
	nullable := header&2 != 0
	lenField := int((header >> 2) & 0xf)
	extended := lenField == 15
	encSelector := (header >> 6) & 0x3
	if extended {
		lenField += int(buf.ReadVarUint32())
	}
	ft := readFieldTypeDescriptor(buf)
	ft.Nullable = nullable
	ft.TrackRef = trackRef
	var name string
	fieldID := int32(-1)
	if encSelector == 3 {
		fieldID = int32(lenField)
	} else {
		packedLen := int(buf.ReadVarUint32())
		data := buf.ReadBinary(packedLen)
		name, _ = fieldNameDec.dec.Decode(data, meta_Encoding(encSelector))
	}
	return FieldInfo{FieldID: fieldID, FieldName: name, FieldType: ft}
}

// DecodeBody is EncodeBody's mirror.
func DecodeBody(buf *ByteBuffer, namespaceDec, typeNameDec, fieldNameDec *msDecoder) (*TypeMeta, error) {
	header := buf.ReadByte_()
	fieldCount := int(header & 0x1f)
	registerByName := header&(1<<5) != 0
	if fieldCount == 31 {
		fieldCount += int(buf.ReadVarUint32())
	}
	tm := &TypeMeta{RegisterByName: registerByName, HasFieldsMeta: true}
	if registerByName {
		tm.Namespace = namespaceDec.readString(buf)
		tm.TypeName = typeNameDec.readString(buf)
	} else {
		tm.TypeID = TypeId(buf.ReadByte_())
		tm.UserTypeID = buf.ReadVarUint32()
		tm.HasUserTypeID = true
	}
	for i := 0; i < fieldCount; i++ {
		tm.Fields = append(tm.Fields, readFieldInfo(buf, fieldNameDec))
	}
	return tm, nil
}

// EncodeEnvelope wraps a pre-built body with the 64-bit header word
// (length + has_fields_meta + compressed + 50-bit hash) plus an overflow
// varuint32 when body_len >= 255.
func EncodeEnvelope(buf *ByteBuffer, body []byte, hasFieldsMeta, compressed bool) {
	hash := bodyHash(body)
	var header uint64
	bodyLen := len(body)
	lenField := bodyLen
	if lenField > 255 {
		lenField = 255
	}
	header |= uint64(lenField)
	if hasFieldsMeta {
		header |= 1 << 8
	}
	if compressed {
		header |= 1 << 9
	}
	header |= (hash & ((1 << 50) - 1)) << 14
	buf.WriteInt64(int64(header))
	if bodyLen >= 255 {
		buf.WriteVarUint32(uint32(bodyLen - 255))
	}
	buf.WriteBinary(body)
}

// DecodeEnvelope reads the header word and returns the body bytes plus
// the hasFieldsMeta/compressed flags.
func DecodeEnvelope(buf *ByteBuffer) (body []byte, hasFieldsMeta, compressed bool, err error) {
	header := uint64(buf.ReadInt64())
	bodyLen := int(header & 0xff)
	hasFieldsMeta = header&(1<<8) != 0
	compressed = header&(1<<9) != 0
	if bodyLen == 255 {
		bodyLen += int(buf.ReadVarUint32())
	}
	if compressed {
		return nil, hasFieldsMeta, compressed, invalidDataErr("compressed TypeMeta bodies are rejected")
	}
	body = buf.ReadBinary(bodyLen)
	return body, hasFieldsMeta, compressed, nil
}

// bodyHash is murmurhash3_x64_128(body, seed=47), low 64 bits, abs value,
// shifted into the high 50 bits of the envelope header.
func bodyHash(body []byte) uint64 {
	h1, _ := murmur3.Sum128WithSeed(body, 47, 47)
	if int64(h1) < 0 {
		h1 = uint64(-int64(h1))
	}
	return h1
}
