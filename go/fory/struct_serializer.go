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
	"fmt"
	"reflect"
)

// structSerializer writes a struct in schema-consistent mode: a 32-bit
// hash over the field list is written once and the reader rejects any
// mismatch rather than trying to reconcile field-by-field. Cheaper than
// the compatible mode, but both sides must share the exact struct
// version.
type structSerializer struct {
	type_   reflect.Type
	typeTag string

	fieldsOnce  bool
	fields      []structFieldPlan
	schemaHash  uint32
}

type structFieldPlan struct {
	index      int
	name       string
	serializer Serializer
	referencable bool
}

func (s *structSerializer) TypeId() TypeId     { return STRUCT }
func (s *structSerializer) NeedWriteRef() bool { return true }

func (s *structSerializer) ensurePlan(f *Fory) error {
	if s.fieldsOnce {
		return nil
	}
	n := s.type_.NumField()
	s.fields = make([]structFieldPlan, 0, n)
	for i := 0; i < n; i++ {
		sf := s.type_.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		ser, err := f.typeResolver.getSerializerByType(sf.Type, false)
		if err != nil {
			return fmt.Errorf("struct %s field %s: %w", s.type_, sf.Name, err)
		}
		s.fields = append(s.fields, structFieldPlan{index: i, name: sf.Name, serializer: ser, referencable: nullable(sf.Type)})
	}
	s.schemaHash = calcSchemaHash(s.fields)
	s.fieldsOnce = true
	return nil
}

// calcSchemaHash is a small FNV-1a rolling hash over the ordered field
// names and their wire type ids; it exists purely to catch a
// schema-consistent stream being read against an incompatible struct
// version, not to be collision-proof.
func calcSchemaHash(fields []structFieldPlan) uint32 {
	var h uint32 = 2166136261
	for _, fl := range fields {
		for i := 0; i < len(fl.name); i++ {
			h ^= uint32(fl.name[i])
			h *= 16777619
		}
		h ^= uint32(fl.serializer.TypeId())
		h *= 16777619
	}
	return h
}

func (s *structSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	if err := s.ensurePlan(f); err != nil {
		return err
	}
	buf.WriteInt32(int32(s.schemaHash))
	for _, fl := range s.fields {
		fv := value.Field(fl.index)
		if fl.referencable {
			if !f.refResolver.WriteRefOrNull(buf, fv) {
				continue
			}
		}
		if err := fl.serializer.WriteData(f, buf, fv); err != nil {
			return fmt.Errorf("field %s: %w", fl.name, err)
		}
	}
	return nil
}

func (s *structSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	if err := s.ensurePlan(f); err != nil {
		return reflect.Value{}, err
	}
	hash := uint32(buf.ReadInt32())
	if hash != s.schemaHash {
		return reflect.Value{}, versionMismatchErr("struct %s: schema hash %d on wire does not match local %d", s.type_, hash, s.schemaHash)
	}
	out := reflect.New(s.type_).Elem()
	for _, fl := range s.fields {
		if fl.referencable {
			flag := f.refReader.ReadRefFlag(buf)
			if flag == NullFlag {
				continue
			}
			if flag == RefFlag {
				id := int32(buf.ReadVarUint32())
				if v, ok := f.refReader.GetReadObject(id); ok {
					out.Field(fl.index).Set(v.Convert(out.Field(fl.index).Type()))
				}
				continue
			}
		}
		v, err := fl.serializer.ReadData(f, buf, out.Field(fl.index).Type())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", fl.name, err)
		}
		out.Field(fl.index).Set(v.Convert(out.Field(fl.index).Type()))
	}
	return out, nil
}

// ptrToStructSerializer handles *T for a struct T: it delegates to the
// embedded structSerializer for the field machinery and only adds the
// allocate/dereference step.
type ptrToStructSerializer struct {
	structSerializer
	type_ reflect.Type
}

func (p *ptrToStructSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	return p.structSerializer.WriteData(f, buf, value.Elem())
}

func (p *ptrToStructSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	v, err := p.structSerializer.ReadData(f, buf, type_.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(type_.Elem())
	ptr.Elem().Set(v)
	return ptr, nil
}

// compatibleStructSerializer writes a full TypeMeta once per type per
// stream (deduplicated by MetaContext) and matches fields by name on
// read, tolerating fields the writer's struct version added or removed
// relative to the reader's.
type compatibleStructSerializer struct {
	type_   reflect.Type
	typeTag string

	planOnce bool
	byName   map[string]structFieldPlan
	ordered  []structFieldPlan
	meta     *TypeMeta
}

func (s *compatibleStructSerializer) TypeId() TypeId     { return COMPATIBLE_STRUCT }
func (s *compatibleStructSerializer) NeedWriteRef() bool { return true }

func (s *compatibleStructSerializer) ensurePlan(f *Fory) error {
	if s.planOnce {
		return nil
	}
	n := s.type_.NumField()
	s.byName = make(map[string]structFieldPlan, n)
	fields := make([]FieldInfo, 0, n)
	for i := 0; i < n; i++ {
		sf := s.type_.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		ser, err := f.typeResolver.getSerializerByType(sf.Type, false)
		if err != nil {
			return fmt.Errorf("struct %s field %s: %w", s.type_, sf.Name, err)
		}
		plan := structFieldPlan{index: i, name: sf.Name, serializer: ser, referencable: nullable(sf.Type)}
		s.byName[sf.Name] = plan
		s.ordered = append(s.ordered, plan)
		fields = append(fields, FieldInfo{FieldID: -1, FieldName: sf.Name, FieldType: FieldType{TypeID: ser.TypeId(), Nullable: plan.referencable}})
	}
	s.meta = &TypeMeta{TypeName: s.typeTag, RegisterByName: true, Fields: fields, HasFieldsMeta: true}
	s.planOnce = true
	return nil
}

func (s *compatibleStructSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	if err := s.ensurePlan(f); err != nil {
		return err
	}
	if err := f.metaContext.WriteTypeMeta(buf, s.meta); err != nil {
		return err
	}
	for _, fl := range s.meta.Fields {
		plan, ok := s.byName[fl.FieldName]
		if !ok {
			continue
		}
		fv := value.Field(plan.index)
		if plan.referencable {
			if !f.refResolver.WriteRefOrNull(buf, fv) {
				continue
			}
		}
		if err := plan.serializer.WriteData(f, buf, fv); err != nil {
			return fmt.Errorf("field %s: %w", fl.FieldName, err)
		}
	}
	return nil
}

func (s *compatibleStructSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	if err := s.ensurePlan(f); err != nil {
		return reflect.Value{}, err
	}
	wireMeta, err := f.metaContext.ReadTypeMeta(buf)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(s.type_).Elem()
	for _, wf := range wireMeta.Fields {
		plan, known := s.byName[wf.FieldName]
		if !known {
			// Field removed locally: the writer's value must still be
			// consumed to keep the stream aligned, via its own
			// type-driven skip since we have no local serializer for it.
			if err := skipFieldValue(f, buf, wf); err != nil {
				return reflect.Value{}, err
			}
			continue
		}
		if plan.referencable {
			flag := f.refReader.ReadRefFlag(buf)
			if flag == NullFlag {
				continue
			}
			if flag == RefFlag {
				id := int32(buf.ReadVarUint32())
				if v, ok := f.refReader.GetReadObject(id); ok {
					out.Field(plan.index).Set(v.Convert(out.Field(plan.index).Type()))
				}
				continue
			}
		}
		v, err := plan.serializer.ReadData(f, buf, out.Field(plan.index).Type())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", wf.FieldName, err)
		}
		out.Field(plan.index).Set(v.Convert(out.Field(plan.index).Type()))
	}
	return out, nil
}

// skipFieldValue consumes the bytes of a field the local struct no
// longer declares, using its wire FieldType rather than a local
// Serializer so an added/removed-field stream stays byte-aligned.
func skipFieldValue(f *Fory, buf *ByteBuffer, wf FieldInfo) error {
	if wf.FieldType.Nullable {
		flag := f.refReader.ReadRefFlag(buf)
		if flag == NullFlag {
			return nil
		}
		if flag == RefFlag {
			buf.ReadVarInt32()
			return nil
		}
	}
	return skipByTypeID(f, buf, wf.FieldType)
}

func skipByTypeID(f *Fory, buf *ByteBuffer, ft FieldType) error {
	switch ft.TypeID {
	case BOOL, INT8, UINT8:
		buf.ReadByte_()
	case INT16, UINT16:
		buf.ReadInt16()
	case INT32, UINT32, FLOAT:
		buf.ReadInt32()
	case VAR_INT32:
		buf.ReadVarInt32()
	case INT64, UINT64, DOUBLE, TIMESTAMP:
		buf.ReadInt64()
	case VAR_INT64:
		buf.ReadVarInt64()
	case LOCAL_DATE:
		buf.ReadInt32()
	case STRING:
		if _, err := ReadStringChecked(f, buf); err != nil {
			return err
		}
	case BINARY:
		n := int(buf.ReadVarUint32())
		if err := f.checkBinaryLength(n); err != nil {
			return err
		}
		buf.ReadBinary(n)
	case LIST, SET:
		n := int(buf.ReadVarUint32())
		if err := f.checkCollectionLength(n); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := skipByTypeID(f, buf, ft.Generics[0]); err != nil {
				return err
			}
		}
	case MAP:
		n := int(buf.ReadVarUint32())
		if err := f.checkCollectionLength(n); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := skipByTypeID(f, buf, ft.Generics[0]); err != nil {
				return err
			}
			if err := skipByTypeID(f, buf, ft.Generics[1]); err != nil {
				return err
			}
		}
	default:
		return encodingErr("cannot skip unknown field type id %d", ft.TypeID)
	}
	return nil
}
