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

import "reflect"

// List/Set header flags, set bit 1 when the property holds: bit0 elements
// carry a ref marker, bit1 elements may be null, bit2 the element type is
// statically declared (so no per-chunk type info follows), bit3 every
// element shares one runtime type.
const (
	collectionTrackingRef    = 1
	collectionHasNull        = 2
	collectionDeclElemType   = 4
	collectionSameType       = 8
)

// writeCollectionHeader emits the List/Set header byte that follows the
// varuint32 element count.
func writeCollectionHeader(buf *ByteBuffer, trackRef, hasNull, declElemType, sameType bool) {
	var h byte
	if trackRef {
		h |= collectionTrackingRef
	}
	if hasNull {
		h |= collectionHasNull
	}
	if declElemType {
		h |= collectionDeclElemType
	}
	if sameType {
		h |= collectionSameType
	}
	buf.WriteByte_(h)
}

// readCollectionHeader is writeCollectionHeader's mirror.
func readCollectionHeader(buf *ByteBuffer) (trackRef, hasNull, declElemType, sameType bool) {
	h := buf.ReadByte_()
	return h&collectionTrackingRef != 0, h&collectionHasNull != 0,
		h&collectionDeclElemType != 0, h&collectionSameType != 0
}

// nullable reports whether a value of type_ can be a nil Go value and
// therefore must carry a ref/null flag of its own when it's a collection
// element rather than a top-level field.
func nullable(type_ reflect.Type) bool {
	switch type_.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

// isPrimitiveSliceOrArrayType reports whether type_ is an unnamed slice
// or array of a fixed-width primitive, i.e. eligible for one of the
// *_ARRAY fast-path serializers rather than the general chunked list
// encoding. Named slice types (like Int16Slice) opt back into LIST so a
// struct field can force schema-level evolution semantics.
func isPrimitiveSliceOrArrayType(type_ reflect.Type) bool {
	if type_.Kind() != reflect.Slice && type_.Kind() != reflect.Array {
		return false
	}
	if type_.Name() != "" {
		return false
	}
	switch type_.Elem().Kind() {
	case reflect.Bool, reflect.Uint8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// Int16Slice is a named []int16. Being a named type it is not given the
// INT16_ARRAY fast path that unnamed []int16 uses; it is written through
// sliceConcreteValueSerializer as a general LIST.
type Int16Slice []int16

// sliceSerializer is the generic, interface-element fallback: every
// element carries its own dynamic type lookup, used when the slice's
// static element type is interface{} or **T.
type sliceSerializer struct{}

func (sliceSerializer) TypeId() TypeId     { return LIST }
func (sliceSerializer) NeedWriteRef() bool { return true }
func (sliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	n := value.Len()
	buf.WriteVarUint32(uint32(n))
	// Element type is interface{}, so it is never statically declared and
	// never assumed uniform; each element already carries its own ref
	// marker plus full type info via WriteReferencable.
	writeCollectionHeader(buf, f.referenceTracking, true, false, false)
	for i := 0; i < n; i++ {
		elem := value.Index(i)
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if err := f.WriteReferencable(buf, elem); err != nil {
			return err
		}
	}
	return nil
}
func (sliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkCollectionLength(n); err != nil {
		return reflect.Value{}, err
	}
	readCollectionHeader(buf)
	slice := reflect.MakeSlice(type_, n, n)
	for i := 0; i < n; i++ {
		v, err := f.ReadReferencable(buf, type_.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		slice.Index(i).Set(v.Convert(type_.Elem()))
	}
	return slice, nil
}

// sliceConcreteValueSerializer is used when every element shares a
// single statically-known, non-dynamic type: the element serializer is
// resolved once at registration time instead of per element.
type sliceConcreteValueSerializer struct {
	type_          reflect.Type
	elemSerializer Serializer
	referencable   bool
}

func (s *sliceConcreteValueSerializer) TypeId() TypeId     { return LIST }
func (s *sliceConcreteValueSerializer) NeedWriteRef() bool { return true }
func (s *sliceConcreteValueSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	n := value.Len()
	buf.WriteVarUint32(uint32(n))
	// The element type is statically known and shared by every element,
	// so no per-chunk type info is needed; only the ref/null flag.
	writeCollectionHeader(buf, s.referencable, s.referencable, true, true)
	for i := 0; i < n; i++ {
		elem := value.Index(i)
		if s.referencable {
			needsWrite := f.refResolver.WriteRefOrNull(buf, elem)
			if !needsWrite {
				continue
			}
		}
		if err := s.elemSerializer.WriteData(f, buf, elem); err != nil {
			return err
		}
	}
	return nil
}
func (s *sliceConcreteValueSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkCollectionLength(n); err != nil {
		return reflect.Value{}, err
	}
	readCollectionHeader(buf)
	slice := reflect.MakeSlice(type_, n, n)
	for i := 0; i < n; i++ {
		if s.referencable {
			flag := f.refReader.ReadRefFlag(buf)
			if flag == NullFlag {
				continue
			}
			if flag == RefFlag {
				id := int32(buf.ReadVarUint32())
				if v, ok := f.refReader.GetReadObject(id); ok {
					slice.Index(i).Set(v.Convert(type_.Elem()))
				}
				continue
			}
		}
		v, err := s.elemSerializer.ReadData(f, buf, type_.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		slice.Index(i).Set(v.Convert(type_.Elem()))
	}
	return slice, nil
}

// arraySerializer/arrayConcreteValueSerializer mirror the slice variants
// for fixed-size Go arrays; length is still written so cross-language
// peers (which have no fixed-size array concept) can decode it as a list.
type arraySerializer struct{}

func (arraySerializer) TypeId() TypeId     { return ARRAY }
func (arraySerializer) NeedWriteRef() bool { return true }
func (arraySerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	n := value.Len()
	buf.WriteVarUint32(uint32(n))
	writeCollectionHeader(buf, f.referenceTracking, true, false, false)
	for i := 0; i < n; i++ {
		if err := f.WriteReferencable(buf, value.Index(i)); err != nil {
			return err
		}
	}
	return nil
}
func (arraySerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	readCollectionHeader(buf)
	arr := reflect.New(type_).Elem()
	for i := 0; i < n && i < type_.Len(); i++ {
		v, err := f.ReadReferencable(buf, type_.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		arr.Index(i).Set(v.Convert(type_.Elem()))
	}
	return arr, nil
}

type arrayConcreteValueSerializer struct {
	type_          reflect.Type
	elemSerializer Serializer
	referencable   bool
}

func (s *arrayConcreteValueSerializer) TypeId() TypeId     { return ARRAY }
func (s *arrayConcreteValueSerializer) NeedWriteRef() bool { return true }
func (s *arrayConcreteValueSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	n := value.Len()
	buf.WriteVarUint32(uint32(n))
	writeCollectionHeader(buf, s.referencable, s.referencable, true, true)
	for i := 0; i < n; i++ {
		elem := value.Index(i)
		if s.referencable {
			if !f.refResolver.WriteRefOrNull(buf, elem) {
				continue
			}
		}
		if err := s.elemSerializer.WriteData(f, buf, elem); err != nil {
			return err
		}
	}
	return nil
}
func (s *arrayConcreteValueSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	readCollectionHeader(buf)
	arr := reflect.New(type_).Elem()
	for i := 0; i < n && i < type_.Len(); i++ {
		if s.referencable {
			flag := f.refReader.ReadRefFlag(buf)
			if flag == NullFlag {
				continue
			}
			if flag == RefFlag {
				id := int32(buf.ReadVarUint32())
				if v, ok := f.refReader.GetReadObject(id); ok {
					arr.Index(i).Set(v.Convert(type_.Elem()))
				}
				continue
			}
		}
		v, err := s.elemSerializer.ReadData(f, buf, type_.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		arr.Index(i).Set(v.Convert(type_.Elem()))
	}
	return arr, nil
}

// mapSerializer writes a chunked map: a run of entries with statically
// declared, non-null key and value types is batched into one chunk (up
// to 255 entries) that skips per-entry type info, while a dynamically
// typed side (e.g. a polymorphic map[string]interface{}) or a null key
// or value always gets its own singleton chunk.
type mapSerializer struct {
	type_             reflect.Type
	keySerializer     Serializer
	valueSerializer   Serializer
	keyReferencable   bool
	valueReferencable bool
	mapInStruct       bool
}

// Map chunk header flags: bit0 key ref marker, bit1 key is null, bit2 key
// type declared, bit3 value ref marker, bit4 value is null, bit5 value
// type declared. A chunk with either null bit set encodes exactly one
// entry; otherwise a 1-byte chunk size (1..255) follows the header.
const (
	mapKeyTrackRef   = 1
	mapKeyNull       = 2
	mapKeyDeclared   = 4
	mapValueTrackRef = 8
	mapValueNull     = 16
	mapValueDeclared = 32
)

const maxMapChunkSize = 255

func isNilElement(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// deinterface unwraps v if it holds a reflect.Interface, otherwise
// returns it unchanged.
func deinterface(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface {
		return v.Elem()
	}
	return v
}

func (m mapSerializer) TypeId() TypeId     { return MAP }
func (m mapSerializer) NeedWriteRef() bool { return true }
func (m mapSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	n := value.Len()
	buf.WriteVarUint32(uint32(n))
	if n == 0 {
		return nil
	}
	// Both sides statically typed is what makes a run of entries
	// batchable into one chunk; a dynamic side or a null entry always
	// gets its own singleton chunk.
	batchable := m.keySerializer != nil && m.valueSerializer != nil
	keys := value.MapKeys()
	i := 0
	for i < len(keys) {
		k := deinterface(keys[i])
		v := deinterface(value.MapIndex(keys[i]))
		keyNull := m.keyReferencable && isNilElement(k)
		valNull := m.valueReferencable && isNilElement(v)
		if batchable && !keyNull && !valNull {
			chunkKeys := make([]reflect.Value, 0, maxMapChunkSize)
			chunkVals := make([]reflect.Value, 0, maxMapChunkSize)
			for i < len(keys) && len(chunkKeys) < maxMapChunkSize {
				ck := deinterface(keys[i])
				cv := deinterface(value.MapIndex(keys[i]))
				if m.keyReferencable && isNilElement(ck) {
					break
				}
				if m.valueReferencable && isNilElement(cv) {
					break
				}
				chunkKeys = append(chunkKeys, ck)
				chunkVals = append(chunkVals, cv)
				i++
			}
			header := byte(mapKeyDeclared | mapValueDeclared)
			if m.keyReferencable {
				header |= mapKeyTrackRef
			}
			if m.valueReferencable {
				header |= mapValueTrackRef
			}
			buf.WriteByte_(header)
			buf.WriteByte_(byte(len(chunkKeys)))
			for j := range chunkKeys {
				if m.keyReferencable {
					if f.refResolver.WriteRefOrNull(buf, chunkKeys[j]) {
						if err := m.keySerializer.WriteData(f, buf, chunkKeys[j]); err != nil {
							return err
						}
					}
				} else if err := m.keySerializer.WriteData(f, buf, chunkKeys[j]); err != nil {
					return err
				}
				if m.valueReferencable {
					if f.refResolver.WriteRefOrNull(buf, chunkVals[j]) {
						if err := m.valueSerializer.WriteData(f, buf, chunkVals[j]); err != nil {
							return err
						}
					}
				} else if err := m.valueSerializer.WriteData(f, buf, chunkVals[j]); err != nil {
					return err
				}
			}
			continue
		}
		header := byte(0)
		if keyNull {
			header |= mapKeyNull
		} else if f.referenceTracking {
			header |= mapKeyTrackRef
		}
		if valNull {
			header |= mapValueNull
		} else if f.referenceTracking {
			header |= mapValueTrackRef
		}
		buf.WriteByte_(header)
		if !keyNull {
			if err := f.WriteReferencable(buf, k); err != nil {
				return err
			}
		}
		if !valNull {
			if err := f.WriteReferencable(buf, v); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}

func (m mapSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkCollectionLength(n); err != nil {
		return reflect.Value{}, err
	}
	mp := reflect.MakeMapWithSize(type_, n)
	keyType, valType := type_.Key(), type_.Elem()
	read := 0
	for read < n {
		header := buf.ReadByte_()
		keyDeclared := header&mapKeyDeclared != 0
		valDeclared := header&mapValueDeclared != 0
		keyNull := header&mapKeyNull != 0
		valNull := header&mapValueNull != 0
		if keyDeclared && valDeclared && !keyNull && !valNull {
			keyTrackRef := header&mapKeyTrackRef != 0
			valTrackRef := header&mapValueTrackRef != 0
			chunkSize := int(buf.ReadByte_())
			if read+chunkSize > n {
				return reflect.Value{}, invalidDataErr(
					"map chunk size %d exceeds remaining entries %d", chunkSize, n-read)
			}
			for j := 0; j < chunkSize; j++ {
				k, err := readMapSide(f, buf, keyTrackRef, m.keySerializer, keyType)
				if err != nil {
					return reflect.Value{}, err
				}
				v, err := readMapSide(f, buf, valTrackRef, m.valueSerializer, valType)
				if err != nil {
					return reflect.Value{}, err
				}
				mp.SetMapIndex(k.Convert(keyType), v.Convert(valType))
				read++
			}
			continue
		}
		var k, v reflect.Value
		var err error
		if keyNull {
			k = reflect.Zero(keyType)
		} else if k, err = f.ReadReferencable(buf, keyType); err != nil {
			return reflect.Value{}, err
		}
		if valNull {
			v = reflect.Zero(valType)
		} else if v, err = f.ReadReferencable(buf, valType); err != nil {
			return reflect.Value{}, err
		}
		mp.SetMapIndex(k.Convert(keyType), v.Convert(valType))
		read++
	}
	return mp, nil
}

// readMapSide reads one chunked key or value, honoring a ref-back-reference
// ahead of the declared-type serializer when trackRef is set.
func readMapSide(f *Fory, buf *ByteBuffer, trackRef bool, serializer Serializer, type_ reflect.Type) (reflect.Value, error) {
	if trackRef {
		flag := f.refReader.ReadRefFlag(buf)
		switch flag {
		case NullFlag:
			return reflect.Zero(type_), nil
		case RefFlag:
			id := int32(buf.ReadVarUint32())
			v, ok := f.refReader.GetReadObject(id)
			if !ok {
				return reflect.Value{}, refErr("map back-reference %d not yet populated", id)
			}
			return v, nil
		}
	}
	return serializer.ReadData(f, buf, type_)
}

// Primitive slice fast paths: these bypass the general chunked list
// encoding and write the backing array as a flat little-endian run,
// matching the *_ARRAY wire types so a cross-language peer can memcpy
// straight into its own primitive array representation.

type stringSliceSerializer struct{}

func (stringSliceSerializer) TypeId() TypeId     { return LIST }
func (stringSliceSerializer) NeedWriteRef() bool { return true }
func (stringSliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().([]string)
	buf.WriteVarUint32(uint32(len(s)))
	for _, v := range s {
		WriteString(buf, v)
	}
	return nil
}
func (stringSliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkCollectionLength(n); err != nil {
		return reflect.Value{}, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := ReadStringChecked(f, buf)
		if err != nil {
			return reflect.Value{}, err
		}
		out[i] = s
	}
	return reflect.ValueOf(out), nil
}

type byteSliceSerializer struct{}

func (byteSliceSerializer) TypeId() TypeId     { return BINARY }
func (byteSliceSerializer) NeedWriteRef() bool { return true }
func (byteSliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	b := value.Interface().([]byte)
	buf.WriteVarUint32(uint32(len(b)))
	buf.WriteBinary(b)
	return nil
}
func (byteSliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(n); err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(buf.ReadBinary(n)), nil
}

type boolSliceSerializer struct{}

func (boolSliceSerializer) TypeId() TypeId     { return BOOL_ARRAY }
func (boolSliceSerializer) NeedWriteRef() bool { return true }
func (boolSliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().([]bool)
	buf.WriteVarUint32(uint32(len(s)))
	for _, v := range s {
		buf.WriteBool(v)
	}
	return nil
}
func (boolSliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(n); err != nil {
		return reflect.Value{}, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = buf.ReadBool()
	}
	return reflect.ValueOf(out), nil
}

type int16SliceSerializer struct{}

func (int16SliceSerializer) TypeId() TypeId     { return INT16_ARRAY }
func (int16SliceSerializer) NeedWriteRef() bool { return true }
func (int16SliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s, ok := value.Interface().([]int16)
	if !ok {
		s = []int16(value.Interface().(Int16Slice))
	}
	buf.WriteVarUint32(uint32(len(s) * 2))
	for _, v := range s {
		buf.WriteInt16(v)
	}
	return nil
}
func (int16SliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	byteLen := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(byteLen); err != nil {
		return reflect.Value{}, err
	}
	out := make([]int16, byteLen/2)
	for i := range out {
		out[i] = buf.ReadInt16()
	}
	return reflect.ValueOf(out).Convert(type_), nil
}

type int32SliceSerializer struct{}

func (int32SliceSerializer) TypeId() TypeId     { return INT32_ARRAY }
func (int32SliceSerializer) NeedWriteRef() bool { return true }
func (int32SliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().([]int32)
	buf.WriteVarUint32(uint32(len(s) * 4))
	for _, v := range s {
		buf.WriteInt32(v)
	}
	return nil
}
func (int32SliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	byteLen := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(byteLen); err != nil {
		return reflect.Value{}, err
	}
	out := make([]int32, byteLen/4)
	for i := range out {
		out[i] = buf.ReadInt32()
	}
	return reflect.ValueOf(out), nil
}

type int64SliceSerializer struct{}

func (int64SliceSerializer) TypeId() TypeId     { return INT64_ARRAY }
func (int64SliceSerializer) NeedWriteRef() bool { return true }
func (int64SliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().([]int64)
	buf.WriteVarUint32(uint32(len(s) * 8))
	for _, v := range s {
		buf.WriteInt64(v)
	}
	return nil
}
func (int64SliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	byteLen := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(byteLen); err != nil {
		return reflect.Value{}, err
	}
	out := make([]int64, byteLen/8)
	for i := range out {
		out[i] = buf.ReadInt64()
	}
	return reflect.ValueOf(out), nil
}

type float32SliceSerializer struct{}

func (float32SliceSerializer) TypeId() TypeId     { return FLOAT32_ARRAY }
func (float32SliceSerializer) NeedWriteRef() bool { return true }
func (float32SliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().([]float32)
	buf.WriteVarUint32(uint32(len(s) * 4))
	for _, v := range s {
		buf.WriteFloat32(v)
	}
	return nil
}
func (float32SliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	byteLen := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(byteLen); err != nil {
		return reflect.Value{}, err
	}
	out := make([]float32, byteLen/4)
	for i := range out {
		out[i] = buf.ReadFloat32()
	}
	return reflect.ValueOf(out), nil
}

type float64SliceSerializer struct{}

func (float64SliceSerializer) TypeId() TypeId     { return FLOAT64_ARRAY }
func (float64SliceSerializer) NeedWriteRef() bool { return true }
func (float64SliceSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().([]float64)
	buf.WriteVarUint32(uint32(len(s) * 8))
	for _, v := range s {
		buf.WriteFloat64(v)
	}
	return nil
}
func (float64SliceSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	byteLen := int(buf.ReadVarUint32())
	if err := f.checkBinaryLength(byteLen); err != nil {
		return reflect.Value{}, err
	}
	out := make([]float64, byteLen/8)
	for i := range out {
		out[i] = buf.ReadFloat64()
	}
	return reflect.ValueOf(out), nil
}
