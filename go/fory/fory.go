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

// Package fory implements a compact, reference-tracking, schema-aware
// binary codec usable standalone in Go or across a fory-compatible
// cross-language peer.
package fory

import (
	"reflect"
)

// Language tags the stream's language mode: XLANG sets the is_xlang bit
// of the stream header and lets the type resolver cache type infos by
// wire type id. NewFory always uses XLANG.
type Language uint8

const (
	XLANG Language = iota
	GO
)

// Default length caps: a malformed or hostile stream cannot force an
// allocation past these without the caller raising
// MaxCollectionLength/MaxBinaryLength explicitly.
const (
	defaultMaxCollectionLength = 1 << 27
	defaultMaxBinaryLength     = 1 << 30
)

// Fory is the root entry point: one instance owns the per-process type
// registry plus the per-stream caches (ref tracking, MetaString/TypeMeta
// dedup) that get reset between independent Marshal/Unmarshal calls.
type Fory struct {
	language  Language
	referenceTracking bool

	typeResolver *typeResolver
	refResolver  *RefResolver
	refReader    *RefReader
	metaContext  *MetaContext

	// buffer is not read or written by any Fory method; Serialize and
	// Deserialize use the buffer passed to them, and Marshal/Unmarshal
	// allocate their own.
	buffer *ByteBuffer

	maxCollectionLength int
	maxBinaryLength     int
}

// NewFory creates a Fory instance. referenceTracking enables cyclic
// object graph support at the cost of an identity lookup per
// referencable value written.
func NewFory(referenceTracking bool) *Fory {
	f := &Fory{
		language:            XLANG,
		referenceTracking:   referenceTracking,
		maxCollectionLength: defaultMaxCollectionLength,
		maxBinaryLength:     defaultMaxBinaryLength,
	}
	f.typeResolver = newTypeResolver(f)
	f.refResolver = NewRefResolver(referenceTracking)
	f.refReader = NewRefReader()
	f.metaContext = NewMetaContext(f.typeResolver.metaStringResolver)
	return f
}

// SetMaxCollectionLength overrides the default cap on list/set/map
// element counts accepted while reading.
func (f *Fory) SetMaxCollectionLength(n int) { f.maxCollectionLength = n }

// SetMaxBinaryLength overrides the default cap on string/binary payload
// lengths accepted while reading.
func (f *Fory) SetMaxBinaryLength(n int) { f.maxBinaryLength = n }

// checkCollectionLength validates a decoded list/set/map element count
// against maxCollectionLength before the caller allocates anything sized
// by it, so a malformed length can't force a huge allocation.
func (f *Fory) checkCollectionLength(n int) error {
	if n < 0 || n > f.maxCollectionLength {
		return invalidDataErr("collection length %d exceeds configured max %d", n, f.maxCollectionLength)
	}
	return nil
}

// checkBinaryLength is checkCollectionLength's twin for string/binary byte
// lengths, validated against maxBinaryLength.
func (f *Fory) checkBinaryLength(n int) error {
	if n < 0 || n > f.maxBinaryLength {
		return invalidDataErr("binary length %d exceeds configured max %d", n, f.maxBinaryLength)
	}
	return nil
}

func (f *Fory) reset() {
	f.refResolver.reset()
	f.refReader.reset()
	f.metaContext.resetWrite()
	f.metaContext.resetRead()
	f.typeResolver.metaStringResolver.resetWrite()
	f.typeResolver.metaStringResolver.resetRead()
	f.typeResolver.resetWrite()
	f.typeResolver.resetRead()
}

// streamHeader is written once per stream: a magic number so a peer can
// sanity-check it is actually reading fory data, plus an is_xlang /
// is_null pair of bits.
func (f *Fory) writeStreamHeader(buf *ByteBuffer, isNull bool) {
	buf.WriteInt16(MAGIC_NUMBER)
	var flags byte
	if f.language == XLANG {
		flags |= 1
	}
	if isNull {
		flags |= 2
	}
	buf.WriteByte_(flags)
}

func (f *Fory) readStreamHeader(buf *ByteBuffer) (isNull bool, err error) {
	magic := buf.ReadInt16()
	if magic != MAGIC_NUMBER {
		return false, invalidDataErr("bad magic number %x, expected %x", magic, MAGIC_NUMBER)
	}
	flags := buf.ReadByte_()
	return flags&2 != 0, nil
}

// Marshal encodes value to a freshly allocated byte slice.
func (f *Fory) Marshal(value interface{}) ([]byte, error) {
	buf := NewByteBuffer(nil)
	if err := f.Serialize(buf, value, nil); err != nil {
		return nil, err
	}
	return buf.GetByteSlice(0, buf.WriterIndex()), nil
}

// Unmarshal decodes data into dest, which must be a non-nil pointer.
func (f *Fory) Unmarshal(data []byte, dest interface{}) error {
	buf := NewByteBuffer(data)
	return f.Deserialize(buf, dest, nil)
}

// Serialize writes value into buf. callback is never invoked: every
// payload, binary blobs included, is written in-band into buf, and no
// BufferObject is produced.
func (f *Fory) Serialize(buf *ByteBuffer, value interface{}, callback func(BufferObject) bool) error {
	f.reset()
	rv := reflect.ValueOf(value)
	f.writeStreamHeader(buf, !rv.IsValid())
	if !rv.IsValid() {
		return nil
	}
	return f.WriteReferencable(buf, rv)
}

// Deserialize reads a value written by Serialize into dest. Malformed or
// truncated wire input surfaces as an error even when the underlying
// buffer accessors panic (overlong varint, bad padding, out-of-bounds
// read): a single recover at this boundary converts any such panic into
// the CodecError it already carries, so callers never see a raw panic
// escape the package for bad input.
func (f *Fory) Deserialize(buf *ByteBuffer, dest interface{}, buffers []*ByteBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = invalidDataErr("panic while decoding: %v", r)
			}
		}
	}()
	f.reset()
	isNull, err := f.readStreamHeader(buf)
	if err != nil {
		return err
	}
	if isNull {
		return nil
	}
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() {
		return typeMismatchErr("*T", dest)
	}
	v, err := f.ReadReferencable(buf, destVal.Elem().Type())
	if err != nil {
		return err
	}
	destVal.Elem().Set(v.Convert(destVal.Elem().Type()))
	return nil
}

// WriteReferencable writes value's ref/null flag followed, if needed, by
// its payload via the Serializer resolved for its type.
func (f *Fory) WriteReferencable(buf *ByteBuffer, value reflect.Value) error {
	if value.Kind() == reflect.Interface {
		value = value.Elem()
	}
	needsWrite := f.refResolver.WriteRefOrNull(buf, value)
	if !needsWrite {
		return nil
	}
	serializer, err := f.typeResolver.getSerializerByType(value.Type(), false)
	if err != nil {
		return err
	}
	if err := f.typeResolver.writeType(buf, value.Type()); err != nil {
		return err
	}
	return serializer.WriteData(f, buf, value)
}

// ReadReferencable is WriteReferencable's mirror.
func (f *Fory) ReadReferencable(buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	flag := f.refReader.ReadRefFlag(buf)
	if flag == NullFlag {
		return reflect.Zero(type_), nil
	}
	if flag == RefFlag {
		id := int32(buf.ReadVarUint32())
		v, ok := f.refReader.GetReadObject(id)
		if !ok {
			return reflect.Value{}, refErr("back-reference %d not yet populated", id)
		}
		return v, nil
	}
	var refID int32 = -1
	if flag == RefValueFlag {
		refID = f.refReader.PreserveRefId()
	}
	actualType, err := f.typeResolver.readType(buf)
	if err != nil {
		return reflect.Value{}, err
	}
	if actualType == nil {
		actualType = type_
	}
	serializer, err := f.typeResolver.getSerializerByType(actualType, false)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := serializer.ReadData(f, buf, actualType)
	if err != nil {
		return reflect.Value{}, err
	}
	if refID >= 0 {
		f.refReader.SetReadObject(refID, v)
	}
	return v, nil
}

// RegisterTagType registers value's type under tag so both schema-
// consistent dispatch (by reflect.Type) and tag-based dispatch (for
// cross-language payloads that carry the tag instead of a local type)
// resolve to the same Serializer.
func (f *Fory) RegisterTagType(tag string, value interface{}) error {
	return f.typeResolver.RegisterTypeTag(reflect.ValueOf(value), tag)
}

// RegisterCompatible registers value's type in schema-evolving mode: the
// struct's field list is written as a full TypeMeta so readers running
// an older or newer struct version can still decode it.
func (f *Fory) RegisterCompatible(tag string, value interface{}) error {
	type_ := reflect.TypeOf(value)
	if type_.Kind() == reflect.Ptr {
		type_ = type_.Elem()
	}
	serializer := &compatibleStructSerializer{type_: type_, typeTag: tag}
	f.typeResolver.typeToSerializers[type_] = serializer
	f.typeResolver.typeToTypeInfo[type_] = "@" + tag
	f.typeResolver.typeInfoToType["@"+tag] = type_
	return nil
}

// BufferObject is an out-of-band binary payload: large binary blobs can be
// shipped alongside the main stream instead of being copied into it, e.g.
// so a transport can scatter-gather them directly from their origin
// buffer.
type BufferObject interface {
	TotalBytes() int
	WriteTo(buf *ByteBuffer)
	ToBuffer() *ByteBuffer
}

type sliceBufferObject struct {
	data []byte
}

func (s *sliceBufferObject) TotalBytes() int { return len(s.data) }
func (s *sliceBufferObject) WriteTo(buf *ByteBuffer) {
	buf.WriteBinary(s.data)
}
func (s *sliceBufferObject) ToBuffer() *ByteBuffer {
	return NewByteBuffer(s.data)
}

// NewBufferObject wraps a raw byte slice as a BufferObject.
func NewBufferObject(data []byte) BufferObject {
	return &sliceBufferObject{data: data}
}

// Marshal encodes value using a fresh, default-configured Fory instance.
func Marshal(value interface{}) ([]byte, error) {
	return NewFory(false).Marshal(value)
}

// Unmarshal decodes data using a fresh, default-configured Fory instance.
func Unmarshal(data []byte, dest interface{}) error {
	return NewFory(false).Unmarshal(data, dest)
}
