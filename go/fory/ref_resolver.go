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

// Ref flags written ahead of every referencable value (spec glossary
// "RefResolver"): NULL and NOT_NULL_VALUE are terminal, REF/REF_VALUE
// only appear when reference tracking is enabled for the stream.
const (
	NullFlag         int8 = -3
	RefFlag          int8 = -2
	NotNullValueFlag int8 = -1
	RefValueFlag     int8 = 0
)

// RefResolver assigns and tracks ref ids on the write side. Ref ids are
// assigned by identity (pointer address / map or slice header), so a
// cyclic object graph re-encountered mid-traversal is written as a
// back-reference instead of recursing forever.
type RefResolver struct {
	trackingRef bool
	writtenIds  map[uintptr]int32
	nextId      int32
}

func NewRefResolver(trackingRef bool) *RefResolver {
	return &RefResolver{trackingRef: trackingRef, writtenIds: make(map[uintptr]int32)}
}

// newRefResolver is the unexported spelling used by package-internal
// construction paths.
func newRefResolver(trackingRef bool) *RefResolver {
	return NewRefResolver(trackingRef)
}

// WriteRefOrNull writes the appropriate flag for value and reports
// whether the caller must still serialize the referenced payload.
func (r *RefResolver) WriteRefOrNull(buf *ByteBuffer, value reflect.Value) (needsWrite bool) {
	if !value.IsValid() || isNilValue(value) {
		buf.WriteInt8(NullFlag)
		return false
	}
	if !r.trackingRef {
		buf.WriteInt8(NotNullValueFlag)
		return true
	}
	addr, ok := identityOf(value)
	if !ok {
		buf.WriteInt8(NotNullValueFlag)
		return true
	}
	if id, seen := r.writtenIds[addr]; seen {
		buf.WriteInt8(RefFlag)
		buf.WriteVarUint32(uint32(id))
		return false
	}
	id := r.nextId
	r.nextId++
	r.writtenIds[addr] = id
	buf.WriteInt8(RefValueFlag)
	return true
}

func (r *RefResolver) reset() {
	if len(r.writtenIds) > 0 {
		r.writtenIds = make(map[uintptr]int32)
	}
	r.nextId = 0
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func identityOf(v reflect.Value) (uintptr, bool) {
	switch v.Kind() {
	case reflect.Ptr:
		return v.Pointer(), true
	case reflect.Map, reflect.Slice:
		return v.Pointer(), true
	default:
		return 0, false
	}
}

// RefReader is the read-side counterpart of RefResolver. Because a Go
// value doesn't exist until it is fully read, cyclic graphs are supported
// by reserving a slot before recursing into a referencable value's
// children and patching it in once the value is constructed.
type RefReader struct {
	refs []reflect.Value
}

func NewRefReader() *RefReader {
	return &RefReader{}
}

// ReadRefFlag reads the flag written by WriteRefOrNull.
func (r *RefReader) ReadRefFlag(buf *ByteBuffer) int8 {
	return buf.ReadInt8()
}

// PreserveRefId reserves the next ref id slot so a cyclic value can be
// referenced by descendants before it is fully populated.
func (r *RefReader) PreserveRefId() int32 {
	id := int32(len(r.refs))
	r.refs = append(r.refs, reflect.Value{})
	return id
}

// SetReadObject stores the fully constructed value for id so that later
// RefFlag back-references resolve to it.
func (r *RefReader) SetReadObject(id int32, value reflect.Value) {
	if int(id) < len(r.refs) {
		r.refs[id] = value
	}
}

// GetReadObject returns the value previously stored under id via
// SetReadObject, following a RefFlag back-reference.
func (r *RefReader) GetReadObject(id int32) (reflect.Value, bool) {
	if int(id) < 0 || int(id) >= len(r.refs) {
		return reflect.Value{}, false
	}
	v := r.refs[id]
	return v, v.IsValid()
}

func (r *RefReader) reset() {
	if len(r.refs) > 0 {
		r.refs = nil
	}
}
