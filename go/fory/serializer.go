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
	"encoding/binary"
	"reflect"
	"time"
	"unicode/utf16"
)

// Serializer is implemented by every type fory knows how to put on the
// wire. WriteData/ReadData handle the payload only; ref and null flags
// are handled by the caller via RefResolver/RefReader so every
// serializer composes uniformly with reference tracking.
type Serializer interface {
	TypeId() TypeId
	NeedWriteRef() bool
	WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error
	ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error)
}

type boolSerializer struct{}

func (boolSerializer) TypeId() TypeId       { return BOOL }
func (boolSerializer) NeedWriteRef() bool   { return false }
func (boolSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteBool(value.Bool())
	return nil
}
func (boolSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadBool()), nil
}

type byteSerializer struct{}

func (byteSerializer) TypeId() TypeId     { return UINT8 }
func (byteSerializer) NeedWriteRef() bool { return false }
func (byteSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteByte_(byte(value.Uint()))
	return nil
}
func (byteSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadByte_()), nil
}

type int8Serializer struct{}

func (int8Serializer) TypeId() TypeId     { return INT8 }
func (int8Serializer) NeedWriteRef() bool { return false }
func (int8Serializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteInt8(int8(value.Int()))
	return nil
}
func (int8Serializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadInt8()), nil
}

type int16Serializer struct{}

func (int16Serializer) TypeId() TypeId     { return INT16 }
func (int16Serializer) NeedWriteRef() bool { return false }
func (int16Serializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteInt16(int16(value.Int()))
	return nil
}
func (int16Serializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadInt16()), nil
}

type int32Serializer struct{}

func (int32Serializer) TypeId() TypeId     { return VAR_INT32 }
func (int32Serializer) NeedWriteRef() bool { return false }
func (int32Serializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteVarInt32(int32(value.Int()))
	return nil
}
func (int32Serializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadVarInt32()), nil
}

type int64Serializer struct{}

func (int64Serializer) TypeId() TypeId     { return VAR_INT64 }
func (int64Serializer) NeedWriteRef() bool { return false }
func (int64Serializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteVarInt64(value.Int())
	return nil
}
func (int64Serializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadVarInt64()), nil
}

// intSerializer backs Go's platform-width int with the same VAR_INT64
// wire encoding so a stream is portable across 32/64-bit builds.
type intSerializer struct{}

func (intSerializer) TypeId() TypeId     { return VAR_INT64 }
func (intSerializer) NeedWriteRef() bool { return false }
func (intSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteVarInt64(value.Int())
	return nil
}
func (intSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(int(buf.ReadVarInt64())), nil
}

type float32Serializer struct{}

func (float32Serializer) TypeId() TypeId     { return FLOAT }
func (float32Serializer) NeedWriteRef() bool { return false }
func (float32Serializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteFloat32(float32(value.Float()))
	return nil
}
func (float32Serializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadFloat32()), nil
}

type float64Serializer struct{}

func (float64Serializer) TypeId() TypeId     { return DOUBLE }
func (float64Serializer) NeedWriteRef() bool { return false }
func (float64Serializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	buf.WriteFloat64(value.Float())
	return nil
}
func (float64Serializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(buf.ReadFloat64()), nil
}

type stringSerializer struct{}

func (stringSerializer) TypeId() TypeId     { return STRING }
func (stringSerializer) NeedWriteRef() bool { return false }
func (stringSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	WriteString(buf, value.String())
	return nil
}
func (stringSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	s, err := ReadStringChecked(f, buf)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(s), nil
}

// String encoding selectors packed into WriteString's header low 2 bits.
const (
	stringEncodingLatin1 = 0
	stringEncodingUTF16LE = 1
	stringEncodingUTF8    = 2
)

// chooseStringEncoding picks whichever of LATIN1/UTF16-LE/UTF-8 produces
// the fewest payload bytes for s. UTF-8 wins ties against LATIN1 and
// UTF-16LE since it's the only one of the three every peer is guaranteed
// to decode without a language-specific codepage assumption.
func chooseStringEncoding(s string) (encoding byte, payload []byte) {
	utf8Bytes := unsafeGetBytes(s)
	latin1OK := true
	for _, r := range s {
		if r > 0xFF {
			latin1OK = false
			break
		}
	}
	if latin1OK {
		latin1Bytes := make([]byte, 0, len(s))
		for _, r := range s {
			latin1Bytes = append(latin1Bytes, byte(r))
		}
		if len(latin1Bytes) < len(utf8Bytes) {
			return stringEncodingLatin1, latin1Bytes
		}
	}
	utf16Bytes := encodeUTF16LE(s)
	if len(utf16Bytes) < len(utf8Bytes) {
		return stringEncodingUTF16LE, utf16Bytes
	}
	return stringEncodingUTF8, utf8Bytes
}

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

func decodeUTF16LE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", invalidDataErr("utf16 string payload has odd byte length %d", len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

// WriteString emits a varuint header (length<<2 | encoding selector)
// followed by the payload in whichever of LATIN1/UTF16-LE/UTF-8 encodes
// s in the fewest bytes.
func WriteString(buf *ByteBuffer, s string) {
	encoding, payload := chooseStringEncoding(s)
	buf.WriteVarUint64((uint64(len(payload)) << 2) | uint64(encoding))
	buf.WriteBinary(payload)
}

// ReadString is WriteString's mirror. It panics (caught by the decode
// boundary's recover) on malformed input the same way the rest of the
// buffer accessors do; ReadStringChecked is preferred wherever a *Fory is
// available since it also enforces maxBinaryLength.
func ReadString(buf *ByteBuffer) string {
	s, err := readStringPayload(buf, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// ReadStringChecked is ReadString plus a maxBinaryLength check on the
// decoded byte length, performed before the payload is allocated.
func ReadStringChecked(f *Fory, buf *ByteBuffer) (string, error) {
	return readStringPayload(buf, f)
}

func readStringPayload(buf *ByteBuffer, f *Fory) (string, error) {
	header := buf.ReadVarUint64()
	encoding := byte(header & 0x3)
	length := int(header >> 2)
	if f != nil {
		if err := f.checkBinaryLength(length); err != nil {
			return "", err
		}
	}
	payload := buf.ReadBinary(length)
	switch encoding {
	case stringEncodingLatin1:
		runes := make([]rune, len(payload))
		for i, b := range payload {
			runes[i] = rune(b)
		}
		return string(runes), nil
	case stringEncodingUTF16LE:
		return decodeUTF16LE(payload)
	case stringEncodingUTF8:
		return string(payload), nil
	default:
		return "", invalidDataErr("unknown string encoding selector %d", encoding)
	}
}

// ptrToStringSerializer lets *string participate as a Serializer so
// struct fields typed *string reuse the same dispatch path as string.
type ptrToStringSerializer struct{}

func (ptrToStringSerializer) TypeId() TypeId     { return STRING }
func (ptrToStringSerializer) NeedWriteRef() bool { return true }
func (ptrToStringSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	WriteString(buf, value.Elem().String())
	return nil
}
func (ptrToStringSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	s, err := ReadStringChecked(f, buf)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(&s), nil
}

// ptrToValueSerializer wraps an element Serializer to handle *T for an
// arbitrary non-struct T (struct pointers go through ptrToStructSerializer
// instead, since they also need the schema machinery).
type ptrToValueSerializer struct {
	elemSerializer Serializer
}

func (p *ptrToValueSerializer) TypeId() TypeId     { return p.elemSerializer.TypeId() }
func (p *ptrToValueSerializer) NeedWriteRef() bool { return true }
func (p *ptrToValueSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	return p.elemSerializer.WriteData(f, buf, value.Elem())
}
func (p *ptrToValueSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	elemVal, err := p.elemSerializer.ReadData(f, buf, type_.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(type_.Elem())
	ptr.Elem().Set(elemVal.Convert(type_.Elem()))
	return ptr, nil
}

// Date is a naive (timezone-less) calendar date, wire type LOCAL_DATE.
type Date struct {
	Year  int
	Month int
	Day   int
}

type dateSerializer struct{}

func (dateSerializer) TypeId() TypeId     { return LOCAL_DATE }
func (dateSerializer) NeedWriteRef() bool { return false }
func (dateSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	d := value.Interface().(Date)
	days := dateToEpochDays(d)
	buf.WriteInt32(days)
	return nil
}
func (dateSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	days := buf.ReadInt32()
	return reflect.ValueOf(epochDaysToDate(days)), nil
}

func dateToEpochDays(d Date) int32 {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return int32(t.Unix() / 86400)
}

func epochDaysToDate(days int32) Date {
	t := time.Unix(int64(days)*86400, 0).UTC()
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

type timeSerializer struct{}

func (timeSerializer) TypeId() TypeId     { return TIMESTAMP }
func (timeSerializer) NeedWriteRef() bool { return false }
func (timeSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	t := value.Interface().(time.Time)
	buf.WriteInt64(t.UnixMicro())
	return nil
}
func (timeSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	micros := buf.ReadInt64()
	return reflect.ValueOf(time.UnixMicro(micros)), nil
}

// GenericSet is the xlang-facing representation of a Go set: fory has no
// native Go set type, so callers that need FORY_SET semantics wrap their
// elements in GenericSet explicitly.
type GenericSet struct {
	values []interface{}
}

func (s *GenericSet) Add(v ...interface{}) { s.values = append(s.values, v...) }
func (s *GenericSet) Len() int           { return len(s.values) }
func (s *GenericSet) Values() []interface{} {
	return s.values
}

type setSerializer struct{}

func (setSerializer) TypeId() TypeId     { return FORY_SET }
func (setSerializer) NeedWriteRef() bool { return true }
func (setSerializer) WriteData(f *Fory, buf *ByteBuffer, value reflect.Value) error {
	s := value.Interface().(GenericSet)
	buf.WriteVarUint32(uint32(len(s.values)))
	writeCollectionHeader(buf, f.referenceTracking, true, false, false)
	for _, v := range s.values {
		if err := f.WriteReferencable(buf, reflect.ValueOf(v)); err != nil {
			return err
		}
	}
	return nil
}
func (setSerializer) ReadData(f *Fory, buf *ByteBuffer, type_ reflect.Type) (reflect.Value, error) {
	n := int(buf.ReadVarUint32())
	if err := f.checkCollectionLength(n); err != nil {
		return reflect.Value{}, err
	}
	readCollectionHeader(buf)
	s := GenericSet{values: make([]interface{}, 0, n)}
	for i := 0; i < n; i++ {
		v, err := f.ReadReferencable(buf, interfaceType)
		if err != nil {
			return reflect.Value{}, err
		}
		s.values = append(s.values, v.Interface())
	}
	return reflect.ValueOf(s), nil
}
