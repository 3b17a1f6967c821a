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
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario-pinned wire encodings: each test fixes an exact byte sequence
// for one narrow encoding step rather than round-tripping a whole stream,
// so a future change to a codec's byte layout is caught at the point it
// actually breaks wire compatibility.

func TestWireVarInt32ZigzagBytes(t *testing.T) {
	buf := NewByteBuffer(nil)
	buf.WriteVarInt32(300)
	require.Equal(t, []byte{0xD8, 0x04}, buf.GetByteSlice(0, buf.WriterIndex()))

	read := NewByteBuffer(buf.GetByteSlice(0, buf.WriterIndex()))
	require.Equal(t, int32(300), read.ReadVarInt32())
}

func TestWireStringEncodingSelectsUTF8OnTie(t *testing.T) {
	// "hi" fits LATIN1 and UTF-8 in the same 2 bytes; UTF-8 wins the tie.
	encoding, payload := chooseStringEncoding("hi")
	require.Equal(t, byte(stringEncodingUTF8), encoding)
	require.Equal(t, []byte("hi"), payload)

	buf := NewByteBuffer(nil)
	WriteString(buf, "hi")
	require.Equal(t, []byte{0x0A, 'h', 'i'}, buf.GetByteSlice(0, buf.WriterIndex()))
}

func TestWireStringEncodingPrefersLatin1WhenShorter(t *testing.T) {
	// every rune <= 0xFF and LATIN1 is strictly shorter than its UTF-8
	// encoding as soon as a rune exceeds 0x7F.
	s := "éé" // "éé": 2 bytes as LATIN1, 4 bytes as UTF-8.
	encoding, payload := chooseStringEncoding(s)
	require.Equal(t, byte(stringEncodingLatin1), encoding)
	require.Equal(t, []byte{0xe9, 0xe9}, payload)
}

func TestWireStringUTF16OddLengthIsError(t *testing.T) {
	buf := NewByteBuffer(nil)
	payloadLen := 3 // odd: malformed UTF-16LE.
	buf.WriteVarUint64((uint64(payloadLen) << 2) | uint64(stringEncodingUTF16LE))
	buf.WriteBinary([]byte{0x01, 0x00, 0x02})

	f := NewFory(false)
	_, err := ReadStringChecked(f, buf)
	require.Error(t, err)
	var codecErr *CodecError
	require.True(t, asCodecError(err, &codecErr))
	require.Equal(t, InvalidData, codecErr.Kind)
}

func TestWireInt32ArrayEmitsByteLength(t *testing.T) {
	buf := NewByteBuffer(nil)
	err := int32SliceSerializer{}.WriteData(nil, buf, reflect.ValueOf([]int32{1, 2, 3}))
	require.Nil(t, err)
	require.Equal(t, []byte{
		0x0c, // varuint32(12): 3 elements * 4 bytes, not element count 3.
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}, buf.GetByteSlice(0, buf.WriterIndex()))

	read := NewByteBuffer(buf.GetByteSlice(0, buf.WriterIndex()))
	f := NewFory(false)
	v, err := int32SliceSerializer{}.ReadData(f, read, reflect.TypeOf([]int32{}))
	require.Nil(t, err)
	require.Equal(t, []int32{1, 2, 3}, v.Interface())
}

func TestWireCollectionLengthCapRejected(t *testing.T) {
	f := NewFory(false)
	f.SetMaxCollectionLength(2)
	buf := NewByteBuffer(nil)
	buf.WriteVarUint32(3)
	writeCollectionHeader(buf, false, true, false, false)
	_, err := sliceSerializer{}.ReadData(f, buf, reflect.TypeOf([]interface{}{}))
	require.Error(t, err)
	var codecErr *CodecError
	require.True(t, asCodecError(err, &codecErr))
	require.Equal(t, InvalidData, codecErr.Kind)
}

func TestWireBinaryLengthCapRejected(t *testing.T) {
	f := NewFory(false)
	f.SetMaxBinaryLength(1)
	buf := NewByteBuffer(nil)
	WriteString(buf, "too long")
	_, err := ReadStringChecked(f, buf)
	require.Error(t, err)
	var codecErr *CodecError
	require.True(t, asCodecError(err, &codecErr))
	require.Equal(t, InvalidData, codecErr.Kind)
}

func TestWireMapChunkSizeExceedingRemainingIsError(t *testing.T) {
	buf := NewByteBuffer(nil)
	buf.WriteVarUint32(1) // only 1 entry declared overall
	header := byte(mapKeyDeclared | mapValueDeclared)
	buf.WriteByte_(header)
	buf.WriteByte_(5) // chunk claims 5 entries, more than the 1 declared
	f := NewFory(false)
	m := mapSerializer{keySerializer: stringSerializer{}, valueSerializer: int32Serializer{}}
	_, err := m.ReadData(f, buf, reflect.TypeOf(map[string]int32{}))
	require.Error(t, err)
	var codecErr *CodecError
	require.True(t, asCodecError(err, &codecErr))
	require.Equal(t, InvalidData, codecErr.Kind)
}

func TestWireMapBatchesDeclaredNonNullEntries(t *testing.T) {
	f := NewFory(false)
	m := mapSerializer{keySerializer: stringSerializer{}, valueSerializer: int32Serializer{}}
	value := map[string]int32{"a": 1, "b": 2, "c": 3}
	buf := NewByteBuffer(nil)
	require.Nil(t, m.WriteData(f, buf, reflect.ValueOf(value)))

	read := NewByteBuffer(buf.GetByteSlice(0, buf.WriterIndex()))
	n := int(read.ReadVarUint32())
	require.Equal(t, 3, n)
	header := read.ReadByte_()
	require.Equal(t, byte(mapKeyDeclared|mapValueDeclared), header)
	chunkSize := int(read.ReadByte_())
	require.Equal(t, n, chunkSize)

	out, err := m.ReadData(f, NewByteBuffer(buf.GetByteSlice(0, buf.WriterIndex())), reflect.TypeOf(map[string]int32{}))
	require.Nil(t, err)
	require.Equal(t, value, out.Interface())
}

// asCodecError is errors.As without importing the errors package twice
// across this file's assertions.
func asCodecError(err error, target **CodecError) bool {
	type causer interface{ Unwrap() error }
	for err != nil {
		if ce, ok := err.(*CodecError); ok {
			*target = ce
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Unwrap()
	}
	return false
}

func TestWireCircularReferenceRoundTrip(t *testing.T) {
	type Node struct {
		Name string
		Next *Node
	}
	f := NewFory(true)
	require.Nil(t, f.RegisterTagType("scenario.Node", Node{}))
	a := &Node{Name: "a"}
	a.Next = a

	bytes, err := f.Marshal(a)
	require.Nil(t, err)

	var out *Node
	require.Nil(t, f.Unmarshal(bytes, &out))
	require.Equal(t, "a", out.Name)
	require.Same(t, out, out.Next)
}

func TestWireSchemaEvolutionTolerantOfAddedAndRemovedFields(t *testing.T) {
	type writerShape struct {
		Name string
		Age  int32
	}
	type readerShape struct {
		Name string
	}

	fw := NewFory(false)
	require.Nil(t, fw.RegisterCompatible("scenario.Person", writerShape{}))
	bytes, err := fw.Marshal(writerShape{Name: "a", Age: 30})
	require.Nil(t, err)

	fr := NewFory(false)
	require.Nil(t, fr.RegisterCompatible("scenario.Person", readerShape{}))
	var out readerShape
	require.Nil(t, fr.Unmarshal(bytes, &out))
	require.Equal(t, "a", out.Name)
}

func TestWireSharedMetaOmitsEnvelopeOnSecondOccurrence(t *testing.T) {
	type Leaf struct {
		V int32
	}
	type Pair struct {
		A Leaf
		B Leaf
	}
	f := NewFory(false)
	require.Nil(t, f.RegisterCompatible("scenario.Leaf", Leaf{}))
	require.Nil(t, f.RegisterCompatible("scenario.Pair", Pair{}))

	bytesTwo, err := f.Marshal(Pair{A: Leaf{V: 1}, B: Leaf{V: 2}})
	require.Nil(t, err)

	bytesOne, err := f.Marshal(Leaf{V: 1})
	require.Nil(t, err)

	// A struct sharing its TypeMeta envelope on the second occurrence
	// within one stream costs fewer additional bytes than a second,
	// independent top-level stream for the same struct would.
	require.Less(t, len(bytesTwo)-len(bytesOne), len(bytesOne))

	var out Pair
	require.Nil(t, f.Unmarshal(bytesTwo, &out))
	require.Equal(t, int32(1), out.A.V)
	require.Equal(t, int32(2), out.B.V)
}
