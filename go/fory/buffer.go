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
	"math"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

// growThreshold is the capacity above which growth switches from the
// amortized 4x strategy to a gentler 1.5x strategy.
const growThreshold = 100 * 1024 * 1024

// StreamReader lets a ByteBuffer pull more bytes when a read runs past the
// writer index, e.g. for a streaming transport. The core never blocks
// except inside this callback.
type StreamReader interface {
	// FillBuffer is asked to make at least minLength additional bytes
	// readable; it returns the number of bytes it actually appended.
	FillBuffer(buf *ByteBuffer, minLength int) (int, error)
}

// ByteBuffer is the random-access byte container every other layer of the
// codec is built on: independent read/write cursors, little-endian fixed
// width accessors, and the variable-length integer codecs.
type ByteBuffer struct {
	data []byte

	readerIndex int
	writerIndex int

	// offHeap backs data with a memory-mapped anonymous region instead of
	// a heap slice, backed by a fixed off-heap mmap region. It upgrades to
	// a heap slice the first time growth is required.
	offHeap     bool
	mmapRegion  mmap.MMap
	streamReader StreamReader
}

// NewByteBuffer wraps bytes (borrowed, not copied) for reading, or starts a
// fresh empty heap buffer for writing if bytes is nil.
func NewByteBuffer(bytes []byte) *ByteBuffer {
	if bytes == nil {
		bytes = make([]byte, 0, 32)
	}
	return &ByteBuffer{data: bytes, writerIndex: len(bytes)}
}

// NewOffHeapByteBuffer maps size bytes of anonymous memory and returns a
// fresh Buffer for writing over it. Growth past size upgrades it to a
// heap-backed slice, preserving already-written bytes.
func NewOffHeapByteBuffer(size int) (*ByteBuffer, error) {
	region, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, err
	}
	return &ByteBuffer{data: []byte(region), offHeap: true, mmapRegion: region}, nil
}

// Release returns any off-heap region to the OS. It is a no-op for
// heap-backed buffers (including ones that were off-heap and then grew).
func (b *ByteBuffer) Release() error {
	if b.offHeap && b.mmapRegion != nil {
		err := b.mmapRegion.Unmap()
		b.mmapRegion = nil
		b.offHeap = false
		return err
	}
	return nil
}

func (b *ByteBuffer) SetStreamReader(r StreamReader) { b.streamReader = r }

func (b *ByteBuffer) WriterIndex() int { return b.writerIndex }
func (b *ByteBuffer) ReaderIndex() int { return b.readerIndex }

func (b *ByteBuffer) SetWriterIndex(idx int) { b.writerIndex = idx }
func (b *ByteBuffer) SetReaderIndex(idx int)  { b.readerIndex = idx }

// GetByteSlice returns the bytes in [start, end) without copying.
func (b *ByteBuffer) GetByteSlice(start, end int) []byte {
	return b.data[start:end]
}

// grow ensures at least `needed` more bytes are writable past writerIndex.
func (b *ByteBuffer) grow(needed int) {
	required := b.writerIndex + needed
	if required <= len(b.data) {
		return
	}
	capacity := len(b.data)
	var newCap int
	if capacity > growThreshold {
		newCap = capacity + capacity/2
	} else {
		newCap = capacity * 4
	}
	if newCap < required {
		newCap = required
	}
	if newCap < 32 {
		newCap = 32
	}
	newData := make([]byte, newCap)
	copy(newData, b.data[:b.writerIndex])
	b.data = newData
	if b.offHeap {
		region := b.mmapRegion
		b.mmapRegion = nil
		b.offHeap = false
		_ = region.Unmap()
	}
}

func (b *ByteBuffer) ensureReadable(n int) error {
	for b.readerIndex+n > b.writerIndex {
		if b.streamReader == nil {
			return outOfBoundsErr("read %d bytes past writer index %d (capacity %d)", n, b.writerIndex, len(b.data))
		}
		got, err := b.streamReader.FillBuffer(b, n-(b.writerIndex-b.readerIndex))
		if err != nil {
			return err
		}
		if got <= 0 {
			return outOfBoundsErr("stream reader made no progress")
		}
	}
	return nil
}

// ---- fixed width writes ----

func (b *ByteBuffer) WriteBool(v bool) {
	if v {
		b.WriteByte_(1)
	} else {
		b.WriteByte_(0)
	}
}

func (b *ByteBuffer) WriteByte_(v byte) {
	b.grow(1)
	b.data[b.writerIndex] = v
	b.writerIndex++
}

func (b *ByteBuffer) WriteInt8(v int8) { b.WriteByte_(byte(v)) }

func (b *ByteBuffer) WriteInt16(v int16) {
	b.grow(2)
	binary.LittleEndian.PutUint16(b.data[b.writerIndex:], uint16(v))
	b.writerIndex += 2
}

func (b *ByteBuffer) WriteInt32(v int32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.data[b.writerIndex:], uint32(v))
	b.writerIndex += 4
}

func (b *ByteBuffer) WriteInt64(v int64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.data[b.writerIndex:], uint64(v))
	b.writerIndex += 8
}

func (b *ByteBuffer) WriteFloat32(v float32) { b.WriteInt32(int32(math.Float32bits(v))) }
func (b *ByteBuffer) WriteFloat64(v float64) { b.WriteInt64(int64(math.Float64bits(v))) }

// WriteBinary appends raw bytes verbatim, growing as needed.
func (b *ByteBuffer) WriteBinary(bytes []byte) {
	b.grow(len(bytes))
	copy(b.data[b.writerIndex:], bytes)
	b.writerIndex += len(bytes)
}

// ---- fixed width reads ----

func (b *ByteBuffer) ReadBool() bool { return b.ReadByte_() != 0 }

func (b *ByteBuffer) ReadByte_() byte {
	if err := b.ensureReadable(1); err != nil {
		panic(err)
	}
	v := b.data[b.readerIndex]
	b.readerIndex++
	return v
}

func (b *ByteBuffer) ReadInt8() int8 { return int8(b.ReadByte_()) }

func (b *ByteBuffer) ReadInt16() int16 {
	if err := b.ensureReadable(2); err != nil {
		panic(err)
	}
	v := binary.LittleEndian.Uint16(b.data[b.readerIndex:])
	b.readerIndex += 2
	return int16(v)
}

func (b *ByteBuffer) ReadInt32() int32 {
	if err := b.ensureReadable(4); err != nil {
		panic(err)
	}
	v := binary.LittleEndian.Uint32(b.data[b.readerIndex:])
	b.readerIndex += 4
	return int32(v)
}

func (b *ByteBuffer) ReadInt64() int64 {
	if err := b.ensureReadable(8); err != nil {
		panic(err)
	}
	v := binary.LittleEndian.Uint64(b.data[b.readerIndex:])
	b.readerIndex += 8
	return int64(v)
}

func (b *ByteBuffer) ReadFloat32() float32 { return math.Float32frombits(uint32(b.ReadInt32())) }
func (b *ByteBuffer) ReadFloat64() float64 { return math.Float64frombits(uint64(b.ReadInt64())) }

// ReadBinary returns a copy of the next length bytes.
func (b *ByteBuffer) ReadBinary(length int) []byte {
	if err := b.ensureReadable(length); err != nil {
		panic(err)
	}
	out := make([]byte, length)
	copy(out, b.data[b.readerIndex:b.readerIndex+length])
	b.readerIndex += length
	return out
}

// Slice returns a new ByteBuffer sharing the backing array over
// [start, start+length), for zero-copy hand-off of out-of-band payloads.
func (b *ByteBuffer) Slice(start, length int) *ByteBuffer {
	return &ByteBuffer{data: b.data[start : start+length], writerIndex: length}
}

// ---- variable-length integers ----

// WriteVarUint32 emits 1-5 bytes: 7 payload bits per byte, high bit
// continuation, except the final byte of a 5-byte encoding which carries a
// full 8 bits.
func (b *ByteBuffer) WriteVarUint32(v uint32) int {
	start := b.writerIndex
	for i := 0; i < 4; i++ {
		if v>>7 == 0 {
			b.WriteByte_(byte(v))
			return b.writerIndex - start
		}
		b.WriteByte_(byte(v&0x7f) | 0x80)
		v >>= 7
	}
	b.WriteByte_(byte(v))
	return b.writerIndex - start
}

// ReadVarUint32 is the symmetric decoder. A final byte (5th) that still has
// its continuation bit set is InvalidData.
func (b *ByteBuffer) ReadVarUint32() uint32 {
	var result uint32
	for i := 0; i < 4; i++ {
		b_ := b.ReadByte_()
		result |= uint32(b_&0x7f) << (7 * i)
		if b_&0x80 == 0 {
			return result
		}
	}
	last := b.ReadByte_()
	if last&0x80 != 0 {
		panic(invalidDataErr("varuint32 overlong: continuation bit set on final byte"))
	}
	result |= uint32(last) << 28
	return result
}

// WriteVarUint64 emits 1-9 bytes with the same scheme, 9th byte full width.
func (b *ByteBuffer) WriteVarUint64(v uint64) int {
	start := b.writerIndex
	for i := 0; i < 8; i++ {
		if v>>7 == 0 {
			b.WriteByte_(byte(v))
			return b.writerIndex - start
		}
		b.WriteByte_(byte(v&0x7f) | 0x80)
		v >>= 7
	}
	b.WriteByte_(byte(v))
	return b.writerIndex - start
}

func (b *ByteBuffer) ReadVarUint64() uint64 {
	var result uint64
	for i := 0; i < 8; i++ {
		b_ := b.ReadByte_()
		result |= uint64(b_&0x7f) << (7 * i)
		if b_&0x80 == 0 {
			return result
		}
	}
	last := b.ReadByte_()
	result |= uint64(last) << 56
	return result
}

func zigzag32(n int32) uint32 { return uint32((n << 1) ^ (n >> 31)) }
func unzigzag32(n uint32) int32 {
	return int32(n>>1) ^ -int32(n&1)
}

func zigzag64(n int64) uint64 { return uint64((n << 1) ^ (n >> 63)) }
func unzigzag64(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// WriteVarInt32 zigzag-encodes then emits as varuint32.
func (b *ByteBuffer) WriteVarInt32(v int32) int { return b.WriteVarUint32(zigzag32(v)) }
func (b *ByteBuffer) ReadVarInt32() int32       { return unzigzag32(b.ReadVarUint32()) }

// WriteVarInt64 zigzag-encodes then emits as varuint64.
func (b *ByteBuffer) WriteVarInt64(v int64) int { return b.WriteVarUint64(zigzag64(v)) }
func (b *ByteBuffer) ReadVarInt64() int64       { return unzigzag64(b.ReadVarUint64()) }

// WriteTaggedInt64 emits value<<1 in 4 bytes (low bit 0) when it fits a
// signed 30-bit range, else a 0x01 tag byte followed by the full 8-byte
// little-endian value.
func (b *ByteBuffer) WriteTaggedInt64(v int64) {
	const limit = 1 << 29
	if v >= -limit && v < limit {
		b.WriteInt32(int32(v << 1))
		return
	}
	b.WriteByte_(0x01)
	b.WriteInt64(v)
}

func (b *ByteBuffer) ReadTaggedInt64() int64 {
	first := b.ReadByte_()
	if first&1 == 0 {
		b.readerIndex--
		return int64(b.ReadInt32() >> 1)
	}
	if first != 0x01 {
		panic(invalidDataErr("tagged_i64: unexpected tag byte %d", first))
	}
	return b.ReadInt64()
}

// WriteTaggedUint64 stores values <= MaxInt32 in 4 bytes (low bit 0).
func (b *ByteBuffer) WriteTaggedUint64(v uint64) {
	if v <= math.MaxInt32 {
		b.WriteInt32(int32(v << 1))
		return
	}
	b.WriteByte_(0x01)
	b.WriteInt64(int64(v))
}

func (b *ByteBuffer) ReadTaggedUint64() uint64 {
	first := b.ReadByte_()
	if first&1 == 0 {
		b.readerIndex--
		return uint64(uint32(b.ReadInt32()) >> 1)
	}
	if first != 0x01 {
		panic(invalidDataErr("tagged_u64: unexpected tag byte %d", first))
	}
	return uint64(b.ReadInt64())
}

// WriteAlignedVarUint32 zero-pads to a 4-byte boundary: bit 6 marks the
// last data byte, bit 7 marks continuation, at most 3 padding bytes follow.
func (b *ByteBuffer) WriteAlignedVarUint32(v uint32) {
	start := b.writerIndex
	for {
		chunk := byte(v & 0x3f)
		v >>= 6
		if v == 0 {
			b.WriteByte_(chunk | 0x40)
			break
		}
		b.WriteByte_(chunk | 0x80)
	}
	written := b.writerIndex - start
	if pad := (4 - written%4) % 4; pad > 0 {
		for i := 0; i < pad; i++ {
			b.WriteByte_(0)
		}
	}
}

func (b *ByteBuffer) ReadAlignedVarUint32() uint32 {
	var result uint32
	var shift uint
	count := 0
	for {
		b_ := b.ReadByte_()
		count++
		result |= uint32(b_&0x3f) << shift
		shift += 6
		if b_&0x40 != 0 {
			break
		}
		if b_&0x80 == 0 {
			panic(invalidDataErr("aligned varint: data byte missing continuation or last-byte marker"))
		}
	}
	if pad := count % 4; pad != 0 {
		remaining := 4 - pad
		if remaining > 3 {
			panic(invalidDataErr("aligned varint: padding byte count >3"))
		}
		for i := 0; i < remaining; i++ {
			if b.ReadByte_() != 0 {
				panic(invalidDataErr("aligned varint: non-zero padding byte"))
			}
		}
	}
	return result
}

// unsafeGetBytes views a Go string's bytes without copying. Safe because
// the codec only ever reads from the result before the string itself goes
// out of scope.
func unsafeGetBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
