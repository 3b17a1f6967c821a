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
	"github.com/go-fory/fory/go/fory/meta"
	"github.com/spaolacci/murmur3"
)

// MetaStringBytes is the resolver-wide cached, hashed form of a MetaString:
// its hash is computed once per original string and the same instance is
// reused across every stream.
type MetaStringBytes struct {
	Data      []byte
	Encoding  meta.Encoding
	Hashcode  int64
}

func newMetaStringBytes(ms *meta.MetaString) *MetaStringBytes {
	h := murmur3.Sum64WithSeed(ms.Bytes, 47)
	return &MetaStringBytes{Data: ms.Bytes, Encoding: ms.Encoding, Hashcode: int64(h)}
}

// MetaStringResolver caches encoded MetaStrings for an owning TypeResolver
// (process-wide, keyed by original string) and additionally tracks, per
// stream, which ones have already been written/read so later occurrences
// can use the shared-meta back-reference marker instead of resending the
// full identifier.
type MetaStringResolver struct {
	cache map[string]*MetaStringBytes

	// per-stream shared-meta tables, reset via resetWrite/resetRead.
	writeIndex map[int64]int32
	readTable  []*MetaStringBytes
}

func NewMetaStringResolver() *MetaStringResolver {
	return &MetaStringResolver{
		cache:      make(map[string]*MetaStringBytes),
		writeIndex: make(map[int64]int32),
	}
}

// GetMetaStrBytes returns the cached form for the already-encoded ms,
// hashing and caching it on first use of ms.Original.
func (r *MetaStringResolver) GetMetaStrBytes(ms *meta.MetaString) *MetaStringBytes {
	if cached, ok := r.cache[ms.Original]; ok {
		return cached
	}
	msb := newMetaStringBytes(ms)
	r.cache[ms.Original] = msb
	return msb
}

// WriteMetaStringBytes emits the shared-meta marker for msb: a
// varuint32((index<<1)|1) back-reference if already seen this stream,
// else varuint32(n<<1) followed by the encoding byte, payload length and
// bytes.
func (r *MetaStringResolver) WriteMetaStringBytes(buffer *ByteBuffer, msb *MetaStringBytes) error {
	if idx, ok := r.writeIndex[msb.Hashcode]; ok {
		buffer.WriteVarUint32(uint32((idx << 1) | 1))
		return nil
	}
	idx := int32(len(r.writeIndex))
	r.writeIndex[msb.Hashcode] = idx
	buffer.WriteVarUint32(uint32(idx << 1))
	buffer.WriteByte_(byte(msb.Encoding))
	buffer.WriteVarUint32(uint32(len(msb.Data)))
	buffer.WriteBinary(msb.Data)
	return nil
}

// ReadMetaStringBytes is WriteMetaStringBytes's mirror.
func (r *MetaStringResolver) ReadMetaStringBytes(buffer *ByteBuffer) (*MetaStringBytes, error) {
	marker := buffer.ReadVarUint32()
	if marker&1 == 1 {
		idx := int(marker >> 1)
		if idx >= len(r.readTable) {
			return nil, refErr("meta string back-reference %d >= table length %d", idx, len(r.readTable))
		}
		return r.readTable[idx], nil
	}
	encoding := meta.Encoding(buffer.ReadByte_())
	length := int(buffer.ReadVarUint32())
	data := buffer.ReadBinary(length)
	h := murmur3.Sum64WithSeed(data, 47)
	msb := &MetaStringBytes{Data: data, Encoding: encoding, Hashcode: int64(h)}
	r.readTable = append(r.readTable, msb)
	return msb, nil
}

func (r *MetaStringResolver) resetWrite() {
	if len(r.writeIndex) > 0 {
		r.writeIndex = make(map[int64]int32)
	}
}

func (r *MetaStringResolver) resetRead() {
	if len(r.readTable) > 0 {
		r.readTable = nil
	}
}
