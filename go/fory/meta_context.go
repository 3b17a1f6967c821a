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

// MetaContext deduplicates TypeMeta across a single stream using the
// same shared-meta marker as MetaStringResolver: the first occurrence of
// a given type writes its full envelope, later occurrences in the same
// stream write only a back-reference index.
type MetaContext struct {
	namespaceEnc *msEncoder
	typeNameEnc  *msEncoder
	fieldNameEnc *msEncoder
	namespaceDec *msDecoder
	typeNameDec  *msDecoder
	fieldNameDec *msDecoder

	writeIndex map[string]int32
	writeOrder []*TypeMeta
	readTable  []*TypeMeta
}

func NewMetaContext(resolver *MetaStringResolver) *MetaContext {
	return &MetaContext{
		namespaceEnc: newMsEncoder('.', '_', resolver),
		typeNameEnc:  newMsEncoder('$', '_', resolver),
		fieldNameEnc: newMsEncoder('$', '_', resolver),
		namespaceDec: newMsDecoder('.', '_', resolver),
		typeNameDec:  newMsDecoder('$', '_', resolver),
		fieldNameDec: newMsDecoder('$', '_', resolver),
		writeIndex:   make(map[string]int32),
	}
}

func typeMetaKey(tm *TypeMeta) string {
	if tm.RegisterByName {
		return tm.Namespace + "#" + tm.TypeName
	}
	return "#id#" + string(rune(tm.TypeID))
}

// WriteTypeMeta writes tm's shared-meta marker: varuint32((index<<1)|1)
// as a back-reference if this exact type was already written this
// stream, else varuint32(index<<1) followed by the full envelope.
func (c *MetaContext) WriteTypeMeta(buf *ByteBuffer, tm *TypeMeta) error {
	key := typeMetaKey(tm)
	if idx, ok := c.writeIndex[key]; ok {
		buf.WriteVarUint32(uint32((idx << 1) | 1))
		return nil
	}
	idx := int32(len(c.writeOrder))
	c.writeIndex[key] = idx
	c.writeOrder = append(c.writeOrder, tm)
	buf.WriteVarUint32(uint32(idx << 1))
	body := tm.EncodeBody(c.namespaceEnc, c.typeNameEnc, c.fieldNameEnc)
	EncodeEnvelope(buf, body, tm.HasFieldsMeta, tm.Compressed)
	return nil
}

// ReadTypeMeta is WriteTypeMeta's mirror.
func (c *MetaContext) ReadTypeMeta(buf *ByteBuffer) (*TypeMeta, error) {
	marker := buf.ReadVarUint32()
	if marker&1 == 1 {
		idx := int(marker >> 1)
		if idx >= len(c.readTable) {
			return nil, refErr("type meta back-reference %d >= table length %d", idx, len(c.readTable))
		}
		return c.readTable[idx], nil
	}
	body, hasFieldsMeta, compressed, err := DecodeEnvelope(buf)
	if err != nil {
		return nil, err
	}
	bodyBuf := NewByteBuffer(body)
	tm, err := DecodeBody(bodyBuf, c.namespaceDec, c.typeNameDec, c.fieldNameDec)
	if err != nil {
		return nil, err
	}
	tm.HasFieldsMeta = hasFieldsMeta
	tm.Compressed = compressed
	c.readTable = append(c.readTable, tm)
	return tm, nil
}

func (c *MetaContext) resetWrite() {
	if len(c.writeIndex) > 0 {
		c.writeIndex = make(map[string]int32)
		c.writeOrder = nil
	}
}

func (c *MetaContext) resetRead() {
	if len(c.readTable) > 0 {
		c.readTable = nil
	}
}
