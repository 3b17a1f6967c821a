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

import "github.com/go-fory/fory/go/fory/meta"

// meta_Encoding mirrors meta.Encoding locally so type_meta.go's wire-level
// helpers don't need to import the meta package directly for the 2-bit
// selector stored in a field header.
type meta_Encoding = meta.Encoding

// msEncoder pairs a role-specific meta.Encoder (namespace, type name, field
// name each use their own special-character pair) with the stream's
// MetaStringResolver so repeated identifiers use the shared-meta
// back-reference marker instead of being packed again.
type msEncoder struct {
	enc      *meta.Encoder
	resolver *MetaStringResolver
}

func newMsEncoder(special1, special2 byte, resolver *MetaStringResolver) *msEncoder {
	return &msEncoder{enc: meta.NewEncoder(special1, special2), resolver: resolver}
}

func (e *msEncoder) writeString(buf *ByteBuffer, s string) error {
	ms, err := e.enc.Encode(s)
	if err != nil {
		return err
	}
	msb := e.resolver.GetMetaStrBytes(&ms)
	return e.resolver.WriteMetaStringBytes(buf, msb)
}

// msDecoder is writeString's mirror.
type msDecoder struct {
	dec      *meta.Decoder
	resolver *MetaStringResolver
}

func newMsDecoder(special1, special2 byte, resolver *MetaStringResolver) *msDecoder {
	return &msDecoder{dec: meta.NewDecoder(special1, special2), resolver: resolver}
}

func (d *msDecoder) readString(buf *ByteBuffer) string {
	msb, err := d.resolver.ReadMetaStringBytes(buf)
	if err != nil {
		return ""
	}
	s, _ := d.dec.Decode(msb.Data, msb.Encoding)
	return s
}
