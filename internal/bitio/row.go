// Copyright 2016 Michael Stapelberg and contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bitio implements the bit-level primitives of the G4 encoder: a
// scanner over one row of 1-bit pixels and a packer for variable-width
// codes.
package bitio

// Row is one row of 1-bit pixels, most significant bit first within each
// byte. The backing storage may be longer than the row; bits beyond Len()
// are padding and never looked at.
type Row struct {
	buf    []byte
	length int
}

// NewRow returns a Row of length pixels backed by buf, which must hold at
// least length bits.
func NewRow(buf []byte, length int) *Row {
	if length < 0 || length > 8*len(buf) {
		panic("bitio: row length exceeds buffer")
	}
	return &Row{buf: buf, length: length}
}

// Len returns the number of pixels in the row.
func (r *Row) Len() int { return r.length }

// Bytes returns the backing storage, so that callers can fill the row in
// place (e.g. with io.ReadFull).
func (r *Row) Bytes() []byte { return r.buf }

// Fill sets every bit of the backing storage, padding included, to bit.
func (r *Row) Fill(bit bool) {
	var b byte
	if bit {
		b = 0xff
	}
	for i := range r.buf {
		r.buf[i] = b
	}
}

// Bit returns pixel i. It panics unless 0 <= i < Len().
func (r *Row) Bit(i int) bool {
	if i < 0 || i >= r.length {
		panic("bitio: bit index out of range")
	}
	return r.buf[i>>3]&(0x80>>uint(i&7)) != 0
}

// NextChangingElement returns the position of the first pixel after start
// which has the value target and which is preceded by at least one change
// of value since start. The pixel at start provides the initial value;
// start == -1 denotes an imaginary pixel with value true in front of the
// row.
//
// Len() is returned when no such pixel exists, and when start == Len().
func (r *Row) NextChangingElement(start int, target bool) int {
	if start >= r.length {
		return r.length
	}
	ref := true
	if start > -1 {
		ref = r.Bit(start)
	}
	changed := false
	for i := start + 1; i < r.length; i++ {
		b := r.buf[i>>3]&(0x80>>uint(i&7)) != 0
		if b != ref {
			changed = true
		}
		if changed && b == target {
			return i
		}
	}
	return r.length
}
