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

package bitio

import "io"

// Writer packs variable-width codes into bytes, most significant bit
// first. Complete bytes are handed to the underlying io.Writer as soon as
// they are available; fewer than 8 bits remain buffered until Flush.
type Writer struct {
	w       io.Writer
	current uint64 // the low numbits bits are pending
	numbits uint   // < 8 between calls
	written int64
	buf     [8]byte
}

// NewWriter returns a ready-to-use Writer, writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write appends the low n (≤ 32) bits of value.
func (w *Writer) Write(value uint32, n uint) error {
	if n > 32 {
		panic("bitio: more than 32 bits per Write")
	}
	w.current = (w.current << n) | (uint64(value) & (1<<n - 1))
	w.numbits += n
	if w.numbits < 8 {
		return nil
	}
	// At most 7+32 bits are pending, i.e. at most 4 complete bytes.
	bytes := w.numbits / 8
	for i := uint(0); i < bytes; i++ {
		w.buf[i] = byte(w.current >> (w.numbits - 8*(i+1)))
	}
	w.numbits -= 8 * bytes
	w.current &= 1<<w.numbits - 1
	return w.emit(w.buf[:bytes])
}

// Flush writes the pending bits (if any), padding the last byte with zero
// bits.
func (w *Writer) Flush() error {
	if w.numbits == 0 {
		return nil
	}
	w.buf[0] = byte(w.current << (8 - w.numbits))
	w.current = 0
	w.numbits = 0
	return w.emit(w.buf[:1])
}

// Written returns the number of bytes accepted by the underlying
// io.Writer.
func (w *Writer) Written() int64 { return w.written }

func (w *Writer) emit(b []byte) error {
	n, err := w.w.Write(b)
	w.written += int64(n)
	return err
}
