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

// Package g4 implements data encoding using the CCITT (renamed to ITU-T in
// 1993) fax standard in its Group 4 variant, i.e. two-dimensional coding
// of every row relative to the previous one.
//
// It follows the standard ITU-T T.6 (11/88):
// https://www.itu.int/rec/T-REC-T.6-198811-I/en
//
// The encoder reads 1-bit pixels from a seekable source laid out like the
// pixel array of an uncompressed 1-bit BMP file: rows padded to 4 bytes,
// most significant bit first, stored bottom-up. It writes a raw T.6 bit
// stream (no TIFF or fax headers), terminated by an End-Of-Facsimile-Block
// and padded with zero bits to a byte boundary.
package g4

import (
	"errors"
	"fmt"
	"io"

	"github.com/stapelberg/faxg4/internal/bitio"
)

// MaxWidth is the widest row Encode accepts, in pixels.
const MaxWidth = 1 << 20

var (
	// ErrInvalidDimensions is returned for non-positive or excessive image
	// dimensions and negative source offsets.
	ErrInvalidDimensions = errors.New("g4: invalid image dimensions")

	// ErrTruncatedInput is returned when the pixel source ends before the
	// last row of the image.
	ErrTruncatedInput = errors.New("g4: pixel source too short")

	// ErrSinkWrite is returned (wrapping the underlying error) when the
	// output io.Writer fails.
	ErrSinkWrite = errors.New("g4: writing output failed")
)

// RowBytes returns the size of one source row of width pixels, which is
// padded to a multiple of 4 bytes.
func RowBytes(width int) int {
	return ((width + 31) / 32) * 4
}

// Stats counts the code words an Encoder emitted.
type Stats struct {
	Rows        int
	Pass        int
	Horizontal  int
	Vertical    [7]int // indexed by b1 - a1 + 3
	MakeUp      int    // make-up codes within horizontal mode
	Terminating int    // terminating codes within horizontal mode
	Bytes       int64
}

// Add adds the counters of o to s.
func (s *Stats) Add(o *Stats) {
	s.Rows += o.Rows
	s.Pass += o.Pass
	s.Horizontal += o.Horizontal
	for i, n := range o.Vertical {
		s.Vertical[i] += n
	}
	s.MakeUp += o.MakeUp
	s.Terminating += o.Terminating
	s.Bytes += o.Bytes
}

// VerticalTotal returns the number of vertical mode codes.
func (s *Stats) VerticalTotal() int {
	var n int
	for _, v := range s.Vertical {
		n += v
	}
	return n
}

func (s *Stats) count(st step, codes int) {
	switch st.Mode {
	case Pass:
		s.Pass++
	case Vertical:
		s.Vertical[st.B1-st.A1+3]++
	case Horizontal:
		s.Horizontal++
		s.Terminating += 2
		s.MakeUp += codes - 3
	}
}

// Options configures an Encoder.
type Options struct {
	// Stats, if non-nil, is updated with the code words of every encoded
	// image.
	Stats *Stats
}

// Encoder is a Group 4 fax encoder.
type Encoder struct {
	w     io.Writer
	stats *Stats
	codes []code // scratch space for the codes of one step
}

// NewEncoder returns a ready-to-use Encoder, writing to w. opts may be
// nil.
func NewEncoder(w io.Writer, opts *Options) *Encoder {
	e := &Encoder{
		w:     w,
		codes: make([]code, 0, 16),
	}
	if opts != nil {
		e.stats = opts.Stats
	}
	return e
}

// Encode compresses the width×height image whose bottom row starts at
// offset in src. It only ever appends to the Encoder's writer and returns
// the number of bytes appended by this call, which is also returned (as
// far as it got) on error.
func (e *Encoder) Encode(src io.ReadSeeker, offset int64, width, height int) (int64, error) {
	if width <= 0 || height <= 0 || width > MaxWidth {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if offset < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrInvalidDimensions, offset)
	}
	rowBytes := RowBytes(width)

	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("determining pixel source size: %w", err)
	}
	if need := offset + int64(rowBytes)*int64(height); size < need {
		return 0, fmt.Errorf("%w: %dx%d image needs %d bytes starting at offset %d, source has %d",
			ErrTruncatedInput, width, height, need-offset, offset, size)
	}

	bw := bitio.NewWriter(e.w)
	var stats Stats
	// rows[cur] is the coding row, rows[1-cur] the reference row. Flipping
	// cur after each row turns the coding row into the next reference row.
	var rows [2]*bitio.Row
	buf := make([]byte, 2*rowBytes)
	rows[0] = bitio.NewRow(buf[:rowBytes], width)
	rows[1] = bitio.NewRow(buf[rowBytes:], width)
	cur := 0
	// T.6 2.2.1: the reference line for the first coding line is an
	// imaginary white line.
	rows[1-cur].Fill(White.bit())

	for y := 0; y < height; y++ {
		coding := rows[cur]
		// Rows are stored bottom-up: the first row to encode is the last
		// one in src.
		rowOffset := offset + int64(rowBytes)*int64(height-1-y)
		if _, err := src.Seek(rowOffset, io.SeekStart); err != nil {
			return bw.Written(), fmt.Errorf("seeking to row %d: %w", y, err)
		}
		if _, err := io.ReadFull(src, coding.Bytes()); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return bw.Written(), fmt.Errorf("%w: reading row %d at offset %d: %v", ErrTruncatedInput, y, rowOffset, err)
			}
			return bw.Written(), fmt.Errorf("reading row %d: %w", y, err)
		}

		if err := e.encodeRow(bw, coding, rows[1-cur], &stats); err != nil {
			return bw.Written(), fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
		stats.Rows++
		cur = 1 - cur
	}

	// End-Of-Facsimile-Block (T.6 2.4): two consecutive EOL codes.
	for i := 0; i < 2; i++ {
		if err := bw.Write(endOfLine.Value, endOfLine.Length); err != nil {
			return bw.Written(), fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return bw.Written(), fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}

	stats.Bytes = bw.Written()
	if e.stats != nil {
		e.stats.Add(&stats)
	}
	return bw.Written(), nil
}

// encodeRow codes the changing elements of coding relative to reference.
func (e *Encoder) encodeRow(bw *bitio.Writer, coding, reference *bitio.Row, stats *Stats) error {
	width := coding.Len()
	a0, color := -1, White
	for a0 < width {
		s := nextStep(coding, reference, a0, color)
		e.codes = s.appendCodes(e.codes[:0])
		for _, c := range e.codes {
			if err := bw.Write(c.Value, c.Length); err != nil {
				return err
			}
		}
		stats.count(s, len(e.codes))
		a0, color = s.Next, s.Color
	}
	return nil
}

// Encode compresses an image from src to w using a fresh Encoder. See
// Encoder.Encode.
func Encode(src io.ReadSeeker, offset int64, width, height int, w io.Writer) (int64, error) {
	return NewEncoder(w, nil).Encode(src, offset, width, height)
}
